// Package report assembles the sections of an LCOV tracefile into reports.
//
// Three report shapes exist, selected by Mode:
//
//	simple  Report      path -> Summary
//	detail  FlatReport  path -> DetailedSummary
//	tree    TreeReport  directory tree of DetailedSummary leaves
//
// Every report is a snapshot: it is deep copied on construction and never
// changes when the builder that produced it keeps parsing.
package report

import (
	"errors"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
)

var (
	// ErrNoData is returned when a report is built before any section ended.
	ErrNoData = errors.New("unable to build report: not enough data")
	// ErrNodeLeafConflict is returned when a tree node and a leaf summary
	// collide at the same key.
	ErrNodeLeafConflict = errors.New("cannot combine a node and a summary at the same path")
	// ErrEmptyNode is returned when a tree node without children is built.
	ErrEmptyNode = errors.New("unable to build tree report node: not enough data")
)

// Document is the part common to every report shape.
type Document interface {
	// Mode returns the shape of the report.
	Mode() Mode
	// TotalSummary returns the grand total of every section.
	TotalSummary() coverage.Summary
	// PathList returns the section paths in first-seen order.
	PathList() []string
	// PathSummary returns the counts recorded for one section path.
	PathSummary(path string) (coverage.Summary, bool)
}

// Report maps every section path to its Summary.
type Report struct {
	Total   coverage.Summary            `json:"total"`
	Paths   []string                    `json:"paths"`
	Details map[string]coverage.Summary `json:"details"`
}

// NewReport creates a Report holding copies of its arguments.
func NewReport(total coverage.Summary, paths []string, details map[string]coverage.Summary) *Report {
	r := &Report{
		Total:   total.Clone(),
		Paths:   append([]string{}, paths...),
		Details: make(map[string]coverage.Summary, len(details)),
	}
	for path, s := range details {
		r.Details[path] = s.Clone()
	}
	return r
}

func (r *Report) Mode() Mode                     { return ModeSimple }
func (r *Report) TotalSummary() coverage.Summary { return r.Total }
func (r *Report) PathList() []string             { return append([]string{}, r.Paths...) }

func (r *Report) PathSummary(path string) (coverage.Summary, bool) {
	s, ok := r.Details[path]
	return s, ok
}

// FlatReport maps every section path to its DetailedSummary.
type FlatReport struct {
	Total   coverage.Summary                    `json:"total"`
	Paths   []string                            `json:"paths"`
	Details map[string]coverage.DetailedSummary `json:"details"`
}

// NewFlatReport creates a FlatReport holding deep copies of its arguments.
func NewFlatReport(total coverage.Summary, paths []string, details map[string]coverage.DetailedSummary) *FlatReport {
	r := &FlatReport{
		Total:   total.Clone(),
		Paths:   append([]string{}, paths...),
		Details: make(map[string]coverage.DetailedSummary, len(details)),
	}
	for path, s := range details {
		r.Details[path] = s.Clone()
	}
	return r
}

func (r *FlatReport) Mode() Mode                     { return ModeDetail }
func (r *FlatReport) TotalSummary() coverage.Summary { return r.Total }
func (r *FlatReport) PathList() []string             { return append([]string{}, r.Paths...) }

func (r *FlatReport) PathSummary(path string) (coverage.Summary, bool) {
	s, ok := r.Details[path]
	if !ok {
		return coverage.Summary{}, false
	}
	return s.Summary(), true
}

// TreeReport holds the sections grouped by directory. Details is the top
// level of the tree; Paths still lists every section path.
type TreeReport struct {
	Total   coverage.Summary     `json:"total"`
	Paths   []string             `json:"paths"`
	Details map[string]TreeEntry `json:"details"`
}

// NewTreeReport creates a TreeReport holding deep copies of its arguments.
func NewTreeReport(total coverage.Summary, paths []string, details map[string]TreeEntry) *TreeReport {
	r := &TreeReport{
		Total:   total.Clone(),
		Paths:   append([]string{}, paths...),
		Details: make(map[string]TreeEntry, len(details)),
	}
	for key, e := range details {
		r.Details[key] = e.cloneEntry()
	}
	return r
}

func (r *TreeReport) Mode() Mode                     { return ModeTree }
func (r *TreeReport) TotalSummary() coverage.Summary { return r.Total }
func (r *TreeReport) PathList() []string             { return append([]string{}, r.Paths...) }

// PathSummary looks the leaf of path up anywhere in the tree.
func (r *TreeReport) PathSummary(path string) (coverage.Summary, bool) {
	for _, e := range r.Details {
		if leaf, ok := findLeaf(e, path); ok {
			return leaf.Summary(), true
		}
	}
	return coverage.Summary{}, false
}
