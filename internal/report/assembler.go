package report

import (
	"fmt"
	"strings"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
	"github.com/zjy-dev/lcov-parse/internal/lcov"
	"github.com/zjy-dev/lcov-parse/internal/logger"
)

// Assembler is the common interface of ReportBuilder, FlatReportBuilder and
// TreeReportBuilder.
type Assembler interface {
	// Parse consumes one tracefile line. Lines must be fed in order.
	Parse(line string)
	// Document builds the report assembled so far.
	Document() (Document, error)
}

// NewAssembler creates the assembler producing reports of the given mode.
func NewAssembler(mode Mode, rootDirectory string, opts ...Option) (Assembler, error) {
	switch mode {
	case ModeSimple:
		return NewReportBuilder(rootDirectory, opts...), nil
	case ModeDetail:
		return NewFlatReportBuilder(rootDirectory, opts...), nil
	case ModeTree:
		return NewTreeReportBuilder(rootDirectory, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported report mode %s", mode)
	}
}

// Option configures an assembler.
type Option func(*options)

type options struct {
	filter PathFilter
}

// WithPathFilter drops every section whose path is not kept by filter. A
// dropped section counts neither in the details nor in the total.
func WithPathFilter(filter PathFilter) Option {
	return func(o *options) {
		o.filter = filter
	}
}

type sectionBuilder[S any] interface {
	Parse(line string)
	CanBuild() bool
	Build() (S, error)
	FilePath() string
}

type section[S any] interface {
	coverage.Combinable[S]
	SourcePath() string
}

// assembler feeds every line to two section builders: one accumulating the
// grand total and one for the current section.
type assembler[S section[S]] struct {
	rootDirectory string
	newDetail     func(rootDirectory string) sectionBuilder[S]
	filter        PathFilter

	total        *lcov.SummaryBuilder
	totalSummary *coverage.Summary

	detail  sectionBuilder[S]
	paths   []string
	details map[string]S
}

func newAssembler[S section[S]](
	rootDirectory string,
	newDetail func(string) sectionBuilder[S],
	opts []Option,
) assembler[S] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return assembler[S]{
		rootDirectory: rootDirectory,
		newDetail:     newDetail,
		filter:        o.filter,
		total:         lcov.NewSummaryBuilder(rootDirectory),
		detail:        newDetail(rootDirectory),
		details:       make(map[string]S),
	}
}

// Parse consumes one tracefile line. Blank lines are ignored.
func (a *assembler[S]) Parse(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	a.parseTotal(line)
	a.parseDetail(line)
}

func (a *assembler[S]) keep(path string) bool {
	return a.filter == nil || a.filter.Keep(path)
}

func (a *assembler[S]) parseTotal(line string) {
	a.total.Parse(line)
	if !a.total.CanBuild() {
		return
	}
	defer func() {
		a.total = lcov.NewSummaryBuilder(a.rootDirectory)
	}()
	if !a.keep(a.total.FilePath()) {
		return
	}

	// every section is summed under the same identity
	a.total.Parse(lcov.TagTestName + ":root")
	a.total.Parse(lcov.TagSourceFile + ":" + a.rootDirectory)

	summary, err := a.total.Build()
	if err != nil {
		logger.Warn("Failed to build total summary: %v", err)
		return
	}
	if a.totalSummary == nil {
		a.totalSummary = &summary
		return
	}
	combined := a.totalSummary.Combine(summary)
	a.totalSummary = &combined
}

func (a *assembler[S]) parseDetail(line string) {
	a.detail.Parse(line)
	if !a.detail.CanBuild() {
		return
	}
	defer func() {
		a.detail = a.newDetail(a.rootDirectory)
	}()

	summary, err := a.detail.Build()
	if err != nil {
		logger.Warn("Failed to build section summary: %v", err)
		return
	}
	path := summary.SourcePath()
	if !a.keep(path) {
		logger.Debug("Section %s filtered out", path)
		return
	}

	if existing, ok := a.details[path]; ok {
		a.details[path] = existing.Combine(summary)
		logger.Debug("Section %s merged", path)
		return
	}
	a.paths = append(a.paths, path)
	a.details[path] = summary
	logger.Debug("Section %s completed", path)
}

func (a *assembler[S]) ready() error {
	if a.totalSummary == nil {
		return ErrNoData
	}
	return nil
}

// ReportBuilder assembles a Report.
type ReportBuilder struct {
	assembler[coverage.Summary]
}

// NewReportBuilder creates a ReportBuilder relativizing section paths
// against rootDirectory.
func NewReportBuilder(rootDirectory string, opts ...Option) *ReportBuilder {
	return &ReportBuilder{newAssembler(rootDirectory, func(root string) sectionBuilder[coverage.Summary] {
		return lcov.NewSummaryBuilder(root)
	}, opts)}
}

// Build returns a snapshot of the sections parsed so far. It fails with
// ErrNoData until a section has ended.
func (b *ReportBuilder) Build() (*Report, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	return NewReport(*b.totalSummary, b.paths, b.details), nil
}

// Document implements Assembler.
func (b *ReportBuilder) Document() (Document, error) {
	r, err := b.Build()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FlatReportBuilder assembles a FlatReport.
type FlatReportBuilder struct {
	assembler[coverage.DetailedSummary]
}

func newDetailedBuilder(root string) sectionBuilder[coverage.DetailedSummary] {
	return lcov.NewDetailedSummaryBuilder(root)
}

// NewFlatReportBuilder creates a FlatReportBuilder relativizing section
// paths against rootDirectory.
func NewFlatReportBuilder(rootDirectory string, opts ...Option) *FlatReportBuilder {
	return &FlatReportBuilder{newAssembler(rootDirectory, newDetailedBuilder, opts)}
}

// Build returns a snapshot of the sections parsed so far. It fails with
// ErrNoData until a section has ended.
func (b *FlatReportBuilder) Build() (*FlatReport, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	return NewFlatReport(*b.totalSummary, b.paths, b.details), nil
}

// Document implements Assembler.
func (b *FlatReportBuilder) Document() (Document, error) {
	r, err := b.Build()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// TreeReportBuilder assembles a TreeReport.
type TreeReportBuilder struct {
	assembler[coverage.DetailedSummary]
}

// NewTreeReportBuilder creates a TreeReportBuilder relativizing section
// paths against rootDirectory.
func NewTreeReportBuilder(rootDirectory string, opts ...Option) *TreeReportBuilder {
	return &TreeReportBuilder{newAssembler(rootDirectory, newDetailedBuilder, opts)}
}

// Build groups the sections parsed so far into a tree and returns a
// snapshot of it. It fails with ErrNoData until a section has ended.
func (b *TreeReportBuilder) Build() (*TreeReport, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	details, err := GroupTree(b.paths, b.details)
	if err != nil {
		return nil, fmt.Errorf("failed to group sections: %w", err)
	}
	return NewTreeReport(*b.totalSummary, b.paths, details), nil
}

// Document implements Assembler.
func (b *TreeReportBuilder) Document() (Document, error) {
	r, err := b.Build()
	if err != nil {
		return nil, err
	}
	return r, nil
}
