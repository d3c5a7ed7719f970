// Package parser feeds LCOV tracefiles from strings, files and readers into
// a report assembler.
package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zjy-dev/lcov-parse/internal/logger"
	"github.com/zjy-dev/lcov-parse/internal/report"
)

// Options configures a parse.
type Options struct {
	// RootDirectory is the base every source file path is made relative to.
	RootDirectory string
	// Mode selects the report shape.
	Mode report.Mode
	// Include and Exclude are glob patterns matched against relativized
	// source file paths. Empty Include keeps everything.
	Include []string
	Exclude []string
}

// NewAssembler creates the assembler described by opts.
func NewAssembler(opts Options) (report.Assembler, error) {
	var assemblerOpts []report.Option
	if len(opts.Include) > 0 || len(opts.Exclude) > 0 {
		filter, err := report.NewGlobFilter(opts.Include, opts.Exclude)
		if err != nil {
			return nil, err
		}
		assemblerOpts = append(assemblerOpts, report.WithPathFilter(filter))
	}
	return report.NewAssembler(opts.Mode, opts.RootDirectory, assemblerOpts...)
}

// ParseContent parses a whole tracefile held in memory.
func ParseContent(content string, opts Options) (report.Document, error) {
	a, err := NewAssembler(opts)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(content, "\n") {
		a.Parse(strings.TrimSpace(line))
	}
	return a.Document()
}

// ParseFile parses the tracefile at path.
func ParseFile(ctx context.Context, path string, opts Options) (report.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracefile: %w", err)
	}
	defer f.Close()

	doc, err := ParseReader(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// ParseReader parses a tracefile read from r. A read error or a cancelled
// context aborts the parse; no partial report is returned.
func ParseReader(ctx context.Context, r io.Reader, opts Options) (report.Document, error) {
	a, err := NewAssembler(opts)
	if err != nil {
		return nil, err
	}

	lines, errc := Lines(ctx, r)
	count := 0
	for line := range lines {
		a.Parse(line)
		count++
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	logger.Debug("Parsed %d lines in %s mode", count, opts.Mode)
	return a.Document()
}
