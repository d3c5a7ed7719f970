package lcov

import (
	"fmt"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
	"github.com/zjy-dev/lcov-parse/internal/relpath"
)

// SummaryBuilder builds the Summary of one section from its LCOV lines.
// Only the summary counts are read; detail lines are ignored.
type SummaryBuilder struct {
	rootDirectory string

	filePath string
	name     string

	functionHits  int
	functionTotal int
	lineHits      int
	lineTotal     int
	branchHits    int
	branchTotal   int

	ready bool
}

// NewSummaryBuilder creates a SummaryBuilder relativizing every source file
// path against rootDirectory.
func NewSummaryBuilder(rootDirectory string) *SummaryBuilder {
	return &SummaryBuilder{rootDirectory: rootDirectory}
}

// Parse consumes one line. Blank lines, unknown tags and malformed values are
// ignored.
func (b *SummaryBuilder) Parse(line string) {
	tag, content, ok := SplitLine(line)
	if !ok {
		return
	}
	b.parseField(tag, content)
}

func (b *SummaryBuilder) parseField(tag, content string) {
	switch tag {
	case TagTestName:
		if content != "" {
			b.name = content
		}
	case TagSourceFile:
		b.filePath = relpath.Relative(b.rootDirectory, content)
		if b.filePath == "" {
			b.filePath = "/"
		}
	case TagFunctionFoundCount:
		setInt(&b.functionTotal, content)
	case TagFunctionHitCount:
		setInt(&b.functionHits, content)
	case TagLineFoundCount:
		setInt(&b.lineTotal, content)
	case TagLineHitCount:
		setInt(&b.lineHits, content)
	case TagBranchFoundCount:
		setInt(&b.branchTotal, content)
	case TagBranchHitCount:
		setInt(&b.branchHits, content)
	case TagEndOfRecord:
		b.ready = true
	}
}

// CanBuild reports whether end_of_record has been parsed.
func (b *SummaryBuilder) CanBuild() bool {
	return b.ready
}

// FilePath returns the relativized source file path parsed so far.
func (b *SummaryBuilder) FilePath() string {
	return b.filePath
}

// Build returns the Summary of the section. It fails with
// ErrIncompleteSection until end_of_record has been parsed.
func (b *SummaryBuilder) Build() (coverage.Summary, error) {
	if !b.ready {
		return coverage.Summary{}, fmt.Errorf("section %q: %w", b.filePath, ErrIncompleteSection)
	}
	return coverage.NewSummary(
		b.filePath,
		b.name,
		coverage.NewRecord(b.branchTotal, b.branchHits),
		coverage.NewRecord(b.functionTotal, b.functionHits),
		coverage.NewRecord(b.lineTotal, b.lineHits),
	), nil
}

// setInt stores the value of s into dst, leaving dst untouched when s is not
// a number.
func setInt(dst *int, s string) {
	if n, ok := parseInt(s); ok {
		*dst = n
	}
}
