package lcov

import (
	"fmt"
	"strings"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
)

type branchKey struct {
	line  int
	block int
}

// DetailedSummaryBuilder builds a DetailedSummary of one section. On top of
// the summary counts it reads FN, FNDA, DA and BRDA lines.
type DetailedSummaryBuilder struct {
	summary SummaryBuilder

	// insertion ordered, indexed by function name
	functions     []coverage.FunctionDetail
	functionIndex map[string]int

	lines     []coverage.LineDetail
	lineIndex map[int]int

	branches    []coverage.BranchDetail
	branchIndex map[branchKey]int
}

// NewDetailedSummaryBuilder creates a DetailedSummaryBuilder relativizing
// every source file path against rootDirectory.
func NewDetailedSummaryBuilder(rootDirectory string) *DetailedSummaryBuilder {
	return &DetailedSummaryBuilder{
		summary:       SummaryBuilder{rootDirectory: rootDirectory},
		functionIndex: make(map[string]int),
		lineIndex:     make(map[int]int),
		branchIndex:   make(map[branchKey]int),
	}
}

// Parse consumes one line. Blank lines, unknown tags and malformed values are
// ignored.
func (b *DetailedSummaryBuilder) Parse(line string) {
	tag, content, ok := SplitLine(line)
	if !ok {
		return
	}
	b.summary.parseField(tag, content)

	switch tag {
	case TagFunctionName:
		b.parseFunctionName(content)
	case TagFunctionCovered:
		b.parseFunctionCovered(content)
	case TagCoveredLine:
		b.parseCoveredLine(content)
	case TagBranchCovered:
		b.parseBranchCovered(content)
	}
}

// FN:<line>,<name> sets the line of a function, keeping its execution count.
func (b *DetailedSummaryBuilder) parseFunctionName(content string) {
	lineStr, name, _ := strings.Cut(content, ",")
	lineNumber, ok := parseInt(lineStr)
	if !ok {
		return
	}
	fd := coverage.NewFunctionDetail(lineNumber, 0, name)
	if i, found := b.functionIndex[fd.Name]; found {
		fd.ExecutionCount = b.functions[i].ExecutionCount
		b.functions[i] = fd
		return
	}
	b.functionIndex[fd.Name] = len(b.functions)
	b.functions = append(b.functions, fd)
}

// FNDA:<count>,<name> sets the execution count of a function, keeping its
// line. A function seen here first gets line -1.
func (b *DetailedSummaryBuilder) parseFunctionCovered(content string) {
	countStr, name, _ := strings.Cut(content, ",")
	count, ok := parseInt(countStr)
	if !ok {
		return
	}
	fd := coverage.NewFunctionDetail(-1, count, name)
	if i, found := b.functionIndex[fd.Name]; found {
		fd.LineNumber = b.functions[i].LineNumber
		b.functions[i] = fd
		return
	}
	b.functionIndex[fd.Name] = len(b.functions)
	b.functions = append(b.functions, fd)
}

// DA:<line>,<count>[,<checksum>] replaces the detail of the line.
func (b *DetailedSummaryBuilder) parseCoveredLine(content string) {
	values, ok := parseInts(content, 2)
	if !ok {
		return
	}
	d := coverage.NewLineDetail(values[0], values[1])
	if i, found := b.lineIndex[d.LineNumber]; found {
		b.lines[i] = d
		return
	}
	b.lineIndex[d.LineNumber] = len(b.lines)
	b.lines = append(b.lines, d)
}

// BRDA:<line>,<block>,<branch>,<taken> adds taken to the branch of the block.
// Extra fields are ignored. A line whose first four fields are not all
// integers, like a taken of "-", or that holds a negative branch or count is
// dropped.
func (b *DetailedSummaryBuilder) parseBranchCovered(content string) {
	values, ok := parseInts(content, 4)
	if !ok {
		return
	}

	key := branchKey{line: values[0], block: values[1]}
	i, found := b.branchIndex[key]
	bd := coverage.NewBranchDetail(key.line, key.block)
	if found {
		bd = b.branches[i]
	}
	if err := bd.AddBranchExecutionCount(values[2], values[3]); err != nil {
		return
	}

	if found {
		b.branches[i] = bd
		return
	}
	b.branchIndex[key] = len(b.branches)
	b.branches = append(b.branches, bd)
}

// CanBuild reports whether end_of_record has been parsed.
func (b *DetailedSummaryBuilder) CanBuild() bool {
	return b.summary.CanBuild()
}

// FilePath returns the relativized source file path parsed so far.
func (b *DetailedSummaryBuilder) FilePath() string {
	return b.summary.FilePath()
}

// Build returns the DetailedSummary of the section. It fails with
// ErrIncompleteSection until end_of_record has been parsed.
func (b *DetailedSummaryBuilder) Build() (coverage.DetailedSummary, error) {
	s := &b.summary
	if !s.ready {
		return coverage.DetailedSummary{}, fmt.Errorf("section %q: %w", s.filePath, ErrIncompleteSection)
	}
	return coverage.NewDetailedSummary(
		s.filePath,
		s.name,
		coverage.NewDetailedRecord(s.branchTotal, s.branchHits, b.branches...),
		coverage.NewDetailedRecord(s.functionTotal, s.functionHits, b.functions...),
		coverage.NewDetailedRecord(s.lineTotal, s.lineHits, b.lines...),
	), nil
}
