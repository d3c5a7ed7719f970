package coverage

import (
	"fmt"
	"sort"
)

// AnonymousFunction is the name given to a function detail without a name.
const AnonymousFunction = "(anonymous)"

// DetailKey identifies a detail inside a DetailedRecord. Line details only
// use Line, function details add Name and branch details add Block.
type DetailKey struct {
	Line  int
	Block int
	Name  string
}

// Less orders keys by line, then block, then name.
func (k DetailKey) Less(other DetailKey) bool {
	if k.Line != other.Line {
		return k.Line < other.Line
	}
	if k.Block != other.Block {
		return k.Block < other.Block
	}
	return k.Name < other.Name
}

// Detail is the capability set shared by every detail type.
type Detail[T any] interface {
	Cloneable[T]
	Combinable[T]
	Key() DetailKey
}

// LineDetail is the execution count of a single instrumented line.
type LineDetail struct {
	LineNumber     int `json:"lineNumber"`
	ExecutionCount int `json:"executionCount"`
}

// NewLineDetail creates a LineDetail.
func NewLineDetail(lineNumber, executionCount int) LineDetail {
	return LineDetail{LineNumber: lineNumber, ExecutionCount: executionCount}
}

// Key returns the line number as key.
func (d LineDetail) Key() DetailKey {
	return DetailKey{Line: d.LineNumber}
}

// Combine sums execution counts of details on the same line. A detail for a
// different line is not merged; a copy of d is returned instead.
func (d LineDetail) Combine(other LineDetail) LineDetail {
	if d.LineNumber != other.LineNumber {
		return d.Clone()
	}
	return NewLineDetail(d.LineNumber, d.ExecutionCount+other.ExecutionCount)
}

// Clone returns a copy of d.
func (d LineDetail) Clone() LineDetail {
	return d
}

// FunctionDetail is the execution count of a function starting at a line.
type FunctionDetail struct {
	LineNumber     int    `json:"lineNumber"`
	ExecutionCount int    `json:"executionCount"`
	Name           string `json:"name"`
}

// NewFunctionDetail creates a FunctionDetail. An empty name is replaced with
// AnonymousFunction.
func NewFunctionDetail(lineNumber, executionCount int, name string) FunctionDetail {
	if name == "" {
		name = AnonymousFunction
	}
	return FunctionDetail{LineNumber: lineNumber, ExecutionCount: executionCount, Name: name}
}

// Key returns the line number and name as key.
func (d FunctionDetail) Key() DetailKey {
	return DetailKey{Line: d.LineNumber, Name: d.Name}
}

// Combine sums execution counts when both line number and name match,
// otherwise it returns a copy of d.
func (d FunctionDetail) Combine(other FunctionDetail) FunctionDetail {
	if d.LineNumber != other.LineNumber || d.Name != other.Name {
		return d.Clone()
	}
	return NewFunctionDetail(d.LineNumber, d.ExecutionCount+other.ExecutionCount, d.Name)
}

// Clone returns a copy of d.
func (d FunctionDetail) Clone() FunctionDetail {
	return d
}

// BranchDetail holds the execution counts of every branch of one block on a
// line. ExecutionCount is the sum over all branches.
type BranchDetail struct {
	LineNumber     int         `json:"lineNumber"`
	BlockNumber    int         `json:"blockNumber"`
	ExecutionCount int         `json:"executionCount"`
	Branches       map[int]int `json:"branches"`
}

// NewBranchDetail creates a BranchDetail without any branch.
func NewBranchDetail(lineNumber, blockNumber int) BranchDetail {
	return BranchDetail{
		LineNumber:  lineNumber,
		BlockNumber: blockNumber,
		Branches:    make(map[int]int),
	}
}

// AddBranchExecutionCount adds executionCount to branch branchNumber and to
// the total execution count of the block.
func (d *BranchDetail) AddBranchExecutionCount(branchNumber, executionCount int) error {
	if branchNumber < 0 {
		return fmt.Errorf("%w: branchNumber must be >= 0, got %d", ErrInvalidArgument, branchNumber)
	}
	if executionCount < 0 {
		return fmt.Errorf("%w: executionCount must be >= 0, got %d", ErrInvalidArgument, executionCount)
	}
	if d.Branches == nil {
		d.Branches = make(map[int]int)
	}
	d.Branches[branchNumber] += executionCount
	d.ExecutionCount += executionCount
	return nil
}

// BranchExecutionCount returns the execution count of a branch, 0 if the
// branch is unknown.
func (d BranchDetail) BranchExecutionCount(branchNumber int) int {
	return d.Branches[branchNumber]
}

// BranchNumbers returns the known branch numbers in ascending order.
func (d BranchDetail) BranchNumbers() []int {
	numbers := make([]int, 0, len(d.Branches))
	for n := range d.Branches {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Key returns the line and block numbers as key.
func (d BranchDetail) Key() DetailKey {
	return DetailKey{Line: d.LineNumber, Block: d.BlockNumber}
}

// Combine adds the branches of other when line and block numbers match,
// otherwise it returns a copy of d.
func (d BranchDetail) Combine(other BranchDetail) BranchDetail {
	combined := d.Clone()
	if d.LineNumber != other.LineNumber || d.BlockNumber != other.BlockNumber {
		return combined
	}
	for _, n := range other.BranchNumbers() {
		// counts already stored in a BranchDetail are never negative
		_ = combined.AddBranchExecutionCount(n, other.Branches[n])
	}
	return combined
}

// Clone returns a deep copy of d.
func (d BranchDetail) Clone() BranchDetail {
	c := NewBranchDetail(d.LineNumber, d.BlockNumber)
	c.ExecutionCount = d.ExecutionCount
	for n, count := range d.Branches {
		c.Branches[n] = count
	}
	return c
}
