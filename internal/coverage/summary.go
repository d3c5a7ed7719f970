package coverage

// Summary is the branch, function and line coverage of one path.
type Summary struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Branch   Record `json:"branch"`
	Function Record `json:"function"`
	Line     Record `json:"line"`
}

// NewSummary creates a Summary.
func NewSummary(path, name string, branch, function, line Record) Summary {
	return Summary{
		Path:     path,
		Name:     name,
		Branch:   branch,
		Function: function,
		Line:     line,
	}
}

// SourcePath returns the path the summary belongs to.
func (s Summary) SourcePath() string {
	return s.Path
}

// SameIdentity reports whether both summaries describe the same path under
// the same test name.
func (s Summary) SameIdentity(other Summary) bool {
	return s.Path == other.Path && s.Name == other.Name
}

// Combine sums the records of two summaries sharing path and name. Summaries
// with a different identity are never merged: a copy of s is returned.
func (s Summary) Combine(other Summary) Summary {
	if !s.SameIdentity(other) {
		return s.Clone()
	}
	return NewSummary(
		s.Path,
		s.Name,
		s.Branch.Combine(other.Branch),
		s.Function.Combine(other.Function),
		s.Line.Combine(other.Line),
	)
}

// Clone returns a copy of s.
func (s Summary) Clone() Summary {
	return s
}

// DetailedSummary is a Summary that keeps line, function and branch details.
type DetailedSummary struct {
	Path     string                         `json:"path"`
	Name     string                         `json:"name"`
	Branch   DetailedRecord[BranchDetail]   `json:"branch"`
	Function DetailedRecord[FunctionDetail] `json:"function"`
	Line     DetailedRecord[LineDetail]     `json:"line"`
}

// NewDetailedSummary creates a DetailedSummary.
func NewDetailedSummary(
	path, name string,
	branch DetailedRecord[BranchDetail],
	function DetailedRecord[FunctionDetail],
	line DetailedRecord[LineDetail],
) DetailedSummary {
	return DetailedSummary{
		Path:     path,
		Name:     name,
		Branch:   branch,
		Function: function,
		Line:     line,
	}
}

// SourcePath returns the path the summary belongs to.
func (s DetailedSummary) SourcePath() string {
	return s.Path
}

// Combine merges two summaries sharing path and name, counts and details
// alike. A summary with a different identity is not merged: a copy of s is
// returned.
func (s DetailedSummary) Combine(other DetailedSummary) DetailedSummary {
	if s.Path != other.Path || s.Name != other.Name {
		return s.Clone()
	}
	return NewDetailedSummary(
		s.Path,
		s.Name,
		s.Branch.Combine(other.Branch),
		s.Function.Combine(other.Function),
		s.Line.Combine(other.Line),
	)
}

// Clone returns a deep copy of s.
func (s DetailedSummary) Clone() DetailedSummary {
	return NewDetailedSummary(
		s.Path,
		s.Name,
		s.Branch.Clone(),
		s.Function.Clone(),
		s.Line.Clone(),
	)
}

// Summary drops the details and returns the counts only.
func (s DetailedSummary) Summary() Summary {
	return NewSummary(s.Path, s.Name, s.Branch.Plain(), s.Function.Plain(), s.Line.Plain())
}
