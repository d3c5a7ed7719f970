package report

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter decides whether a section, identified by its relativized path,
// is kept in a report.
type PathFilter interface {
	Keep(path string) bool
}

// PathFilterFunc adapts a function to PathFilter.
type PathFilterFunc func(path string) bool

func (f PathFilterFunc) Keep(path string) bool { return f(path) }

// GlobFilter keeps the paths matching at least one include pattern (every
// path when there is none) and no exclude pattern. Patterns use the
// doublestar syntax; a pattern without "/" is also tried on the base name.
type GlobFilter struct {
	include []string
	exclude []string
}

// NewGlobFilter validates the patterns and creates a GlobFilter.
func NewGlobFilter(include, exclude []string) (*GlobFilter, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return &GlobFilter{
		include: append([]string{}, include...),
		exclude: append([]string{}, exclude...),
	}, nil
}

// Keep implements PathFilter.
func (f *GlobFilter) Keep(p string) bool {
	for _, pattern := range f.exclude {
		if matchPattern(pattern, p) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, p string) bool {
	if matched, err := doublestar.Match(pattern, p); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if matched, err := doublestar.Match(pattern, path.Base(p)); err == nil && matched {
			return true
		}
	}
	return false
}
