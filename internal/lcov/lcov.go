// Package lcov accumulates the lines of one LCOV tracefile section into a
// coverage summary.
//
// A tracefile is made of sections, each one describing a single source file:
//
//	TN:<test name>
//	SF:<absolute path to the source file>
//	FN:<line number of function start>,<function name>
//	FNDA:<execution count>,<function name>
//	FNF:<number of functions found>
//	FNH:<number of function hit>
//	BRDA:<line number>,<block number>,<branch number>,<taken>
//	BRF:<number of branches found>
//	BRH:<number of branches hit>
//	DA:<line number>,<execution count>[,<checksum>]
//	LH:<number of lines with a non-zero execution count>
//	LF:<number of instrumented lines>
//	end_of_record
//
// Taken is "-" when the block holding the branch was never executed.
package lcov

import (
	"errors"
	"strconv"
	"strings"
)

// Record type tags.
const (
	TagTestName           = "TN"
	TagSourceFile         = "SF"
	TagFunctionName       = "FN"
	TagFunctionCovered    = "FNDA"
	TagFunctionFoundCount = "FNF"
	TagFunctionHitCount   = "FNH"
	TagCoveredLine        = "DA"
	TagBranchCovered      = "BRDA"
	TagBranchFoundCount   = "BRF"
	TagBranchHitCount     = "BRH"
	TagLineFoundCount     = "LF"
	TagLineHitCount       = "LH"
	TagEndOfRecord        = "end_of_record"
)

// ErrIncompleteSection is returned by Build when end_of_record was not parsed.
var ErrIncompleteSection = errors.New("unable to build: end of record not reached")

// SplitLine trims line and splits it on the first colon into a tag and its
// content. The content keeps any further colon, as in "SF:C:\src\a.c".
// ok is false for blank lines.
func SplitLine(line string) (tag, content string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	tag, content, _ = strings.Cut(line, ":")
	return tag, content, true
}

// parseInt reads a base-10 integer the lenient way: surrounding spaces are
// ignored, an optional sign is accepted, and the leading digits are used even
// when trailing garbage follows ("12abc" is 12). ok is false when there is no
// digit at all or the value does not fit in an int.
func parseInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	end := 0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		end = 1
	}
	digits := end
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == end {
		return 0, false
	}

	n, err := strconv.Atoi(s[:digits])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseInts splits s on commas and parses the first want fields. Extra
// fields, like the DA checksum, are ignored.
func parseInts(s string, want int) ([]int, bool) {
	fields := strings.SplitN(s, ",", want+1)
	if len(fields) < want {
		return nil, false
	}
	out := make([]int, want)
	for i := 0; i < want; i++ {
		n, ok := parseInt(fields[i])
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
