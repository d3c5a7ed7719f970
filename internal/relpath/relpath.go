// Package relpath computes normalized relative paths between two file paths.
//
// Unlike path/filepath it does not depend on the host operating system: unix
// paths, dos paths and web dos paths are all understood the same way.
//
//	/unix/root/path
//	C:\dos\root\path
//	/c:/web/dos/root/path
//
// Every path is first normalized to a unix-like form where the root is "/" for
// unix paths and "/<drive>:/" for dos and web dos paths.
package relpath

import (
	"regexp"
	"strings"
)

var (
	separatorPattern = regexp.MustCompile(`[/\\]+`)
	rootPattern      = regexp.MustCompile(`^(?:[/\\]+)?(?:([a-zA-Z]:)(?:[/\\]+)?)?`)
	startsWithSep    = regexp.MustCompile(`^[/\\]+`)
	startsWithDrive  = regexp.MustCompile(`^[a-zA-Z]:`)
)

// IsRoot reports whether p starts with a root: one or more path separators or
// a drive letter followed by a colon.
func IsRoot(p string) bool {
	return startsWithSep.MatchString(p) || startsWithDrive.MatchString(p)
}

// NormalizeRoot returns the root prefix matched in p along with its normalized
// form. The normalized form is "/" for unix roots and "/X:/" for drive roots
// (the drive letter keeps its case). Both values are empty when p has no root.
func NormalizeRoot(p string) (matched, normalized string) {
	if !IsRoot(p) {
		return "", ""
	}

	m := rootPattern.FindStringSubmatch(p)
	if m[1] != "" {
		return m[0], "/" + m[1] + "/"
	}
	return m[0], "/"
}

// CompareRoots reports whether a and b share the same root, regardless of the
// syntax each one uses.
//
//	CompareRoots("/c:/root", `c:\root`) // true
func CompareRoots(a, b string) bool {
	_, rootA := NormalizeRoot(a)
	_, rootB := NormalizeRoot(b)
	return rootA == rootB
}

// Normalize rewrites p to the shared format: a normalized root, "/" as the
// only separator, "." segments removed and ".." segments resolved.
//
// A ".." that would climb above a root is dropped. In a relative path a ".."
// that cannot be resolved is kept, so "../../x" stays "../../x".
func Normalize(p string) string {
	matched, root := NormalizeRoot(p)
	segments := separatorPattern.Split(p[len(matched):], -1)
	resolved := make([]string, 0, len(segments))

	for _, segment := range segments {
		switch segment {
		case "", ".":
			continue
		case "..":
			last := ""
			if n := len(resolved); n > 0 {
				last = resolved[n-1]
				resolved = resolved[:n-1]
			}
			if matched != "" {
				continue
			}
			if last == ".." {
				resolved = append(resolved, last)
			}
			if last == "" || last == ".." {
				resolved = append(resolved, segment)
			}
		default:
			resolved = append(resolved, segment)
		}
	}

	return root + strings.Join(resolved, "/")
}

// Relative returns the normalized path that leads from from to to.
//
// Relativization needs a common reference, so the normalized to path is
// returned unchanged when:
//   - exactly one of from and to is rooted
//   - both are relative and from normalizes to an empty path
//   - both are rooted but on different roots (drives)
func Relative(from, to string) string {
	if from == to {
		return ""
	}

	rooted := 0
	if IsRoot(from) {
		rooted++
	}
	if IsRoot(to) {
		rooted++
	}
	if rooted == 1 {
		return Normalize(to)
	}

	fromNormal, toNormal := Normalize(from), Normalize(to)
	if fromNormal == "" {
		return toNormal
	}
	if rooted == 2 && !CompareRoots(fromNormal, toNormal) {
		return toNormal
	}

	// direct descendant
	if rest, ok := strings.CutPrefix(toNormal, fromNormal); ok && strings.HasPrefix(rest, "/") {
		return rest[1:]
	}

	fromSegments := strings.Split(fromNormal, "/")
	toSegments := strings.Split(toNormal, "/")
	for len(fromSegments) > 0 && len(toSegments) > 0 && fromSegments[0] == toSegments[0] {
		fromSegments = fromSegments[1:]
		toSegments = toSegments[1:]
	}

	parts := make([]string, 0, len(fromSegments)+len(toSegments))
	for _, s := range fromSegments {
		if s != "" {
			parts = append(parts, "..")
		}
	}
	parts = append(parts, toSegments...)

	return Normalize(strings.Join(parts, "/"))
}
