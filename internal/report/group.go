package report

import (
	"strings"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
	"github.com/zjy-dev/lcov-parse/internal/relpath"
)

// GroupTree regroups a flat path -> DetailedSummary map into a directory
// tree and returns its top level. paths gives the order in which sections
// were first seen and must list every key of summaries.
//
// A single section is returned as the only leaf, keyed by its own path.
// Otherwise sections are bucketed by their first path segment, recursively,
// and the children of the synthetic top node are returned.
func GroupTree(paths []string, summaries map[string]coverage.DetailedSummary) (map[string]TreeEntry, error) {
	if len(paths) == 0 {
		return nil, ErrNoData
	}
	if len(paths) == 1 {
		s := summaries[paths[0]]
		return map[string]TreeEntry{s.Path: Leaf{s.Clone()}}, nil
	}

	top, err := groupNode("", paths, summaries)
	if err != nil {
		return nil, err
	}
	return top.Children, nil
}

type group struct {
	path    string
	members []string
}

// groupNode builds the node at root holding paths, which all live below it.
func groupNode(root string, paths []string, summaries map[string]coverage.DetailedSummary) (*TreeNode, error) {
	var order []string
	groups := make(map[string]*group)
	for _, p := range paths {
		name := groupName(root, p)
		g, ok := groups[name]
		if !ok {
			groupPath := name
			if root != "" {
				groupPath = root + "/" + name
			}
			g = &group{path: groupPath}
			groups[name] = g
			order = append(order, name)
		}
		g.members = append(g.members, p)
	}

	b := NewTreeNodeBuilder(root)
	for _, name := range order {
		g := groups[name]
		// an empty name means the member is the root itself, nothing is left
		// to group by
		if len(g.members) == 1 || name == "" {
			for _, m := range g.members {
				if err := b.AddChildSummary(summaries[m]); err != nil {
					return nil, err
				}
			}
			continue
		}

		child, err := groupNode(g.path, g.members, summaries)
		if err != nil {
			return nil, err
		}
		if err := b.AddChildNode(child); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// groupName returns the first segment of p below root. At the top of the
// tree a rooted path keeps its normalized root in the name ("/src",
// "/C:/src") so that nested groups can be relativized against it.
func groupName(root, p string) string {
	if root == "" && relpath.IsRoot(p) {
		_, normalRoot := relpath.NormalizeRoot(p)
		rest := strings.TrimPrefix(relpath.Normalize(p), normalRoot)
		first, _, _ := strings.Cut(rest, "/")
		return normalRoot + first
	}

	for _, segment := range strings.Split(relpath.Relative(root, p), "/") {
		if segment != "" {
			return segment
		}
	}
	return ""
}
