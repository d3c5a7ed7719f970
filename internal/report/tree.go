package report

import (
	"fmt"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
	"github.com/zjy-dev/lcov-parse/internal/relpath"
)

// TreeEntry is an element of a TreeReport: either a Leaf or a *TreeNode.
type TreeEntry interface {
	// EntryPath returns the full path of the entry.
	EntryPath() string
	// Counts returns the plain counts of the entry.
	Counts() coverage.Summary

	cloneEntry() TreeEntry
}

// Leaf is the DetailedSummary of a single section.
type Leaf struct {
	coverage.DetailedSummary
}

func (l Leaf) EntryPath() string { return l.Path }

func (l Leaf) Counts() coverage.Summary { return l.Summary() }

func (l Leaf) cloneEntry() TreeEntry { return Leaf{l.Clone()} }

// TreeNode groups the entries found under one directory. Its own records
// are the sums of its children's records.
type TreeNode struct {
	coverage.Summary
	// ChildPaths lists every section path found below the node.
	ChildPaths []string `json:"childPaths"`
	// Children is keyed by the child path relative to the node path.
	Children map[string]TreeEntry `json:"children"`
}

func (n *TreeNode) EntryPath() string { return n.Path }

func (n *TreeNode) Counts() coverage.Summary { return n.Summary }

func (n *TreeNode) cloneEntry() TreeEntry { return n.Clone() }

// Clone returns a deep copy of n.
func (n *TreeNode) Clone() *TreeNode {
	c := &TreeNode{
		Summary:    n.Summary.Clone(),
		ChildPaths: append([]string{}, n.ChildPaths...),
		Children:   make(map[string]TreeEntry, len(n.Children)),
	}
	for key, child := range n.Children {
		c.Children[key] = child.cloneEntry()
	}
	return c
}

// Combine merges two nodes of the same path: records are summed, leaves at
// the same key are combined and nodes at the same key are merged
// recursively. A node with a different path is not merged; a copy of n is
// returned. A node and a leaf at the same key fail with ErrNodeLeafConflict.
func (n *TreeNode) Combine(other *TreeNode) (*TreeNode, error) {
	combined := n.Clone()
	if n.Path != other.Path {
		return combined, nil
	}
	if combined.Name == "" {
		combined.Name = other.Name
	}
	combined.Branch = n.Branch.Combine(other.Branch)
	combined.Function = n.Function.Combine(other.Function)
	combined.Line = n.Line.Combine(other.Line)

	for key, theirs := range other.Children {
		ours, ok := combined.Children[key]
		if !ok {
			combined.Children[key] = theirs.cloneEntry()
			continue
		}
		merged, err := combineEntries(ours, theirs)
		if err != nil {
			return nil, fmt.Errorf("combine %q at %q: %w", n.Path, key, err)
		}
		combined.Children[key] = merged
	}
	combined.ChildPaths = dedupe(append(combined.ChildPaths, other.ChildPaths...))
	return combined, nil
}

func combineEntries(a, b TreeEntry) (TreeEntry, error) {
	switch x := a.(type) {
	case Leaf:
		y, ok := b.(Leaf)
		if !ok {
			return nil, ErrNodeLeafConflict
		}
		return Leaf{x.Combine(y.DetailedSummary)}, nil
	case *TreeNode:
		y, ok := b.(*TreeNode)
		if !ok {
			return nil, ErrNodeLeafConflict
		}
		return x.Combine(y)
	default:
		return nil, fmt.Errorf("unknown tree entry %T", a)
	}
}

// findLeaf looks for the leaf of path below e.
func findLeaf(e TreeEntry, path string) (Leaf, bool) {
	switch x := e.(type) {
	case Leaf:
		return x, x.Path == path
	case *TreeNode:
		for _, child := range x.Children {
			if leaf, ok := findLeaf(child, path); ok {
				return leaf, true
			}
		}
	}
	return Leaf{}, false
}

// TreeNodeBuilder builds a TreeNode from its children.
type TreeNodeBuilder struct {
	rootPath   string
	childPaths []string
	children   map[string]TreeEntry
	summary    *coverage.Summary
}

// NewTreeNodeBuilder creates a builder for the node at rootPath.
func NewTreeNodeBuilder(rootPath string) *TreeNodeBuilder {
	return &TreeNodeBuilder{
		rootPath: rootPath,
		children: make(map[string]TreeEntry),
	}
}

// AddChildSummary adds a section below the node. A section already present
// at the same relative path is combined with it.
func (b *TreeNodeBuilder) AddChildSummary(child coverage.DetailedSummary) error {
	key := relpath.Relative(b.rootPath, child.Path)
	if existing, ok := b.children[key]; ok {
		leaf, isLeaf := existing.(Leaf)
		if !isLeaf {
			return fmt.Errorf("add summary %q to %q: %w", child.Path, b.rootPath, ErrNodeLeafConflict)
		}
		b.children[key] = Leaf{leaf.Combine(child)}
	} else {
		b.children[key] = Leaf{child.Clone()}
	}

	b.childPaths = append(b.childPaths, child.Path)
	b.accumulate(child.Summary())
	return nil
}

// AddChildNode adds a sub node. A node already present at the same relative
// path is combined with it.
func (b *TreeNodeBuilder) AddChildNode(child *TreeNode) error {
	key := relpath.Relative(b.rootPath, child.Path)
	if existing, ok := b.children[key]; ok {
		node, isNode := existing.(*TreeNode)
		if !isNode {
			return fmt.Errorf("add node %q to %q: %w", child.Path, b.rootPath, ErrNodeLeafConflict)
		}
		merged, err := node.Combine(child)
		if err != nil {
			return err
		}
		b.children[key] = merged
	} else {
		b.children[key] = child.Clone()
	}

	b.childPaths = append(b.childPaths, child.ChildPaths...)
	b.accumulate(child.Summary)
	return nil
}

func (b *TreeNodeBuilder) accumulate(child coverage.Summary) {
	s := coverage.NewSummary(b.rootPath, b.rootPath, child.Branch, child.Function, child.Line)
	if b.summary == nil {
		b.summary = &s
		return
	}
	combined := b.summary.Combine(s)
	b.summary = &combined
}

// Build returns the node. A node without children fails with ErrEmptyNode.
func (b *TreeNodeBuilder) Build() (*TreeNode, error) {
	if b.summary == nil {
		return nil, fmt.Errorf("node %q: %w", b.rootPath, ErrEmptyNode)
	}
	n := &TreeNode{
		Summary:    b.summary.Clone(),
		ChildPaths: dedupe(b.childPaths),
		Children:   make(map[string]TreeEntry, len(b.children)),
	}
	for key, child := range b.children {
		n.Children[key] = child.cloneEntry()
	}
	return n, nil
}

// dedupe drops repeated strings, keeping the first occurrence.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
