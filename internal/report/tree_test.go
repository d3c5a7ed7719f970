package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
)

func leafSummary(path, name string, lines, hits int) coverage.DetailedSummary {
	return coverage.NewDetailedSummary(
		path,
		name,
		coverage.NewDetailedRecord[coverage.BranchDetail](0, 0),
		coverage.NewDetailedRecord[coverage.FunctionDetail](0, 0),
		coverage.NewDetailedRecord(lines, hits, coverage.NewLineDetail(1, hits)),
	)
}

func TestTreeNodeBuilder(t *testing.T) {
	t.Run("should fail without children", func(t *testing.T) {
		_, err := NewTreeNodeBuilder("/root").Build()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyNode))
	})

	t.Run("should key children relative to the root", func(t *testing.T) {
		b := NewTreeNodeBuilder("/root")
		require.NoError(t, b.AddChildSummary(leafSummary("/root/a.go", "t", 4, 2)))
		require.NoError(t, b.AddChildSummary(leafSummary("/root/b.go", "t", 6, 6)))

		n, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, "/root", n.Path)
		assert.Equal(t, "/root", n.Name)
		assert.Equal(t, coverage.NewRecord(10, 8), n.Line)
		assert.Equal(t, []string{"/root/a.go", "/root/b.go"}, n.ChildPaths)
		assert.IsType(t, Leaf{}, n.Children["a.go"])
		assert.IsType(t, Leaf{}, n.Children["b.go"])
	})

	t.Run("should combine summaries at the same key", func(t *testing.T) {
		b := NewTreeNodeBuilder("/root")
		require.NoError(t, b.AddChildSummary(leafSummary("/root/a.go", "t", 4, 2)))
		require.NoError(t, b.AddChildSummary(leafSummary("/root/a.go", "t", 4, 1)))

		n, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"/root/a.go"}, n.ChildPaths)
		leaf := n.Children["a.go"].(Leaf)
		assert.Equal(t, coverage.NewRecord(8, 3), leaf.Line.Plain())
	})

	t.Run("should concatenate child paths of nodes", func(t *testing.T) {
		inner := NewTreeNodeBuilder("/root/pkg")
		require.NoError(t, inner.AddChildSummary(leafSummary("/root/pkg/a.go", "t", 1, 1)))
		require.NoError(t, inner.AddChildSummary(leafSummary("/root/pkg/b.go", "t", 1, 0)))
		node, err := inner.Build()
		require.NoError(t, err)

		b := NewTreeNodeBuilder("/root")
		require.NoError(t, b.AddChildNode(node))
		require.NoError(t, b.AddChildSummary(leafSummary("/root/main.go", "t", 2, 2)))

		n, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"/root/pkg/a.go", "/root/pkg/b.go", "/root/main.go"}, n.ChildPaths)
		assert.Equal(t, coverage.NewRecord(4, 3), n.Line)
		assert.IsType(t, &TreeNode{}, n.Children["pkg"])
	})

	t.Run("should reject a node over a leaf", func(t *testing.T) {
		inner := NewTreeNodeBuilder("/root/pkg")
		require.NoError(t, inner.AddChildSummary(leafSummary("/root/pkg/a.go", "t", 1, 1)))
		node, err := inner.Build()
		require.NoError(t, err)

		b := NewTreeNodeBuilder("/root")
		require.NoError(t, b.AddChildSummary(leafSummary("/root/pkg", "t", 1, 1)))
		err = b.AddChildNode(node)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNodeLeafConflict))
	})

	t.Run("should reject a leaf over a node", func(t *testing.T) {
		inner := NewTreeNodeBuilder("/root/pkg")
		require.NoError(t, inner.AddChildSummary(leafSummary("/root/pkg/a.go", "t", 1, 1)))
		node, err := inner.Build()
		require.NoError(t, err)

		b := NewTreeNodeBuilder("/root")
		require.NoError(t, b.AddChildNode(node))
		err = b.AddChildSummary(leafSummary("/root/pkg", "t", 1, 1))
		assert.True(t, errors.Is(err, ErrNodeLeafConflict))
	})

	t.Run("should not alias added children", func(t *testing.T) {
		s := leafSummary("/root/a.go", "t", 1, 1)
		b := NewTreeNodeBuilder("/root")
		require.NoError(t, b.AddChildSummary(s))
		n, err := b.Build()
		require.NoError(t, err)

		s.Line.AddDetail(coverage.NewLineDetail(1, 100))
		leaf := n.Children["a.go"].(Leaf)
		d, _ := leaf.Line.Detail(coverage.DetailKey{Line: 1})
		assert.Equal(t, 1, d.ExecutionCount)
	})
}

func buildNode(t *testing.T, root string, leaves ...coverage.DetailedSummary) *TreeNode {
	t.Helper()
	b := NewTreeNodeBuilder(root)
	for _, l := range leaves {
		require.NoError(t, b.AddChildSummary(l))
	}
	n, err := b.Build()
	require.NoError(t, err)
	return n
}

func TestTreeNode_Combine(t *testing.T) {
	t.Run("should merge nodes of the same path", func(t *testing.T) {
		a := buildNode(t, "/root", leafSummary("/root/a.go", "t", 2, 1), leafSummary("/root/b.go", "t", 2, 2))
		b := buildNode(t, "/root", leafSummary("/root/b.go", "t", 2, 0), leafSummary("/root/c.go", "t", 4, 4))

		c, err := a.Combine(b)
		require.NoError(t, err)
		assert.Equal(t, coverage.NewRecord(10, 7), c.Line)
		assert.Equal(t, []string{"/root/a.go", "/root/b.go", "/root/c.go"}, c.ChildPaths)
		require.Len(t, c.Children, 3)
		assert.Equal(t, coverage.NewRecord(4, 2), c.Children["b.go"].Counts().Line)

		// inputs untouched
		assert.Len(t, a.Children, 2)
		assert.Equal(t, coverage.NewRecord(4, 3), a.Line)
	})

	t.Run("should recurse into sub nodes", func(t *testing.T) {
		sub1 := buildNode(t, "/root/pkg", leafSummary("/root/pkg/a.go", "t", 1, 1))
		sub2 := buildNode(t, "/root/pkg", leafSummary("/root/pkg/b.go", "t", 1, 0))
		a := NewTreeNodeBuilder("/root")
		require.NoError(t, a.AddChildNode(sub1))
		na, err := a.Build()
		require.NoError(t, err)
		b := NewTreeNodeBuilder("/root")
		require.NoError(t, b.AddChildNode(sub2))
		nb, err := b.Build()
		require.NoError(t, err)

		c, err := na.Combine(nb)
		require.NoError(t, err)
		pkg := c.Children["pkg"].(*TreeNode)
		assert.Len(t, pkg.Children, 2)
		assert.Equal(t, coverage.NewRecord(2, 1), pkg.Line)
	})

	t.Run("should return a copy for a different path", func(t *testing.T) {
		a := buildNode(t, "/a", leafSummary("/a/x", "t", 1, 1))
		b := buildNode(t, "/b", leafSummary("/b/x", "t", 1, 0))

		c, err := a.Combine(b)
		require.NoError(t, err)
		assert.Equal(t, a, c)
		assert.NotSame(t, a, c)
	})

	t.Run("should reject a node and a leaf at one key", func(t *testing.T) {
		a := buildNode(t, "/root", leafSummary("/root/pkg", "t", 1, 1))
		sub := buildNode(t, "/root/pkg", leafSummary("/root/pkg/a.go", "t", 1, 1))
		bb := NewTreeNodeBuilder("/root")
		require.NoError(t, bb.AddChildNode(sub))
		b, err := bb.Build()
		require.NoError(t, err)

		_, err = a.Combine(b)
		assert.True(t, errors.Is(err, ErrNodeLeafConflict))
	})
}

func TestGroupTree(t *testing.T) {
	t.Run("should fail without sections", func(t *testing.T) {
		_, err := GroupTree(nil, nil)
		assert.True(t, errors.Is(err, ErrNoData))
	})

	t.Run("should not group a path equal to its group", func(t *testing.T) {
		summaries := map[string]coverage.DetailedSummary{
			"/root":   leafSummary("/root", "t", 1, 1),
			"/root/a": leafSummary("/root/a", "t", 1, 1),
			"/root/b": leafSummary("/root/b", "t", 1, 1),
		}
		tree, err := GroupTree([]string{"/root", "/root/a", "/root/b"}, summaries)
		require.NoError(t, err)

		node := tree["/root"].(*TreeNode)
		assert.Len(t, node.ChildPaths, 3)
		assert.Equal(t, coverage.NewRecord(3, 3), node.Line)
	})
}

func TestTreeReport_JSON(t *testing.T) {
	b := NewTreeReportBuilder("")
	feed(b,
		lcovSection("t", "/root/1", 1, 1, 2, 1, 0, 0),
		lcovSection("t", "/root/2", 1, 0, 2, 2, 0, 0),
	)
	r, err := b.Build()
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded struct {
		Total   coverage.Summary `json:"total"`
		Paths   []string         `json:"paths"`
		Details map[string]struct {
			Path       string                     `json:"path"`
			ChildPaths []string                   `json:"childPaths"`
			Children   map[string]json.RawMessage `json:"children"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"/root/1", "/root/2"}, decoded.Paths)
	assert.Equal(t, coverage.NewRecord(4, 3), decoded.Total.Line)
	root := decoded.Details["/root"]
	assert.Equal(t, "/root", root.Path)
	assert.Len(t, root.Children, 2)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeSimple, false},
		{"simple", ModeSimple, false},
		{"Detail", ModeDetail, false},
		{"flat", ModeDetail, false},
		{" tree ", ModeTree, false},
		{"html", ModeSimple, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestGlobFilter(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"no patterns", nil, nil, "src/a.go", true},
		{"included", []string{"src/**"}, nil, "src/x/a.go", true},
		{"not included", []string{"src/**"}, nil, "vendor/a.go", false},
		{"excluded", nil, []string{"**/*_test.go"}, "src/a_test.go", false},
		{"exclude wins", []string{"src/**"}, []string{"src/gen/**"}, "src/gen/a.go", false},
		{"base name", []string{"*.go"}, nil, "deep/dir/a.go", true},
		{"absolute", []string{"/root/**"}, nil, "/root/a/b.c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewGlobFilter(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Keep(tt.path))
		})
	}

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := NewGlobFilter([]string{"src/[a"}, nil)
		assert.Error(t, err)
	})
}
