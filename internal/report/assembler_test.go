package report

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/lcov-parse/internal/coverage"
)

// section returns the lines of one tracefile section.
func lcovSection(name, path string, fnf, fnh, lf, lh, brf, brh int) []string {
	return []string{
		"TN:" + name,
		"SF:" + path,
		itoaLine("FNF", fnf),
		itoaLine("FNH", fnh),
		itoaLine("LF", lf),
		itoaLine("LH", lh),
		itoaLine("BRF", brf),
		itoaLine("BRH", brh),
		"end_of_record",
	}
}

func itoaLine(tag string, n int) string {
	return tag + ":" + strconv.Itoa(n)
}

func feed(a interface{ Parse(string) }, sections ...[]string) {
	for _, s := range sections {
		for _, line := range s {
			a.Parse(line)
		}
	}
}

func TestReportBuilder(t *testing.T) {
	t.Run("should fail without data", func(t *testing.T) {
		b := NewReportBuilder("")
		_, err := b.Build()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoData))

		b.Parse("SF:/a")
		b.Parse("LF:3")
		_, err = b.Build()
		assert.True(t, errors.Is(err, ErrNoData))
	})

	t.Run("should ignore blank lines", func(t *testing.T) {
		b := NewReportBuilder("")
		feed(b, []string{"", "   "})
		_, err := b.Build()
		assert.True(t, errors.Is(err, ErrNoData))
	})

	t.Run("should merge sections with the same path", func(t *testing.T) {
		b := NewReportBuilder("")
		feed(b,
			lcovSection("test", "/test1", 12, 10, 0, 0, 0, 0),
			lcovSection("test", "/test1", 14, 12, 0, 0, 0, 0),
		)
		r, err := b.Build()
		require.NoError(t, err)

		assert.Equal(t, []string{"/test1"}, r.Paths)
		assert.Equal(t, coverage.Record{Total: 26, Hit: 22, Miss: 4}, r.Details["/test1"].Function)
		assert.Equal(t, coverage.Record{Total: 26, Hit: 22, Miss: 4}, r.Total.Function)
	})

	t.Run("should keep first seen order", func(t *testing.T) {
		b := NewReportBuilder("")
		feed(b,
			lcovSection("t", "/z", 1, 1, 1, 1, 1, 1),
			lcovSection("t", "/a", 1, 1, 1, 1, 1, 1),
			lcovSection("t", "/z", 1, 1, 1, 1, 1, 1),
			lcovSection("t", "/m", 1, 1, 1, 1, 1, 1),
		)
		r, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"/z", "/a", "/m"}, r.Paths)
	})

	t.Run("should total every section under the root identity", func(t *testing.T) {
		b := NewReportBuilder("")
		feed(b,
			lcovSection("Test1", "/a", 1, 1, 10, 8, 4, 2),
			lcovSection("Test2", "/b", 3, 1, 20, 10, 0, 0),
		)
		r, err := b.Build()
		require.NoError(t, err)

		assert.Equal(t, "/", r.Total.Path)
		assert.Equal(t, "root", r.Total.Name)
		assert.Equal(t, coverage.NewRecord(30, 18), r.Total.Line)
		assert.Equal(t, coverage.NewRecord(4, 2), r.Total.Function)
		assert.Equal(t, coverage.NewRecord(4, 2), r.Total.Branch)
	})

	t.Run("should not merge different test names at one path", func(t *testing.T) {
		b := NewReportBuilder("")
		feed(b,
			lcovSection("Test1", "/a", 0, 0, 10, 8, 0, 0),
			lcovSection("Test2", "/a", 0, 0, 20, 10, 0, 0),
		)
		r, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, coverage.NewRecord(10, 8), r.Details["/a"].Line)
		assert.Equal(t, coverage.NewRecord(30, 18), r.Total.Line)
	})

	t.Run("should relativize paths", func(t *testing.T) {
		b := NewReportBuilder("/d:/root/path")
		feed(b,
			lcovSection("t", "/d:/root/path/test/1", 1, 1, 1, 1, 1, 1),
			lcovSection("t", `D:\root\path\othertest`, 1, 1, 1, 1, 1, 1),
			lcovSection("t", "/d:/root/path", 1, 1, 1, 1, 1, 1),
		)
		r, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"test/1", "/D:/root/path/othertest", "/"}, r.Paths)
	})

	t.Run("should snapshot on build", func(t *testing.T) {
		b := NewReportBuilder("")
		feed(b, lcovSection("t", "/a", 1, 1, 1, 1, 1, 1))
		r, err := b.Build()
		require.NoError(t, err)

		feed(b,
			lcovSection("t", "/a", 1, 1, 1, 1, 1, 1),
			lcovSection("t", "/b", 1, 1, 1, 1, 1, 1),
		)
		assert.Equal(t, []string{"/a"}, r.Paths)
		assert.Equal(t, 1, r.Details["/a"].Line.Total)
		assert.Equal(t, 1, r.Total.Line.Total)
	})
}

func TestFlatReportBuilder(t *testing.T) {
	b := NewFlatReportBuilder("")
	feed(b,
		[]string{"TN:t", "SF:/a", "DA:1,1", "DA:2,0", "LF:2", "LH:1", "end_of_record"},
		[]string{"TN:t", "SF:/a", "DA:2,3", "LF:2", "LH:1", "end_of_record"},
	)
	r, err := b.Build()
	require.NoError(t, err)

	s := r.Details["/a"]
	assert.Equal(t, coverage.NewRecord(4, 2), s.Line.Plain())
	assert.Equal(t, []coverage.LineDetail{
		coverage.NewLineDetail(1, 1),
		coverage.NewLineDetail(2, 3),
	}, s.Line.Details())

	t.Run("should snapshot details", func(t *testing.T) {
		feed(b, []string{"TN:t", "SF:/a", "DA:1,7", "LF:1", "LH:1", "end_of_record"})
		d, _ := r.Details["/a"].Line.Detail(coverage.DetailKey{Line: 1})
		assert.Equal(t, 1, d.ExecutionCount)
	})
}

func TestTreeReportBuilder(t *testing.T) {
	t.Run("should group similar paths", func(t *testing.T) {
		b := NewTreeReportBuilder("")
		feed(b,
			lcovSection("Test1", "/root/1", 12, 10, 10, 8, 8, 6),
			lcovSection("Test2", "/root/2", 14, 12, 15, 13, 14, 12),
			lcovSection("Test3", "/", 13, 11, 11, 9, 9, 7),
		)
		r, err := b.Build()
		require.NoError(t, err)

		require.Len(t, r.Details, 2)
		node, ok := r.Details["/root"].(*TreeNode)
		require.True(t, ok, "expected a node at /root")
		assert.ElementsMatch(t, []string{"/root/1", "/root/2"}, node.ChildPaths)
		assert.Equal(t, "/root", node.Path)
		assert.Equal(t, coverage.NewRecord(26, 22), node.Function)
		assert.Equal(t, coverage.NewRecord(25, 21), node.Line)
		assert.Equal(t, coverage.NewRecord(22, 18), node.Branch)
		assert.Contains(t, node.Children, "1")
		assert.Contains(t, node.Children, "2")

		leaf, ok := r.Details["/"].(Leaf)
		require.True(t, ok, "expected a leaf at /")
		assert.Equal(t, "Test3", leaf.Name)
	})

	t.Run("should relate paths to the root directory", func(t *testing.T) {
		b := NewTreeReportBuilder("/d:/root/path")
		feed(b,
			lcovSection("Test1", "/d:/root/path/test/1", 12, 10, 10, 8, 8, 6),
			lcovSection("Test2", "/d:/root/path/test/2", 14, 12, 15, 13, 14, 12),
			lcovSection("Test3", "/d:/root/path/othertest", 13, 11, 11, 9, 9, 7),
		)
		r, err := b.Build()
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"test/1", "test/2", "othertest"}, r.Paths)
		assert.IsType(t, &TreeNode{}, r.Details["test"])
		assert.IsType(t, Leaf{}, r.Details["othertest"])

		s, ok := r.PathSummary("test/2")
		require.True(t, ok)
		assert.Equal(t, coverage.NewRecord(15, 13), s.Line)
	})

	t.Run("should keep a single section as the only leaf", func(t *testing.T) {
		b := NewTreeReportBuilder("")
		feed(b, lcovSection("t", "/only/one", 1, 1, 1, 1, 1, 1))
		r, err := b.Build()
		require.NoError(t, err)
		require.Len(t, r.Details, 1)
		assert.IsType(t, Leaf{}, r.Details["/only/one"])
	})

	t.Run("should nest deeper directories", func(t *testing.T) {
		b := NewTreeReportBuilder("")
		feed(b,
			lcovSection("t", "/src/a/x.go", 1, 1, 1, 1, 1, 1),
			lcovSection("t", "/src/a/y.go", 1, 0, 1, 0, 1, 0),
			lcovSection("t", "/src/b.go", 1, 1, 1, 1, 1, 1),
		)
		r, err := b.Build()
		require.NoError(t, err)

		src := r.Details["/src"].(*TreeNode)
		assert.Len(t, src.ChildPaths, 3)
		a, ok := src.Children["a"].(*TreeNode)
		require.True(t, ok)
		assert.Equal(t, "/src/a", a.Path)
		assert.Equal(t, coverage.NewRecord(2, 1), a.Line)
		assert.IsType(t, Leaf{}, a.Children["x.go"])
		assert.IsType(t, Leaf{}, src.Children["b.go"])
	})

	t.Run("should group drive paths by drive and directory", func(t *testing.T) {
		b := NewTreeReportBuilder("")
		feed(b,
			lcovSection("t", `C:\proj\a.c`, 1, 1, 1, 1, 1, 1),
			lcovSection("t", `C:\proj\b.c`, 1, 1, 1, 1, 1, 1),
			lcovSection("t", `/home/x.c`, 1, 1, 1, 1, 1, 1),
		)
		r, err := b.Build()
		require.NoError(t, err)

		node, ok := r.Details["/C:/proj"].(*TreeNode)
		require.True(t, ok, "keys: %v", r.Details)
		assert.Contains(t, node.Children, "a.c")
		assert.IsType(t, Leaf{}, r.Details["/home/x.c"])
	})

	t.Run("should fail without data", func(t *testing.T) {
		_, err := NewTreeReportBuilder("").Build()
		assert.True(t, errors.Is(err, ErrNoData))
	})
}

func TestNewAssembler(t *testing.T) {
	tests := []struct {
		mode Mode
		want interface{}
	}{
		{ModeSimple, &Report{}},
		{ModeDetail, &FlatReport{}},
		{ModeTree, &TreeReport{}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			a, err := NewAssembler(tt.mode, "")
			require.NoError(t, err)

			_, err = a.Document()
			assert.True(t, errors.Is(err, ErrNoData))

			feed(a, lcovSection("t", "/a/b", 2, 1, 2, 1, 2, 1))
			doc, err := a.Document()
			require.NoError(t, err)
			assert.IsType(t, tt.want, doc)
			assert.Equal(t, tt.mode, doc.Mode())
			assert.Equal(t, []string{"/a/b"}, doc.PathList())
			assert.Equal(t, coverage.NewRecord(2, 1), doc.TotalSummary().Line)

			s, ok := doc.PathSummary("/a/b")
			require.True(t, ok)
			assert.Equal(t, coverage.NewRecord(2, 1), s.Function)
			_, ok = doc.PathSummary("/missing")
			assert.False(t, ok)
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewAssembler(Mode(42), "")
		assert.Error(t, err)
	})
}

func TestPathFilter(t *testing.T) {
	filter, err := NewGlobFilter([]string{"src/**"}, []string{"**/*_test.go"})
	require.NoError(t, err)

	b := NewReportBuilder("/repo", WithPathFilter(filter))
	feed(b,
		lcovSection("t", "/repo/src/a.go", 1, 1, 10, 5, 0, 0),
		lcovSection("t", "/repo/src/a_test.go", 1, 1, 100, 100, 0, 0),
		lcovSection("t", "/repo/vendor/x.go", 1, 1, 100, 0, 0, 0),
		lcovSection("t", "/repo/src/pkg/b.go", 1, 1, 10, 10, 0, 0),
	)
	r, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.go", "src/pkg/b.go"}, r.Paths)
	assert.Equal(t, coverage.NewRecord(20, 15), r.Total.Line)

	t.Run("everything filtered", func(t *testing.T) {
		b := NewFlatReportBuilder("", WithPathFilter(PathFilterFunc(func(string) bool { return false })))
		feed(b, lcovSection("t", "/a", 1, 1, 1, 1, 1, 1))
		_, err := b.Build()
		assert.True(t, errors.Is(err, ErrNoData))
	})
}
