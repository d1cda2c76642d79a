package fs_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sortdicom/internal/dicomtest"
	"github.com/aretw0/sortdicom/pkg/adapters/dicom"
	"github.com/aretw0/sortdicom/pkg/adapters/fs"
	"github.com/aretw0/sortdicom/pkg/core"
)

// MockCodec writes the series description as the file body.
// Records whose Data is "fail" cannot be encoded.
type MockCodec struct{}

func (MockCodec) Decode(path string) (core.Record, error) {
	return core.Record{}, core.ErrDecode
}

func (MockCodec) Encode(w io.Writer, rec core.Record) error {
	if rec.Data == "fail" {
		return errors.New("cannot encode")
	}
	_, err := io.WriteString(w, rec.SeriesDescription)
	return err
}

func groupsOf(t *testing.T, strategy core.KeyStrategy, recs ...core.Record) *core.Groups {
	t.Helper()
	groups, skipped := core.Group(recs, strategy)
	require.Empty(t, skipped)
	return groups
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	writer := fs.NewWriter(fs.WriterConfig{Codec: MockCodec{}})

	t.Run("Positional Names Per Group", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "sorted")
		groups := groupsOf(t, core.SplitToken(0),
			core.Record{Source: "a", SeriesDescription: "T1_001"},
			core.Record{Source: "b", SeriesDescription: "T1_002"},
			core.Record{Source: "c", SeriesDescription: "T2_001"},
		)

		stats, err := writer.Write(ctx, groups, out)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Written)
		assert.Equal(t, 0, stats.Failed)
		assert.Equal(t, 2, stats.DirsCreated)

		assert.Equal(t, []string{"T1", "T2"}, listDir(t, out))
		assert.Equal(t, []string{"0.dcm", "1.dcm"}, listDir(t, filepath.Join(out, "T1")))
		assert.Equal(t, []string{"0.dcm"}, listDir(t, filepath.Join(out, "T2")))

		body, err := os.ReadFile(filepath.Join(out, "T1", "1.dcm"))
		require.NoError(t, err)
		assert.Equal(t, "T1_002", string(body))
	})

	t.Run("Width Follows Group Size", func(t *testing.T) {
		out := t.TempDir()
		var recs []core.Record
		for i := 0; i < 12; i++ {
			recs = append(recs, core.Record{SeriesDescription: "EPI"})
		}

		stats, err := writer.Write(ctx, groupsOf(t, core.WholeDescription(), recs...), out)
		require.NoError(t, err)
		assert.Equal(t, 12, stats.Written)

		names := listDir(t, filepath.Join(out, "EPI"))
		require.Len(t, names, 12)
		assert.Equal(t, "00.dcm", names[0])
		assert.Equal(t, "11.dcm", names[11])
	})

	t.Run("Descriptive Names", func(t *testing.T) {
		out := t.TempDir()
		w := fs.NewWriter(fs.WriterConfig{Codec: MockCodec{}, Naming: core.NamingDescriptive})
		groups := groupsOf(t, core.WholeDescription(),
			core.Record{SeriesDescription: "T1", ContentTime: "101500.000000"},
			core.Record{SeriesDescription: "T1", ContentTime: "101501.000000"},
		)

		_, err := w.Write(ctx, groups, out)
		require.NoError(t, err)
		assert.Equal(t, []string{"T1_101500.000000.dcm", "T1_101501.000000.dcm"}, listDir(t, filepath.Join(out, "T1")))
	})

	t.Run("Existing Directories Are Reused", func(t *testing.T) {
		out := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(out, "T1"), 0755))

		stats, err := writer.Write(ctx, groupsOf(t, core.WholeDescription(), core.Record{SeriesDescription: "T1"}), out)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Written)
		assert.Equal(t, 0, stats.DirsCreated)
	})

	t.Run("Empty Groups Touch Nothing", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "sorted")

		stats, err := writer.Write(ctx, core.NewGroups(), out)
		require.NoError(t, err)
		assert.Equal(t, core.WriteStats{}, stats)
		_, err = os.Stat(out)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("One Bad File Does Not Stop The Rest", func(t *testing.T) {
		out := t.TempDir()
		groups := groupsOf(t, core.WholeDescription(),
			core.Record{Source: "a", SeriesDescription: "T1"},
			core.Record{Source: "b", SeriesDescription: "T1", Data: "fail"},
			core.Record{Source: "c", SeriesDescription: "T1"},
		)

		stats, err := writer.Write(ctx, groups, out)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Written)
		assert.Equal(t, 1, stats.Failed)
		require.Len(t, stats.Failures, 1)
		assert.ErrorIs(t, stats.Failures[0], core.ErrWrite)
		assert.Equal(t, filepath.Join(out, "T1", "1.dcm"), stats.Failures[0].Path)
		assert.Equal(t, []string{"0.dcm", "2.dcm"}, listDir(t, filepath.Join(out, "T1")))
	})

	t.Run("Group Directory Blocked By A File", func(t *testing.T) {
		out := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(out, "T1"), []byte("x"), 0644))
		groups := groupsOf(t, core.SplitToken(0),
			core.Record{Source: "a", SeriesDescription: "T1_a"},
			core.Record{Source: "b", SeriesDescription: "T1_b"},
			core.Record{Source: "c", SeriesDescription: "T2_a"},
		)

		stats, err := writer.Write(ctx, groups, out)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Failed)
		assert.Equal(t, 1, stats.Written)
		for _, f := range stats.Failures {
			assert.ErrorIs(t, f, core.ErrFilesystem)
		}
	})

	t.Run("Keys Sharing A Directory Name", func(t *testing.T) {
		out := t.TempDir()
		groups := groupsOf(t, core.WholeDescription(),
			core.Record{Source: "a", SeriesDescription: "T1/SAG"},
			core.Record{Source: "b", SeriesDescription: "T1-SAG"},
		)

		stats, err := writer.Write(ctx, groups, out)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Written)
		assert.Equal(t, 1, stats.Failed)
		assert.ErrorIs(t, stats.Failures[0], core.ErrFilesystem)
		assert.Equal(t, []string{"T1-SAG"}, listDir(t, out))
	})

	t.Run("Protected Directories Are Never Written", func(t *testing.T) {
		out := t.TempDir()
		src := filepath.Join(out, "T1")
		require.NoError(t, os.Mkdir(src, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(src, "0.dcm"), []byte("OTHER_1"), 0644))

		groups := groupsOf(t, core.SplitToken(0),
			core.Record{Source: filepath.Join(src, "a.dcm"), SeriesDescription: "T1_1"},
			core.Record{Source: filepath.Join(src, "b.dcm"), SeriesDescription: "T1_2"},
			core.Record{Source: filepath.Join(src, "c.dcm"), SeriesDescription: "T2_1"},
		)
		stats, err := writer.Write(ctx, groups, out, src)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Written)
		assert.Equal(t, 2, stats.Failed)
		assert.ErrorIs(t, stats.Failures[0], core.ErrFilesystem)

		body, err := os.ReadFile(filepath.Join(src, "0.dcm"))
		require.NoError(t, err)
		assert.Equal(t, "OTHER_1", string(body))
		assert.Equal(t, []string{"0.dcm"}, listDir(t, src))
	})

	t.Run("Output Root Is A File", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "sorted")
		require.NoError(t, os.WriteFile(out, []byte("x"), 0644))

		_, err := writer.Write(ctx, groupsOf(t, core.WholeDescription(), core.Record{SeriesDescription: "T1"}), out)
		assert.ErrorIs(t, err, core.ErrPath)
	})

	t.Run("Unwritable Group Directory", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permissions are not enforced")
		}
		out := t.TempDir()
		dir := filepath.Join(out, "T1")
		require.NoError(t, os.MkdirAll(dir, 0555))
		t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

		stats, err := writer.Write(ctx, groupsOf(t, core.WholeDescription(), core.Record{SeriesDescription: "T1"}), out)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
		assert.ErrorIs(t, stats.Failures[0], core.ErrWrite)
	})
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "T1", fs.DirName("T1"))
	assert.Equal(t, "T1-SAG", fs.DirName("T1/SAG"))
	assert.Equal(t, "a-b", fs.DirName(`a\b`))
	assert.Equal(t, "__", fs.DirName(".."))
	assert.Equal(t, "_", fs.DirName("."))
}

// Files written by the real codec can be collected again.
func TestWrite_RealCodec(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "sorted")
	dicomtest.WriteFile(t, filepath.Join(src, "a.dcm"), "T1_001", "101500.000000")
	dicomtest.WriteFile(t, filepath.Join(src, "nested", "b.dcm"), "T1_002", "101501.000000")
	dicomtest.WriteFile(t, filepath.Join(src, "c.dcm"), "T2_001", "101502.000000")

	codec := dicom.NewCodec()
	collector := fs.NewCollector(fs.CollectorConfig{Codec: codec, Recursive: true})
	recs, _, err := collector.Collect(ctx, src)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	groups, skipped := core.Group(recs, core.SplitToken(0))
	require.Empty(t, skipped)

	stats, err := fs.NewWriter(fs.WriterConfig{Codec: codec}).Write(ctx, groups, out)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Written)

	again, _, err := collector.Collect(ctx, out)
	require.NoError(t, err)
	assert.Len(t, again, 3)

	t1, _, err := collector.Collect(ctx, filepath.Join(out, "T1"))
	require.NoError(t, err)
	require.Len(t, t1, 2)
	var descs []string
	for _, rec := range t1 {
		descs = append(descs, rec.SeriesDescription)
	}
	assert.ElementsMatch(t, []string{"T1_001", "T1_002"}, descs)
}
