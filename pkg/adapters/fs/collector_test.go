package fs_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sortdicom/internal/dicomtest"
	"github.com/aretw0/sortdicom/pkg/adapters/dicom"
	"github.com/aretw0/sortdicom/pkg/adapters/fs"
	"github.com/aretw0/sortdicom/pkg/core"
)

// setupTree builds the nested layout below and returns its root:
//
//	0.dcm 1.dcm notes.txt
//	0/0.dcm 0/1.dcm 0/notes.txt
//	0/0/0.dcm 0/0/1.dcm
//	1/0.dcm 1/1.dcm
//	1/0/0.dcm 1/0/1.dcm 1/0/empty
func setupTree(t *testing.T) (root string, valid int) {
	t.Helper()

	root = t.TempDir()
	dirs := []string{"", "0", filepath.Join("0", "0"), "1", filepath.Join("1", "0")}
	for _, d := range dirs {
		for i := 0; i < 2; i++ {
			dicomtest.WriteFile(t, filepath.Join(root, d, fmt.Sprintf("%d.dcm", i)), fmt.Sprintf("T1_%d", i), "101500")
			valid++
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("scanner log"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "0", "notes.txt"), []byte("more notes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "1", "0", "empty"), nil, 0644))

	return root, valid
}

func newCollector(recursive bool, logger *slog.Logger) *fs.Collector {
	return fs.NewCollector(fs.CollectorConfig{
		Codec:     dicom.NewCodec(),
		Recursive: recursive,
		Logger:    logger,
	})
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	t.Run("Recursive Finds Every DICOM At Any Depth", func(t *testing.T) {
		root, valid := setupTree(t)

		recs, stats, err := newCollector(true, nil).Collect(ctx, root)
		require.NoError(t, err)
		assert.Len(t, recs, valid)
		assert.Equal(t, valid, stats.Decoded)
		assert.Equal(t, 3, stats.DecodeFailed)
		assert.Equal(t, valid+3, stats.Files)
	})

	t.Run("Flat Only Reads The Root", func(t *testing.T) {
		root, _ := setupTree(t)

		recs, stats, err := newCollector(false, nil).Collect(ctx, root)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
		assert.Equal(t, 1, stats.DecodeFailed)
	})

	t.Run("Skips Listed Directories", func(t *testing.T) {
		root, valid := setupTree(t)

		recs, _, err := newCollector(true, nil).Collect(ctx, root, filepath.Join(root, "1"))
		require.NoError(t, err)
		assert.Len(t, recs, valid-4)
		for _, rec := range recs {
			assert.False(t, strings.HasPrefix(rec.Source, filepath.Join(root, "1")+string(filepath.Separator)), rec.Source)
		}
	})

	t.Run("Empty Directory Warns Once", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		recs, stats, err := newCollector(true, logger).Collect(ctx, t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, recs)
		assert.Equal(t, 0, stats.Files)
		assert.Equal(t, 1, strings.Count(buf.String(), "level=WARN"))
		assert.Contains(t, buf.String(), "no DICOM images found")
	})

	t.Run("Only Invalid Files Warns Once", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

		recs, stats, err := newCollector(true, logger).Collect(ctx, root)
		require.NoError(t, err)
		assert.Empty(t, recs)
		assert.Equal(t, 1, stats.DecodeFailed)
		assert.Equal(t, 1, strings.Count(buf.String(), "level=WARN"))
	})

	t.Run("Missing Root Is A Path Error", func(t *testing.T) {
		_, _, err := newCollector(true, nil).Collect(ctx, filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrPath)
	})

	t.Run("File Root Is A Path Error", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "a.dcm")
		dicomtest.WriteFile(t, file, "T1", "101500")

		_, _, err := newCollector(true, nil).Collect(ctx, file)
		assert.ErrorIs(t, err, core.ErrPath)
	})

	t.Run("Symlinked Root Is Followed", func(t *testing.T) {
		root, valid := setupTree(t)
		link := filepath.Join(t.TempDir(), "latest")
		require.NoError(t, os.Symlink(root, link))

		recs, _, err := newCollector(true, nil).Collect(ctx, link)
		require.NoError(t, err)
		assert.Len(t, recs, valid)
	})

	t.Run("Symlinked Skip Directory", func(t *testing.T) {
		root, valid := setupTree(t)
		link := filepath.Join(t.TempDir(), "one")
		require.NoError(t, os.Symlink(filepath.Join(root, "1"), link))

		recs, _, err := newCollector(true, nil).Collect(ctx, root, link)
		require.NoError(t, err)
		assert.Len(t, recs, valid-4)
	})

	t.Run("Cancelled Context Stops The Walk", func(t *testing.T) {
		root, _ := setupTree(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := newCollector(true, nil).Collect(cctx, root)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCollect_Patterns(t *testing.T) {
	ctx := context.Background()
	root, valid := setupTree(t)

	t.Run("Include", func(t *testing.T) {
		c := fs.NewCollector(fs.CollectorConfig{
			Codec:     dicom.NewCodec(),
			Recursive: true,
			Include:   []string{"**/*.dcm"},
		})
		recs, stats, err := c.Collect(ctx, root)
		require.NoError(t, err)
		assert.Len(t, recs, valid)
		assert.Equal(t, 0, stats.DecodeFailed)
		assert.Equal(t, 3, stats.Filtered)
	})

	t.Run("Exclude", func(t *testing.T) {
		c := fs.NewCollector(fs.CollectorConfig{
			Codec:     dicom.NewCodec(),
			Recursive: true,
			Exclude:   []string{"0/**"},
		})
		recs, _, err := c.Collect(ctx, root)
		require.NoError(t, err)
		assert.Len(t, recs, valid-4)
	})

	t.Run("Invalid Pattern", func(t *testing.T) {
		c := fs.NewCollector(fs.CollectorConfig{
			Codec:   dicom.NewCodec(),
			Include: []string{"[unclosed"},
		})
		_, _, err := c.Collect(ctx, root)
		assert.Error(t, err)
	})
}
