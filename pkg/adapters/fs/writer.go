package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/sortdicom/pkg/core"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// WriterConfig holds the configuration of a Writer.
type WriterConfig struct {
	Codec  core.Codec
	Naming core.Naming
	Logger *slog.Logger
}

// Writer implements core.Writer: one directory per group below an output root.
type Writer struct {
	config WriterConfig
}

// NewWriter creates a new filesystem writer.
func NewWriter(config WriterConfig) *Writer {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Naming == "" {
		config.Naming = core.NamingPositional
	}
	return &Writer{config: config}
}

// Write stores each group in outRoot/<group>.
//
// Workflow:
//  1. Create outRoot if missing (failure is fatal and nothing is written).
//  2. Per group, create its directory. A failure fails that group only, and
//     so does a directory that equals or contains a protected path.
//  3. Per record, encode atomically to the name chosen by the naming policy.
//     A failure fails that file only.
func (w *Writer) Write(ctx context.Context, groups *core.Groups, outRoot string, protected ...string) (core.WriteStats, error) {
	var stats core.WriteStats
	if groups.Len() == 0 {
		return stats, nil
	}

	if _, err := ensureDir(outRoot); err != nil {
		return stats, fmt.Errorf("%w: output directory: %v", core.ErrPath, err)
	}

	owners := make(map[string]string, groups.Len())
	for _, key := range groups.Keys() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		recs, _ := groups.Get(key)
		name := DirName(key)
		dir := filepath.Join(outRoot, name)

		if owner, ok := owners[name]; ok {
			w.failGroup(&stats, key, recs, fmt.Errorf("%w: groups %q and %q both map to %s", core.ErrFilesystem, owner, key, dir))
			continue
		}
		owners[name] = key

		if p, ok := covers(dir, protected); ok {
			w.failGroup(&stats, key, recs, fmt.Errorf("%w: group directory %s would write over source %s", core.ErrFilesystem, dir, p))
			continue
		}

		created, err := ensureDir(dir)
		if err != nil {
			w.failGroup(&stats, key, recs, fmt.Errorf("%w: %v", core.ErrFilesystem, err))
			continue
		}
		if created {
			stats.DirsCreated++
		}

		names := w.config.Naming.FileNames(recs)
		for i, rec := range recs {
			dst := filepath.Join(dir, FileName(names[i]))
			err := writeFileAtomic(dst, func(out io.Writer) error {
				return w.config.Codec.Encode(out, rec)
			}, filePerm)
			if err != nil {
				w.config.Logger.Error("write failed", "source", rec.Source, "dest", dst, "error", err)
				stats.Failed++
				stats.Failures = append(stats.Failures, core.ItemError{
					Path: dst,
					Key:  key,
					Err:  fmt.Errorf("%w: %s: %v", core.ErrWrite, rec.Source, err),
				})
				continue
			}
			stats.Written++
		}

		w.config.Logger.Debug("group written", "group", key, "dir", dir, "records", len(recs))
	}

	return stats, nil
}

// ComponentType implements introspection.Component.
func (w *Writer) ComponentType() string {
	return "fs-writer"
}

func (w *Writer) failGroup(stats *core.WriteStats, key string, recs []core.Record, err error) {
	w.config.Logger.Error("group failed", "group", key, "records", len(recs), "error", err)
	for _, rec := range recs {
		stats.Failed++
		stats.Failures = append(stats.Failures, core.ItemError{Path: rec.Source, Key: key, Err: err})
	}
}

// covers returns the first protected path at or below dir.
func covers(dir string, protected []string) (string, bool) {
	for _, p := range protected {
		if within(resolveDir(p), resolveDir(dir)) {
			return p, true
		}
	}
	return "", false
}

var separators = strings.NewReplacer("/", "-", `\`, "-")

// DirName maps a group key to a single path element.
func DirName(key string) string {
	name := separators.Replace(key)
	if name == "." || name == ".." {
		name = strings.Repeat("_", len(name))
	}
	return name
}

// FileName strips path separators from a generated file name.
func FileName(name string) string {
	return separators.Replace(name)
}

// ensureDir creates dir if it does not exist and reports whether it did.
// An existing non-directory at dir is an error.
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return false, err
	}
	return true, nil
}
