// Package fs implements the filesystem side of the pipeline: collecting
// DICOM files from a source tree and writing grouped records to disk.
package fs

import (
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/sortdicom/pkg/core"
)

// CollectorConfig holds the configuration of a Collector.
type CollectorConfig struct {
	Codec core.Codec
	// Recursive descends into subdirectories. When false only the files
	// directly below the root are considered.
	Recursive bool
	// Include and Exclude are doublestar patterns ("**/*.dcm") matched against
	// the slash-separated path relative to the root. An empty Include
	// selects every file.
	Include []string
	Exclude []string
	Logger  *slog.Logger
}

// Collector implements core.Collector on a directory tree.
type Collector struct {
	config CollectorConfig
}

// NewCollector creates a new filesystem collector.
func NewCollector(config CollectorConfig) *Collector {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Collector{config: config}
}

// Collect decodes every regular file below root.
// Files the codec rejects are counted and skipped. A warning is logged when
// no record is found.
func (c *Collector) Collect(ctx context.Context, root string, skipDirs ...string) ([]core.Record, core.CollectStats, error) {
	var stats core.CollectStats

	if err := c.validatePatterns(); err != nil {
		return nil, stats, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: source directory: %v", core.ErrPath, err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("%w: source path is not a directory: %s", core.ErrPath, root)
	}
	// WalkDir does not follow a symlinked root.
	root = resolveDir(root)

	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[resolveDir(d)] = true
	}

	var records []core.Record
	err = filepath.WalkDir(root, func(path string, d iofs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("%w: reading source directory: %v", core.ErrPath, walkErr)
			}
			c.config.Logger.Warn("unreadable entry skipped", "path", path, "error", walkErr)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !c.config.Recursive || skip[filepath.Clean(path)] {
				return filepath.SkipDir
			}
			return nil
		}

		if !isRegular(path, d) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !c.selected(filepath.ToSlash(rel)) {
			stats.Filtered++
			return nil
		}

		stats.Files++
		rec, err := c.config.Codec.Decode(path)
		if err != nil {
			stats.DecodeFailed++
			c.config.Logger.Debug("skipping non-dicom file", "path", path, "error", err)
			return nil
		}
		stats.Decoded++
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	if len(records) == 0 {
		c.config.Logger.Warn("no DICOM images found", "root", root)
	} else {
		c.config.Logger.Debug("collected records", "root", root, "records", len(records), "decode_failed", stats.DecodeFailed)
	}

	return records, stats, nil
}

// ComponentType implements introspection.Component.
func (c *Collector) ComponentType() string {
	return "fs-collector"
}

func (c *Collector) validatePatterns() error {
	for _, p := range append(append([]string{}, c.config.Include...), c.config.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// selected applies the include and exclude patterns to a relative path.
func (c *Collector) selected(rel string) bool {
	if len(c.config.Include) > 0 && !matchAny(c.config.Include, rel) {
		return false
	}
	return !matchAny(c.config.Exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// isRegular reports whether the entry is a regular file, following symlinks.
func isRegular(path string, d iofs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&iofs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// resolveDir returns the absolute, symlink-free form of path when it exists,
// and the cleaned absolute path otherwise.
func resolveDir(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}
