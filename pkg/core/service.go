package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config holds the configuration of the sorting service.
type Config struct {
	Strategy KeyStrategy
	Logger   *slog.Logger
}

// Service runs the scan → group → write pipeline.
type Service struct {
	collector Collector
	writer    Writer
	config    Config

	mu      sync.RWMutex
	runs    int
	lastRun *Result
}

// NewService creates a new Service.
func NewService(collector Collector, writer Writer, config Config) *Service {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		collector: collector,
		writer:    writer,
		config:    config,
	}
}

// Run sorts the records found below src into per-group directories under out.
//
// Workflow:
//  1. Resolve both roots through symlinks and validate them (fatal, nothing
//     is written on failure).
//  2. Collect records; the output root is skipped if it lives inside src,
//     and src is protected from the writer if it lives inside out.
//  3. Group them with the configured KeyStrategy.
//  4. Write every group; per-item failures are counted, not returned.
func (s *Service) Run(ctx context.Context, src, out string) (Result, error) {
	res := Result{Source: src, Output: out}

	absSrc, err := realPath(src)
	if err != nil {
		return res, fmt.Errorf("%w: resolving source %s: %v", ErrPath, src, err)
	}
	absOut, err := realPath(out)
	if err != nil {
		return res, fmt.Errorf("%w: resolving output %s: %v", ErrPath, out, err)
	}
	if info, err := os.Stat(absOut); err == nil && !info.IsDir() {
		return res, fmt.Errorf("%w: output path is not a directory: %s", ErrPath, out)
	}

	var skip []string
	if within(absOut, absSrc) {
		if absOut == absSrc {
			return res, fmt.Errorf("%w: output directory must differ from source directory: %s", ErrPath, out)
		}
		skip = append(skip, absOut)
	}
	// A source below the output root must never become a group directory.
	var protected []string
	if within(absSrc, absOut) {
		protected = append(protected, absSrc)
	}

	records, cstats, err := s.collector.Collect(ctx, absSrc, skip...)
	if err != nil {
		return res, err
	}
	res.Files = cstats.Files
	res.Filtered = cstats.Filtered
	res.Collected = len(records)
	res.DecodeFailed = cstats.DecodeFailed

	if err := ctx.Err(); err != nil {
		return res, err
	}

	groups, skipped := Group(records, s.config.Strategy)
	for _, item := range skipped {
		s.config.Logger.Warn("record skipped", "path", item.Path, "strategy", s.config.Strategy.String(), "error", item.Err)
	}
	res.Skipped = len(skipped)
	res.Groups = groups.Len()
	res.Failures = append(res.Failures, skipped...)

	wstats, err := s.writer.Write(ctx, groups, absOut, protected...)
	if err != nil {
		return res, err
	}
	res.DirsCreated = wstats.DirsCreated
	res.Written = wstats.Written
	res.Failed = wstats.Failed
	res.Failures = append(res.Failures, wstats.Failures...)

	s.config.Logger.Info("sort finished",
		"source", src,
		"output", out,
		"collected", res.Collected,
		"groups", res.Groups,
		"written", res.Written,
		"failed", res.Failed,
		"skipped", res.Skipped,
	)

	s.mu.Lock()
	s.runs++
	last := res
	s.lastRun = &last
	s.mu.Unlock()

	return res, nil
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// realPath returns p as an absolute path with symlinks resolved. Trailing
// elements that do not exist yet are kept as given.
func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	var missing []string
	for dir := abs; ; {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		missing = append([]string{filepath.Base(dir)}, missing...)
		dir = parent
	}
}
