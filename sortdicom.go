package sortdicom

import (
	"context"
	"log/slog"

	"github.com/aretw0/sortdicom/internal/platform"
	"github.com/aretw0/sortdicom/pkg/core"
)

// --- Types ---

// Result is a public alias for the outcome of a run.
type Result = core.Result

// Naming is a public alias for the file naming policy.
type Naming = core.Naming

// Naming policies.
const (
	NamingPositional  = core.NamingPositional
	NamingDescriptive = core.NamingDescriptive
)

// --- Configuration ---

// Option defines a functional option for configuring the sorter.
type Option = platform.Option

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithCodec allows injecting a custom DICOM codec.
func WithCodec(codec core.Codec) Option {
	return platform.WithCodec(codec)
}

// WithSplitIndex groups by the n-th "_"-separated token of the series description.
func WithSplitIndex(n int) Option {
	return platform.WithSplitIndex(n)
}

// WithNaming selects positional (default) or descriptive file names.
func WithNaming(n Naming) Option {
	return platform.WithNaming(n)
}

// WithRecursive controls whether subdirectories of the source are scanned.
func WithRecursive(recursive bool) Option {
	return platform.WithRecursive(recursive)
}

// WithInclude restricts collection to files matching one of the glob patterns.
func WithInclude(patterns ...string) Option {
	return platform.WithInclude(patterns...)
}

// WithExclude skips files matching one of the glob patterns.
func WithExclude(patterns ...string) Option {
	return platform.WithExclude(patterns...)
}

// --- Factory ---

// New creates a new sorting service.
func New(opts ...Option) (*core.Service, error) {
	return platform.New(opts...)
}

// Sort builds a service and runs it once over src, writing to out.
func Sort(ctx context.Context, src, out string, opts ...Option) (Result, error) {
	return platform.Sort(ctx, src, out, opts...)
}
