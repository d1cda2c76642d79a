package platform

import (
	"log/slog"

	"github.com/aretw0/sortdicom/pkg/core"
)

// options holds the internal configuration for the sorting service.
type options struct {
	logger    *slog.Logger
	codec     core.Codec
	strategy  core.KeyStrategy
	naming    core.Naming
	recursive bool
	include   []string
	exclude   []string
}

// Option defines a functional option for configuring the service.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		logger:    nil,
		codec:     nil, // dicom.NewCodec() unless injected
		strategy:  core.WholeDescription(),
		naming:    core.NamingPositional,
		recursive: true,
	}
}

// WithLogger sets the logger for the service and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCodec allows injecting a custom DICOM codec (e.g. a mock).
func WithCodec(codec core.Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithSplitIndex groups by the n-th "_"-separated token of the series
// description instead of the whole description. Negative values count from
// the end.
func WithSplitIndex(n int) Option {
	return func(o *options) {
		o.strategy = core.SplitToken(n)
	}
}

// WithStrategy sets the key strategy directly.
func WithStrategy(s core.KeyStrategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithNaming selects how written files are named.
func WithNaming(n core.Naming) Option {
	return func(o *options) {
		o.naming = n
	}
}

// WithRecursive controls whether subdirectories of the source are scanned.
// Enabled by default.
func WithRecursive(recursive bool) Option {
	return func(o *options) {
		o.recursive = recursive
	}
}

// WithInclude restricts collection to files matching one of the patterns.
func WithInclude(patterns ...string) Option {
	return func(o *options) {
		o.include = append(o.include, patterns...)
	}
}

// WithExclude skips files matching one of the patterns.
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, patterns...)
	}
}
