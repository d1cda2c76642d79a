package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/sortdicom/pkg/adapters/dicom"
	"github.com/aretw0/sortdicom/pkg/adapters/fs"
	"github.com/aretw0/sortdicom/pkg/core"
)

// New wires the codec and the filesystem adapters into a core.Service.
//
//	svc, err := sortdicom.New(sortdicom.WithSplitIndex(0))
//	res, err := svc.Run(ctx, "./dump", "./sorted")
func New(opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if _, err := core.ParseNaming(string(o.naming)); err != nil {
		return nil, err
	}

	codec := o.codec
	if codec == nil {
		codec = dicom.NewCodec()
	}

	collector := fs.NewCollector(fs.CollectorConfig{
		Codec:     codec,
		Recursive: o.recursive,
		Include:   o.include,
		Exclude:   o.exclude,
		Logger:    o.logger,
	})
	writer := fs.NewWriter(fs.WriterConfig{
		Codec:  codec,
		Naming: o.naming,
		Logger: o.logger,
	})

	if o.logger != nil {
		o.logger.Debug("service configured",
			"strategy", o.strategy.String(),
			"naming", string(o.naming),
			"recursive", o.recursive,
		)
	}

	return core.NewService(collector, writer, core.Config{
		Strategy: o.strategy,
		Logger:   o.logger,
	}), nil
}

// Sort is a one-shot helper: build a service and run it once.
func Sort(ctx context.Context, src, out string, opts ...Option) (core.Result, error) {
	svc, err := New(opts...)
	if err != nil {
		return core.Result{}, fmt.Errorf("configuring sorter: %w", err)
	}
	return svc.Run(ctx, src, out)
}
