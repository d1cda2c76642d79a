package core

import (
	"context"
	"io"
)

// Codec decodes and encodes DICOM records.
// Adhering to this interface keeps the pipeline independent of the DICOM
// library in use.
type Codec interface {
	// Decode reads the file at path. Any failure is reported as ErrDecode.
	Decode(path string) (Record, error)

	// Encode serializes a record previously returned by Decode.
	Encode(w io.Writer, rec Record) error
}

// Collector finds and decodes the records below a root directory.
type Collector interface {
	// Collect returns the decoded records in walk order.
	// Directories in skipDirs are not descended into.
	Collect(ctx context.Context, root string, skipDirs ...string) ([]Record, CollectStats, error)
}

// Writer persists grouped records below an output root.
type Writer interface {
	// Write stores every group in its own directory. Only a fatal error is
	// returned; per-file and per-group failures are reported in WriteStats.
	// A group whose directory would equal or contain one of the protected
	// paths is failed instead of written.
	Write(ctx context.Context, groups *Groups, outRoot string, protected ...string) (WriteStats, error)
}

// CollectStats summarizes a collection pass.
type CollectStats struct {
	// Files is the number of regular files offered to the codec.
	Files int `json:"files"`
	// Filtered is the number of files rejected by include/exclude patterns.
	Filtered     int `json:"filtered"`
	Decoded      int `json:"decoded"`
	DecodeFailed int `json:"decode_failed"`
}

// WriteStats summarizes a write pass.
type WriteStats struct {
	DirsCreated int         `json:"dirs_created"`
	Written     int         `json:"written"`
	Failed      int         `json:"failed"`
	Failures    []ItemError `json:"failures,omitempty"`
}
