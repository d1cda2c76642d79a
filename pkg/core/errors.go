package core

import (
	"errors"
	"fmt"
)

// Error classes. Failures are wrapped with %w so callers can use errors.Is.
var (
	// ErrPath means the source or output root is missing or unusable. Fatal.
	ErrPath = errors.New("invalid path")
	// ErrDecode means a file is not a readable DICOM file. The file is skipped.
	ErrDecode = errors.New("not a dicom file")
	// ErrGroupKey means no group key could be derived for a record. The record is skipped.
	ErrGroupKey = errors.New("cannot derive group key")
	// ErrFilesystem means a group directory could not be created. Fatal for that group only.
	ErrFilesystem = errors.New("filesystem error")
	// ErrWrite means a record could not be serialized to its destination.
	ErrWrite = errors.New("write failed")
)

// ItemError reports a failure attached to a single file or record.
type ItemError struct {
	// Path is the source file or the destination file, depending on the stage.
	Path string
	// Key is the group key, if one was derived.
	Key string
	Err error
}

func (e ItemError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}
