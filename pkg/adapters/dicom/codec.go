// Package dicom adapts github.com/suyashkumar/dicom to core.Codec.
package dicom

import (
	"fmt"
	"io"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/aretw0/sortdicom/pkg/core"
)

// ValueSeparator joins multi-valued string elements.
const ValueSeparator = `\`

// Codec implements core.Codec.
type Codec struct {
	writeOpts []dicom.WriteOption
}

// NewCodec creates a codec that re-encodes datasets as they were parsed.
// VR and value type checks are skipped on write: the input was already
// accepted by the parser and is written back unchanged.
func NewCodec() *Codec {
	return &Codec{
		writeOpts: []dicom.WriteOption{
			dicom.SkipVRVerification(),
			dicom.SkipValueTypeVerification(),
		},
	}
}

// Decode parses the file at path, pixel data included.
func (c *Codec) Decode(path string) (rec core.Record, err error) {
	defer func() {
		// The parser can panic on some truncated inputs.
		if r := recover(); r != nil {
			rec = core.Record{}
			err = fmt.Errorf("%w: %s: parser panic: %v", core.ErrDecode, path, r)
		}
	}()

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %s: %v", core.ErrDecode, path, err)
	}

	return core.Record{
		Source:            path,
		SeriesDescription: StringValue(ds, tag.SeriesDescription),
		ContentTime:       StringValue(ds, tag.ContentTime),
		Data:              ds,
	}, nil
}

// Encode writes a record produced by Decode.
func (c *Codec) Encode(w io.Writer, rec core.Record) error {
	ds, ok := rec.Data.(dicom.Dataset)
	if !ok {
		return fmt.Errorf("record %s holds %T, not a dicom dataset", rec.Source, rec.Data)
	}
	if err := dicom.Write(w, ds, c.writeOpts...); err != nil {
		return fmt.Errorf("encoding %s: %w", rec.Source, err)
	}
	return nil
}

// ComponentType implements introspection.Component.
func (c *Codec) ComponentType() string {
	return "dicom-codec"
}

// StringValue returns a string element with DICOM padding removed.
// Missing or non-string elements yield the empty string.
func StringValue(ds dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	values, ok := elem.Value.GetValue().([]string)
	if !ok {
		return ""
	}
	return strings.Trim(strings.Join(values, ValueSeparator), " \x00")
}
