// Package dicomtest builds small but valid DICOM files for tests.
package dicomtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const (
	// MRImageStorage is the SOP class of the generated files.
	MRImageStorage = "1.2.840.10008.5.1.4.1.1.4"
	// ExplicitVRLittleEndian is the transfer syntax of the generated files.
	ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"
)

var instance atomic.Int64

// Dataset returns an MR dataset carrying the given series description and
// content time. An empty description leaves the element out.
func Dataset(t testing.TB, description, contentTime string) dicom.Dataset {
	t.Helper()

	uid := fmt.Sprintf("1.2.3.4.%d", instance.Add(1))
	elems := []*dicom.Element{
		element(t, tag.MediaStorageSOPClassUID, MRImageStorage),
		element(t, tag.MediaStorageSOPInstanceUID, uid),
		element(t, tag.TransferSyntaxUID, ExplicitVRLittleEndian),
		element(t, tag.ContentTime, contentTime),
	}
	if description != "" {
		elems = append(elems, element(t, tag.SeriesDescription, description))
	}
	elems = append(elems,
		element(t, tag.PatientName, "Samwise Gamgee"),
		element(t, tag.PatientID, "29071954"),
	)

	return dicom.Dataset{Elements: elems}
}

// WriteFile writes a dataset built by Dataset to path, creating parent
// directories as needed.
func WriteFile(t testing.TB, path, description, contentTime string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	if err := dicom.Write(f, Dataset(t, description, contentTime)); err != nil {
		t.Fatalf("writing dicom %s: %v", path, err)
	}
}

func element(t testing.TB, tg tag.Tag, value string) *dicom.Element {
	t.Helper()

	elem, err := dicom.NewElement(tg, []string{value})
	if err != nil {
		t.Fatalf("building element %v: %v", tg, err)
	}
	return elem
}
