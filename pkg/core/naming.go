package core

import (
	"fmt"
	"strconv"
)

// FileExt is the extension of every written file.
const FileExt = ".dcm"

// Naming selects how written files are named inside their group directory.
type Naming string

const (
	// NamingPositional names files by their zero-padded index in the group.
	// Names never collide inside a group.
	NamingPositional Naming = "positional"
	// NamingDescriptive names files {SeriesDescription}_{ContentTime}.dcm.
	// Two records sharing both values map to the same name and the later one wins.
	NamingDescriptive Naming = "descriptive"
)

// ParseNaming validates a naming policy name. The empty string selects the default.
func ParseNaming(s string) (Naming, error) {
	switch Naming(s) {
	case "", NamingPositional:
		return NamingPositional, nil
	case NamingDescriptive:
		return NamingDescriptive, nil
	default:
		return "", fmt.Errorf("unknown naming policy %q (want %q or %q)", s, NamingPositional, NamingDescriptive)
	}
}

// FileNames returns the destination file name of every record of a group, in order.
func (n Naming) FileNames(recs []Record) []string {
	names := make([]string, len(recs))
	if len(recs) == 0 {
		return names
	}

	if n == NamingDescriptive {
		for i, rec := range recs {
			names[i] = fmt.Sprintf("%s_%s%s", rec.SeriesDescription, rec.ContentTime, FileExt)
		}
		return names
	}

	width := len(strconv.Itoa(len(recs) - 1))
	for i := range recs {
		names[i] = fmt.Sprintf("%0*d%s", width, i, FileExt)
	}
	return names
}
