// Command sortdicom sorts DICOM files into one directory per series.
package main

import (
	"fmt"
	"os"
)

func main() {
	Execute()
}

// fatal reports err on stderr and exits with status 1.
func fatal(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	os.Exit(1)
}
