package core

import "encoding/json"

// Result is the outcome of one pipeline run.
type Result struct {
	Source string `json:"source"`
	Output string `json:"output"`

	Files        int `json:"files"`
	Filtered     int `json:"filtered"`
	Collected    int `json:"collected"`
	DecodeFailed int `json:"decode_failed"`
	// Skipped counts records left out because no group key could be derived.
	Skipped int `json:"skipped"`

	Groups      int `json:"groups"`
	DirsCreated int `json:"dirs_created"`
	Written     int `json:"written"`
	Failed      int `json:"failed"`

	Failures []ItemError `json:"failures,omitempty"`
}

// OK reports whether every collected record was written.
// Files that are not DICOM do not count against a run.
func (r Result) OK() bool {
	return r.Failed == 0 && r.Skipped == 0
}

// MarshalJSON renders the wrapped error as text.
func (e ItemError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path"`
		Key   string `json:"key,omitempty"`
		Error string `json:"error"`
	}{e.Path, e.Key, msg})
}
