// Package core holds the domain model and the scan → group → write pipeline.
package core

// Record is one decoded DICOM file.
// The core only reads SeriesDescription and ContentTime; Data is owned by the
// Codec that produced it and is handed back to the same Codec for encoding.
type Record struct {
	// Source is the path the record was decoded from.
	Source            string
	SeriesDescription string
	// ContentTime is HHMMSS.ffffff, without DICOM padding.
	ContentTime string
	Data        any
}

// Groups is an ordered mapping from group key to records.
// Keys keep the order in which they were first seen and records keep their
// collection order within each group.
type Groups struct {
	keys    []string
	members map[string][]Record
}

// NewGroups returns an empty mapping.
func NewGroups() *Groups {
	return &Groups{members: make(map[string][]Record)}
}

// Add appends rec to the group identified by key, creating it if needed.
func (g *Groups) Add(key string, rec Record) {
	if g.members == nil {
		g.members = make(map[string][]Record)
	}
	if _, ok := g.members[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.members[key] = append(g.members[key], rec)
}

// Keys returns the group keys in discovery order.
func (g *Groups) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Get returns the records of a group.
func (g *Groups) Get(key string) ([]Record, bool) {
	recs, ok := g.members[key]
	return recs, ok
}

// Len returns the number of groups.
func (g *Groups) Len() int {
	return len(g.keys)
}

// Total returns the number of records across all groups.
func (g *Groups) Total() int {
	n := 0
	for _, recs := range g.members {
		n += len(recs)
	}
	return n
}
