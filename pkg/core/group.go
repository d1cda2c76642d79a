package core

import (
	"fmt"
	"strings"
)

// KeyDelimiter separates tokens inside a series description.
const KeyDelimiter = "_"

// KeyStrategy derives the group key from a series description.
// The zero value uses the whole description.
type KeyStrategy struct {
	split bool
	index int
}

// WholeDescription groups by the unsplit series description.
func WholeDescription() KeyStrategy {
	return KeyStrategy{}
}

// SplitToken groups by the token at index after splitting on KeyDelimiter.
// Negative indices count from the end, so -1 selects the last token.
func SplitToken(index int) KeyStrategy {
	return KeyStrategy{split: true, index: index}
}

// SplitIndex reports the configured index, if any.
func (k KeyStrategy) SplitIndex() (int, bool) {
	return k.index, k.split
}

func (k KeyStrategy) String() string {
	if !k.split {
		return "whole"
	}
	return fmt.Sprintf("token[%d]", k.index)
}

// Key returns the group key for a series description.
func (k KeyStrategy) Key(description string) (string, error) {
	if description == "" {
		return "", fmt.Errorf("%w: empty series description", ErrGroupKey)
	}
	if !k.split {
		return description, nil
	}

	tokens := strings.Split(description, KeyDelimiter)
	i := k.index
	if i < 0 {
		i += len(tokens)
	}
	if i < 0 || i >= len(tokens) {
		return "", fmt.Errorf("%w: index %d out of range for %q (%d tokens)", ErrGroupKey, k.index, description, len(tokens))
	}
	if tokens[i] == "" {
		return "", fmt.Errorf("%w: token %d of %q is empty", ErrGroupKey, k.index, description)
	}
	return tokens[i], nil
}

// Group partitions records by key. It performs no I/O.
// Records whose key cannot be derived are left out and reported, one
// ItemError each; they never abort the grouping of the others.
func Group(records []Record, strategy KeyStrategy) (*Groups, []ItemError) {
	groups := NewGroups()
	var skipped []ItemError

	for _, rec := range records {
		key, err := strategy.Key(rec.SeriesDescription)
		if err != nil {
			skipped = append(skipped, ItemError{Path: rec.Source, Err: err})
			continue
		}
		groups.Add(key, rec)
	}

	return groups, skipped
}
