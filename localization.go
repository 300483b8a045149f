// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package descriptor

import (
	"errors"
	"fmt"
	"iter"
	"strconv"

	"github.com/kelindar/intmap"
	"github.com/kelindar/skin-descriptor/internal/jsonfile"
)

var (
	// ErrUnknownName is returned when a name identifier is absent from the localization table
	ErrUnknownName = errors.New("unknown name id")
)

// Localization is a read-only table of localized strings keyed by the textual
// form of their numeric identifier, as exported in "<lang>.i18n.json".
type Localization struct {
	index *intmap.Map       // Numeric identifier to position in texts
	texts []string          // Localized strings
	other map[string]string // Keys that are not a canonical uint32
}

// NewLocalization builds a localization table from its entries.
func NewLocalization(entries map[string]string) *Localization {
	l := &Localization{
		index: intmap.New(max(len(entries), 1), .95),
		texts: make([]string, 0, len(entries)),
		other: make(map[string]string),
	}

	for key, text := range entries {
		id, ok := numericKey(key)
		if !ok {
			l.other[key] = text
			continue
		}

		l.index.Store(id, uint32(len(l.texts)))
		l.texts = append(l.texts, text)
	}

	return l
}

// LoadLocalization reads a localization file of the form {"entries": {"<id>": "<text>"}}.
func LoadLocalization(path string) (*Localization, error) {
	var doc struct {
		Entries *map[string]string `json:"entries"`
	}

	if err := jsonfile.Decode(path, &doc); err != nil {
		return nil, fmt.Errorf("descriptor: unable to load localization: %w", err)
	}

	if doc.Entries == nil {
		return nil, fmt.Errorf("descriptor: %w: entries in '%s'", ErrMissingField, path)
	}

	return NewLocalization(*doc.Entries), nil
}

// Name returns the localized string for the identifier.
func (l *Localization) Name(id string) (string, error) {
	if key, ok := numericKey(id); ok {
		if at, ok := l.index.Load(key); ok {
			return l.texts[at], nil
		}
	} else if text, ok := l.other[id]; ok {
		return text, nil
	}

	return "", fmt.Errorf("descriptor: %w: %s", ErrUnknownName, id)
}

// Len returns the number of localized strings
func (l *Localization) Len() int {
	return len(l.texts) + len(l.other)
}

// Names returns an iterator over the numeric identifiers and their strings.
func (l *Localization) Names() iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		l.index.Range(func(key, at uint32) bool {
			return yield(key, l.texts[at])
		})
	}
}

// numericKey parses a key written as a canonical unsigned 32-bit number
func numericKey(key string) (uint32, bool) {
	v, err := strconv.ParseUint(key, 10, 32)
	if err != nil || strconv.FormatUint(v, 10) != key {
		return 0, false
	}
	return uint32(v), true
}
