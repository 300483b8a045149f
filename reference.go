// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package descriptor

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/kelindar/skin-descriptor/internal/jsonfile"
)

// Reference is a single record of a reference table, linking a localized name
// to an entity look.
type Reference struct {
	NameID string // Localized name identifier, textual form of the number
	Look   string // Composite look, e.g. "{1234|...}"
}

// SkinID returns the skin identifier encoded in the look: the first character
// is dropped and the remainder is cut at the first '|'.
func (r Reference) SkinID() string {
	look := r.Look
	if _, size := utf8.DecodeRuneInString(look); size > 0 {
		look = look[size:]
	}

	id, _, _ := strings.Cut(look, "|")
	return id
}

// ReferenceTable is a Source yielding one named entry per reference, in table order.
type ReferenceTable struct {
	References []Reference
}

// refTable is the exported layout of a reference table
type refTable struct {
	References *struct {
		RefIDs *[]struct {
			Data *struct {
				NameID *json.Number `json:"nameId"`
				Look   *string      `json:"look"`
			} `json:"data"`
		} `json:"RefIds"`
	} `json:"references"`
}

// LoadReferences reads a reference table of the form
// {"references": {"RefIds": [{"data": {"nameId": <number>, "look": "<string>"}}]}}.
func LoadReferences(path string) (*ReferenceTable, error) {
	var doc refTable
	if err := jsonfile.Decode(path, &doc); err != nil {
		return nil, fmt.Errorf("descriptor: unable to load references: %w", err)
	}

	switch {
	case doc.References == nil:
		return nil, fmt.Errorf("descriptor: %w: references in '%s'", ErrMissingField, path)
	case doc.References.RefIDs == nil:
		return nil, fmt.Errorf("descriptor: %w: references.RefIds in '%s'", ErrMissingField, path)
	}

	records := *doc.References.RefIDs
	table := &ReferenceTable{
		References: make([]Reference, 0, len(records)),
	}

	for i, record := range records {
		switch {
		case record.Data == nil:
			return nil, fmt.Errorf("descriptor: %w: references.RefIds[%d].data in '%s'", ErrMissingField, i, path)
		case record.Data.NameID == nil:
			return nil, fmt.Errorf("descriptor: %w: references.RefIds[%d].data.nameId in '%s'", ErrMissingField, i, path)
		case record.Data.Look == nil:
			return nil, fmt.Errorf("descriptor: %w: references.RefIds[%d].data.look in '%s'", ErrMissingField, i, path)
		}

		table.References = append(table.References, Reference{
			NameID: record.Data.NameID.String(),
			Look:   *record.Data.Look,
		})
	}

	return table, nil
}

// Entries returns an iterator over the references, in table order.
func (t *ReferenceTable) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, ref := range t.References {
			if !yield(Entry{ID: ref.SkinID(), NameID: ref.NameID}, nil) {
				return
			}
		}
	}
}
