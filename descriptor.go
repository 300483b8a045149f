// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"

	jsoniter "github.com/json-iterator/go"
	"github.com/kelindar/skin-descriptor/internal/jsonfile"
)

// FileName is the name of the descriptor file read by the renderer.
const FileName = "asset-descriptor.json"

const (
	keySkinIDs = "skinIds"
	keySkins   = "skins"
)

var (
	// ErrMissingField is returned when a document lacks a field that is read
	ErrMissingField = errors.New("missing field")

	// ErrInconsistent is returned by Verify when skinIds and skins disagree
	ErrInconsistent = errors.New("inconsistent descriptor")
)

// Format selects how a descriptor is serialized.
type Format int

const (
	// FormatCompact writes the document without any whitespace.
	FormatCompact Format = iota

	// FormatIndent writes the document indented with four spaces.
	FormatIndent
)

// String returns the name of the format
func (f Format) String() string {
	switch f {
	case FormatCompact:
		return "compact"
	case FormatIndent:
		return "indent"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a format name into a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "compact", "":
		return FormatCompact, nil
	case "indent", "pretty":
		return FormatIndent, nil
	default:
		return FormatCompact, fmt.Errorf("descriptor: unknown format '%s'", name)
	}
}

// ---------------------------------- Skin Reference ----------------------------------

// SkinRef is a single element of the skinIds list. It is either a bare asset
// identifier or a named record pairing a display name with the identifier.
type SkinRef struct {
	ID    string // Asset identifier
	Name  string // Display name, only meaningful when Named is set
	Named bool   // Whether the reference is encoded as a {name, skinId} record
	raw   string // Verbatim encoding of an element read as a number or as an invalid value
}

// Ref creates a bare reference to an asset.
func Ref(id string) SkinRef {
	return SkinRef{ID: id}
}

// NamedRef creates a reference carrying a display name.
func NamedRef(name, id string) SkinRef {
	return SkinRef{ID: id, Name: name, Named: true}
}

// namedRef is the wire form of a named reference
type namedRef struct {
	Name   *string `json:"name"`
	SkinID *string `json:"skinId"`
}

// MarshalJSON encodes the reference either as a string or as a record. A
// reference read from a document as a number is written back unchanged.
func (r SkinRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.raw != "":
		return []byte(r.raw), nil
	case !r.Named:
		return jsonfile.Marshal(r.ID)
	}

	return jsonfile.Marshal(namedRef{
		Name:   &r.Name,
		SkinID: &r.ID,
	})
}

// UnmarshalJSON decodes either form of a reference. A numeric identifier is
// kept as the text of the number.
func (r *SkinRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch valueType(data) {
	case jsoniter.StringValue:
		*r = SkinRef{}
		return jsonfile.Unmarshal(data, &r.ID)
	case jsoniter.NumberValue:
		var n json.Number
		if err := jsonfile.Unmarshal(data, &n); err != nil {
			return err
		}

		*r = SkinRef{ID: n.String(), raw: n.String()}
		return nil
	}

	var rec namedRef
	if err := jsonfile.Unmarshal(data, &rec); err != nil {
		return err
	}

	switch {
	case rec.Name == nil:
		return fmt.Errorf("%w: skinIds[].name", ErrMissingField)
	case rec.SkinID == nil:
		return fmt.Errorf("%w: skinIds[].skinId", ErrMissingField)
	}

	*r = NamedRef(*rec.Name, *rec.SkinID)
	return nil
}

// ---------------------------------- Descriptor ----------------------------------

// skin is the value of a single key of the skins mapping
type skin struct {
	anims []string        // Animation names, nil when the value is not a list
	raw   json.RawMessage // Value as read from a document, nil for added skins
}

// Descriptor is the aggregated document consumed by the renderer. It lists the
// known skins and, for each skin, the names of its animations. Everything read
// from a document is written back verbatim unless replaced.
type Descriptor struct {
	SkinIDs []SkinRef                  // Skins in discovery order
	skins   []string                   // Order of the keys of the skins mapping
	anims   map[string]skin            // Animations by asset identifier
	keys    []string                   // Order of the top-level keys
	extra   map[string]json.RawMessage // Unknown keys, and skinIds or skins when not a list or an object
	invalid map[int]error              // Elements of skinIds that could not be read
}

// New creates an empty descriptor.
func New() *Descriptor {
	return &Descriptor{
		SkinIDs: []SkinRef{},
		anims:   make(map[string]skin),
		keys:    []string{keySkinIDs, keySkins},
		extra:   make(map[string]json.RawMessage),
	}
}

// AddSkin appends the asset to skinIds and sets its animation list, replacing
// any list previously stored for the same asset.
func (d *Descriptor) AddSkin(id string, animations []string) {
	d.listed()
	delete(d.extra, keySkins)
	if !slices.Contains(d.keys, keySkins) {
		d.keys = append(d.keys, keySkins)
	}

	d.SkinIDs = append(d.SkinIDs, Ref(id))
	if _, ok := d.anims[id]; !ok {
		d.skins = append(d.skins, id)
	}

	anims := slices.Clone(animations)
	if anims == nil {
		anims = []string{}
	}
	d.anims[id] = skin{anims: anims}
}

// AddNamed appends a named reference to skinIds.
func (d *Descriptor) AddNamed(name, id string) {
	d.listed()
	d.SkinIDs = append(d.SkinIDs, NamedRef(name, id))
}

// listed makes sure skinIds is encoded as a list before it is extended
func (d *Descriptor) listed() {
	delete(d.extra, keySkinIDs)
	if !slices.Contains(d.keys, keySkinIDs) {
		d.keys = append(d.keys, keySkinIDs)
	}
}

// Animations returns the animation names of an asset. The list is nil when the
// stored value is not a list of names.
func (d *Descriptor) Animations(id string) ([]string, bool) {
	s, ok := d.anims[id]
	return s.anims, ok
}

// Skins returns an iterator over the skins mapping, in insertion order.
func (d *Descriptor) Skins() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		for _, id := range d.skins {
			if !yield(id, d.anims[id].anims) {
				return
			}
		}
	}
}

// Len returns the number of entries in the skins mapping
func (d *Descriptor) Len() int {
	return len(d.skins)
}

// Reset returns a copy of the descriptor with an empty skinIds list. Skins and
// unknown keys are kept so the copy can be extended with a new list.
func (d *Descriptor) Reset() *Descriptor {
	out := &Descriptor{
		SkinIDs: []SkinRef{},
		skins:   slices.Clone(d.skins),
		anims:   make(map[string]skin, len(d.anims)),
		keys:    slices.Clone(d.keys),
		extra:   make(map[string]json.RawMessage, len(d.extra)),
	}

	for id, s := range d.anims {
		out.anims[id] = skin{anims: slices.Clone(s.anims), raw: slices.Clone(s.raw)}
	}
	for k, v := range d.extra {
		out.extra[k] = slices.Clone(v)
	}

	out.listed()
	return out
}

// Verify checks the descriptor the way the renderer reads it: every skin listed
// in skinIds must have a list of animations, and when skinIds only holds bare
// ids, every skin with animations must be listed. A descriptor without a skins
// mapping is only checked for empty identifiers.
func (d *Descriptor) Verify() error {
	var errs []error
	if _, ok := d.extra[keySkinIDs]; ok {
		errs = append(errs, fmt.Errorf("%w: %s is not a list", ErrInconsistent, keySkinIDs))
	}
	if _, ok := d.extra[keySkins]; ok {
		errs = append(errs, fmt.Errorf("%w: %s is not an object", ErrInconsistent, keySkins))
	}

	listed := make(map[string]struct{}, len(d.SkinIDs))
	hasSkins := d.hasSkins()
	named := false
	for i, ref := range d.SkinIDs {
		if err, ok := d.invalid[i]; ok {
			errs = append(errs, fmt.Errorf("%w: %s[%d]: %w", ErrInconsistent, keySkinIDs, i, err))
			continue
		}

		named = named || ref.Named
		listed[ref.ID] = struct{}{}
		switch _, ok := d.anims[ref.ID]; {
		case ref.ID == "":
			errs = append(errs, fmt.Errorf("%w: %s[%d] has an empty identifier", ErrInconsistent, keySkinIDs, i))
		case hasSkins && !ok:
			errs = append(errs, fmt.Errorf("%w: skin '%s' has no animations", ErrInconsistent, ref.ID))
		}
	}

	for _, id := range d.skins {
		if d.anims[id].anims == nil {
			errs = append(errs, fmt.Errorf("%w: skin '%s' does not hold a list of animations", ErrInconsistent, id))
		}
	}

	if named {
		return errors.Join(errs...)
	}

	for _, id := range d.skins {
		if _, ok := listed[id]; !ok {
			errs = append(errs, fmt.Errorf("%w: skin '%s' is not listed in %s", ErrInconsistent, id, keySkinIDs))
		}
	}

	return errors.Join(errs...)
}

// hasSkins returns whether the document holds a skins object
func (d *Descriptor) hasSkins() bool {
	_, raw := d.extra[keySkins]
	return !raw && slices.Contains(d.keys, keySkins)
}

// ---------------------------------- Encoding ----------------------------------

// Encode serializes the descriptor, keeping the order of keys.
func (d *Descriptor) Encode(format Format) ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buffer.WriteByte(',')
		}

		name, err := jsonfile.Marshal(key)
		if err != nil {
			return nil, err
		}

		buffer.Write(name)
		buffer.WriteByte(':')
		if err := d.encodeValue(&buffer, key); err != nil {
			return nil, fmt.Errorf("descriptor: unable to encode '%s': %w", key, err)
		}
	}
	buffer.WriteByte('}')

	if format != FormatIndent {
		return buffer.Bytes(), nil
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, buffer.Bytes(), "", "    "); err != nil {
		return nil, fmt.Errorf("descriptor: unable to indent: %w", err)
	}
	return indented.Bytes(), nil
}

// encodeValue writes the value of a single top-level key
func (d *Descriptor) encodeValue(buffer *bytes.Buffer, key string) error {
	if raw, ok := d.extra[key]; ok {
		return json.Compact(buffer, raw)
	}

	switch key {
	case keySkinIDs:
		out, err := jsonfile.Marshal(d.SkinIDs)
		if err != nil {
			return err
		}

		buffer.Write(out)
		return nil

	case keySkins:
		buffer.WriteByte('{')
		for i, id := range d.skins {
			if i > 0 {
				buffer.WriteByte(',')
			}

			name, err := jsonfile.Marshal(id)
			if err != nil {
				return err
			}

			buffer.Write(name)
			buffer.WriteByte(':')
			if err := d.anims[id].encode(buffer); err != nil {
				return err
			}
		}
		buffer.WriteByte('}')
		return nil

	default:
		return errors.New("no value")
	}
}

// encode writes the value of a skin, verbatim when it was read from a document
func (s skin) encode(buffer *bytes.Buffer) error {
	if s.raw != nil {
		return json.Compact(buffer, s.raw)
	}

	out, err := jsonfile.Marshal(s.anims)
	if err != nil {
		return err
	}

	buffer.Write(out)
	return nil
}

// WriteFile serializes the descriptor and replaces the content of the file.
func (d *Descriptor) WriteFile(path string, format Format) error {
	data, err := d.Encode(format)
	if err != nil {
		return err
	}

	return jsonfile.WriteFile(path, data)
}

// Load reads a descriptor previously written to the file at path.
func Load(path string) (*Descriptor, error) {
	data, err := jsonfile.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: unable to load '%s': %w", path, err)
	}

	out, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("descriptor: unable to load '%s': %w", path, err)
	}
	return out, nil
}

// Decode parses a descriptor document, keeping the order of its keys. Only the
// top level must be an object: values of skinIds and skins that the renderer
// could not read are kept verbatim and reported by Verify.
func Decode(data []byte) (*Descriptor, error) {
	var doc map[string]json.RawMessage
	if err := jsonfile.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	keys, err := objectKeys(data)
	if err != nil {
		return nil, err
	}

	out := &Descriptor{
		SkinIDs: []SkinRef{},
		anims:   make(map[string]skin),
		keys:    keys,
		extra:   make(map[string]json.RawMessage),
		invalid: make(map[int]error),
	}

	for _, key := range keys {
		raw := doc[key]
		switch {
		case key == keySkinIDs && valueType(raw) == jsoniter.ArrayValue:
			if err := out.decodeSkinIDs(raw); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", keySkinIDs, err)
			}

		case key == keySkins && valueType(raw) == jsoniter.ObjectValue:
			if err := out.decodeSkins(raw); err != nil {
				return nil, fmt.Errorf("invalid %s: %w", keySkins, err)
			}

		default:
			out.extra[key] = slices.Clone(raw)
		}
	}

	return out, nil
}

// decodeSkinIDs decodes every element of the skinIds list, keeping the ones
// that cannot be read verbatim
func (d *Descriptor) decodeSkinIDs(raw json.RawMessage) error {
	var items []json.RawMessage
	if err := jsonfile.Unmarshal(raw, &items); err != nil {
		return err
	}

	for i, item := range items {
		var ref SkinRef
		if err := ref.UnmarshalJSON(item); err != nil {
			var compact bytes.Buffer
			if err := json.Compact(&compact, item); err != nil {
				return err
			}

			d.invalid[i] = err
			ref = SkinRef{raw: compact.String()}
		}

		d.SkinIDs = append(d.SkinIDs, ref)
	}
	return nil
}

// decodeSkins decodes the skins mapping, keeping the order of its keys and the
// value of every key as read
func (d *Descriptor) decodeSkins(raw json.RawMessage) error {
	var skins map[string]json.RawMessage
	if err := jsonfile.Unmarshal(raw, &skins); err != nil {
		return err
	}

	order, err := objectKeys(raw)
	if err != nil {
		return err
	}

	for _, id := range order {
		value := slices.Clone(skins[id])
		s := skin{raw: value}
		if valueType(value) == jsoniter.ArrayValue {
			switch err := jsonfile.Unmarshal(value, &s.anims); {
			case err != nil:
				s.anims = nil
			case s.anims == nil:
				s.anims = []string{}
			}
		}

		d.skins = append(d.skins, id)
		d.anims[id] = s
	}
	return nil
}

// valueType returns the type of the JSON value held by data
func valueType(data []byte) jsoniter.ValueType {
	return jsoniter.ParseBytes(jsonfile.API(), data).WhatIsNext()
}

// objectKeys returns the distinct keys of a JSON object in document order
func objectKeys(data []byte) ([]string, error) {
	it := jsoniter.ParseBytes(jsonfile.API(), data)
	if it.WhatIsNext() != jsoniter.ObjectValue {
		return nil, errors.New("expected a JSON object")
	}

	seen := make(map[string]struct{})
	keys := make([]string, 0, 4)
	it.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		it.Skip()
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		return true
	})

	if it.Error != nil {
		return nil, it.Error
	}
	return keys, nil
}
