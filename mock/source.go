package mock

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	descriptor "github.com/kelindar/skin-descriptor"
)

var ErrNotFound = errors.New("not found")

// Skin is an asset with its animations, added to a source as a definition entry.
type Skin struct {
	ID         string
	Animations []string
}

// Named is an asset resolved through a localized name.
type Named struct {
	ID     string
	NameID string
}

// item is either an entry or an error yielded by the source
type item struct {
	entry descriptor.Entry
	err   error
}

// Source is a lightweight in-memory implementation of descriptor.Source. It also
// serves the definitions of its skins through Read.
type Source struct {
	items       []item
	Definitions map[string][]string
}

// New creates an empty mock source.
func New() *Source {
	return &Source{
		Definitions: make(map[string][]string),
	}
}

// Add appends the given value to the source.
func (s *Source) Add(v any) {
	switch x := v.(type) {
	case Skin:
		path := fmt.Sprintf("mock/%s.json", x.ID)
		s.Definitions[path] = slices.Clone(x.Animations)
		s.items = append(s.items, item{entry: descriptor.Entry{ID: x.ID, Path: path}})
	case *Skin:
		s.Add(*x)
	case Named:
		s.items = append(s.items, item{entry: descriptor.Entry{ID: x.ID, NameID: x.NameID}})
	case descriptor.Entry:
		s.items = append(s.items, item{entry: x})
	case error:
		s.items = append(s.items, item{err: x})
	default:
		panic(fmt.Sprintf("mock: unsupported value %T", v))
	}
}

// Entries returns an iterator over the added values, in order.
func (s *Source) Entries() iter.Seq2[descriptor.Entry, error] {
	return func(yield func(descriptor.Entry, error) bool) {
		for _, it := range s.items {
			if !yield(it.entry, it.err) {
				return
			}
		}
	}
}

// Read returns the animations of a skin definition, to be used with
// descriptor.WithDefinitions.
func (s *Source) Read(path string) ([]string, error) {
	anims, ok := s.Definitions[path]
	if !ok {
		return nil, fmt.Errorf("mock: %w: %s", ErrNotFound, path)
	}
	return anims, nil
}

// Len returns the number of values added to the source
func (s *Source) Len() int {
	return len(s.items)
}
