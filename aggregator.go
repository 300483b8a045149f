// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package descriptor aggregates exported game asset definitions into the asset
// descriptor read by the renderer: the list of skins, their animation names and
// the localized names of the monsters using them.
package descriptor

import (
	"errors"
	"fmt"

	"github.com/kelindar/skin-descriptor/internal/jsonfile"
	"github.com/rs/zerolog"
)

var (
	// ErrNoLocalization is returned when a named entry is aggregated without a localization table
	ErrNoLocalization = errors.New("no localization table")
)

// Aggregator builds descriptors out of a Source. It is not safe for concurrent
// use; a single aggregator may be reused across runs to benefit from its cache.
type Aggregator struct {
	logger zerolog.Logger            // Logger for per-asset progress
	names  *Localization             // Localization table for named entries
	base   *Descriptor               // Descriptor to extend, if any
	cache  *jsonfile.Cache[[]string] // Decoded definitions, nil when disabled
	read   DefinitionFn              // Custom definition reader, if any
}

// Option configures an Aggregator
type Option func(*Aggregator) error

// WithLogger sets the logger used to report progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Aggregator) error {
		a.logger = logger
		return nil
	}
}

// WithLocalization sets the table used to resolve the names of named entries.
func WithLocalization(names *Localization) Option {
	return func(a *Aggregator) error {
		a.names = names
		return nil
	}
}

// WithBase extends the given descriptor instead of starting from an empty one.
// Its skinIds list is discarded, every other key is kept.
func WithBase(base *Descriptor) Option {
	return func(a *Aggregator) error {
		a.base = base
		return nil
	}
}

// WithCache keeps up to size decoded definitions in memory between runs.
func WithCache(size int) Option {
	return func(a *Aggregator) (err error) {
		a.cache, err = jsonfile.NewCache[[]string](size)
		return
	}
}

// WithDefinitions replaces the function reading the animations of a definition file.
func WithDefinitions(fn DefinitionFn) Option {
	return func(a *Aggregator) error {
		a.read = fn
		return nil
	}
}

// NewAggregator creates a new aggregator with the given options.
func NewAggregator(options ...Option) (*Aggregator, error) {
	a := &Aggregator{
		logger: zerolog.Nop(),
	}

	for _, option := range options {
		if err := option(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Aggregate builds a descriptor with a one-off aggregator.
func Aggregate(src Source, options ...Option) (*Descriptor, error) {
	a, err := NewAggregator(options...)
	if err != nil {
		return nil, err
	}

	return a.Aggregate(src)
}

// Aggregate walks the source and assembles a new descriptor. Entries pointing to
// a definition add a skin with its animations, named entries add a {name, skinId}
// record. The first error aborts the run and no descriptor is returned.
//
// Options given here only apply to this run; the cache is shared with the
// aggregator unless replaced.
func (a *Aggregator) Aggregate(src Source, options ...Option) (*Descriptor, error) {
	if len(options) > 0 {
		run := *a
		for _, option := range options {
			if err := option(&run); err != nil {
				return nil, err
			}
		}
		return run.aggregate(src)
	}

	return a.aggregate(src)
}

// aggregate runs the extract and assemble steps over the source
func (a *Aggregator) aggregate(src Source) (*Descriptor, error) {
	out := New()
	if a.base != nil {
		out = a.base.Reset()
	}

	for entry, err := range src.Entries() {
		if err != nil {
			return nil, err
		}

		if entry.Named() {
			name, err := a.name(entry)
			if err != nil {
				return nil, err
			}

			out.AddNamed(name, entry.ID)
			a.logger.Debug().Str("skin", entry.ID).Str("name", name).Msg("named skin")
			continue
		}

		anims, err := a.animations(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("descriptor: skin '%s': %w", entry.ID, err)
		}

		out.AddSkin(entry.ID, anims)
		a.logger.Debug().Str("skin", entry.ID).Int("animations", len(anims)).Msg("skin")
	}

	a.logger.Info().
		Int("skinIds", len(out.SkinIDs)).
		Int("skins", out.Len()).
		Int("cached", a.cache.Len()).
		Msg("descriptor assembled")
	return out, nil
}

// name resolves the display name of a named entry
func (a *Aggregator) name(entry Entry) (string, error) {
	if a.names == nil {
		return "", fmt.Errorf("descriptor: skin '%s': %w", entry.ID, ErrNoLocalization)
	}

	return a.names.Name(entry.NameID)
}

// animations reads the animation names of a definition file
func (a *Aggregator) animations(path string) ([]string, error) {
	if a.read != nil {
		return a.read(path)
	}

	return loadAnimations(a.cache, path)
}
