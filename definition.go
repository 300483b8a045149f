// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package descriptor

import (
	"fmt"

	"github.com/kelindar/skin-descriptor/internal/jsonfile"
)

// DefinitionFn returns the animation names stored in the definition file at path.
type DefinitionFn func(path string) ([]string, error)

// definition is the part of an exported animated object definition we read.
//
// The layout is:
//
//	{"animations": {"Array": [{"name": "AnimStatique", ...}, ...]}}
type definition struct {
	Animations *struct {
		Array *[]struct {
			Name *string `json:"name"`
		} `json:"Array"`
	} `json:"animations"`
}

// ReadAnimations returns the animation names of the definition file at path,
// in the order of the exported array.
func ReadAnimations(path string) ([]string, error) {
	return loadAnimations(nil, path)
}

// loadAnimations reads a definition through the cache
func loadAnimations(cache *jsonfile.Cache[[]string], path string) ([]string, error) {
	anims, err := cache.Load(path, decodeAnimations)
	if err != nil {
		return nil, fmt.Errorf("descriptor: unable to read animations: %w", err)
	}
	return anims, nil
}

// decodeAnimations extracts the animation names of a definition document
func decodeAnimations(data []byte) ([]string, error) {
	var doc definition
	if err := jsonfile.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	switch {
	case doc.Animations == nil:
		return nil, fmt.Errorf("%w: animations", ErrMissingField)
	case doc.Animations.Array == nil:
		return nil, fmt.Errorf("%w: animations.Array", ErrMissingField)
	}

	items := *doc.Animations.Array
	names := make([]string, 0, len(items))
	for i, item := range items {
		if item.Name == nil {
			return nil, fmt.Errorf("%w: animations.Array[%d].name", ErrMissingField, i)
		}

		names = append(names, *item.Name)
	}

	return names, nil
}
