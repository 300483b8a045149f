// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package jsonfile reads and writes the JSON documents produced by the asset
// exporter. Files are memory-mapped for reading and decoded with json-iterator.
package jsonfile

import (
	"errors"
	"fmt"
	"os"

	"codeberg.org/go-mmap/mmap"
	jsoniter "github.com/json-iterator/go"
)

// Common errors
var (
	ErrEmptyFile = errors.New("empty file")
)

// api is compatible with encoding/json but keeps '<', '>' and '&' as-is, the way
// the exporter and the renderer expect them, and matches field names exactly.
var api = jsoniter.Config{
	EscapeHTML:             false,
	CaseSensitive:          true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// API returns the json-iterator configuration used for all documents.
func API() jsoniter.API {
	return api
}

// ReadFile memory-maps the file at path and returns a copy of its contents.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return nil, fmt.Errorf("jsonfile: %w", err)
	case info.IsDir():
		return nil, fmt.Errorf("jsonfile: '%s' is a directory", path)
	case info.Size() == 0:
		return nil, fmt.Errorf("jsonfile: %w: %s", ErrEmptyFile, path)
	}

	file, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: unable to map '%s': %w", path, err)
	}
	defer file.Close()

	data := make([]byte, file.Len())
	if _, err := file.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("jsonfile: unable to read '%s': %w", path, err)
	}

	return data, nil
}

// Decode reads the file at path and unmarshals the whole document into v.
func Decode(path string, v any) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}

	if err := api.Unmarshal(data, v); err != nil {
		return fmt.Errorf("jsonfile: malformed document '%s': %w", path, err)
	}
	return nil
}

// Unmarshal decodes data into v using the shared configuration.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Marshal encodes v using the shared configuration.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// WriteFile replaces the content of the file at path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("jsonfile: unable to write '%s': %w", path, err)
	}
	return nil
}
