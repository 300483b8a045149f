// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package jsonfile

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DecodeFn converts the raw content of a file into a value
type DecodeFn[T any] func(data []byte) (T, error)

// entry is a decoded value along with the file signature it was decoded from
type entry[T any] struct {
	size    int64
	modTime time.Time
	value   T
}

// Cache keeps recently decoded files in memory. A cached value is reused only
// while the size and modification time of its file are unchanged. A nil cache
// decodes every time.
type Cache[T any] struct {
	entries *lru.Cache[string, entry[T]]
}

// NewCache creates a cache holding up to size decoded files.
func NewCache[T any](size int) (*Cache[T], error) {
	entries, err := lru.New[string, entry[T]](size)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: unable to create cache: %w", err)
	}

	return &Cache[T]{entries: entries}, nil
}

// Load returns the decoded value of the file at path, reading and decoding it
// only when it is not cached or has changed on disk.
func (c *Cache[T]) Load(path string, decode DecodeFn[T]) (T, error) {
	var zero T
	if c == nil {
		return read(path, decode)
	}

	info, err := os.Stat(path)
	if err != nil {
		return zero, fmt.Errorf("jsonfile: %w", err)
	}

	if cached, ok := c.entries.Get(path); ok {
		if cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
			return cached.value, nil
		}
	}

	value, err := read(path, decode)
	if err != nil {
		c.entries.Remove(path)
		return zero, err
	}

	c.entries.Add(path, entry[T]{
		size:    info.Size(),
		modTime: info.ModTime(),
		value:   value,
	})
	return value, nil
}

// Len returns the number of cached files
func (c *Cache[T]) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every cached file
func (c *Cache[T]) Purge() {
	if c != nil {
		c.entries.Purge()
	}
}

// read reads and decodes a single file
func read[T any](path string, decode DecodeFn[T]) (T, error) {
	var zero T
	data, err := ReadFile(path)
	if err != nil {
		return zero, err
	}

	value, err := decode(data)
	if err != nil {
		return zero, fmt.Errorf("jsonfile: malformed document '%s': %w", path, err)
	}
	return value, nil
}
