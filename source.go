// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefinitionSuffix is appended to the asset identifier to name the animated
// object definition exported for a skin directory.
const DefinitionSuffix = "-AnimatedObjectDefinition.json"

var (
	// ErrNotDirectory is returned when an export root is not a directory
	ErrNotDirectory = errors.New("not a directory")

	// ErrBadPattern is returned for an invalid exclude pattern
	ErrBadPattern = errors.New("invalid exclude pattern")
)

// Entry is a single asset discovered by a Source. Entries found on disk point
// to the definition holding their animations, entries of a reference table
// carry the identifier of their localized name instead.
type Entry struct {
	ID     string // Asset identifier
	Path   string // Definition file with the animations, empty for named entries
	NameID string // Localized name identifier, textual form of the number
}

// Named returns whether the entry is resolved to a display name rather than to
// a list of animations.
func (e Entry) Named() bool {
	return e.Path == ""
}

// Source enumerates the assets to aggregate. Iteration stops at the first error.
type Source interface {
	Entries() iter.Seq2[Entry, error]
}

// ---------------------------------- Directory Listing ----------------------------------

// DirectoryListing discovers one asset per immediate subdirectory of Root. The
// subdirectory name is the asset identifier and its animations are read from
// "<Root>/<id>/<id><Suffix>".
type DirectoryListing struct {
	Root    string   // Directory holding one subdirectory per asset
	Suffix  string   // Definition file suffix, DefinitionSuffix when empty
	Exclude []string // Glob patterns of subdirectories to skip
}

// Entries returns an iterator over the subdirectories of the root, in name order.
func (s DirectoryListing) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		items, err := listDirectory(s.Root, s.Exclude)
		if err != nil {
			yield(Entry{}, err)
			return
		}

		suffix := s.Suffix
		if suffix == "" {
			suffix = DefinitionSuffix
		}

		for _, item := range items {
			isDir, err := isDirectory(s.Root, item)
			switch {
			case err != nil:
				yield(Entry{}, err)
				return
			case !isDir:
				continue
			case excluded(s.Exclude, item.Name()):
				continue
			}

			id := item.Name()
			if !yield(Entry{ID: id, Path: filepath.Join(s.Root, id, id+suffix)}, nil) {
				return
			}
		}
	}
}

// ---------------------------------- Filename Convention ----------------------------------

// FilenameConvention discovers assets inside every subdirectory of Root. A file
// whose name, up to the first dot, is made of digits names an asset, and its
// animations are read from "<Root>/<dir>/<id>.json".
type FilenameConvention struct {
	Root    string   // Directory holding the exported groups
	Exclude []string // Glob patterns, relative to Root, of directories or files to skip
}

// Entries returns an iterator over the numbered files, in directory then file
// name order. Files of one directory sharing an identifier ("1001.json" and
// "1001.png") are the same asset and yield one entry, while the same identifier
// in two directories yields two entries, the later one overriding the animations.
func (s FilenameConvention) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		groups, err := listDirectory(s.Root, s.Exclude)
		if err != nil {
			yield(Entry{}, err)
			return
		}

		for _, group := range groups {
			isDir, err := isDirectory(s.Root, group)
			switch {
			case err != nil:
				yield(Entry{}, err)
				return
			case !isDir:
				continue
			case excluded(s.Exclude, group.Name()):
				continue
			}

			dir := filepath.Join(s.Root, group.Name())
			files, err := os.ReadDir(dir)
			if err != nil {
				yield(Entry{}, fmt.Errorf("descriptor: unable to list '%s': %w", dir, err))
				return
			}

			seen := make(map[string]struct{}, 1)
			for _, file := range files {
				id, ok := numericPrefix(file.Name())
				if !ok || excluded(s.Exclude, path.Join(group.Name(), file.Name())) {
					continue
				}

				if _, dup := seen[id]; dup {
					continue
				}

				seen[id] = struct{}{}
				if !yield(Entry{ID: id, Path: filepath.Join(dir, id+".json")}, nil) {
					return
				}
			}
		}
	}
}

// numericPrefix returns the part of a file name before the first dot when it
// is a non-empty run of ASCII digits.
func numericPrefix(name string) (string, bool) {
	prefix, _, _ := strings.Cut(name, ".")
	if prefix == "" {
		return "", false
	}

	for i := 0; i < len(prefix); i++ {
		if prefix[i] < '0' || prefix[i] > '9' {
			return "", false
		}
	}
	return prefix, true
}

// ---------------------------------- Helpers ----------------------------------

// listDirectory verifies that root is a directory and returns its entries,
// sorted by name.
func listDirectory(root string, exclude []string) ([]os.DirEntry, error) {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("descriptor: %w: '%s'", ErrBadPattern, pattern)
		}
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("descriptor: directory '%s' does not exist: %w", root, err)
	case err != nil:
		return nil, fmt.Errorf("descriptor: failed to access directory '%s': %w", root, err)
	case !info.IsDir():
		return nil, fmt.Errorf("descriptor: %w: '%s'", ErrNotDirectory, root)
	}

	items, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("descriptor: unable to list '%s': %w", root, err)
	}
	return items, nil
}

// isDirectory returns whether the entry is a directory, following symbolic links
func isDirectory(root string, item os.DirEntry) (bool, error) {
	if item.Type()&fs.ModeSymlink == 0 {
		return item.IsDir(), nil
	}

	info, err := os.Stat(filepath.Join(root, item.Name()))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil // dangling link
	case err != nil:
		return false, fmt.Errorf("descriptor: failed to access '%s': %w", item.Name(), err)
	default:
		return info.IsDir(), nil
	}
}

// excluded returns whether the slash-separated relative name matches a pattern
func excluded(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
