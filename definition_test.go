// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package descriptor

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	dtest "github.com/kelindar/skin-descriptor/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAnimations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.json")
	dtest.WriteJSON(t, path, dtest.Definition("AnimStatique", "AnimMarche", "AnimStatique", "AnimMort"))

	anims, err := ReadAnimations(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AnimStatique", "AnimMarche", "AnimStatique", "AnimMort"}, anims)
}

func TestReadAnimations_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1.json")
	dtest.WriteFile(t, path, `{"animations":{"Array":[]}}`)

	anims, err := ReadAnimations(path)
	require.NoError(t, err)
	assert.NotNil(t, anims)
	assert.Empty(t, anims)
}

func TestReadAnimations_Errors(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"no-animations": `{"m_Name":"x"}`,
		"no-array":      `{"animations":{}}`,
		"null-array":    `{"animations":{"Array":null}}`,
		"no-name":       `{"animations":{"Array":[{"name":"Idle"},{"frames":3}]}}`,
		"upper-case":    `{"ANIMATIONS":{"Array":[{"name":"Idle"}]}}`,
		"lower-array":   `{"animations":{"array":[{"name":"Idle"}]}}`,
		"title-name":    `{"animations":{"Array":[{"Name":"Idle"}]}}`,
	} {
		path := filepath.Join(dir, name+".json")
		dtest.WriteFile(t, path, content)

		_, err := ReadAnimations(path)
		assert.ErrorIs(t, err, ErrMissingField, name)
	}

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		dtest.WriteFile(t, path, `{"animations":{"Array":[{"name":"Idle"}`)

		_, err := ReadAnimations(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "malformed document")
	})

	t.Run("WrongType", func(t *testing.T) {
		path := filepath.Join(dir, "number.json")
		dtest.WriteFile(t, path, `{"animations":{"Array":[{"name":12}]}}`)

		_, err := ReadAnimations(path)
		assert.Error(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := ReadAnimations(filepath.Join(dir, "missing.json"))
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})
}
