// Package testing builds exported asset trees on disk for tests.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kelindar/skin-descriptor/internal/jsonfile"
)

// Skin is an exported skin along with the names of its animations.
type Skin struct {
	ID         string
	Animations []string
}

// Record is a single entry of a reference table.
type Record struct {
	NameID int
	Look   string
}

// WriteFile writes raw content to path, creating the parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("unable to create directory for '%s': %v", path, err)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("unable to write '%s': %v", path, err)
	}
}

// WriteJSON encodes v and writes it to path, creating the parent directories.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := jsonfile.Marshal(v)
	if err != nil {
		t.Fatalf("unable to encode '%s': %v", path, err)
	}

	WriteFile(t, path, string(data))
}

// Definition returns an animated object definition with the given animations.
// Every animation carries a few unrelated fields, as the exporter writes them.
func Definition(animations ...string) map[string]any {
	items := make([]any, 0, len(animations))
	for i, name := range animations {
		items = append(items, map[string]any{
			"name":       name,
			"frameCount": i + 1,
			"loop":       true,
		})
	}

	return map[string]any{
		"m_Name": "AnimatedObjectDefinition",
		"animations": map[string]any{
			"Array": items,
		},
	}
}

// SkinsTree writes one "<id>/<id>-AnimatedObjectDefinition.json" per skin under
// a new temporary directory and returns that directory.
func SkinsTree(t testing.TB, skins ...Skin) string {
	t.Helper()
	root := t.TempDir()
	for _, skin := range skins {
		name := skin.ID + "-AnimatedObjectDefinition.json"
		WriteJSON(t, filepath.Join(root, skin.ID, name), Definition(skin.Animations...))
	}
	return root
}

// BonesTree writes one "<group>/<id>.json" per skin under a new temporary
// directory and returns that directory.
func BonesTree(t testing.TB, groups map[string][]Skin) string {
	t.Helper()
	root := t.TempDir()
	for group, skins := range groups {
		for _, skin := range skins {
			WriteJSON(t, filepath.Join(root, group, skin.ID+".json"), Definition(skin.Animations...))
		}
	}
	return root
}

// Localization returns a localization document with the given entries.
func Localization(entries map[string]string) map[string]any {
	return map[string]any{
		"lang":    "fr",
		"entries": entries,
	}
}

// References returns a reference table document with the given records.
func References(records ...Record) map[string]any {
	items := make([]any, 0, len(records))
	for _, r := range records {
		items = append(items, map[string]any{
			"rid": len(items),
			"data": map[string]any{
				"nameId": r.NameID,
				"look":   r.Look,
			},
		})
	}

	return map[string]any{
		"references": map[string]any{
			"version": 2,
			"RefIds":  items,
		},
	}
}
