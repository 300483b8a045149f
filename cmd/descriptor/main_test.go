package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	descriptor "github.com/kelindar/skin-descriptor"
	"github.com/kelindar/skin-descriptor/internal/config"
	dtest "github.com/kelindar/skin-descriptor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command line with the given arguments and returns what was
// printed to the standard output
func execute(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newApp(&stdout, &stderr).command()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func TestSkins(t *testing.T) {
	root := dtest.SkinsTree(t,
		dtest.Skin{ID: "1", Animations: []string{"AnimStatique", "AnimMarche"}},
		dtest.Skin{ID: "2"},
	)

	output := filepath.Join(t.TempDir(), descriptor.FileName)
	stdout, err := execute(context.Background(), "skins", "-r", root, "-o", output, "-f", "indent")
	require.NoError(t, err)
	assert.Equal(t, `{"skinIds":["1","2"],"skins":{"1":["AnimStatique","AnimMarche"],"2":[]}}`+"\n", stdout)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, `{
    "skinIds": [
        "1",
        "2"
    ],
    "skins": {
        "1": [
            "AnimStatique",
            "AnimMarche"
        ],
        "2": []
    }
}`, string(data))
}

func TestSkins_Quiet(t *testing.T) {
	root := dtest.SkinsTree(t, dtest.Skin{ID: "1", Animations: []string{"Idle"}})
	output := filepath.Join(t.TempDir(), descriptor.FileName)

	stdout, err := execute(context.Background(), "skins", "-q", "-r", root, "-o", output, "-f", "compact")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, `{"skinIds":["1"],"skins":{"1":["Idle"]}}`, string(data))
}

func TestSkins_MissingDefinition(t *testing.T) {
	root := dtest.SkinsTree(t, dtest.Skin{ID: "1", Animations: []string{"Idle"}})
	require.NoError(t, os.Mkdir(filepath.Join(root, "2"), 0755))

	output := filepath.Join(t.TempDir(), descriptor.FileName)
	stdout, err := execute(context.Background(), "skins", "-r", root, "-o", output)
	assert.Error(t, err)
	assert.Empty(t, stdout)

	_, err = os.Stat(output)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestBones(t *testing.T) {
	root := dtest.BonesTree(t, map[string][]dtest.Skin{
		"monsters": {{ID: "1001", Animations: []string{"Idle"}}, {ID: "1002", Animations: []string{"Walk", "Run"}}},
		"skip":     {{ID: "5"}},
	})
	dtest.WriteFile(t, filepath.Join(root, "monsters", "metadata.json"), "{}")

	output := filepath.Join(t.TempDir(), descriptor.FileName)
	stdout, err := execute(context.Background(), "bones", "-q", "-r", root, "-o", output, "-x", "skip")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, `{"skinIds":["1001","1002"],"skins":{"1001":["Idle"],"1002":["Walk","Run"]}}`, string(data))
}

func TestMonsters(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, descriptor.FileName)
	i18n := filepath.Join(dir, "fr.i18n.json")
	refs := filepath.Join(dir, "MonstersRoot.json")

	dtest.WriteFile(t, output, `{"skinIds":["1"],"skins":{"1":["Idle"]},"version":3}`)
	dtest.WriteJSON(t, i18n, dtest.Localization(map[string]string{"42": "Bouftou"}))
	dtest.WriteJSON(t, refs, dtest.References(dtest.Record{NameID: 42, Look: "#1|x"}))

	_, err := execute(context.Background(), "monsters", "-q",
		"-o", output,
		"--base", output,
		"--localization", i18n,
		"--references", refs,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, `{"skinIds":[{"name":"Bouftou","skinId":"1"}],"skins":{"1":["Idle"]},"version":3}`, string(data))

	// Running the job again produces the same document
	_, err = execute(context.Background(), "monsters", "-q",
		"-o", output,
		"--base", output,
		"--localization", i18n,
		"--references", refs,
	)
	require.NoError(t, err)

	again, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestMonsters_UnknownName(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, descriptor.FileName)
	i18n := filepath.Join(dir, "fr.i18n.json")
	refs := filepath.Join(dir, "MonstersRoot.json")

	base := `{"skinIds":["1"],"skins":{"1":["Idle"]}}`
	dtest.WriteFile(t, output, base)
	dtest.WriteJSON(t, i18n, dtest.Localization(map[string]string{}))
	dtest.WriteJSON(t, refs, dtest.References(dtest.Record{NameID: 42, Look: "#1|x"}))

	_, err := execute(context.Background(), "monsters",
		"-o", output, "--base", output, "--localization", i18n, "--references", refs)
	assert.ErrorIs(t, err, descriptor.ErrUnknownName)

	// The existing descriptor is left untouched
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, base, string(data))
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()

	t.Run("Consistent", func(t *testing.T) {
		path := filepath.Join(dir, "ok.json")
		dtest.WriteFile(t, path, `{"skinIds":["1"],"skins":{"1":["Idle"]}}`)

		stdout, err := execute(context.Background(), "verify", path)
		assert.NoError(t, err)
		assert.Empty(t, stdout)
	})

	t.Run("Inconsistent", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		dtest.WriteFile(t, path, `{"skinIds":["1","3"],"skins":{"1":["Idle"],"2":[]}}`)

		stdout, err := execute(context.Background(), "verify", path)
		assert.Error(t, err)
		assert.Contains(t, stdout, "skin '3' has no animations")
		assert.Contains(t, stdout, "skin '2' is not listed")
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := execute(context.Background(), "verify", filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})
}

func TestConfigFile(t *testing.T) {
	root := dtest.SkinsTree(t, dtest.Skin{ID: "7", Animations: []string{"Idle"}})
	dir := t.TempDir()
	output := filepath.Join(dir, descriptor.FileName)
	file := filepath.Join(dir, "jobs.yaml")
	dtest.WriteFile(t, file, "skins:\n  root: "+root+"\n  output: "+output+"\n  format: compact\n")

	stdout, err := execute(context.Background(), "skins", "-c", file)
	require.NoError(t, err)
	assert.Equal(t, `{"skinIds":["7"],"skins":{"7":["Idle"]}}`+"\n", stdout)

	_, err = execute(context.Background(), "skins", "-c", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestUnknownFormat(t *testing.T) {
	root := dtest.SkinsTree(t, dtest.Skin{ID: "1"})
	output := filepath.Join(t.TempDir(), descriptor.FileName)

	_, err := execute(context.Background(), "skins", "-r", root, "-o", output, "-f", "yaml")
	assert.Error(t, err)

	_, err = os.Stat(output)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSkins_Watch(t *testing.T) {
	root := dtest.SkinsTree(t, dtest.Skin{ID: "1", Animations: []string{"Idle"}})
	output := filepath.Join(t.TempDir(), descriptor.FileName)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := execute(ctx, "skins", "-w", "-q", "-r", root, "-o", output, "-f", "compact")
	assert.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, `{"skinIds":["1"],"skins":{"1":["Idle"]}}`, string(data))
}

func TestWatch(t *testing.T) {
	root := dtest.SkinsTree(t, dtest.Skin{ID: "1", Animations: []string{"Idle"}})
	output := filepath.Join(root, descriptor.FileName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builds := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, zerolog.Nop(), []string{root}, output, func() error {
			builds <- struct{}{}
			return nil
		})
	}()

	// Touch a definition until a rebuild is observed, the first writes may
	// happen before the watcher is ready
	path := filepath.Join(root, "1", "1"+descriptor.DefinitionSuffix)
	deadline := time.After(10 * time.Second)
	for built := false; !built; {
		dtest.WriteJSON(t, path, dtest.Definition("Idle", "Walk"))
		select {
		case <-builds:
			built = true
		case <-time.After(time.Second):
		case <-deadline:
			t.Fatal("no rebuild after a change")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_MissingPath(t *testing.T) {
	err := watch(context.Background(), zerolog.Nop(), []string{filepath.Join(t.TempDir(), "missing")}, "", func() error {
		return nil
	})
	assert.Error(t, err)
}

func TestWatcher_Relevant(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "resources")
	file := filepath.Join(base, "fr.i18n.json")
	w := &watcher{
		dirs:   []string{root},
		files:  map[string]struct{}{file: {}},
		ignore: filepath.Join(root, descriptor.FileName),
	}

	assert.True(t, w.relevant(file))
	assert.True(t, w.relevant(root))
	assert.True(t, w.relevant(filepath.Join(root, "1", "1.json")))
	assert.False(t, w.relevant(filepath.Join(root, descriptor.FileName)))
	assert.False(t, w.relevant(filepath.Join(base, "other.json")))
	assert.False(t, w.relevant(root+"-backup"))
}

func TestInputs(t *testing.T) {
	job := config.Job{
		Root:         "resources",
		Output:       "./resources/asset-descriptor.json",
		Localization: "resources/fr.i18n.json",
		References:   "resources/MonstersRoot.json",
		Base:         "resources/asset-descriptor.json",
	}

	assert.Equal(t, []string{
		"resources",
		"resources/fr.i18n.json",
		"resources/MonstersRoot.json",
	}, inputs(job))
}

func TestNewLogger(t *testing.T) {
	var buffer bytes.Buffer
	logger := newLogger(&buffer, false)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.False(t, strings.Contains(buffer.String(), "hidden"))
	assert.True(t, strings.Contains(buffer.String(), "shown"))

	buffer.Reset()
	logger = newLogger(&buffer, true)
	logger.Debug().Msg("details")
	assert.Contains(t, buffer.String(), "details")
}
