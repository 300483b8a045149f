// Package config resolves the paths and options of the descriptor jobs from
// built-in defaults, an optional YAML job file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DESCRIPTOR_"

// Config holds the configuration of every job.
type Config struct {
	Resources string `yaml:"resources"`
	Skins     Job    `yaml:"skins"`
	Bones     Job    `yaml:"bones"`
	Monsters  Job    `yaml:"monsters"`
}

// Job configures a single aggregation job. Fields that a job does not use are ignored.
type Job struct {
	Root         string   `yaml:"root,omitempty"`         // Directory scanned for assets
	Suffix       string   `yaml:"suffix,omitempty"`       // Definition file suffix (skins)
	Exclude      []string `yaml:"exclude,omitempty"`      // Glob patterns to skip
	Output       string   `yaml:"output,omitempty"`       // Descriptor file written
	Format       string   `yaml:"format,omitempty"`       // "compact" or "indent"
	Localization string   `yaml:"localization,omitempty"` // Localization table (monsters)
	References   string   `yaml:"references,omitempty"`   // Reference table (monsters)
	Base         string   `yaml:"base,omitempty"`         // Descriptor extended (monsters)
}

// Default returns the built-in configuration of every job, with resource
// files located under the given directory.
func Default(resources string) *Config {
	if resources == "" {
		resources = "./resources"
	}

	descriptor := filepath.Join(resources, "asset-descriptor.json")
	return &Config{
		Resources: resources,
		Skins: Job{
			Root:   resources,
			Suffix: "-AnimatedObjectDefinition.json",
			Output: descriptor,
			Format: "indent",
		},
		Bones: Job{
			Root:   "./exported",
			Output: descriptor,
			Format: "compact",
		},
		Monsters: Job{
			Output:       descriptor,
			Format:       "compact",
			Localization: filepath.Join(resources, "fr.i18n.json"),
			References:   filepath.Join(resources, "MonstersRoot.json"),
			Base:         descriptor,
		},
	}
}

// Load resolves the configuration. Variables from a ".env" file in the working
// directory are loaded first when present. The YAML file at path, if any, then
// overrides the defaults and DESCRIPTOR_* variables override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: unable to load .env: %w", err)
	}

	cfg := Default(os.Getenv(EnvPrefix + "RESOURCES"))
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: unable to read '%s': %w", path, err)
		}

		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("config: unable to parse '%s': %w", path, err)
		}
	}

	cfg.Skins.override("SKINS")
	cfg.Bones.override("BONES")
	cfg.Monsters.override("MONSTERS")
	return cfg, nil
}

// merge applies a YAML job file on top of the configuration. A file changing
// the resources directory moves every default derived from it.
func (c *Config) merge(data []byte) error {
	var file Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if file.Resources != "" && file.Resources != c.Resources {
		*c = *Default(file.Resources)
	}

	c.Skins.Merge(file.Skins)
	c.Bones.Merge(file.Bones)
	c.Monsters.Merge(file.Monsters)
	return nil
}

// Job returns the configuration of a job by name.
func (c *Config) Job(name string) (*Job, error) {
	switch name {
	case "skins":
		return &c.Skins, nil
	case "bones":
		return &c.Bones, nil
	case "monsters":
		return &c.Monsters, nil
	default:
		return nil, fmt.Errorf("config: unknown job '%s'", name)
	}
}

// Merge copies every field set in other.
func (j *Job) Merge(other Job) {
	set(&j.Root, other.Root)
	set(&j.Suffix, other.Suffix)
	set(&j.Output, other.Output)
	set(&j.Format, other.Format)
	set(&j.Localization, other.Localization)
	set(&j.References, other.References)
	set(&j.Base, other.Base)
	if len(other.Exclude) > 0 {
		j.Exclude = other.Exclude
	}
}

// override applies the DESCRIPTOR_<JOB>_<FIELD> environment variables
func (j *Job) override(job string) {
	env := func(field string) string {
		return strings.TrimSpace(os.Getenv(EnvPrefix + job + "_" + field))
	}

	set(&j.Root, env("ROOT"))
	set(&j.Suffix, env("SUFFIX"))
	set(&j.Output, env("OUTPUT"))
	set(&j.Format, env("FORMAT"))
	set(&j.Localization, env("LOCALIZATION"))
	set(&j.References, env("REFERENCES"))
	set(&j.Base, env("BASE"))
	if items := splitList(env("EXCLUDE")); len(items) > 0 {
		j.Exclude = items
	}
}

// splitList splits a comma-separated list, dropping blank items
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// set replaces dst when value is not empty
func set(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
