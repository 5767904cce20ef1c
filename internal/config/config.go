// Package config holds jsedit's layered configuration: built-in
// defaults, overridden by environment variables, overridden by CLI
// flags.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"jsedit/internal/digest"
)

// ListOutput selects the listing render style.
type ListOutput string

const (
	ListOutputDense   ListOutput = "dense"
	ListOutputVerbose ListOutput = "verbose"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	Hash       digest.Config `yaml:"hash"`
	ListOutput ListOutput    `yaml:"list_output"`
	ContextPad int           `yaml:"context_pad"`
}

// Default returns jsedit's built-in defaults before any environment
// or CLI override is applied.
func Default() *Config {
	return &Config{
		Hash:       digest.DefaultConfig(),
		ListOutput: ListOutputDense,
		ContextPad: 0,
	}
}

// ApplyEnv overlays recognized environment variables onto cfg,
// mutating in place.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("JS_EDIT_LIST_OUTPUT"); v == string(ListOutputDense) || v == string(ListOutputVerbose) {
		c.ListOutput = ListOutput(v)
	}
	if v := os.Getenv("JS_EDIT_HASH_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Hash.Length = n
		}
	}
}

// LoadFile reads a YAML config file (e.g. project-level jsedit
// defaults) and merges recognized fields into cfg. Missing files are
// not an error: an absent file simply leaves defaults/env in place.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}
	if overlay.ListOutput != "" {
		c.ListOutput = overlay.ListOutput
	}
	if overlay.Hash.Encoding != "" {
		c.Hash.Encoding = overlay.Hash.Encoding
	}
	if overlay.Hash.Length != 0 {
		c.Hash.Length = overlay.Hash.Length
	}
	if overlay.ContextPad != 0 {
		c.ContextPad = overlay.ContextPad
	}
	return nil
}
