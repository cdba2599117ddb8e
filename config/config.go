// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package config handles lox.toml interpreter configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/golox/lox"
)

// FileNames are the configuration file names Find looks for, in order.
var FileNames = []string{"lox.toml", ".loxrc.toml"}

// Trace units accepted in the trace list.
const (
	TraceCompiler = "compiler"
	TraceVM       = "vm"
)

// ErrInvalidConfig represents a configuration file that cannot be parsed or
// holds unknown values.
var ErrInvalidConfig = &lox.Error{Name: "ConfigError"}

// Config represents a lox.toml configuration.
type Config struct {
	// Verbosity is passed to commonlog.Configure.
	Verbosity int      `toml:"verbosity"`
	Trace     []string `toml:"trace"`
	REPL      REPL     `toml:"repl"`

	// Path is the file the configuration was loaded from, empty for
	// defaults.
	Path string `toml:"-"`
}

// REPL configures the interactive prompt.
type REPL struct {
	Prompt string `toml:"prompt"`
	// History is the history file, a leading "~" is the home directory.
	// Empty disables history.
	History string `toml:"history"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		REPL: REPL{
			Prompt:  "> ",
			History: "~/.lox_history",
		},
	}
}

// Load parses the configuration file at path. Values missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lox.ErrIO.Wrap(fmt.Errorf("cannot read %s: %w", path, err))
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, ErrInvalidConfig.NewError(
			fmt.Sprintf("parse error in %s: %v", path, err))
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i := range undecoded {
			keys[i] = undecoded[i].String()
		}
		return nil, ErrInvalidConfig.NewError(
			fmt.Sprintf("unknown keys in %s: %s", path, strings.Join(keys, ", ")))
	}
	if err := c.validate(); err != nil {
		return nil, ErrInvalidConfig.NewError(
			fmt.Sprintf("%s: %v", path, err))
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, lox.ErrIO.Wrap(err)
	}
	return c, nil
}

// Find walks up from startDir looking for one of FileNames and loads the
// first file found. Defaults are returned if there is none.
func Find(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, lox.ErrIO.Wrap(err)
	}

	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return Load(path)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	for _, unit := range c.Trace {
		switch unit {
		case TraceCompiler, TraceVM:
		default:
			return fmt.Errorf("unknown trace unit %q", unit)
		}
	}
	return nil
}

// Tracing reports whether unit is in the trace list.
func (c *Config) Tracing(unit string) bool {
	for _, u := range c.Trace {
		if u == unit {
			return true
		}
	}
	return false
}

// HistoryPath returns the REPL history file with "~" expanded.
func (c *Config) HistoryPath() (string, error) {
	h := c.REPL.History
	if h == "" || !strings.HasPrefix(h, "~") {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(h, "~")), nil
}

// ParseTrace splits a comma separated trace flag value into units.
func ParseTrace(s string) ([]string, error) {
	var units []string
	for _, u := range strings.Split(s, ",") {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		switch u {
		case TraceCompiler, TraceVM:
			units = append(units, u)
		default:
			return nil, errors.New("unknown trace unit: " + u)
		}
	}
	return units, nil
}
