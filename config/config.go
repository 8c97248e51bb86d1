// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads the settings of the copyright updater.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// TOML file, the environment and command-line flags. The file looks like:
//
//	year = 2026
//	inclusive_ranges = true
//	join_adjacent_pairs = false
//	extensions = [".go", ".py"]
//	exclusions = ["third_party/", "internal/gen.go"]
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"go.astrophena.name/copyright/notice"
)

// DefaultFile is the name of the configuration file looked up in the current
// directory.
const DefaultFile = ".copyright.toml"

// YearEnv is the environment variable that overrides the current year.
const YearEnv = "COPYRIGHT_YEAR"

// ErrInvalid is returned for configuration that can't be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the updater settings.
type Config struct {
	// Year, if non-zero, is used instead of the current year.
	Year int `toml:"year"`
	// InclusiveRanges makes a range "a-b" cover b as well.
	InclusiveRanges bool `toml:"inclusive_ranges"`
	// JoinAdjacentPairs renders two adjacent years as a range.
	JoinAdjacentPairs bool `toml:"join_adjacent_pairs"`
	// Extensions lists the file extensions to process, with the leading dot.
	Extensions []string `toml:"extensions"`
	// Exclusions lists path suffixes and directory prefixes to skip.
	Exclusions []string `toml:"exclusions"`
}

var defaultExtensions = []string{
	".c", ".cc", ".cpp", ".go", ".h", ".java", ".js", ".py", ".rs", ".sh", ".ts",
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{Extensions: slices.Clone(defaultExtensions)}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	v := getenv(YearEnv)
	if v == "" {
		return nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year <= 0 {
		return fmt.Errorf("%w: %s=%q is not a year", ErrInvalid, YearEnv, v)
	}
	c.Year = year
	return nil
}

func (c *Config) validate() error {
	if c.Year < 0 {
		return fmt.Errorf("%w: year %d is negative", ErrInvalid, c.Year)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalid, ext)
		}
	}
	return nil
}

// Options returns the notice options for c.
func (c *Config) Options() notice.Options {
	return notice.Options{
		InclusiveRanges:   c.InclusiveRanges,
		JoinAdjacentPairs: c.JoinAdjacentPairs,
	}
}

// Matches reports whether the file at path should be processed.
func (c *Config) Matches(path string) bool {
	if !slices.Contains(c.Extensions, filepath.Ext(path)) {
		return false
	}
	return !c.Excluded(path)
}

// Excluded reports whether path, a file or a directory, is excluded.
func (c *Config) Excluded(path string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	for _, ex := range c.Exclusions {
		if dir, ok := strings.CutSuffix(ex, "/"); ok {
			if path == dir || strings.HasSuffix(path, "/"+dir) || strings.HasPrefix(path, ex) || strings.Contains(path, "/"+ex) {
				return true
			}
			continue
		}
		if strings.HasSuffix(path, ex) {
			return true
		}
	}
	return false
}
