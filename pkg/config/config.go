// Package config loads oometrics settings from TOML, YAML or JSON files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed config.schema.json
var schemaJSON []byte

// Config holds all configuration options for oometrics.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Warning levels per metric
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// File inclusion globs
	Include IncludeConfig `koanf:"include" toml:"include"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// AnalysisConfig controls how classes are collected and measured.
type AnalysisConfig struct {
	Scope         string   `koanf:"scope" toml:"scope"`                   // file, project
	RFCFormula    string   `koanf:"rfc_formula" toml:"rfc_formula"`       // canonical, additive
	LCOMFormula   string   `koanf:"lcom_formula" toml:"lcom_formula"`     // canonical, pairs
	ExcludedTypes []string `koanf:"excluded_types" toml:"excluded_types"` // added to the built-in list
	IncludeTests  bool     `koanf:"include_tests" toml:"include_tests"`
	MaxFileSize   int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = no limit
	Workers       int      `koanf:"workers" toml:"workers"`             // 0 = 2x NumCPU
}

// ThresholdConfig defines the level above which a metric is flagged.
type ThresholdConfig struct {
	WMC  int `koanf:"wmc" toml:"wmc"`
	DIT  int `koanf:"dit" toml:"dit"`
	NOC  int `koanf:"noc" toml:"noc"`
	CBO  int `koanf:"cbo" toml:"cbo"`
	RFC  int `koanf:"rfc" toml:"rfc"`
	LCOM int `koanf:"lcom" toml:"lcom"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// IncludeConfig restricts analysis to paths matching any of the globs.
// An empty list includes everything.
type IncludeConfig struct {
	Patterns []string `koanf:"patterns" toml:"patterns"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, markdown, json, yaml, toon, csv
	Color  bool   `koanf:"color" toml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Scope:       "file",
			RFCFormula:  "canonical",
			LCOMFormula: "canonical",
		},
		Thresholds: ThresholdConfig{
			WMC:  20,
			DIT:  5,
			NOC:  10,
			CBO:  14,
			RFC:  50,
			LCOM: 1,
		},
		Exclude: ExcludeConfig{
			Dirs: []string{
				".git",
				".oometrics",
				"target",
				"build",
				"out",
				".gradle",
				".idea",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".oometrics/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// ConfigNames lists the file names searched for, in order.
var ConfigNames = []string{
	"oometrics.toml",
	"oometrics.yaml",
	"oometrics.yml",
	"oometrics.json",
	".oometrics.toml",
	".oometrics.yaml",
	".oometrics.yml",
	".oometrics.json",
}

// SearchDirs lists the directories searched for config files.
var SearchDirs = []string{".", ".oometrics"}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return kjson.Parser()
	default:
		return toml.Parser()
	}
}

func loadKoanf(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return k, nil
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// LoadResult is a loaded config and where it came from.
type LoadResult struct {
	Config *Config
	// Source is the file path, empty when defaults were used.
	Source string
}

type loadOptions struct {
	path string
	dirs []string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads exactly this file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs overrides the directories searched for config files.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

// LoadConfig loads, schema-checks and validates configuration. Without
// WithPath the search directories are scanned for the first config file;
// when none exists the defaults are returned.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{dirs: SearchDirs}
	for _, opt := range opts {
		opt(o)
	}

	path := o.path
	if path == "" {
		path = find(o.dirs)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	if err := ValidateFile(path); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

func find(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range ConfigNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// ValidateFile checks a config file against the embedded JSON Schema.
func ValidateFile(path string) error {
	k, err := loadKoanf(path)
	if err != nil {
		return err
	}

	// Normalize through JSON so numbers from every format look alike.
	raw, err := json.Marshal(k.Raw())
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add config schema: %w", err)
	}
	return c.Compile("config.schema.json")
}

var (
	scopes       = []string{"file", "project"}
	rfcFormulas  = []string{"canonical", "additive"}
	lcomFormulas = []string{"canonical", "pairs"}
	formats      = []string{"text", "markdown", "json", "yaml", "toon", "csv"}
)

// Validate checks values that decode fine but make no sense.
func (c *Config) Validate() error {
	var errs []error
	check := func(field, value string, allowed []string) {
		if value != "" && !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Errorf("%s: %q is not one of %s", field, value, strings.Join(allowed, ", ")))
		}
	}
	check("analysis.scope", c.Analysis.Scope, scopes)
	check("analysis.rfc_formula", c.Analysis.RFCFormula, rfcFormulas)
	check("analysis.lcom_formula", c.Analysis.LCOMFormula, lcomFormulas)
	check("output.format", c.Output.Format, formats)

	if c.Analysis.MaxFileSize < 0 {
		errs = append(errs, errors.New("analysis.max_file_size must not be negative"))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, errors.New("analysis.workers must not be negative"))
	}
	for _, p := range slices.Concat(c.Include.Patterns, c.Exclude.Patterns) {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid glob %q", p))
		}
	}
	return errors.Join(errs...)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	slashed := filepath.ToSlash(path)

	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(slashed, "/"+dir+"/") || strings.HasPrefix(slashed, dir+"/") {
			return true
		}
	}

	// Patterns match either the base name or the whole path.
	base := filepath.Base(slashed)
	for _, pattern := range c.Exclude.Patterns {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}

	return false
}

// ShouldInclude reports whether path matches the include globs.
func (c *Config) ShouldInclude(path string) bool {
	if len(c.Include.Patterns) == 0 {
		return true
	}
	slashed := filepath.ToSlash(path)
	for _, pattern := range c.Include.Patterns {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}
