// Package config provides configuration loading for candyshop.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/appsecsanta/research/internal/adapters"
	"github.com/appsecsanta/research/internal/normalize"
	"github.com/appsecsanta/research/pkg/types"
)

// Config holds the benchmark pipeline configuration.
type Config struct {
	// Version is the config file version
	Version string `json:"version" yaml:"version" toml:"version"`

	// Targets are the known-vulnerable applications in the corpus
	Targets []string `json:"targets" yaml:"targets" toml:"targets"`

	// Tools configures the scanners, keyed by canonical tool name
	Tools map[string]ToolConfig `json:"tools" yaml:"tools" toml:"tools"`

	// Severity overlays the built-in severity vocabulary tables
	Severity SeverityConfig `json:"severity" yaml:"severity" toml:"severity"`

	// Output configures report output
	Output OutputConfig `json:"output" yaml:"output" toml:"output"`

	// Workers sets the number of parallel file loaders (0 = one per CPU)
	Workers int `json:"workers" yaml:"workers" toml:"workers"`
}

// ToolConfig controls one scanner's handling.
type ToolConfig struct {
	// Aliases are alternate spellings resolved to this tool
	Aliases []string `json:"aliases" yaml:"aliases" toml:"aliases"`

	// MinVersion warns when a report was produced by an older tool
	MinVersion string `json:"min_version" yaml:"min_version" toml:"min_version"`

	// Disabled drops the tool's files at discovery time
	Disabled bool `json:"disabled" yaml:"disabled" toml:"disabled"`
}

// SeverityConfig overlays the built-in vocabulary tables. A per-tool table
// replaces the built-in table for that tool whole; generic entries add to
// the built-in generic table.
type SeverityConfig struct {
	PerTool map[string]map[string]string `json:"per_tool" yaml:"per_tool" toml:"per_tool"`
	Generic map[string]string            `json:"generic" yaml:"generic" toml:"generic"`
}

// OutputConfig controls report output.
type OutputConfig struct {
	// Dir is the default output directory
	Dir string `json:"dir" yaml:"dir" toml:"dir"`

	// NoColor disables terminal colors
	NoColor bool `json:"no_color" yaml:"no_color" toml:"no_color"`

	// SARIFFile is the path for SARIF output of the run stage
	SARIFFile string `json:"sarif_file" yaml:"sarif_file" toml:"sarif_file"`
}

// DefaultConfig returns the default configuration: the full corpus target
// list and every supported tool with its common alternate spellings.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Targets: []string{
			"juice-shop",
			"broken-crystals",
			"altoro-mutual",
			"vulnpy",
			"dvwa",
			"webgoat",
		},
		Tools: map[string]ToolConfig{
			"trivy":      {},
			"grype":      {},
			"bearer":     {},
			"nodejsscan": {Aliases: []string{"njsscan"}},
			"bandit":     {},
			"semgrep":    {Aliases: []string{"opengrep"}},
			"zap":        {Aliases: []string{"owasp-zap", "zaproxy"}},
			"nuclei":     {},
			"npm-audit":  {Aliases: []string{"npmaudit"}},
			"pip-audit":  {Aliases: []string{"pipaudit"}},
			"dep-check":  {Aliases: []string{"dependency-check", "depcheck"}},
			"checkov":    {},
			"codeql":     {},
		},
		Output: OutputConfig{
			Dir: "out",
		},
	}
}

// Load loads configuration from a file, overlaying it onto the defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		// Try YAML first, then JSON as fallback
		if yamlErr := yaml.Unmarshal(content, config); yamlErr != nil {
			if err := json.Unmarshal(content, config); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, yamlErr)
			}
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// FindConfig looks for a config file in standard locations.
func FindConfig(root string) (string, error) {
	candidates := []string{
		".candyshop.yaml",
		".candyshop.yml",
		".candyshop.toml",
		".candyshop.json",
		"candyshop.yaml",
		"candyshop.yml",
		"candyshop.toml",
		"candyshop.json",
	}

	for _, name := range candidates {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// Validate rejects values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	check := func(table map[string]string, name string) error {
		for _, v := range table {
			if types.ParseSeverity(v) == types.SeverityUnknown {
				return fmt.Errorf("severity table %s maps to unknown level %q", name, v)
			}
		}
		return nil
	}
	if err := check(c.Severity.Generic, "generic"); err != nil {
		return err
	}
	for tool, table := range c.Severity.PerTool {
		if err := check(table, tool); err != nil {
			return err
		}
	}
	return nil
}

// Tables returns the severity tables with the config overlay applied.
func (c *Config) Tables() normalize.Tables {
	tables := normalize.DefaultTables()
	for tool, overrides := range c.Severity.PerTool {
		table := make(normalize.SeverityTable, len(overrides))
		for raw, level := range overrides {
			table[strings.ToLower(raw)] = types.ParseSeverity(level)
		}
		tables.PerTool[tool] = table
	}
	for raw, level := range c.Severity.Generic {
		tables.Generic[strings.ToLower(raw)] = types.ParseSeverity(level)
	}
	return tables
}

// AdapterOptions returns the options the adapter registry is built from.
func (c *Config) AdapterOptions() adapters.Options {
	aliases := make(map[string]string)
	for name, tc := range c.Tools {
		for _, alias := range tc.Aliases {
			aliases[alias] = name
		}
	}
	return adapters.Options{
		Targets: c.Targets,
		Aliases: aliases,
	}
}

// MinVersions returns the pinned minimum version per tool, omitting tools
// without a pin.
func (c *Config) MinVersions() map[string]string {
	pins := make(map[string]string)
	for name, tc := range c.Tools {
		if tc.MinVersion != "" {
			pins[name] = tc.MinVersion
		}
	}
	return pins
}

// DisabledTools returns the set of tools whose files discovery drops.
func (c *Config) DisabledTools() map[string]bool {
	disabled := make(map[string]bool)
	for name, tc := range c.Tools {
		if tc.Disabled {
			disabled[name] = true
		}
	}
	return disabled
}
