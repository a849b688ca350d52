package headless

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for a scripted headless run
type Config struct {
	// Human readable name used in reports
	Name string `yaml:"name" json:"name"`

	// Steps executed in order
	Steps []Step `yaml:"steps" json:"steps"`

	// Safety constraints
	Constraints ConstraintConfig `yaml:"constraints" json:"constraints"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// Action names a step kind
type Action string

const (
	ActionOpen       Action = "open"
	ActionLoad       Action = "load"
	ActionBack       Action = "back"
	ActionForward    Action = "forward"
	ActionReload     Action = "reload"
	ActionToggleMode Action = "toggle_mode"
	ActionSwitch     Action = "switch"
	ActionClose      Action = "close"
	ActionWait       Action = "wait"
)

// Step is one scripted browsing action.
//
// Index addresses a tab for switch, close and load; when omitted the active
// tab is used. Wait bounds how long the runner waits for the affected tab to
// finish loading after the step.
type Step struct {
	Action Action        `yaml:"action" json:"action"`
	Target string        `yaml:"target,omitempty" json:"target,omitempty"`
	Index  *int          `yaml:"index,omitempty" json:"index,omitempty"`
	Wait   time.Duration `yaml:"wait,omitempty" json:"wait,omitempty"`
}

func (s Step) String() string {
	switch {
	case s.Target != "":
		return fmt.Sprintf("%s %s", s.Action, s.Target)
	case s.Index != nil:
		return fmt.Sprintf("%s #%d", s.Action, *s.Index)
	default:
		return string(s.Action)
	}
}

// ConstraintConfig defines safety constraints for headless execution
type ConstraintConfig struct {
	// Host patterns (globs) a step may navigate to
	AllowedHosts []string `yaml:"allowed_hosts" json:"allowed_hosts"`
	DeniedHosts  []string `yaml:"denied_hosts" json:"denied_hosts"`

	// Resource limits
	MaxTabs int           `yaml:"max_tabs" json:"max_tabs"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	for i, step := range c.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	if c.Constraints.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if c.Constraints.MaxTabs < 0 {
		return fmt.Errorf("max_tabs cannot be negative")
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts.output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

func (s Step) validate() error {
	if s.Wait < 0 {
		return fmt.Errorf("wait cannot be negative")
	}
	if s.Index != nil && *s.Index < 0 {
		return fmt.Errorf("index cannot be negative")
	}

	switch s.Action {
	case ActionLoad:
		if s.Target == "" {
			return fmt.Errorf("load requires a target")
		}
	case ActionSwitch:
		if s.Index == nil {
			return fmt.Errorf("switch requires an index")
		}
	case ActionOpen, ActionBack, ActionForward, ActionReload, ActionToggleMode, ActionClose, ActionWait:
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Constraints: ConstraintConfig{
			MaxTabs: 10,
			Timeout: 5 * time.Minute,
		},
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: ".surf/artifacts",
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// LoadConfig reads a YAML script on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
