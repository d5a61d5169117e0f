// internal/config/config.go
//
// This package handles configuration and the .tripcoil directory structure.
// Every project that uses TripCoil gets a .tripcoil/ folder created in its
// root: session state, the journey log, and saved wirelists all live there.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// TripcoilDir is the name of the directory we create in each project
	TripcoilDir = ".tripcoil"

	defaultResumePolicy = "circle-back"
	defaultHistoryDepth = 50
	defaultWirelistDir  = "wirelists"
	defaultWirelistName = "wirelist.csv"
)

const defaultProjectConfigYAML = `# tripcoil project configuration
version: 1

trace:
  # Where the prompt cycle continues after a confirmed commit:
  #   circle-back - jump to the most-recently-deferred pending terminal
  #   forward     - stay on the far end of the wire while it has wires left
  resume_policy: circle-back
  # How many undo checkpoints to keep for the sitting.
  history_depth: 50

files:
  # Directory (relative to .tripcoil) where wirelists are kept.
  wirelist_dir: wirelists
  # File name used when exporting without picking a name.
  default_name: wirelist.csv
`

// TraceConfig captures trace-cycle preferences.
type TraceConfig struct {
	ResumePolicy string `yaml:"resume_policy"`
	HistoryDepth int    `yaml:"history_depth"`
}

// FilesConfig captures where wirelist documents live.
type FilesConfig struct {
	WirelistDir string `yaml:"wirelist_dir"`
	DefaultName string `yaml:"default_name"`
}

// ProjectConfig models .tripcoil/config.yaml.
type ProjectConfig struct {
	Version int         `yaml:"version"`
	Trace   TraceConfig `yaml:"trace"`
	Files   FilesConfig `yaml:"files"`
}

// Config holds the runtime configuration for TripCoil.
type Config struct {
	// ProjectDir is the directory where the user ran `tripcoil` from
	ProjectDir string

	// TripcoilProjectDir is ProjectDir/.tripcoil
	TripcoilProjectDir string

	Project ProjectConfig
}

// InitTripcoilDir creates the .tripcoil directory structure in the given
// project directory. This is called when the TUI starts up.
//
// Structure created:
// .tripcoil/
// ├── logs/       <- Journey log of the sitting
// ├── state/      <- Session state persisted between runs
// └── wirelists/  <- Imported and exported wirelist documents
func InitTripcoilDir(projectDir string) error {
	tripcoilDir := filepath.Join(projectDir, TripcoilDir)

	dirs := []string{
		filepath.Join(tripcoilDir, "logs"),
		filepath.Join(tripcoilDir, "state"),
		filepath.Join(tripcoilDir, defaultWirelistDir),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(tripcoilDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		TripcoilProjectDir: filepath.Join(projectDir, TripcoilDir),
		Project:            defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.TripcoilProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.TripcoilProjectDir, "state")
}

// WirelistDir returns the resolved directory that holds wirelist documents.
func (c *Config) WirelistDir() string {
	dir := c.Project.Files.WirelistDir
	if dir == "" {
		dir = defaultWirelistDir
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(c.TripcoilProjectDir, dir)
}

// DefaultWirelistPath returns the file exports land in when the operator
// does not pick a name.
func (c *Config) DefaultWirelistPath() string {
	return filepath.Join(c.WirelistDir(), c.Project.Files.DefaultName)
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.TripcoilProjectDir, "config.yaml")
}

// ResumePolicy returns the configured post-commit resume policy string.
func (c *Config) ResumePolicy() string {
	return c.Project.Trace.ResumePolicy
}

// HistoryDepth returns the configured undo depth.
func (c *Config) HistoryDepth() int {
	return c.Project.Trace.HistoryDepth
}

// SetDefaultWirelist updates the default wirelist file name and persists the
// value back to .tripcoil/config.yaml so later sittings export to the same
// document.
func (c *Config) SetDefaultWirelist(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("config: wirelist name is required")
	}
	c.Project.Files.DefaultName = name
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Trace: TraceConfig{
			ResumePolicy: defaultResumePolicy,
			HistoryDepth: defaultHistoryDepth,
		},
		Files: FilesConfig{
			WirelistDir: defaultWirelistDir,
			DefaultName: defaultWirelistName,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Trace.ResumePolicy) == "" {
		pc.Trace.ResumePolicy = defaultResumePolicy
	}
	if pc.Trace.HistoryDepth == 0 {
		pc.Trace.HistoryDepth = defaultHistoryDepth
	}
	if strings.TrimSpace(pc.Files.WirelistDir) == "" {
		pc.Files.WirelistDir = defaultWirelistDir
	}
	if strings.TrimSpace(pc.Files.DefaultName) == "" {
		pc.Files.DefaultName = defaultWirelistName
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Trace.ResumePolicy = canonicalPolicy(pc.Trace.ResumePolicy)
	pc.Files.WirelistDir = strings.TrimSpace(pc.Files.WirelistDir)
	pc.Files.DefaultName = strings.TrimSpace(pc.Files.DefaultName)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Trace.ResumePolicy {
	case "circle-back", "forward":
	default:
		return fmt.Errorf("trace.resume_policy must be 'circle-back' or 'forward'")
	}
	if pc.Trace.HistoryDepth < 1 {
		return fmt.Errorf("trace.history_depth must be >= 1")
	}
	if pc.Files.DefaultName == "" {
		return fmt.Errorf("files.default_name is required")
	}
	if strings.ContainsAny(pc.Files.DefaultName, `/\`) {
		return fmt.Errorf("files.default_name must be a bare file name")
	}
	return nil
}

// canonicalPolicy folds the accepted spellings onto the two canonical
// policy names; unrecognized values pass through for validate to reject.
func canonicalPolicy(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "circle-back", "circleback", "circle_back":
		return "circle-back"
	case "forward":
		return "forward"
	default:
		return strings.TrimSpace(value)
	}
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.TripcoilProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure tripcoil dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
