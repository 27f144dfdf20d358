package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	OmarchyPath       string `yaml:"omarchy_path"`
	ThemesDir         string `yaml:"themes_dir"`
	CurrentBackground string `yaml:"current_background"`
	// Catalog is a JSON or YAML catalog file. Empty uses the built-in
	// catalog, which lists only the themes Omarchy ships and carries no
	// github_url or preview_url, so install and preview need a file here.
	Catalog  string        `yaml:"catalog,omitempty"`
	Commands Commands      `yaml:"commands"`
	Preview  PreviewConfig `yaml:"preview"`
	History  HistoryConfig `yaml:"history"`
	Audit    AuditConfig   `yaml:"audit"`
	Output   OutputConfig  `yaml:"output"`
}

// Commands names the external theme tools. Bare names are looked up in PATH;
// ResolveCommands prefixes them with the omarchy bin directory when present.
type Commands struct {
	Current string `yaml:"current"`
	List    string `yaml:"list"`
	Set     string `yaml:"set"`
	Install string `yaml:"install"`
	Remove  string `yaml:"remove"`
	BgNext  string `yaml:"bg_next"`
}

// PreviewConfig holds preview image download settings.
type PreviewConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig controls the theme change history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// AuditConfig controls the external command audit log.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// OutputConfig holds terminal output settings.
type OutputConfig struct {
	Color bool   `yaml:"color"`
	Style string `yaml:"style"` // default, light or plain
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		OmarchyPath:       filepath.Join(home, ".local", "share", "omarchy"),
		ThemesDir:         filepath.Join(home, ".config", "omarchy", "themes"),
		CurrentBackground: filepath.Join(home, ".config", "omarchy", "current", "background"),
		Commands: Commands{
			Current: "omarchy-theme-current",
			List:    "omarchy-theme-list",
			Set:     "omarchy-theme-set",
			Install: "omarchy-theme-install",
			Remove:  "omarchy-theme-remove",
			BgNext:  "omarchy-theme-bg-next",
		},
		Preview: PreviewConfig{
			Timeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Enabled:   false,
			MaxSizeMB: 10,
		},
		Output: OutputConfig{
			Color: true,
			Style: "default",
		},
	}
}

// ConfigDir returns the omatheme configuration directory path.
// It uses os.UserConfigDir to locate the base config directory and
// appends "omatheme" to it, typically resulting in ~/.config/omatheme/.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "omatheme"), nil
}

// Load reads a Config from the YAML file at path. If the file does not exist,
// it returns DefaultConfig without error. OMARCHY_PATH in the environment
// overrides the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if p := os.Getenv("OMARCHY_PATH"); p != "" {
		cfg.OmarchyPath = p
	}
	return cfg, nil
}

// LoadDefault loads configuration from the default path
// (ConfigDir()/config.yaml).
func LoadDefault() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, "config.yaml"))
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveDefault writes the Config to the default path
// (ConfigDir()/config.yaml).
func (c *Config) SaveDefault() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return c.Save(filepath.Join(dir, "config.yaml"))
}

// ResolveCommands returns the configured commands with bare names replaced by
// their path under OmarchyPath/bin when that file exists. Names containing a
// path separator are kept as they are.
func (c *Config) ResolveCommands() Commands {
	resolve := func(name string) string {
		if name == "" || filepath.Base(name) != name || c.OmarchyPath == "" {
			return name
		}
		p := filepath.Join(c.OmarchyPath, "bin", name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
		return name
	}
	cmds := c.Commands
	cmds.Current = resolve(cmds.Current)
	cmds.List = resolve(cmds.List)
	cmds.Set = resolve(cmds.Set)
	cmds.Install = resolve(cmds.Install)
	cmds.Remove = resolve(cmds.Remove)
	cmds.BgNext = resolve(cmds.BgNext)
	return cmds
}

// HistoryPath returns the configured history database path, defaulting to
// ConfigDir()/history.db.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// AuditPath returns the configured audit log path, defaulting to
// ConfigDir()/audit.jsonl.
func (c *Config) AuditPath() (string, error) {
	if c.Audit.Path != "" {
		return c.Audit.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.jsonl"), nil
}
