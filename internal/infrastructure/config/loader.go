// Package config persists the user configuration at ~/.shai/config.yaml.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/shai-go/assets"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/pkg/filesystem"
	"github.com/doeshing/shai-go/internal/ports"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "SHAI_CONFIG"

// EnvProvider overrides provider.name for a single invocation.
const EnvProvider = "SHAI_PROVIDER"

// FileLoader loads YAML configuration from ~/.shai/config.yaml (overridable via SHAI_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path defers to SHAI_CONFIG and then the home default.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created from the embedded defaults.
// Keys absent from the file keep their default values.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := writeFile(path, assets.DefaultConfigYAML); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
		data = assets.DefaultConfigYAML
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg = hydrateDefaults(cfg)
	applyEnv(&cfg)

	if err := cfg.ValidateConsistency(); err != nil {
		return domain.Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filesystem.DataPath("config.yaml")
}

// Save writes the given config back to disk.
func (l *FileLoader) Save(_ context.Context, cfg domain.Config) error {
	if err := cfg.ValidateConsistency(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return writeFile(l.Path(), raw)
}

// Reset overwrites the config with defaults and returns the default snapshot.
func (l *FileLoader) Reset() (domain.Config, error) {
	if err := writeFile(l.Path(), assets.DefaultConfigYAML); err != nil {
		return domain.Config{}, err
	}
	return DefaultConfig(), nil
}

// Backup copies the current config file to a timestamped backup.
func (l *FileLoader) Backup() (string, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

// DefaultConfig exposes the bootstrap configuration template.
func DefaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return hydrateDefaults(cfg)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = string(domain.ProviderLocal)
	}
	if cfg.LocalEngine.Host == "" {
		cfg.LocalEngine.Host = domain.DefaultLocalHost
	}
	if cfg.LocalEngine.Model == "" {
		cfg.LocalEngine.Model = domain.DefaultLocalModel
	}
	if cfg.Preferences.PreviewMode == "" {
		cfg.Preferences.PreviewMode = domain.PreviewAlways
	}
	if cfg.Preferences.TimeoutSeconds <= 0 {
		cfg.Preferences.TimeoutSeconds = int(domain.DefaultHTTPClientTimeout / time.Second)
	}
	if cfg.Security.MatchMode == "" {
		cfg.Security.MatchMode = domain.MatchPrefix
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = int(domain.DefaultCacheTTL / time.Minute)
	}
	return cfg
}

func applyEnv(cfg *domain.Config) {
	if name := strings.TrimSpace(os.Getenv(EnvProvider)); name != "" {
		// Invalid names surface through ValidateConsistency.
		if err := cfg.SetProvider(name, ""); err != nil {
			cfg.Provider.Name = name
		}
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return os.WriteFile(path, data, domain.SecureFilePermissions)
}

func expandPath(path string) string {
	return filesystem.ExpandHome(path)
}

var _ ports.ConfigStore = (*FileLoader)(nil)
