package helpers

import (
	"context"
	"fmt"
	"os"

	"github.com/doeshing/shai-go/internal/app"
	validator "github.com/doeshing/shai-go/internal/application/config"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/security"
)

const redacted = "********"

// RedactSecrets masks inline credentials before a config is printed.
func RedactSecrets(cfg domain.Config) domain.Config {
	if cfg.Provider.APIKey != "" {
		cfg.Provider.APIKey = redacted
	}
	return cfg
}

// ValidateConfig runs the full validation, including the rules file.
func ValidateConfig(cfg domain.Config) error {
	return validator.Validate(cfg, func(path string, mode domain.MatchMode) error {
		_, err := security.NewClassifier(path, mode)
		return err
	})
}

// SaveConfigWithValidation validates and saves configuration with automatic backup.
func SaveConfigWithValidation(container *app.Container, cfg domain.Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	loader := container.ConfigLoader
	if _, err := os.Stat(loader.Path()); err == nil {
		if _, err := loader.Backup(); err != nil {
			return fmt.Errorf("failed to create configuration backup: %w", err)
		}
	}
	if err := loader.Save(context.Background(), cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
