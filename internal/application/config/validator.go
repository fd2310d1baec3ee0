// Package config validates a loaded configuration for `shai config validate`.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/doeshing/shai-go/internal/domain"
)

// RulesCheck verifies that a danger catalogue file loads under a match mode.
type RulesCheck func(path string, mode domain.MatchMode) error

// Validate reports every problem found in cfg, not just the first.
func Validate(cfg domain.Config, rules RulesCheck) error {
	var errs []error
	if err := cfg.ValidateConsistency(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateProvider(cfg.Provider)...)
	errs = append(errs, validateLocalEngine(cfg.LocalEngine)...)
	if cfg.Context.MaxFiles < 0 {
		errs = append(errs, fmt.Errorf("context.max_files must be >= 0"))
	}
	if cfg.Cache.TTLMinutes < 0 || cfg.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_minutes and cache.max_entries must be >= 0"))
	}
	if cfg.Preferences.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("preferences.timeout must be >= 0"))
	}
	if rules != nil && cfg.Security.RulesFile != "" {
		if err := rules(cfg.Security.RulesFile, cfg.GetMatchMode()); err != nil {
			errs = append(errs, fmt.Errorf("security.rules_file: %w", err))
		}
	}
	return errors.Join(errs...)
}

func validateProvider(p domain.ProviderConfig) []error {
	var errs []error
	if p.Endpoint != "" {
		if err := validateURL(p.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("provider.endpoint: %w", err))
		}
	}
	for i, msg := range p.Prompt {
		switch strings.ToLower(msg.Role) {
		case "system", "user", "assistant":
		default:
			errs = append(errs, fmt.Errorf("provider.prompt[%d].role %q must be system, user or assistant", i, msg.Role))
		}
		if _, err := template.New("prompt").Parse(msg.Content); err != nil {
			errs = append(errs, fmt.Errorf("provider.prompt[%d].content: %w", i, err))
		}
	}
	return errs
}

func validateLocalEngine(e domain.LocalEngineConfig) []error {
	var errs []error
	if e.Host != "" {
		if err := validateURL(e.Host); err != nil {
			errs = append(errs, fmt.Errorf("local_engine.host: %w", err))
		}
	}
	if e.KeepAlive != "" && e.KeepAlive != "-1" && e.KeepAlive != "0" {
		if _, err := time.ParseDuration(e.KeepAlive); err != nil {
			errs = append(errs, fmt.Errorf("local_engine.keep_alive invalid: %w", err))
		}
	}
	return errs
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
