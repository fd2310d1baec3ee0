// Package doctor runs environment diagnostics for `shai doctor`.
package doctor

import (
	"context"
	"fmt"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/ports"
)

// ModelProbe reports whether the local model is present on the engine host.
type ModelProbe interface {
	Cached(ctx context.Context) (bool, error)
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider   ports.ConfigProvider
	Classifier       ports.SafetyClassifier
	ContextCollector ports.ContextCollector
	Engine           ports.EngineStatus
	Models           ModelProbe
	HistoryStore     ports.HistoryRepository
}

// Run executes checks and returns a report. Only a config that cannot be
// loaded stops the run early.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("format v%s, provider %s", cfg.ConfigFormatVersion, cfg.Provider.Name)))

	checks = append(checks, s.providerCheck(ctx, cfg)...)
	checks = append(checks, s.classifierCheck(cfg))

	if s.ContextCollector != nil {
		if snapshot, err := s.ContextCollector.Collect(ctx, cfg); err == nil {
			checks = append(checks, ok("Context collector", fmt.Sprintf("%s/%s, detected tools: %d", snapshot.OSContext(), snapshot.ShellContext(), len(snapshot.AvailableTools))))
		} else {
			checks = append(checks, warn("Context collector", err.Error()))
		}
	}

	checks = append(checks, s.historyCheck(cfg))
	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) providerCheck(ctx context.Context, cfg domain.Config) []domain.HealthCheck {
	kind, err := cfg.ProviderKind()
	if err != nil {
		return []domain.HealthCheck{fail("Provider", err.Error())}
	}
	if cfg.RequiresAPIKey() {
		if cfg.ResolveAPIKey() == "" {
			return []domain.HealthCheck{fail("API key", fmt.Sprintf("no key for %s: set provider.api_key, provider.auth_env_var or %s", kind, conventionalEnv(kind)))}
		}
		return []domain.HealthCheck{ok("API key", fmt.Sprintf("found for %s (model %s)", kind, cfg.GetModel()))}
	}

	var checks []domain.HealthCheck
	if s.Engine != nil {
		state := s.Engine.State()
		switch state {
		case domain.EngineFailed:
			checks = append(checks, fail("Local engine", fmt.Sprintf("error state: %v (run `shai setup local` to retry)", s.Engine.LastError())))
		default:
			checks = append(checks, ok("Local engine", "state "+state.String()))
		}
	}
	if s.Models != nil {
		cached, err := s.Models.Cached(ctx)
		switch {
		case err != nil:
			checks = append(checks, warn("Local model", fmt.Sprintf("engine at %s unreachable: %v", cfg.GetLocalHost(), err)))
		case !cached:
			checks = append(checks, warn("Local model", fmt.Sprintf("%s not downloaded (run `shai setup local`)", cfg.GetModel())))
		default:
			checks = append(checks, ok("Local model", cfg.GetModel()+" ready"))
		}
	}
	return checks
}

func (s *Service) classifierCheck(cfg domain.Config) domain.HealthCheck {
	if !cfg.IsSecurityEnabled() {
		return warn("Safety classifier", "relaxed: dangerous commands need only a y/N confirmation")
	}
	if s.Classifier == nil {
		return warn("Safety classifier", "not initialized")
	}
	if !s.Classifier.Classify("rm -rf /").Dangerous {
		return fail("Safety classifier", "catalogue does not flag `rm -rf /`")
	}
	if s.Classifier.Classify("ls -la").Dangerous {
		return fail("Safety classifier", "catalogue flags `ls -la`")
	}
	return ok("Safety classifier", fmt.Sprintf("catalogue loaded, %s matching", cfg.GetMatchMode()))
}

func (s *Service) historyCheck(cfg domain.Config) domain.HealthCheck {
	if !cfg.History.Enabled {
		return warn("History", "disabled")
	}
	if s.HistoryStore == nil {
		return warn("History", "store not initialized")
	}
	if _, err := s.HistoryStore.Records(1, ""); err != nil {
		return fail("History", fmt.Sprintf("%s unreadable: %v", s.HistoryStore.Path(), err))
	}
	return ok("History", s.HistoryStore.Path())
}

func conventionalEnv(kind domain.ProviderKind) string {
	if kind == domain.ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
