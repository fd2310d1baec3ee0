// Package query runs one natural-language task through the pipeline:
// backend, response parser, safety classifier, then confirmation and execution.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/pkg/metrics"
	"github.com/doeshing/shai-go/internal/pkg/tracing"
	"github.com/doeshing/shai-go/internal/ports"
)

var tracer = tracing.Tracer("query")

// Service orchestrates the query lifecycle end-to-end.
type Service struct {
	ConfigProvider   ports.ConfigProvider
	ContextCollector ports.ContextCollector
	BackendFactory   ports.BackendFactory
	Parser           ports.ResponseParser
	Classifier       ports.SafetyClassifier
	Executor         ports.CommandExecutor
	Prompter         ports.ConfirmationPrompter
	Clipboard        ports.Clipboard
	HistoryStore     ports.HistoryRepository
	CacheStore       ports.CacheRepository
	Metrics          *metrics.QueryMetrics
	Logger           ports.Logger
	// Announce, when set, is called with the response right before the
	// command runs.
	Announce func(domain.QueryResponse)
}

// Run processes a single natural-language query.
//
// A reply without a command returns *domain.NoCommandFoundError alongside a
// response carrying the raw text. A dangerous command that cannot be
// confirmed interactively returns domain.ErrCommandBlocked. Every outcome
// past the backend call is recorded in history.
func (s *Service) Run(req domain.QueryRequest) (resp domain.QueryResponse, err error) {
	if s.ConfigProvider == nil || s.ContextCollector == nil || s.BackendFactory == nil ||
		s.Parser == nil || s.Classifier == nil || s.Executor == nil || s.Logger == nil {
		return domain.QueryResponse{}, errors.New("query.Service dependencies not satisfied")
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracer.Start(ctx, "query.run")
	defer func() { tracing.End(span, err) }()

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("load config: %w", err)
	}

	snapshot, err := s.ContextCollector.Collect(ctx, cfg)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("collect context: %w", err)
	}

	backend, err := s.BackendFactory.ForConfig(cfg)
	if err != nil {
		return domain.QueryResponse{}, fmt.Errorf("backend init: %w", err)
	}
	span.SetAttributes(attribute.String("shai.provider", backend.Name()), attribute.String("shai.model", backend.Model()))
	s.Metrics.RecordQuery(ctx, backend.Name())

	genReq := domain.GenerateRequest{
		Task:         req.Prompt,
		OSContext:    snapshot.OSContext(),
		ShellContext: snapshot.ShellContext(),
		ExplainMode:  req.Explain || cfg.Preferences.Explain,
		Context:      snapshot,
	}

	resp = domain.QueryResponse{
		Prompt:             req.Prompt,
		Provider:           backend.Name(),
		ContextInformation: snapshot,
	}

	raw, fromCache, err := s.generate(ctx, cfg, req, backend, genReq)
	if err != nil {
		return resp, err
	}
	resp.Raw = raw
	resp.FromCache = fromCache

	entry := domain.HistoryEntry{Prompt: req.Prompt, Provider: backend.Name()}

	parsed, err := s.parse(ctx, raw, genReq.ExplainMode)
	if err != nil {
		s.Metrics.RecordParseFailure(ctx, backend.Name())
		entry.Notes = "no command found"
		s.record(cfg, entry)
		return resp, err
	}
	resp.Parsed = parsed
	entry.Command = parsed.Command

	if !fromCache {
		s.store(cfg, req, backend, genReq, raw)
	}

	resp.Verdict = s.classify(ctx, parsed.Command)
	if resp.Verdict.Dangerous {
		s.Metrics.RecordDangerous(ctx, resp.Verdict.Category)
		entry.Dangerous = true
		entry.MatchedPattern = resp.Verdict.MatchedPattern
		s.Logger.Warn("dangerous command", map[string]interface{}{
			"category": resp.Verdict.Category,
			"pattern":  resp.Verdict.MatchedPattern,
			"segment":  resp.Verdict.Segment,
		})
	}

	if req.CopyToClipboard && s.Clipboard != nil && s.Clipboard.Enabled() {
		if err := s.Clipboard.Copy(parsed.Command); err != nil {
			s.Logger.Warn("clipboard copy failed", map[string]interface{}{"error": err.Error()})
		}
	}

	run, notes, err := s.decideExecution(req, cfg, resp)
	entry.Notes = notes
	if err != nil || !run {
		s.record(cfg, entry)
		return resp, err
	}

	resp.ExecutionPlanned = true
	if s.Announce != nil {
		s.Announce(resp)
	}
	result, execErr := s.Executor.Execute(ctx, parsed.Command)
	resp.ExecutionResult = &result
	entry.Executed = result.Ran
	entry.ExitCode = result.ExitCode
	if result.Ran {
		s.Metrics.RecordExecution(ctx, result.ExitCode)
	}
	s.record(cfg, entry)
	if execErr != nil {
		return resp, fmt.Errorf("execute: %w", execErr)
	}
	return resp, nil
}

// generate returns the raw reply, from cache when allowed.
func (s *Service) generate(ctx context.Context, cfg domain.Config, req domain.QueryRequest, backend ports.Backend, genReq domain.GenerateRequest) (string, bool, error) {
	useCache := s.CacheStore != nil && cfg.Cache.Enabled && !req.NoCache
	key := genReq.CacheKey(backend.Name(), backend.Model())
	if useCache {
		entry, ok, err := s.CacheStore.Get(key)
		if err != nil {
			s.Logger.Warn("cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if ok {
			s.Metrics.RecordCacheHit(ctx, backend.Name())
			s.Logger.Debug("cache hit", map[string]interface{}{"key": key})
			return entry.Raw, true, nil
		}
	}

	ctx, span := tracer.Start(ctx, "backend.generate")
	span.SetAttributes(attribute.String("shai.provider", backend.Name()))

	// The local backend may load a model first, so only hosted calls are bounded.
	callCtx := ctx
	if cfg.RequiresAPIKey() {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, cfg.GetTimeout())
		defer cancel()
	}

	s.Logger.Info("calling backend", map[string]interface{}{
		"provider": backend.Name(),
		"model":    backend.Model(),
	})
	start := time.Now()
	raw, err := backend.Generate(callCtx, genReq)
	s.Metrics.RecordBackend(ctx, backend.Name(), time.Since(start), err)
	tracing.End(span, err)
	if err != nil {
		return "", false, err
	}
	if req.Debug {
		s.Logger.Debug("raw reply", map[string]interface{}{"raw": raw})
	}
	return raw, false, nil
}

func (s *Service) store(cfg domain.Config, req domain.QueryRequest, backend ports.Backend, genReq domain.GenerateRequest, raw string) {
	if s.CacheStore == nil || !cfg.Cache.Enabled || req.NoCache {
		return
	}
	err := s.CacheStore.Set(domain.CacheEntry{
		Key:       genReq.CacheKey(backend.Name(), backend.Model()),
		Raw:       raw,
		Provider:  backend.Name(),
		Model:     backend.Model(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.Logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) parse(ctx context.Context, raw string, explain bool) (domain.ParsedCommand, error) {
	_, span := tracer.Start(ctx, "parser.parse")
	parsed, err := s.Parser.Parse(raw, explain)
	span.SetAttributes(attribute.Bool("shai.explain", explain), attribute.Bool("shai.has_explanation", parsed.HasExplanation()))
	tracing.End(span, err)
	return parsed, err
}

func (s *Service) classify(ctx context.Context, command string) domain.DangerVerdict {
	_, span := tracer.Start(ctx, "security.classify")
	defer span.End()
	verdict := s.Classifier.Classify(command)
	span.SetAttributes(attribute.Bool("shai.dangerous", verdict.Dangerous))
	if verdict.Dangerous {
		span.SetAttributes(attribute.String("shai.category", verdict.Category))
	}
	return verdict
}

// decideExecution returns whether to run the command and the history note.
// Dangerous commands are never auto-confirmed.
func (s *Service) decideExecution(req domain.QueryRequest, cfg domain.Config, resp domain.QueryResponse) (bool, string, error) {
	verdict, parsed := resp.Verdict, resp.Parsed
	interactive := s.Prompter != nil && s.Prompter.Enabled()

	if verdict.Dangerous {
		note := DangerNote(verdict)
		if req.PreviewOnly {
			return false, note + "; preview only", nil
		}
		if !interactive {
			return false, note + "; blocked", fmt.Errorf("%w: %s", domain.ErrCommandBlocked, verdictSummary(verdict))
		}
		// With security disabled a plain y/N is enough, but never auto-run.
		confirm := s.Prompter.ConfirmDangerous
		if !cfg.IsSecurityEnabled() {
			confirm = func(command string, _ domain.DangerVerdict) (bool, error) {
				if s.Announce != nil {
					s.Announce(resp)
				}
				return s.Prompter.Confirm(command, parsed.Explanation)
			}
		}
		ok, err := confirm(parsed.Command, verdict)
		if err != nil {
			return false, note + "; prompt failed", fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			return false, note + "; declined", nil
		}
		return true, note + "; confirmed", nil
	}

	if req.PreviewOnly {
		return false, "preview only", nil
	}
	if req.AutoConfirm || cfg.ShouldAutoConfirmSafe() || !cfg.ShouldConfirmBeforeExecution() {
		return true, "", nil
	}
	if !interactive {
		return false, "not executed: no terminal for confirmation", nil
	}
	ok, err := s.Prompter.Confirm(parsed.Command, parsed.Explanation)
	if err != nil {
		return false, "prompt failed", fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return false, "declined", nil
	}
	return true, "", nil
}

func (s *Service) record(cfg domain.Config, entry domain.HistoryEntry) {
	if s.HistoryStore == nil || !cfg.History.Enabled {
		return
	}
	if err := s.HistoryStore.Save(entry); err != nil {
		s.Logger.Warn("history save failed", map[string]interface{}{"error": err.Error()})
	}
}

// DangerNote is the history note describing a dangerous verdict.
func DangerNote(verdict domain.DangerVerdict) string {
	return "dangerous: " + verdictSummary(verdict)
}

func verdictSummary(verdict domain.DangerVerdict) string {
	summary := verdict.Category
	if verdict.Reason != "" {
		summary += " (" + verdict.Reason + ")"
	}
	return fmt.Sprintf("%s, matched %q in %q", summary, verdict.MatchedPattern, verdict.Segment)
}

var _ domain.QueryService = (*Service)(nil)
