// Package app wires application services to their infrastructure adapters.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/doeshing/shai-go/internal/application/doctor"
	"github.com/doeshing/shai-go/internal/application/query"
	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/infrastructure/ai"
	"github.com/doeshing/shai-go/internal/infrastructure/cache"
	"github.com/doeshing/shai-go/internal/infrastructure/config"
	contextcollector "github.com/doeshing/shai-go/internal/infrastructure/context"
	"github.com/doeshing/shai-go/internal/infrastructure/engine"
	"github.com/doeshing/shai-go/internal/infrastructure/executor"
	"github.com/doeshing/shai-go/internal/infrastructure/history"
	"github.com/doeshing/shai-go/internal/infrastructure/parser"
	"github.com/doeshing/shai-go/internal/infrastructure/security"
	"github.com/doeshing/shai-go/internal/pkg/logger"
	"github.com/doeshing/shai-go/internal/pkg/metrics"
	"github.com/doeshing/shai-go/internal/ports"
)

// Options tunes container construction.
type Options struct {
	Verbose    bool
	ConfigPath string
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	// Progress receives local engine download/load percentages.
	Progress engine.ProgressFunc
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigErr      error
	ConfigLoader   *config.FileLoader
	ConfigProvider ports.ConfigProvider
	QueryService   *query.Service
	DoctorService  *doctor.Service
	Engine         *engine.Lifecycle
	Models         *engine.Ollama
	Classifier     *security.Classifier
	HistoryStore   ports.HistoryRepository
	CacheStore     *cache.FileCache
	Logger         *logger.StdLogger
	Progress       engine.ProgressFunc
	// Warnings are non-fatal setup problems the CLI should surface.
	Warnings []string
}

// BuildContainer constructs the dependency graph. A config that fails to load
// is recorded in ConfigErr and the defaults are used, so repair commands
// (config reset, doctor) still work.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	log := logger.New(opts.Stderr, opts.Verbose)
	c := &Container{Logger: log, Progress: opts.Progress}

	c.ConfigLoader = config.NewFileLoader(opts.ConfigPath)
	c.ConfigProvider = c.ConfigLoader
	cfg, err := c.ConfigLoader.Load(ctx)
	if err != nil {
		c.ConfigErr = err
		cfg = config.DefaultConfig()
	}
	c.Config = cfg

	classifier, err := security.NewClassifier(cfg.Security.RulesFile, cfg.GetMatchMode())
	if err != nil {
		c.warn(fmt.Sprintf("danger catalogue %s unusable, using built-in rules: %v", cfg.Security.RulesFile, err))
		classifier, err = security.NewClassifier("", cfg.GetMatchMode())
		if err != nil {
			return nil, err
		}
	}
	c.Classifier = classifier

	responseParser, err := parser.New(cfg.Parser.ExtraOpeners...)
	if err != nil {
		c.warn(fmt.Sprintf("parser.extra_openers ignored: %v", err))
		if responseParser, err = parser.New(); err != nil {
			return nil, err
		}
	}

	c.Engine, c.Models = NewEngine(cfg, log)

	c.HistoryStore = history.Open(cfg.History.Path, log)
	c.CacheStore = cache.NewFileCache("", cfg.GetCacheTTL(), cfg.GetCacheMaxEntries())

	queryMetrics, err := metrics.NewQueryMetrics()
	if err != nil {
		log.Warn("metrics disabled", map[string]interface{}{"error": err.Error()})
	}

	collector := contextcollector.NewBasicCollector()
	c.QueryService = &query.Service{
		ConfigProvider:   c.ConfigLoader,
		ContextCollector: collector,
		BackendFactory:   ai.NewFactory(c.Engine, opts.Progress),
		Parser:           responseParser,
		Classifier:       classifier,
		Executor:         executor.NewLocalExecutor(cfg.GetExecutionShell(), executor.WithStreams(opts.Stdin, opts.Stdout, opts.Stderr)),
		HistoryStore:     c.HistoryStore,
		CacheStore:       c.CacheStore,
		Metrics:          queryMetrics,
		Logger:           log,
	}

	c.DoctorService = &doctor.Service{
		ConfigProvider:   c.ConfigLoader,
		Classifier:       classifier,
		ContextCollector: collector,
		Engine:           c.Engine,
		Models:           c.Models,
		HistoryStore:     c.HistoryStore,
	}
	return c, nil
}

// NewEngine builds the local engine lifecycle and its Ollama adapter for cfg.
func NewEngine(cfg domain.Config, log ports.Logger) (*engine.Lifecycle, *engine.Ollama) {
	models := engine.NewOllama(engine.FromConfig(cfg), nil)
	lifecycle := engine.New(models, models,
		engine.WithStateStore(engine.NewFileStateStore(cfg.LocalEngine.StateFile)),
		engine.WithLogger(log),
	)
	return lifecycle, models
}

func (c *Container) warn(msg string) {
	c.Warnings = append(c.Warnings, msg)
	c.Logger.Warn(msg, nil)
}
