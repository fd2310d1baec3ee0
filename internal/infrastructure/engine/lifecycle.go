// Package engine owns the locally hosted inference engine: whether its model
// assets are cached, whether it is loaded, and the single in-flight download.
//
// A Lifecycle is created once per process by the container and injected into
// the local backend and diagnostics. Every state change closes a broadcast
// channel so waiters suspend on a select instead of polling.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/doeshing/shai-go/internal/domain"
	"github.com/doeshing/shai-go/internal/pkg/tracing"
	"github.com/doeshing/shai-go/internal/ports"
)

var tracer = tracing.Tracer("engine")

// ProgressFunc receives percentages in [0, 100].
type ProgressFunc func(percent int)

// AssetStore reports and fetches the model assets.
type AssetStore interface {
	Cached(ctx context.Context) (bool, error)
	Download(ctx context.Context, progress ProgressFunc) error
}

// Loader constructs a ready engine from cached assets.
type Loader interface {
	Load(ctx context.Context, progress ProgressFunc) (Handle, error)
}

// Handle is a loaded engine.
type Handle interface {
	Chat(ctx context.Context, messages []domain.PromptMessage) (string, error)
}

// Lifecycle serializes access to one local engine instance.
type Lifecycle struct {
	assets AssetStore
	loader Loader
	store  StateStore
	logger ports.Logger

	mu      sync.Mutex
	state   domain.EngineState
	lastErr error
	handle  Handle
	changed chan struct{}
}

// Option customizes a Lifecycle.
type Option func(*Lifecycle)

// WithStateStore persists the sticky error state across invocations.
func WithStateStore(store StateStore) Option {
	return func(l *Lifecycle) {
		l.store = store
	}
}

// WithLogger routes transition logs.
func WithLogger(logger ports.Logger) Option {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// New builds a lifecycle in the Unloaded state, or in Error when the state
// store recorded an unrecovered failure.
func New(assets AssetStore, loader Loader, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		assets:  assets,
		loader:  loader,
		state:   domain.EngineUnloaded,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.store != nil {
		if persisted, err := l.store.Load(); err == nil && persisted.Failed() {
			l.state = domain.EngineFailed
			l.lastErr = persisted.Err()
		} else if err != nil {
			l.debug("engine state unreadable", map[string]interface{}{"error": err.Error()})
		}
	}
	return l
}

// State returns the current state.
func (l *Lifecycle) State() domain.EngineState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LastError returns the failure that moved the lifecycle into Error.
func (l *Lifecycle) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Setup downloads the model assets when they are not cached. A concurrent
// caller observing an in-flight download waits for it instead of starting
// another one.
func (l *Lifecycle) Setup(ctx context.Context, progress ProgressFunc) error {
	cached, err := l.assets.Cached(ctx)
	if err != nil {
		return &domain.EngineError{Kind: domain.ErrDownloadFailed, Cause: err}
	}

	for {
		l.mu.Lock()
		switch l.state {
		case domain.EngineFailed:
			cause := l.lastErr
			l.mu.Unlock()
			return &domain.EngineError{Kind: domain.ErrAlreadyInErrorState, Cause: cause}
		case domain.EngineLoading, domain.EngineLoaded:
			l.mu.Unlock()
			return nil
		case domain.EngineDownloading:
			wait := l.changed
			l.mu.Unlock()
			if err := l.await(ctx, wait, domain.EngineDownloading); err != nil {
				return err
			}
			if cached, err = l.assets.Cached(ctx); err != nil {
				return &domain.EngineError{Kind: domain.ErrDownloadFailed, Cause: err}
			}
			continue
		}

		if cached {
			l.mu.Unlock()
			gate := newProgressGate(progress)
			gate.start()
			gate.finish()
			return nil
		}
		l.setLocked(domain.EngineDownloading, nil)
		l.mu.Unlock()
		return l.download(ctx, progress)
	}
}

func (l *Lifecycle) download(ctx context.Context, progress ProgressFunc) error {
	gate := newProgressGate(progress)
	gate.start()

	err := l.assets.Download(ctx, gate.report)
	if err == nil {
		gate.finish()
		l.transition(domain.EngineUnloaded, nil)
		return nil
	}

	if ctx.Err() != nil {
		// An interrupted download is not a failed one.
		l.transition(domain.EngineUnloaded, nil)
		return ctx.Err()
	}

	failure := &domain.EngineError{Kind: domain.ErrDownloadFailed, Cause: err}
	l.fail(failure)
	return failure
}

// EnsureReady returns a loaded engine handle, loading it on first use.
func (l *Lifecycle) EnsureReady(ctx context.Context, progress ProgressFunc) (handle Handle, err error) {
	ctx, span := tracer.Start(ctx, "engine.ensure_ready")
	span.SetAttributes(attribute.String("shai.engine.state", l.State().String()))
	defer func() { tracing.End(span, err) }()
	return l.ensureReady(ctx, progress)
}

func (l *Lifecycle) ensureReady(ctx context.Context, progress ProgressFunc) (Handle, error) {
	for {
		l.mu.Lock()
		state := l.state
		switch state {
		case domain.EngineLoaded:
			handle := l.handle
			l.mu.Unlock()
			return handle, nil
		case domain.EngineFailed:
			cause := l.lastErr
			l.mu.Unlock()
			return nil, &domain.EngineError{Kind: domain.ErrAlreadyInErrorState, Cause: cause}
		case domain.EngineDownloading, domain.EngineLoading:
			wait := l.changed
			l.mu.Unlock()
			if err := l.await(ctx, wait, state); err != nil {
				return nil, err
			}
			continue
		}

		l.setLocked(domain.EngineLoading, nil)
		l.mu.Unlock()
		return l.load(ctx, progress)
	}
}

func (l *Lifecycle) load(ctx context.Context, progress ProgressFunc) (Handle, error) {
	gate := newProgressGate(progress)
	gate.start()

	cached, err := l.assets.Cached(ctx)
	if err == nil && !cached {
		err = errors.New("model assets are not cached; run `shai setup local`")
	}
	var handle Handle
	if err == nil {
		handle, err = l.loader.Load(ctx, gate.report)
	}
	if err == nil && handle == nil {
		err = errors.New("loader returned no engine")
	}
	if err != nil {
		if ctx.Err() != nil {
			l.transition(domain.EngineUnloaded, nil)
			return nil, ctx.Err()
		}
		failure := &domain.EngineError{Kind: domain.ErrLoadFailed, Cause: err}
		l.fail(failure)
		return nil, failure
	}

	l.mu.Lock()
	l.handle = handle
	l.setLocked(domain.EngineLoaded, nil)
	l.mu.Unlock()
	gate.finish()
	return handle, nil
}

// await blocks until the state leaves from. A download that ends in Error is
// reported as a distinct failure to the waiter.
func (l *Lifecycle) await(ctx context.Context, wait <-chan struct{}, from domain.EngineState) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wait:
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == domain.EngineFailed {
		if from == domain.EngineDownloading {
			return &domain.EngineError{Kind: domain.ErrDownloadFailedWhileWaiting, Cause: l.lastErr}
		}
		if failure, ok := l.lastErr.(*domain.EngineError); ok {
			return failure
		}
		return &domain.EngineError{Kind: domain.ErrLoadFailed, Cause: l.lastErr}
	}
	return nil
}

// Reset clears a sticky Error or drops a loaded engine. It refuses while a
// transition is in flight.
func (l *Lifecycle) Reset() error {
	l.mu.Lock()
	if l.state.Busy() {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("local engine is %s; try again when it finishes", state)
	}
	l.handle = nil
	l.setLocked(domain.EngineUnloaded, nil)
	l.mu.Unlock()

	if l.store != nil {
		return l.store.Clear()
	}
	return nil
}

// fail moves into Error for the rest of the process. Only download failures
// are persisted; a load failure is retried by the next invocation.
func (l *Lifecycle) fail(failure *domain.EngineError) {
	l.transition(domain.EngineFailed, failure)
	l.logError("local engine failed", failure)
	if l.store != nil && failure.Kind == domain.ErrDownloadFailed {
		if err := l.store.Save(PersistedFromError(failure)); err != nil {
			l.logError("persist engine state", err)
		}
	}
}

func (l *Lifecycle) transition(state domain.EngineState, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(state, err)
}

// setLocked must be called with mu held.
func (l *Lifecycle) setLocked(state domain.EngineState, err error) {
	from := l.state
	l.state = state
	l.lastErr = err
	close(l.changed)
	l.changed = make(chan struct{})
	l.debug("engine transition", map[string]interface{}{"from": from.String(), "to": state.String()})
}

func (l *Lifecycle) debug(msg string, fields map[string]interface{}) {
	if l.logger != nil {
		l.logger.Debug(msg, fields)
	}
}

func (l *Lifecycle) logError(msg string, err error) {
	if l.logger != nil {
		l.logger.Error(msg, err, nil)
	}
}

var _ ports.EngineStatus = (*Lifecycle)(nil)
