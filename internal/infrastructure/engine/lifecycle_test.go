package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-go/internal/domain"
)

type stubAssets struct {
	mu        sync.Mutex
	cached    bool
	cachedErr error
	// release, when set, blocks Download until closed.
	release     chan struct{}
	started     chan struct{}
	downloadErr error
	downloads   int32
	steps       []int
}

func (s *stubAssets) Cached(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached, s.cachedErr
}

func (s *stubAssets) Download(ctx context.Context, progress ProgressFunc) error {
	atomic.AddInt32(&s.downloads, 1)
	if s.started != nil {
		close(s.started)
	}
	for _, step := range s.steps {
		progress(step)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.downloadErr != nil {
		return s.downloadErr
	}
	s.mu.Lock()
	s.cached = true
	s.mu.Unlock()
	return nil
}

type stubHandle struct{ reply string }

func (h stubHandle) Chat(context.Context, []domain.PromptMessage) (string, error) {
	return h.reply, nil
}

type stubLoader struct {
	err   error
	loads int32
}

func (l *stubLoader) Load(_ context.Context, progress ProgressFunc) (Handle, error) {
	atomic.AddInt32(&l.loads, 1)
	progress(50)
	if l.err != nil {
		return nil, l.err
	}
	return stubHandle{reply: "ls"}, nil
}

type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) sink(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, p)
}

func (r *recorder) get() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}

func TestLifecycleDownloadThenLoad(t *testing.T) {
	assets := &stubAssets{steps: []int{10, 10, 5, 40, 100, 120}}
	loader := &stubLoader{}
	l := New(assets, loader)
	require.Equal(t, domain.EngineUnloaded, l.State())

	var setup recorder
	require.NoError(t, l.Setup(context.Background(), setup.sink))
	assert.Equal(t, domain.EngineUnloaded, l.State())
	assert.Equal(t, []int{0, 10, 40, 99, 100}, setup.get())

	var load recorder
	handle, err := l.EnsureReady(context.Background(), load.sink)
	require.NoError(t, err)
	assert.Equal(t, domain.EngineLoaded, l.State())
	assert.Equal(t, []int{0, 50, 100}, load.get())

	reply, err := handle.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ls", reply)

	again, err := l.EnsureReady(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, handle, again)
	assert.EqualValues(t, 1, atomic.LoadInt32(&loader.loads))
}

func TestLifecycleSetupSkipsCachedAssets(t *testing.T) {
	assets := &stubAssets{cached: true}
	l := New(assets, &stubLoader{})

	var rec recorder
	require.NoError(t, l.Setup(context.Background(), rec.sink))
	assert.EqualValues(t, 0, atomic.LoadInt32(&assets.downloads))
	assert.Equal(t, []int{0, 100}, rec.get())
}

func TestLifecycleDownloadFailureIsSticky(t *testing.T) {
	assets := &stubAssets{downloadErr: errors.New("disk full")}
	loader := &stubLoader{}
	l := New(assets, loader)

	var rec recorder
	err := l.Setup(context.Background(), rec.sink)
	require.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Equal(t, domain.EngineFailed, l.State())
	assert.NotContains(t, rec.get(), 100)

	_, err = l.EnsureReady(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrAlreadyInErrorState)
	require.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.EqualValues(t, 0, atomic.LoadInt32(&loader.loads))

	err = l.Setup(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrAlreadyInErrorState)
	assert.EqualValues(t, 1, atomic.LoadInt32(&assets.downloads))
}

func TestLifecycleLoadFailureIsSticky(t *testing.T) {
	loader := &stubLoader{err: errors.New("out of memory")}
	l := New(&stubAssets{cached: true}, loader)

	_, err := l.EnsureReady(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrLoadFailed)
	assert.Equal(t, domain.EngineFailed, l.State())
	require.Error(t, l.LastError())

	_, err = l.EnsureReady(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrAlreadyInErrorState)
	assert.EqualValues(t, 1, atomic.LoadInt32(&loader.loads))
}

func TestLifecycleEnsureReadyWithoutAssets(t *testing.T) {
	loader := &stubLoader{}
	l := New(&stubAssets{}, loader)

	_, err := l.EnsureReady(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrLoadFailed)
	assert.Contains(t, err.Error(), "shai setup local")
	assert.EqualValues(t, 0, atomic.LoadInt32(&loader.loads))
}

func TestLifecycleResetClearsError(t *testing.T) {
	loader := &stubLoader{err: errors.New("bad weights")}
	l := New(&stubAssets{cached: true}, loader)

	_, err := l.EnsureReady(context.Background(), nil)
	require.Error(t, err)

	require.NoError(t, l.Reset())
	assert.Equal(t, domain.EngineUnloaded, l.State())
	assert.NoError(t, l.LastError())

	loader.err = nil
	_, err = l.EnsureReady(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.EngineLoaded, l.State())
}

func TestLifecycleWaiterDuringFailedDownload(t *testing.T) {
	assets := &stubAssets{
		release:     make(chan struct{}),
		started:     make(chan struct{}),
		downloadErr: errors.New("connection reset"),
	}
	l := New(assets, &stubLoader{})

	setupErr := make(chan error, 1)
	go func() {
		setupErr <- l.Setup(context.Background(), nil)
	}()
	<-assets.started
	require.Equal(t, domain.EngineDownloading, l.State())

	waitErr := make(chan error, 1)
	go func() {
		_, err := l.EnsureReady(context.Background(), nil)
		waitErr <- err
	}()

	// The waiter must not start a second download.
	time.Sleep(20 * time.Millisecond)
	close(assets.release)

	require.ErrorIs(t, <-setupErr, domain.ErrDownloadFailed)
	err := <-waitErr
	require.ErrorIs(t, err, domain.ErrDownloadFailedWhileWaiting)
	assert.EqualValues(t, 1, atomic.LoadInt32(&assets.downloads))
}

func TestLifecycleConcurrentSetupSharesDownload(t *testing.T) {
	assets := &stubAssets{release: make(chan struct{}), started: make(chan struct{})}
	l := New(assets, &stubLoader{})

	first := make(chan error, 1)
	go func() { first <- l.Setup(context.Background(), nil) }()
	<-assets.started

	second := make(chan error, 1)
	go func() { second <- l.Setup(context.Background(), nil) }()

	time.Sleep(20 * time.Millisecond)
	close(assets.release)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&assets.downloads))
	assert.Equal(t, domain.EngineUnloaded, l.State())
}

func TestLifecycleWaiterHonorsContext(t *testing.T) {
	assets := &stubAssets{release: make(chan struct{}), started: make(chan struct{})}
	l := New(assets, &stubLoader{})

	go func() { _ = l.Setup(context.Background(), nil) }()
	<-assets.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := l.EnsureReady(ctx, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(assets.release)
}

func TestLifecycleInterruptedDownloadIsNotSticky(t *testing.T) {
	assets := &stubAssets{release: make(chan struct{}), started: make(chan struct{})}
	l := New(assets, &stubLoader{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Setup(ctx, nil) }()
	<-assets.started
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, domain.EngineUnloaded, l.State())
}

func TestLifecyclePersistsStickyError(t *testing.T) {
	store := NewFileStateStore(filepath.Join(t.TempDir(), "engine", "state.yaml"))
	assets := &stubAssets{downloadErr: errors.New("403 forbidden")}

	l := New(assets, &stubLoader{}, WithStateStore(store))
	require.Error(t, l.Setup(context.Background(), nil))

	reopened := New(&stubAssets{cached: true}, &stubLoader{}, WithStateStore(store))
	assert.Equal(t, domain.EngineFailed, reopened.State())
	_, err := reopened.EnsureReady(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrAlreadyInErrorState)
	require.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "403 forbidden")

	require.NoError(t, reopened.Reset())
	fresh := New(&stubAssets{cached: true}, &stubLoader{}, WithStateStore(store))
	assert.Equal(t, domain.EngineUnloaded, fresh.State())
}

func TestLifecycleLoadFailureNotPersisted(t *testing.T) {
	store := NewFileStateStore(filepath.Join(t.TempDir(), "engine", "state.yaml"))

	l := New(&stubAssets{cached: true}, &stubLoader{err: errors.New("connection refused")}, WithStateStore(store))
	_, err := l.EnsureReady(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrLoadFailed)
	assert.Equal(t, domain.EngineFailed, l.State())

	loader := &stubLoader{}
	reopened := New(&stubAssets{cached: true}, loader, WithStateStore(store))
	assert.Equal(t, domain.EngineUnloaded, reopened.State())
	_, err = reopened.EnsureReady(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&loader.loads))
}

func TestLifecycleResetRefusedWhileBusy(t *testing.T) {
	assets := &stubAssets{release: make(chan struct{}), started: make(chan struct{})}
	l := New(assets, &stubLoader{})

	done := make(chan error, 1)
	go func() { done <- l.Setup(context.Background(), nil) }()
	<-assets.started

	assert.Error(t, l.Reset())
	close(assets.release)
	require.NoError(t, <-done)
}

func TestProgressGate(t *testing.T) {
	var rec recorder
	gate := newProgressGate(rec.sink)
	gate.start()
	gate.report(-5)
	gate.report(30)
	gate.report(20)
	gate.report(30)
	gate.report(100)
	gate.finish()
	gate.finish()
	assert.Equal(t, []int{0, 30, 99, 100}, rec.get())

	newProgressGate(nil).finish()
}
