// File: internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashverify/internal/config"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

// ErrManagerClosed is returned by NewSession after Shutdown has started.
var ErrManagerClosed = errors.New("browser manager is shut down")

const defaultLaunchTimeout = 30 * time.Second

// Manager launches one browser process per session and tracks them until they close.
// It implements verify.Launcher.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	// rootCtx parents every allocator, so Shutdown can always reap stray processes.
	rootCtx    context.Context
	rootCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup // Tracks open sessions so Shutdown can wait for them.
	closed   bool
}

var _ verify.Launcher = (*Manager)(nil)

// NewManager creates a browser manager. No browser is started until the first session is requested.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:        cfg,
		logger:     logger.Named("browser_manager"),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		sessions:   make(map[string]*Session),
	}
	m.logger.Debug("Browser manager created (launch deferred).")
	return m
}

// NewSession launches a fresh browser with its own profile and returns its only tab.
func (m *Manager) NewSession(ctx context.Context, opts verify.SessionOptions) (verify.Page, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.wg.Add(1) // Increment before the session exists so Shutdown cannot miss it.
	m.mu.Unlock()

	viewport := resolveViewport(opts.Viewport, m.cfg.Browser.Viewport)
	logger := m.logger
	if opts.Label != "" {
		logger = logger.With(zap.String("script", opts.Label))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(m.rootCtx, execOptions(m.cfg.Browser, viewport)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithErrorf(logger.Sugar().Debugf))
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	if err := m.launch(ctx, tabCtx); err != nil {
		cancel()
		m.wg.Done()
		return nil, err
	}

	timeouts := sessionTimeouts{
		Navigation: m.cfg.Verify.NavigationTimeout,
		Action:     m.cfg.Verify.ActionTimeout,
		Poll:       m.cfg.Verify.PollInterval,
	}

	var session *Session
	session = newSession(tabCtx, cancel, timeouts, logger, func() {
		m.mu.Lock()
		delete(m.sessions, session.ID())
		m.mu.Unlock()
		m.wg.Done()
		logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	})

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	if err := session.run(ctx, m.launchTimeout(), chromedp.EmulateViewport(int64(viewport.Width), int64(viewport.Height))); err != nil {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_ = session.Close(cleanupCtx)
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	logger.Info("New session created.",
		zap.String("session_id", session.ID()),
		zap.Int("width", viewport.Width),
		zap.Int("height", viewport.Height))
	return session, nil
}

// launch starts the browser behind tabCtx and waits for its first target.
// The first chromedp.Run binds the browser's lifetime to the context it is
// given, so it must get tabCtx itself and the launch bound is enforced here.
// On error the caller cancels tabCtx, which also ends the pending Run.
func (m *Manager) launch(ctx context.Context, tabCtx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(tabCtx)
	}()

	timer := time.NewTimer(m.launchTimeout())
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("browser failed to start: %w", err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("browser did not start within %s", m.launchTimeout())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) launchTimeout() time.Duration {
	if m.cfg.Browser.LaunchTimeout > 0 {
		return m.cfg.Browser.LaunchTimeout
	}
	return defaultLaunchTimeout
}

// Active returns the number of sessions that have not been closed yet.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every open session and waits for the browsers to exit, up to ctx's deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	toClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		toClose = append(toClose, s)
	}
	m.mu.Unlock()

	m.logger.Debug("Shutting down browser manager.", zap.Int("open_sessions", len(toClose)))

	for _, s := range toClose {
		go func(s *Session) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error during session close in shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("timed out waiting for sessions to close: %w", ctx.Err())
		m.logger.Warn("Timeout waiting for sessions to close. Proceeding with forceful shutdown.", zap.Error(ctx.Err()))
	}

	// Kills anything still running.
	m.rootCancel()
	return err
}
