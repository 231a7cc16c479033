// File: internal/browser/browser_helper_test.go
package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/dashverify/internal/config"
)

var (
	// globalProcessSemaphore limits the number of concurrent browser processes across all tests.
	globalProcessSemaphore     *semaphore.Weighted
	globalProcessSemaphoreOnce sync.Once
)

const (
	maxTestConcurrency        = 2
	shutdownTimeout           = 15 * time.Second
	defaultBrowserTestTimeout = 120 * time.Second
	semaphoreAcquireTimeout   = 30 * time.Second
)

func getGlobalProcessSemaphore() *semaphore.Weighted {
	globalProcessSemaphoreOnce.Do(func() {
		concurrency := int64(runtime.GOMAXPROCS(0))
		if concurrency > maxTestConcurrency {
			concurrency = maxTestConcurrency
		}
		if concurrency < 1 {
			concurrency = 1
		}
		globalProcessSemaphore = semaphore.NewWeighted(concurrency)
	})
	return globalProcessSemaphore
}

// findChrome returns a usable browser binary, or "" when none is installed.
func findChrome() string {
	if path := os.Getenv("DASHVERIFY_BROWSER_EXEC_PATH"); path != "" {
		return path
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// testFixture is the sandboxed environment for browser tests.
type testFixture struct {
	Config  *config.Config
	Manager *Manager
	Logger  *zap.Logger
	RootCtx context.Context
}

// createTestConfig generates a configuration tuned for fast integration tests.
func createTestConfig(execPath string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Browser.Headless = true
	cfg.Browser.ExecPath = execPath
	cfg.Browser.Args = []string{"--disable-extensions"}
	cfg.Verify.ActionTimeout = 10 * time.Second
	cfg.Verify.NavigationTimeout = 20 * time.Second
	cfg.Verify.PollInterval = 50 * time.Millisecond
	return cfg
}

// newTestFixture skips unless a browser is available, then builds a Manager
// whose sessions are all closed when the test ends.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	execPath := findChrome()
	if execPath == "" {
		t.Skip("no Chrome or Chromium binary found")
	}

	logger := zaptest.NewLogger(t).With(zap.String("test", t.Name()))

	deadline, ok := t.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultBrowserTestTimeout)
	}
	rootCtx, rootCancel := context.WithDeadline(context.Background(), deadline.Add(-time.Second))
	t.Cleanup(rootCancel)

	sem := getGlobalProcessSemaphore()
	acquireCtx, acquireCancel := context.WithTimeout(rootCtx, semaphoreAcquireTimeout)
	err := sem.Acquire(acquireCtx, 1)
	acquireCancel()
	require.NoError(t, err, "failed to acquire browser semaphore")
	t.Cleanup(func() { sem.Release(1) })

	cfg := createTestConfig(execPath)
	manager := NewManager(cfg, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := manager.Shutdown(ctx); err != nil {
			t.Logf("Warning: error during browser manager shutdown: %v", err)
		}
	})

	return &testFixture{
		Config:  cfg,
		Manager: manager,
		Logger:  logger,
		RootCtx: rootCtx,
	}
}

// newDashboardServer serves the dashboard fixture page.
func newDashboardServer(t *testing.T) *httptest.Server {
	t.Helper()
	page, err := os.ReadFile("testdata/dashboard.html")
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	t.Cleanup(server.Close)
	return server
}

// newHTMLServer serves a single inline page.
func newHTMLServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

// closedOrigin returns an http origin nothing is listening on.
func closedOrigin(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}
