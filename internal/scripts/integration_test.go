package scripts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/dashverify/internal/artifacts"
	"github.com/xkilldash9x/dashverify/internal/browser"
	"github.com/xkilldash9x/dashverify/internal/config"
	"github.com/xkilldash9x/dashverify/internal/locator"
	"github.com/xkilldash9x/dashverify/internal/scripts"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

type harness struct {
	runner *verify.Runner
	root   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	execPath := os.Getenv("DASHVERIFY_BROWSER_EXEC_PATH")
	if execPath == "" {
		for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
			if path, err := exec.LookPath(name); err == nil {
				execPath = path
				break
			}
		}
	}
	if execPath == "" {
		t.Skip("no Chrome or Chromium binary found")
	}

	cfg := config.NewDefaultConfig()
	cfg.Browser.ExecPath = execPath
	cfg.Verify.PollInterval = 50 * time.Millisecond
	logger := zaptest.NewLogger(t)

	manager := browser.NewManager(cfg, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = manager.Shutdown(ctx)
	})

	root := t.TempDir()
	runner := verify.NewRunner(manager, artifacts.NewStore(root), logger,
		verify.WithTimeouts(verify.Timeouts{Expect: cfg.Verify.ExpectTimeout, Login: cfg.Verify.LoginTimeout}))
	return &harness{runner: runner, root: root}
}

func (h *harness) exists(path string) bool {
	_, err := os.Stat(filepath.Join(h.root, path))
	return err == nil
}

func dashboardServer(t *testing.T) *httptest.Server {
	t.Helper()
	page, err := os.ReadFile(filepath.Join("..", "browser", "testdata", "dashboard.html"))
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVerifyAll_AgainstDashboardFixture(t *testing.T) {
	h := newHarness(t)
	server := dashboardServer(t)

	result, err := h.runner.Run(context.Background(), scripts.VerifyAll().WithBaseURL(server.URL))
	require.NoError(t, err)
	assert.Equal(t, verify.StatusPassed, result.Status)
	assert.True(t, h.exists("verification/final_verify.png"))
	assert.False(t, h.exists("verification/failed_verify.png"))
}

func TestFeatures_WritesCheckpoint(t *testing.T) {
	h := newHarness(t)
	server := dashboardServer(t)

	result, err := h.runner.Run(context.Background(), scripts.Features().WithBaseURL(server.URL))
	require.NoError(t, err)
	assert.Len(t, result.Artifacts, 2)
	assert.True(t, h.exists("verification/courses_page.png"))
	assert.True(t, h.exists("verification/schedule_editor.png"))
}

func TestDashboard_FailsWithEvidence(t *testing.T) {
	h := newHarness(t)
	server := dashboardServer(t)

	// An element the page never renders fails the step after login.
	script := scripts.Dashboard().WithBaseURL(server.URL)
	script.Steps = []verify.Step{verify.ExpectWithin(locator.ByCSS(".never-rendered"), locator.Visible(), 500*time.Millisecond)}

	result, err := h.runner.Run(context.Background(), script)
	require.Error(t, err)
	assert.ErrorIs(t, err, verify.ErrCondition)
	assert.Equal(t, verify.StatusFailed, result.Status)
	assert.True(t, h.exists("verification/dashboard_failed.png"))
	assert.False(t, h.exists("verification/dashboard.png"))
}

func TestVerifyAll_NavigationRefused(t *testing.T) {
	h := newHarness(t)
	server := httptest.NewServer(http.NotFoundHandler())
	origin := server.URL
	server.Close()

	result, err := h.runner.Run(context.Background(), scripts.VerifyAll().WithBaseURL(origin))
	require.Error(t, err)
	assert.ErrorIs(t, err, verify.ErrNavigation)
	assert.Equal(t, verify.StatusNavigationFailed, result.Status)
	assert.False(t, h.exists("verification/final_verify.png"))
	assert.False(t, h.exists("verification/failed_verify.png"))
}
