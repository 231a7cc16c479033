// File: cmd/verify.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/dashverify/internal/artifacts"
	"github.com/xkilldash9x/dashverify/internal/browser"
	"github.com/xkilldash9x/dashverify/internal/observability"
	"github.com/xkilldash9x/dashverify/internal/scripts"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

// shutdownTimeout bounds how long the browser manager gets to close leftover sessions.
const shutdownTimeout = 20 * time.Second

// errNoScripts is returned when verify is called without script names or --all.
var errNoScripts = errors.New("name at least one script or pass --all (see 'dashverify list')")

// scriptRunner is the slice of verify.Runner the command needs.
type scriptRunner interface {
	Run(ctx context.Context, script verify.Script) (*verify.Result, error)
}

// reportSaver persists run reports when --report is set.
type reportSaver interface {
	SaveRun(result *verify.Result) (string, error)
}

// outcome pairs a script with what its run returned.
type outcome struct {
	script verify.Script
	result *verify.Result
	err    error
}

// newVerifyCmd creates and configures the `verify` command.
func newVerifyCmd() *cobra.Command {
	var all bool

	verifyCmd := &cobra.Command{
		Use:   "verify [script...]",
		Short: "Run one or more verification scripts",
		Long: `Runs the named verification scripts, each in its own browser session.
Every script writes its success screenshot, or a failure screenshot if a step
fails after the page loaded. The command exits non-zero if any script failed.`,
		Example: `  dashverify verify verify-all
  dashverify verify --all --concurrency 2 --report
  dashverify verify features --base-url http://localhost:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errNoScripts
			}
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			selected, err := scripts.Select(args, all)
			if err != nil {
				return err
			}
			selected = applyBaseURL(selected, cfg.Verify.BaseURL)

			logger := observability.GetLogger()
			manager := browser.NewManager(cfg, logger)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := manager.Shutdown(ctx); err != nil {
					logger.Warn("Browser manager did not shut down cleanly.", zap.Error(err))
				}
			}()

			store := artifacts.NewStore(cfg.Artifacts.Root, artifacts.WithReportDir(cfg.Artifacts.ReportDir))
			runner := verify.NewRunner(manager, store, logger, verify.WithTimeouts(verify.Timeouts{
				Expect: cfg.Verify.ExpectTimeout,
				Login:  cfg.Verify.LoginTimeout,
			}))

			outcomes := runScripts(cmd.Context(), runner, selected, cfg.Verify.Concurrency)
			if cfg.Artifacts.Report {
				saveReports(store, outcomes, logger)
			}

			newSummaryWriter(cmd.OutOrStdout()).write(outcomes)
			return summarize(outcomes)
		},
	}

	verifyCmd.Flags().BoolVar(&all, "all", false, "run every built-in script")
	verifyCmd.Flags().String("base-url", "", "replace every script's origin (e.g. http://localhost:9000)")
	verifyCmd.Flags().Int("concurrency", 1, "number of scripts to run at the same time")
	verifyCmd.Flags().Bool("report", false, "save a JSON report per script under artifacts.report_dir")
	verifyCmd.Flags().String("artifacts", "", "directory screenshot paths are resolved against")
	verifyCmd.Flags().Bool("headless", true, "run Chrome without a window")
	verifyCmd.Flags().String("exec-path", "", "path to the Chrome or Chromium binary")

	return verifyCmd
}

func applyBaseURL(selected []verify.Script, baseURL string) []verify.Script {
	if baseURL == "" {
		return selected
	}
	out := make([]verify.Script, 0, len(selected))
	for _, s := range selected {
		out = append(out, s.WithBaseURL(baseURL))
	}
	return out
}

// runScripts runs every script, at most concurrency at a time. Scripts are
// independent, so one failing never cancels the others. Outcomes keep the
// order of selected.
func runScripts(ctx context.Context, runner scriptRunner, selected []verify.Script, concurrency int) []outcome {
	if concurrency < 1 {
		concurrency = 1
	}
	outcomes := make([]outcome, len(selected))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, script := range selected {
		g.Go(func() error {
			result, err := runner.Run(ctx, script)
			outcomes[i] = outcome{script: script, result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func saveReports(saver reportSaver, outcomes []outcome, logger *zap.Logger) {
	for _, o := range outcomes {
		if o.result == nil {
			continue
		}
		path, err := saver.SaveRun(o.result)
		if err != nil {
			logger.Warn("Could not save run report.", zap.String("script", o.script.Name), zap.Error(err))
			continue
		}
		logger.Debug("Run report saved.", zap.String("script", o.script.Name), zap.String("path", path))
	}
}

// summarize turns the outcomes into the command's exit error.
func summarize(outcomes []outcome) error {
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d scripts failed", failed, len(outcomes))
}

var _ scriptRunner = (*verify.Runner)(nil)
var _ reportSaver = (*artifacts.Store)(nil)
