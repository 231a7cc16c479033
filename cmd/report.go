// File: cmd/report.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/dashverify/internal/artifacts"
	"github.com/xkilldash9x/dashverify/internal/scripts"
)

// newReportCmd shows the reports saved by `verify --report`.
func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report [script...]",
		Short: "Show the last saved run report of each script",
		Long: `Reads the JSON reports written by 'dashverify verify --report' and prints
one summary line per script. With no arguments every built-in script is shown;
scripts that were never reported are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			selected, err := scripts.Select(args, false)
			if err != nil {
				return err
			}

			store := artifacts.NewStore(cfg.Artifacts.Root, artifacts.WithReportDir(cfg.Artifacts.ReportDir))
			var outcomes []outcome
			for _, s := range selected {
				result, err := store.LoadRun(s.Name)
				if err != nil {
					if len(args) > 0 {
						return err
					}
					continue
				}
				o := outcome{script: s, result: result}
				if result.Error != "" {
					o.err = errors.New(result.Error)
				}
				outcomes = append(outcomes, o)
			}

			if len(outcomes) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No run reports found.")
				return err
			}
			newSummaryWriter(cmd.OutOrStdout()).write(outcomes)
			return nil
		},
	}

	reportCmd.Flags().String("artifacts", "", "directory report paths are resolved against")
	return reportCmd
}
