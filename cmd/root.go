// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dashverify/internal/config"
	"github.com/xkilldash9x/dashverify/internal/observability"
)

type contextKey string

// configKey is the context key under which the validated config is stored for subcommands.
const configKey contextKey = "config"

// flagKeys maps command line flags onto their viper keys. A flag only
// overrides config and environment when the user actually set it.
var flagKeys = map[string]string{
	"log-level":   "logger.level",
	"base-url":    "verify.base_url",
	"concurrency": "verify.concurrency",
	"report":      "artifacts.report",
	"artifacts":   "artifacts.root",
	"headless":    "browser.headless",
	"exec-path":   "browser.exec_path",
}

// newRootCmd builds the command tree from scratch, so tests always get a pristine copy.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "dashverify",
		Short: "dashverify runs browser verification scripts against a local dashboard.",
		Long: `dashverify drives a headless Chrome through fixed verification scripts:
log in, navigate the dashboard, assert on what is rendered and save screenshots
as evidence. Run 'dashverify list' to see the built-in scripts.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting dashverify.", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override logger.level (debug, info, warn, error)")

	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the CLI under ctx, which main cancels on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed.", zap.Error(err))
		return err
	}
	return nil
}

// initializeConfig layers the config file, DASHVERIFY_* environment variables
// and explicitly set flags onto v, in increasing precedence.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// getConfigFromContext returns the config stored by the root command's PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
