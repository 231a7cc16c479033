// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override (DASHVERIFY_VERIFY_EXPECT_TIMEOUT, ...).
const EnvPrefix = "DASHVERIFY"

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Verify    VerifyConfig    `mapstructure:"verify" yaml:"verify"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// ExecPath overrides Chrome discovery. Empty means let chromedp find it.
	ExecPath      string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args          []string       `mapstructure:"args" yaml:"args"`
	LaunchTimeout time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	Viewport      ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
}

// ViewportConfig is the default window size for sessions whose script does not pin one.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// VerifyConfig tunes the bounded waits used by the script runner.
type VerifyConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	ExpectTimeout     time.Duration `mapstructure:"expect_timeout" yaml:"expect_timeout"`
	LoginTimeout      time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	// BaseURL, when set, replaces every script's hardcoded origin.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// ArtifactsConfig controls where screenshots and run reports land.
type ArtifactsConfig struct {
	Root      string `mapstructure:"root" yaml:"root"`
	Report    bool   `mapstructure:"report" yaml:"report"`
	ReportDir string `mapstructure:"report_dir" yaml:"report_dir"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "dashverify")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.viewport.width", 1280)
	v.SetDefault("browser.viewport.height", 720)

	// -- Verify --
	v.SetDefault("verify.navigation_timeout", "30s")
	v.SetDefault("verify.action_timeout", "30s")
	v.SetDefault("verify.expect_timeout", "5s")
	v.SetDefault("verify.login_timeout", "10s")
	v.SetDefault("verify.poll_interval", "100ms")
	v.SetDefault("verify.concurrency", 1)
	v.SetDefault("verify.base_url", "")

	// -- Artifacts --
	v.SetDefault("artifacts.root", ".")
	v.SetDefault("artifacts.report", false)
	v.SetDefault("artifacts.report_dir", "verification/runs")
}

// BindEnv wires DASHVERIFY_* environment variables into v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ExpandPaths resolves a leading "~" in the filesystem paths the config carries.
func (c *Config) ExpandPaths() error {
	paths := map[string]*string{
		"artifacts.root":    &c.Artifacts.Root,
		"logger.log_file":   &c.Logger.LogFile,
		"browser.exec_path": &c.Browser.ExecPath,
	}
	for key, path := range paths {
		expanded, err := homedir.Expand(*path)
		if err != nil {
			return fmt.Errorf("could not resolve %s '%s': %w", key, *path, err)
		}
		*path = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Verify.Validate(); err != nil {
		return fmt.Errorf("verify configuration invalid: %w", err)
	}
	if strings.TrimSpace(c.Artifacts.Root) == "" {
		return fmt.Errorf("artifacts.root must not be empty")
	}
	if c.Artifacts.Report && strings.TrimSpace(c.Artifacts.ReportDir) == "" {
		return fmt.Errorf("artifacts.report_dir is required when artifacts.report is enabled")
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	if b.LaunchTimeout <= 0 {
		return fmt.Errorf("launch_timeout must be a positive duration")
	}
	if b.Viewport.Width <= 0 || b.Viewport.Height <= 0 {
		return fmt.Errorf("viewport width and height must be positive")
	}
	return nil
}

// Validate checks that every wait is bounded.
func (vc *VerifyConfig) Validate() error {
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"navigation_timeout", vc.NavigationTimeout},
		{"action_timeout", vc.ActionTimeout},
		{"expect_timeout", vc.ExpectTimeout},
		{"login_timeout", vc.LoginTimeout},
		{"poll_interval", vc.PollInterval},
	}
	for _, entry := range durations {
		if entry.d <= 0 {
			return fmt.Errorf("%s must be a positive duration", entry.name)
		}
	}
	if vc.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if vc.BaseURL != "" && !strings.HasPrefix(vc.BaseURL, "http://") && !strings.HasPrefix(vc.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://")
	}
	return nil
}
