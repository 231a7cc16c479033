// File: internal/browser/options.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/dashverify/internal/config"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

// execOptions translates the browser configuration into chromedp allocator options.
// Every allocator gets its own temporary profile directory, so sessions share no state.
func execOptions(cfg config.BrowserConfig, viewport verify.Viewport) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
	)

	if cfg.Headless {
		opts = append(opts, chromedp.DisableGPU)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if !viewport.IsZero() {
		opts = append(opts, chromedp.WindowSize(viewport.Width, viewport.Height))
	}

	// Extra flags from config, either "--flag" or "--key=value".
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if key == "" {
			continue
		}
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// resolveViewport falls back to the configured default when the script does not pin a size.
func resolveViewport(requested verify.Viewport, fallback config.ViewportConfig) verify.Viewport {
	if requested.Width > 0 && requested.Height > 0 {
		return requested
	}
	return verify.Viewport{Width: fallback.Width, Height: fallback.Height}
}
