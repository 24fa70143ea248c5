// Package browser drives real browsers for replay and recording through
// playwright, with selenium as an alternate replay driver.
package browser

import (
	"strings"
	"time"

	"step_recorder/domain/entities"
)

// Options configures the browsers this package launches
type Options struct {
	// BrowserType is chromium, firefox or webkit
	BrowserType string
	Headless    bool
	Viewport    entities.Viewport
	// SlowMo delays each playwright operation, useful while recording
	SlowMo time.Duration
	// ActionTimeout bounds element operations that carry no context deadline
	ActionTimeout time.Duration
	// DriverPath and ChromeBinary locate chromedriver and chrome for selenium
	DriverPath   string
	ChromeBinary string
}

// OptionsFromProject derives launch options from a project config
func OptionsFromProject(cfg entities.ProjectConfig) Options {
	return Options{
		BrowserType:   cfg.BrowserType,
		Headless:      cfg.Headless,
		Viewport:      cfg.Viewport,
		ActionTimeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	o.BrowserType = strings.ToLower(strings.TrimSpace(o.BrowserType))
	if o.BrowserType == "" {
		o.BrowserType = "chromium"
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = entities.Viewport{Width: 1280, Height: 720}
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 10 * time.Second
	}
	return o
}

var launchArgs = []string{
	"--disable-popup-blocking",
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
	"--disable-infobars",
	"--disable-notifications",
}

// isClosedErr reports errors raised because the target already went away
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}
