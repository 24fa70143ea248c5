// Package config reads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"step_recorder/application/recorder"
	"step_recorder/application/runner"
	"step_recorder/domain/entities"
	"step_recorder/infrastructure/browser"
)

const (
	DriverPlaywright = "playwright"
	DriverSelenium   = "selenium"
)

// Config is everything the CLI needs to wire the application
type Config struct {
	Driver            string
	Headless          bool
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	InputDebounce     time.Duration
	DuplicateWindow   time.Duration
	ProjectDir        string
	LogLevel          logrus.Level
	DriverPath        string
	ChromeBinary      string
	StopOnFailure     bool
	GuardDestructive  bool
}

// Default returns the settings used when nothing is set
func Default() Config {
	return Config{
		Driver:            DriverPlaywright,
		ActionTimeout:     runner.DefaultActionTimeout,
		NavigationTimeout: runner.DefaultNavigationTimeout,
		InputDebounce:     recorder.DefaultDebounce,
		DuplicateWindow:   recorder.DefaultDuplicateWindow,
		ProjectDir:        ".",
		LogLevel:          logrus.InfoLevel,
	}
}

// Load reads envFiles (a missing file is not an error) and then the
// process environment
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a config from an environment lookup function
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var err error

	if v, ok := lookup("BROWSER_DRIVER"); ok && strings.TrimSpace(v) != "" {
		cfg.Driver = strings.ToLower(strings.TrimSpace(v))
		if cfg.Driver != DriverPlaywright && cfg.Driver != DriverSelenium {
			return cfg, fmt.Errorf("BROWSER_DRIVER must be %s or %s, got %q", DriverPlaywright, DriverSelenium, v)
		}
	}
	if cfg.Headless, err = boolVar(lookup, "HEADLESS", cfg.Headless); err != nil {
		return cfg, err
	}
	if cfg.StopOnFailure, err = boolVar(lookup, "STOP_ON_FAILURE", cfg.StopOnFailure); err != nil {
		return cfg, err
	}
	if cfg.GuardDestructive, err = boolVar(lookup, "GUARD_DESTRUCTIVE", cfg.GuardDestructive); err != nil {
		return cfg, err
	}
	if cfg.ActionTimeout, err = msVar(lookup, "ACTION_TIMEOUT_MS", cfg.ActionTimeout); err != nil {
		return cfg, err
	}
	if cfg.NavigationTimeout, err = msVar(lookup, "NAVIGATION_TIMEOUT_MS", cfg.NavigationTimeout); err != nil {
		return cfg, err
	}
	if cfg.InputDebounce, err = msVar(lookup, "INPUT_DEBOUNCE_MS", cfg.InputDebounce); err != nil {
		return cfg, err
	}
	if cfg.DuplicateWindow, err = msVar(lookup, "DUPLICATE_WINDOW_MS", cfg.DuplicateWindow); err != nil {
		return cfg, err
	}
	if v, ok := lookup("PROJECT_DIR"); ok && strings.TrimSpace(v) != "" {
		cfg.ProjectDir = strings.TrimSpace(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		level, err := logrus.ParseLevel(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	if v, ok := lookup("BROWSER_DRIVER_PATH"); ok {
		cfg.DriverPath = strings.TrimSpace(v)
	}
	if v, ok := lookup("CHROME_BINARY_PATH"); ok {
		cfg.ChromeBinary = strings.TrimSpace(v)
	}
	return cfg, nil
}

func boolVar(lookup func(string) (string, bool), key string, def bool) (bool, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func msVar(lookup func(string) (string, bool), key string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || ms < 0 {
		return def, fmt.Errorf("invalid %s: %q is not a non-negative number of milliseconds", key, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// NewLogger - builds the logger every component shares
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// RunnerConfig derives replay settings; a project timeout overrides the
// action timeout
func (c Config) RunnerConfig(project entities.ProjectConfig, screenshotDir string) runner.Config {
	action := c.ActionTimeout
	if project.TimeoutMs > 0 {
		action = time.Duration(project.TimeoutMs) * time.Millisecond
	}
	return runner.Config{
		ActionTimeout:     action,
		NavigationTimeout: c.NavigationTimeout,
		StopOnFailure:     c.StopOnFailure,
		ScreenshotDir:     screenshotDir,
	}
}

// RecorderConfig derives the canonicalizer timing windows
func (c Config) RecorderConfig() recorder.Config {
	return recorder.Config{
		Debounce:        c.InputDebounce,
		DuplicateWindow: c.DuplicateWindow,
	}
}

// BrowserOptions merges project settings with the environment. HEADLESS
// only ever turns headless on.
func (c Config) BrowserOptions(project entities.ProjectConfig) browser.Options {
	opts := browser.OptionsFromProject(project)
	opts.Headless = opts.Headless || c.Headless
	if project.TimeoutMs <= 0 {
		opts.ActionTimeout = c.ActionTimeout
	}
	opts.DriverPath = c.DriverPath
	opts.ChromeBinary = c.ChromeBinary
	return opts
}
