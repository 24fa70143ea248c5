package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"step_recorder/domain/entities"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DriverPlaywright, cfg.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.InputDebounce)
	assert.Equal(t, 300*time.Millisecond, cfg.DuplicateWindow)
}

func TestFromLookupReadsEverything(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"BROWSER_DRIVER":        "Selenium",
		"HEADLESS":              "true",
		"ACTION_TIMEOUT_MS":     "2500",
		"NAVIGATION_TIMEOUT_MS": "60000",
		"INPUT_DEBOUNCE_MS":     "800",
		"DUPLICATE_WINDOW_MS":   "100",
		"PROJECT_DIR":           " /tmp/project ",
		"LOG_LEVEL":             "debug",
		"BROWSER_DRIVER_PATH":   "/opt/chromedriver",
		"CHROME_BINARY_PATH":    "/opt/chrome",
		"STOP_ON_FAILURE":       "1",
		"GUARD_DESTRUCTIVE":     "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Driver:            DriverSelenium,
		Headless:          true,
		ActionTimeout:     2500 * time.Millisecond,
		NavigationTimeout: time.Minute,
		InputDebounce:     800 * time.Millisecond,
		DuplicateWindow:   100 * time.Millisecond,
		ProjectDir:        "/tmp/project",
		LogLevel:          logrus.DebugLevel,
		DriverPath:        "/opt/chromedriver",
		ChromeBinary:      "/opt/chrome",
		StopOnFailure:     true,
		GuardDestructive:  true,
	}, cfg)
}

func TestFromLookupRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"BROWSER_DRIVER":    "puppeteer",
		"ACTION_TIMEOUT_MS": "soon",
		"INPUT_DEBOUNCE_MS": "-5",
		"LOG_LEVEL":         "loud",
		"HEADLESS":          "maybe",
	} {
		_, err := FromLookup(lookupFrom(map[string]string{key: value}))
		assert.Error(t, err, key)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STEP_RECORDER_TEST_DIR=/from/env/file\n"), 0644))
	t.Setenv("PROJECT_DIR", "")

	_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "/from/env/file", os.Getenv("STEP_RECORDER_TEST_DIR"))
	require.NoError(t, os.Unsetenv("STEP_RECORDER_TEST_DIR"))
}

func TestDerivedConfigs(t *testing.T) {
	cfg := Default()
	cfg.Headless = true
	cfg.StopOnFailure = true
	cfg.DriverPath = "/opt/chromedriver"

	project := entities.DefaultProjectConfig("p", time.Now())
	project.TimeoutMs = 5000

	rc := cfg.RunnerConfig(project, "/p/screenshots")
	assert.Equal(t, 5*time.Second, rc.ActionTimeout)
	assert.Equal(t, cfg.NavigationTimeout, rc.NavigationTimeout)
	assert.True(t, rc.StopOnFailure)
	assert.Equal(t, "/p/screenshots", rc.ScreenshotDir)

	project.TimeoutMs = 0
	assert.Equal(t, cfg.ActionTimeout, cfg.RunnerConfig(project, "").ActionTimeout)

	opts := cfg.BrowserOptions(project)
	assert.True(t, opts.Headless)
	assert.Equal(t, "chromium", opts.BrowserType)
	assert.Equal(t, cfg.ActionTimeout, opts.ActionTimeout)
	assert.Equal(t, "/opt/chromedriver", opts.DriverPath)

	recCfg := cfg.RecorderConfig()
	assert.Equal(t, cfg.InputDebounce, recCfg.Debounce)

	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())
}
