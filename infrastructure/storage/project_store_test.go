package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"step_recorder/domain/entities"
)

func newStore(t *testing.T) (*ProjectStore, *time.Time) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewProjectStore(filepath.Join(t.TempDir(), "project"), log)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestCreateWritesLayoutAndDefaults(t *testing.T) {
	s, _ := newStore(t)
	assert.False(t, s.Exists())

	cfg, err := s.Create("Checkout flow")
	require.NoError(t, err)
	assert.True(t, s.Exists())
	assert.Equal(t, "Checkout flow", cfg.Name)
	assert.Equal(t, "chromium", cfg.BrowserType)
	assert.Equal(t, 30000, cfg.TimeoutMs)

	for _, d := range []string{"tests", "screenshots"} {
		info, err := os.Stat(filepath.Join(s.Dir(), d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, loaded.Name)
	assert.Equal(t, cfg.Viewport, loaded.Viewport)
	assert.True(t, cfg.CreatedAt.Equal(loaded.CreatedAt))
}

func TestLoadWithoutConfig(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAProject))

	_, err = s.LoadSteps()
	assert.True(t, errors.Is(err, ErrNotAProject))
}

func TestSaveStepsResetsStatusAndBumpsUpdatedAt(t *testing.T) {
	s, now := newStore(t)
	_, err := s.Create("p")
	require.NoError(t, err)

	steps, err := s.LoadSteps()
	require.NoError(t, err)
	assert.Empty(t, steps)

	*now = now.Add(time.Hour)
	in := []entities.Step{
		{ID: "1", Action: entities.ActionNavigate, Value: "https://example.com", Status: entities.StepStatusPassed},
		{ID: "2", Action: entities.ActionClick, PrimarySelector: "#save", Status: entities.StepStatusFailed, Error: "boom",
			Candidates: []entities.SelectorCandidate{{Strategy: entities.StrategyID, Expression: "#save", Confidence: 0.9}}},
	}
	require.NoError(t, s.SaveSteps(in))
	assert.Equal(t, entities.StepStatusFailed, in[1].Status, "caller's steps are untouched")

	steps, err = s.LoadSteps()
	require.NoError(t, err)
	require.Len(t, steps, 2)
	for _, st := range steps {
		assert.Equal(t, entities.StepStatusIdle, st.Status)
		assert.Empty(t, st.Error)
	}
	assert.Equal(t, "#save", steps[1].PrimarySelector)
	assert.Equal(t, in[1].Candidates, steps[1].Candidates)

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.True(t, cfg.UpdatedAt.Equal(*now))
	assert.True(t, cfg.CreatedAt.Before(cfg.UpdatedAt))
}

func TestSaveScript(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Create("p")
	require.NoError(t, err)

	path, err := s.SaveScript("test-1.spec.ts", "test('x', async () => {});")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "tests", "test-1.spec.ts"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test('x', async () => {});", string(data))

	path, err = s.SaveScript("../escape.feature", "Feature: x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "tests", "escape.feature"), path)

	_, err = s.SaveScript("  ", "x")
	assert.Error(t, err)
}

func TestUpdateConfigKeepsCreatedAt(t *testing.T) {
	s, now := newStore(t)
	cfg, err := s.Create("p")
	require.NoError(t, err)
	created := cfg.CreatedAt

	*now = now.Add(24 * time.Hour)
	cfg.Headless = true
	cfg.BaseURL = "https://example.com"
	cfg.CreatedAt = time.Time{}
	require.NoError(t, s.UpdateConfig(cfg))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, loaded.Headless)
	assert.Equal(t, "https://example.com", loaded.BaseURL)
	assert.True(t, loaded.CreatedAt.Equal(created))
	assert.True(t, loaded.UpdatedAt.Equal(*now))
}

func TestScreenshotPath(t *testing.T) {
	s, _ := newStore(t)
	assert.Equal(t, filepath.Join(s.Dir(), "screenshots", "shot.png"), s.ScreenshotPath("shot.png"))
	assert.Equal(t, filepath.Join(s.Dir(), "screenshots", "shot.png"), s.ScreenshotPath("../../shot.png"))
	assert.Equal(t, filepath.Join(s.Dir(), "screenshots"), s.ScreenshotDir())
}
