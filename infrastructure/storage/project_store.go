// Package storage keeps recording projects on disk: settings as YAML, the
// step list as JSON, exported scripts and screenshots in subdirectories.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"step_recorder/domain/entities"
	"step_recorder/domain/interfaces"
)

// ErrNotAProject is returned when a directory has no config.yaml
var ErrNotAProject = errors.New("not a step recorder project")

const (
	configFile     = "config.yaml"
	testsDir       = "tests"
	stepsFile      = "steps.json"
	screenshotsDir = "screenshots"
)

// ProjectStore is a project rooted at one directory
type ProjectStore struct {
	dir string
	log *logrus.Logger
	now func() time.Time
}

// NewProjectStore - creates a store for the project in dir
func NewProjectStore(dir string, log *logrus.Logger) *ProjectStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProjectStore{dir: dir, log: log, now: time.Now}
}

// Dir returns the project root
func (s *ProjectStore) Dir() string {
	return s.dir
}

// Exists reports whether the directory already holds a project
func (s *ProjectStore) Exists() bool {
	_, err := os.Stat(filepath.Join(s.dir, configFile))
	return err == nil
}

// Create - initialises the project layout with default settings
func (s *ProjectStore) Create(name string) (entities.ProjectConfig, error) {
	for _, d := range []string{s.dir, filepath.Join(s.dir, testsDir), filepath.Join(s.dir, screenshotsDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return entities.ProjectConfig{}, fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	cfg := entities.DefaultProjectConfig(name, s.now())
	if err := s.writeConfig(cfg); err != nil {
		return entities.ProjectConfig{}, err
	}
	s.log.WithField("dir", s.dir).Infof("Created project %q", cfg.Name)
	return cfg, nil
}

// Load - reads config.yaml
func (s *ProjectStore) Load() (entities.ProjectConfig, error) {
	var cfg entities.ProjectConfig
	data, err := os.ReadFile(filepath.Join(s.dir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrNotAProject, s.dir)
		}
		return cfg, fmt.Errorf("failed to read project config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse project config: %w", err)
	}
	return cfg, nil
}

// UpdateConfig - replaces the settings, keeping the creation time
func (s *ProjectStore) UpdateConfig(cfg entities.ProjectConfig) error {
	current, err := s.Load()
	if err != nil {
		return err
	}
	cfg.CreatedAt = current.CreatedAt
	cfg.UpdatedAt = s.now()
	return s.writeConfig(cfg)
}

func (s *ProjectStore) writeConfig(cfg entities.ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode project config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, configFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}
	return nil
}

// SaveSteps - stores the steps with statuses reset and bumps UpdatedAt
func (s *ProjectStore) SaveSteps(steps []entities.Step) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	stored := make([]entities.Step, len(steps))
	for i, st := range steps {
		st = st.Clone()
		st.Status = entities.StepStatusIdle
		st.Error = ""
		stored[i] = st
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, testsDir), 0755); err != nil {
		return fmt.Errorf("failed to create tests directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, testsDir, stepsFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write steps: %w", err)
	}

	cfg.UpdatedAt = s.now()
	if err := s.writeConfig(cfg); err != nil {
		return err
	}
	s.log.WithField("steps", len(stored)).Debug("Saved steps")
	return nil
}

// LoadSteps - reads the stored steps; a project without steps yields none
func (s *ProjectStore) LoadSteps() ([]entities.Step, error) {
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, testsDir, stepsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.Step{}, nil
		}
		return nil, fmt.Errorf("failed to read steps: %w", err)
	}
	var steps []entities.Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse steps: %w", err)
	}
	return steps, nil
}

// SaveScript - writes a generated script under tests/ and returns its path
func (s *ProjectStore) SaveScript(filename, content string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid script file name %q", filename)
	}
	dir := filepath.Join(s.dir, testsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create tests directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}
	s.log.WithField("path", path).Info("Exported script")
	return path, nil
}

// ScreenshotPath - returns where a screenshot called name is stored
func (s *ProjectStore) ScreenshotPath(name string) string {
	return filepath.Join(s.dir, screenshotsDir, filepath.Base(name))
}

// ScreenshotDir returns the directory replay screenshots go to
func (s *ProjectStore) ScreenshotDir() string {
	return filepath.Join(s.dir, screenshotsDir)
}

var _ interfaces.ProjectStore = (*ProjectStore)(nil)
