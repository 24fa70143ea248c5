package entities

import "time"

// Viewport is the browser window size used for recording and replay
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// ProjectConfig holds the persisted settings of a recording project
type ProjectConfig struct {
	Name        string    `yaml:"name" json:"name"`
	Version     string    `yaml:"version" json:"version"`
	BaseURL     string    `yaml:"baseUrl" json:"baseUrl"`
	BrowserType string    `yaml:"browserType" json:"browserType"`
	Headless    bool      `yaml:"headless" json:"headless"`
	Viewport    Viewport  `yaml:"viewport" json:"viewport"`
	TimeoutMs   int       `yaml:"timeout" json:"timeout"`
	CreatedAt   time.Time `yaml:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updatedAt" json:"updatedAt"`
}

// DefaultProjectConfig returns the settings a new project starts with
func DefaultProjectConfig(name string, now time.Time) ProjectConfig {
	if name == "" {
		name = "Untitled Project"
	}
	return ProjectConfig{
		Name:        name,
		Version:     "1.0.0",
		BrowserType: "chromium",
		Headless:    false,
		Viewport:    Viewport{Width: 1280, Height: 720},
		TimeoutMs:   30000,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
