package interfaces

import "step_recorder/domain/entities"

// ProjectStore persists projects, their steps and exported scripts
type ProjectStore interface {
	// Create initialises a new project directory with default settings
	Create(name string) (entities.ProjectConfig, error)

	// Load reads the project configuration
	Load() (entities.ProjectConfig, error)

	// UpdateConfig replaces the stored configuration
	UpdateConfig(cfg entities.ProjectConfig) error

	// SaveSteps stores the step list
	SaveSteps(steps []entities.Step) error

	// LoadSteps reads the stored step list
	LoadSteps() ([]entities.Step, error)

	// SaveScript writes a generated script and returns its path
	SaveScript(filename, content string) (string, error)

	// ScreenshotPath returns where a screenshot with this name is stored
	ScreenshotPath(name string) string
}
