package interfaces

import (
	"context"
	"time"

	"step_recorder/domain/entities"
	"step_recorder/domain/locator"
)

// SessionFactory opens live browser sessions for replay
type SessionFactory interface {
	// NewSession launches a browser and returns a session bound to one page
	NewSession(ctx context.Context) (Session, error)
}

// Session defines the live browser page the replay engine drives
type Session interface {
	// Resolve binds a parsed locator to the current page
	Resolve(ctx context.Context, loc locator.Locator) (Element, error)

	// Navigate navigates to a URL
	Navigate(ctx context.Context, url string) error

	// Wait pauses the page for the given duration
	Wait(ctx context.Context, d time.Duration) error

	// Screenshot saves a screenshot of the page to path
	Screenshot(ctx context.Context, path string) error

	// URL returns the current page URL
	URL(ctx context.Context) (string, error)

	// Title returns the current page title
	Title(ctx context.Context) (string, error)

	// Close releases the page and the browser behind it
	Close() error
}

// Element is a resolved locator. Every call re-evaluates the locator
// against the live page; the deadline of ctx bounds the wait.
type Element interface {
	Click(ctx context.Context) error
	DblClick(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	SelectOption(ctx context.Context, value string) error
	Check(ctx context.Context) error
	Uncheck(ctx context.Context) error
	Hover(ctx context.Context) error
	Press(ctx context.Context, key string) error
	ScrollIntoView(ctx context.Context) error
	WaitVisible(ctx context.Context) error

	IsVisible(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsChecked(ctx context.Context) (bool, error)
	InnerText(ctx context.Context) (string, error)
	TextContent(ctx context.Context) (string, error)
	InputValue(ctx context.Context) (string, error)

	// Attribute returns the attribute value and whether it is present
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Count returns the number of elements the locator currently matches
	Count(ctx context.Context) (int, error)
}

// RecordingHandlers receive what the recording page reports
type RecordingHandlers struct {
	// OnEvent is called for every captured interaction
	OnEvent func(ev entities.RawEvent)
	// OnLoad is called after every full page load following the initial one
	OnLoad func(url string, timestamp int64)
	// OnPick is called when an element is picked while inspecting
	OnPick func(candidates []entities.SelectorCandidate)
}

// RecordingSource opens a headed page and reports user interactions
type RecordingSource interface {
	// Open launches the page at url and starts delivering to handlers
	Open(ctx context.Context, url string, handlers RecordingHandlers) error

	// SetInspecting switches the page between capture and pick mode
	SetInspecting(inspecting bool) error

	// Close stops delivery and releases the page
	Close() error
}
