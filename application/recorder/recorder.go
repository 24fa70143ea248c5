package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"step_recorder/domain/entities"
	"step_recorder/domain/interfaces"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrNothingPicked    = errors.New("no element picked")
)

// Recorder drives a recording session over a RecordingSource
type Recorder struct {
	mu         sync.Mutex
	source     interfaces.RecordingSource
	canon      *Canonicalizer
	log        *logrus.Logger
	recording  bool
	paused     bool
	inspecting bool
	lastPicked []entities.SelectorCandidate
}

// NewRecorder - creates a recorder feeding canon from source
func NewRecorder(source interfaces.RecordingSource, canon *Canonicalizer, log *logrus.Logger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{source: source, canon: canon, log: log}
}

// Start opens url and begins capturing interactions
func (r *Recorder) Start(ctx context.Context, url string) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.recording = true
	r.paused = false
	r.mu.Unlock()

	err := r.source.Open(ctx, url, interfaces.RecordingHandlers{
		OnEvent: r.onEvent,
		OnLoad:  r.onLoad,
		OnPick:  r.onPick,
	})
	if err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("failed to open recording page: %w", err)
	}
	r.canon.Navigate(url, 0)
	r.log.Infof("Recording started on %s", url)
	return nil
}

// Stop flushes pending input and closes the page
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.recording = false
	r.paused = false
	r.inspecting = false
	r.mu.Unlock()

	r.canon.Flush()
	if err := r.source.Close(); err != nil {
		return fmt.Errorf("failed to close recording page: %w", err)
	}
	r.log.Info("Recording stopped")
	return nil
}

// Pause ignores interactions until Resume
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return ErrNotRecording
	}
	if !r.paused {
		r.paused = true
		r.log.Info("Recording paused")
	}
	return nil
}

// Resume continues capturing after Pause
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return ErrNotRecording
	}
	if r.paused {
		r.paused = false
		r.log.Info("Recording resumed")
	}
	return nil
}

// Inspect switches the page into element pick mode and back
func (r *Recorder) Inspect(on bool) error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.inspecting = on
	r.mu.Unlock()
	return r.source.SetInspecting(on)
}

// IsRecording reports whether a session is open
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// IsPaused reports whether capture is paused
func (r *Recorder) IsPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// LastPicked returns the candidates of the last inspected element
func (r *Recorder) LastPicked() []entities.SelectorCandidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.SelectorCandidate(nil), r.lastPicked...)
}

// AddAssertion records an assertion against the last picked element.
// Page level assertions need no pick.
func (r *Recorder) AddAssertion(kind entities.AssertionKind, value string) (entities.Step, error) {
	picked := r.LastPicked()
	if len(picked) == 0 && !kind.IsPageLevel() {
		return entities.Step{}, ErrNothingPicked
	}
	return r.canon.AddAssertion(entities.AssertionPick{
		Candidates: picked,
		Kind:       kind,
		Value:      value,
	})
}

func (r *Recorder) active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording && !r.paused && !r.inspecting
}

func (r *Recorder) onEvent(ev entities.RawEvent) {
	if !r.active() {
		return
	}
	r.canon.HandleEvent(ev)
}

func (r *Recorder) onLoad(url string, timestamp int64) {
	if !r.active() {
		return
	}
	r.canon.Navigate(url, timestamp)
}

func (r *Recorder) onPick(candidates []entities.SelectorCandidate) {
	ranked := entities.RankCandidates(candidates)
	r.mu.Lock()
	r.lastPicked = ranked
	r.mu.Unlock()
	if len(ranked) > 0 {
		r.log.Infof("Picked element: %s", ranked[0].Expression)
	}
}
