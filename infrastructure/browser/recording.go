package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"step_recorder/application/synthesizer"
	"step_recorder/domain/interfaces"
)

// PlaywrightRecorder captures user interactions in a headed browser
type PlaywrightRecorder struct {
	opts       Options
	log        *logrus.Logger
	translator *eventTranslator

	mu       sync.Mutex
	b        *pwBrowser
	handlers interfaces.RecordingHandlers
	loaded   bool
}

// NewPlaywrightRecorder - creates a recording source; the browser is
// launched by Open
func NewPlaywrightRecorder(opts Options, synth *synthesizer.Synthesizer, log *logrus.Logger) *PlaywrightRecorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts.Headless = false
	return &PlaywrightRecorder{
		opts:       opts.withDefaults(),
		log:        log,
		translator: &eventTranslator{synth: synth, log: log},
	}
}

// Open launches the browser, installs the capture script and loads url
func (r *PlaywrightRecorder) Open(ctx context.Context, url string, handlers interfaces.RecordingHandlers) error {
	r.mu.Lock()
	if r.b != nil {
		r.mu.Unlock()
		return fmt.Errorf("recording browser already open")
	}
	r.mu.Unlock()

	b, err := launch(r.opts, r.log)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.b = b
	r.handlers = handlers
	r.loaded = false
	r.mu.Unlock()

	if err := r.install(b); err != nil {
		_ = r.Close()
		return err
	}

	_, err = b.current().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeoutFrom(ctx, 30*time.Second),
	})
	if err != nil {
		_ = r.Close()
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// install exposes the capture bindings on the context so that tabs opened
// later report too
func (r *PlaywrightRecorder) install(b *pwBrowser) error {
	err := b.context.ExposeFunction(eventBinding, func(args ...interface{}) interface{} {
		r.handleEvent(args)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose %s: %w", eventBinding, err)
	}
	err = b.context.ExposeFunction(pickBinding, func(args ...interface{}) interface{} {
		r.handlePick(args)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to expose %s: %w", pickBinding, err)
	}
	if err := b.context.AddInitScript(playwright.Script{Content: playwright.String(captureScript)}); err != nil {
		return fmt.Errorf("failed to install capture script: %w", err)
	}

	b.setLoadHook(r.handleLoad)
	return nil
}

func (r *PlaywrightRecorder) handleEvent(args []interface{}) {
	p, err := decodePayload(args)
	if err != nil {
		r.log.Warn(err)
		return
	}
	ev, ok := r.translator.rawEvent(p)
	if !ok {
		return
	}
	r.mu.Lock()
	onEvent := r.handlers.OnEvent
	r.mu.Unlock()
	if onEvent != nil {
		onEvent(ev)
	}
}

func (r *PlaywrightRecorder) handlePick(args []interface{}) {
	p, err := decodePayload(args)
	if err != nil {
		r.log.Warn(err)
		return
	}
	cands := r.translator.candidates(p)
	r.mu.Lock()
	onPick := r.handlers.OnPick
	r.mu.Unlock()
	if onPick != nil {
		onPick(cands)
	}
}

// handleLoad reports full page loads, skipping the one Open itself triggers
func (r *PlaywrightRecorder) handleLoad(url string) {
	r.mu.Lock()
	initial := !r.loaded
	r.loaded = true
	onLoad := r.handlers.OnLoad
	r.mu.Unlock()
	if initial || onLoad == nil {
		return
	}
	onLoad(url, time.Now().UnixMilli())
}

// SetInspecting toggles element pick mode in the current page
func (r *PlaywrightRecorder) SetInspecting(on bool) error {
	r.mu.Lock()
	b := r.b
	r.mu.Unlock()
	if b == nil {
		return fmt.Errorf("recording browser is not open")
	}
	_, err := b.current().Evaluate(`v => { window.`+inspectingFlag+` = v; }`, on)
	if err != nil {
		return fmt.Errorf("failed to toggle inspect mode: %w", err)
	}
	return nil
}

// Close shuts the recording browser
func (r *PlaywrightRecorder) Close() error {
	r.mu.Lock()
	b := r.b
	r.b = nil
	r.handlers = interfaces.RecordingHandlers{}
	r.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.close()
}
