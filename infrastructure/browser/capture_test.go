package browser

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"step_recorder/application/recorder"
	"step_recorder/application/steplist"
	"step_recorder/application/synthesizer"
	"step_recorder/domain/entities"
)

const samplePage = `<html><head></head><body><form><label for="email">Email</label><input id="email" name="email"><button id="save">Save</button></form></body></html>`

func newTranslator() *eventTranslator {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &eventTranslator{synth: synthesizer.New(log), log: log}
}

func encodePayload(t *testing.T, p capturePayload) []interface{} {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return []interface{}{string(raw)}
}

func TestDecodePayload(t *testing.T) {
	_, err := decodePayload(nil)
	assert.Error(t, err)

	_, err = decodePayload([]interface{}{42})
	assert.Error(t, err)

	_, err = decodePayload([]interface{}{"{not json"})
	assert.Error(t, err)

	p, err := decodePayload([]interface{}{`{"kind":"click","xpath":"/html/body/button","timestamp":17}`})
	require.NoError(t, err)
	assert.Equal(t, "click", p.Kind)
	assert.Equal(t, "/html/body/button", p.XPath)
	assert.Equal(t, int64(17), p.Timestamp)
}

func TestRawEventCarriesCandidates(t *testing.T) {
	args := encodePayload(t, capturePayload{
		Kind:       "click",
		XPath:      "/html/body/form/button",
		TagName:    "button",
		InnerText:  "Save",
		Attributes: map[string]string{"id": "save"},
		URL:        "https://example.com/form",
		Timestamp:  1000,
		HTML:       samplePage,
	})
	p, err := decodePayload(args)
	require.NoError(t, err)

	ev, ok := newTranslator().rawEvent(p)
	require.True(t, ok)
	assert.Equal(t, entities.ActionClick, ev.Kind)
	assert.Equal(t, "xpath=/html/body/form/button", ev.RawSelector)
	assert.Equal(t, "https://example.com/form", ev.URL)
	assert.Equal(t, int64(1000), ev.Timestamp)
	require.NotEmpty(t, ev.Candidates)

	var exprs []string
	for _, c := range ev.Candidates {
		exprs = append(exprs, c.Expression)
	}
	assert.Contains(t, exprs, "#save")
	assert.Contains(t, exprs, `byRole('button', {name: 'Save'})`)
}

func TestRawEventLabelledInput(t *testing.T) {
	ev, ok := newTranslator().rawEvent(capturePayload{
		Kind:  "input",
		XPath: "/html/body/form/input",
		Value: "me@example.com",
		HTML:  samplePage,
	})
	require.True(t, ok)
	assert.Equal(t, "me@example.com", ev.Value)

	var exprs []string
	for _, c := range ev.Candidates {
		exprs = append(exprs, c.Expression)
	}
	assert.Contains(t, exprs, `byLabel('Email')`)
}

func TestRawEventIgnoresUnknownKind(t *testing.T) {
	_, ok := newTranslator().rawEvent(capturePayload{Kind: "mousemove", XPath: "/html/body", HTML: samplePage})
	assert.False(t, ok)
}

func TestRawEventWithoutTarget(t *testing.T) {
	ev, ok := newTranslator().rawEvent(capturePayload{Kind: "click", XPath: "/html/body/table", HTML: samplePage})
	require.True(t, ok)
	assert.Empty(t, ev.Candidates)
	assert.Equal(t, "xpath=/html/body/table", ev.RawSelector)

	ev, ok = newTranslator().rawEvent(capturePayload{Kind: "click", HTML: samplePage})
	require.True(t, ok)
	assert.Empty(t, ev.RawSelector)
}

func TestCaptureScriptReferencesBindings(t *testing.T) {
	assert.Contains(t, captureScript, eventBinding)
	assert.Contains(t, captureScript, pickBinding)
	assert.Contains(t, captureScript, inspectingFlag)
	assert.NotContains(t, captureScript, "`")
}

func TestContentEditableBurstRecordsOneStep(t *testing.T) {
	tr := newTranslator()
	list := steplist.New()
	canon := recorder.NewCanonicalizer(list, recorder.Config{}, tr.log)

	for i, v := range []string{"h", "he", "hel", "hell", "hello"} {
		ev, ok := tr.rawEvent(capturePayload{
			Kind:       "input",
			XPath:      "/html/body/div",
			Value:      v,
			TagName:    "div",
			Attributes: map[string]string{"contenteditable": "true"},
			Timestamp:  int64(1000 + i*40),
			HTML:       `<html><head></head><body><div contenteditable="true">` + v + `</div></body></html>`,
		})
		require.True(t, ok)
		for _, c := range ev.Candidates {
			assert.NotContains(t, []entities.Strategy{
				entities.StrategyText, entities.StrategyXPathText, entities.StrategyXPathContains,
			}, c.Strategy, c.Expression)
		}
		canon.HandleEvent(ev)
	}
	canon.Flush()

	steps := list.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, entities.ActionInput, steps[0].Action)
	assert.Equal(t, "hello", steps[0].Value)
	assert.Equal(t, "body > div", steps[0].PrimarySelector)
}
