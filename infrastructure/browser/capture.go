package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"step_recorder/application/synthesizer"
	"step_recorder/domain/entities"
)

const (
	eventBinding   = "__stepRecorderEvent"
	pickBinding    = "__stepRecorderPick"
	inspectingFlag = "__stepRecorderInspecting"
)

// captureScript is installed in every document. It reports interactions
// with the absolute path of the target and a snapshot of the page, and
// queues the calls so they arrive in order.
const captureScript = `(() => {
  if (window.__stepRecorderInstalled) return;
  window.__stepRecorderInstalled = true;
  window.__stepRecorderInspecting = window.__stepRecorderInspecting || false;
  let queue = Promise.resolve();

  const pathOf = (el) => {
    const parts = [];
    for (let cur = el; cur && cur.nodeType === 1; cur = cur.parentElement) {
      const tag = cur.tagName.toLowerCase();
      let idx = 1, count = 0;
      if (cur.parentElement) {
        for (const sib of cur.parentElement.children) {
          if (sib.tagName === cur.tagName) {
            count++;
            if (sib === cur) idx = count;
          }
        }
      }
      parts.unshift(count > 1 ? tag + '[' + idx + ']' : tag);
    }
    return '/' + parts.join('/');
  };

  const attrsOf = (el) => {
    const out = {};
    for (const a of el.attributes) out[a.name] = a.value;
    return out;
  };

  const send = (binding, kind, el, value) => {
    if (!el || el.nodeType !== 1) return;
    const fn = window[binding];
    if (typeof fn !== 'function') return;
    const payload = JSON.stringify({
      kind: kind,
      xpath: pathOf(el),
      value: value == null ? '' : String(value),
      tagName: el.tagName.toLowerCase(),
      innerText: (el.innerText || '').trim().slice(0, 200),
      attributes: attrsOf(el),
      url: location.href,
      timestamp: Date.now(),
      html: document.documentElement.outerHTML
    });
    queue = queue.then(() => fn(payload)).catch(() => {});
  };

  const textual = (el) => {
    if (el.isContentEditable || el.tagName === 'TEXTAREA') return true;
    if (el.tagName !== 'INPUT') return false;
    return ['text', 'email', 'password', 'search', 'tel', 'url', 'number', ''].includes(el.type);
  };

  const toggle = (el) => el.tagName === 'INPUT' && (el.type === 'checkbox' || el.type === 'radio');

  let highlighted = null;
  document.addEventListener('mouseover', (e) => {
    if (!window.__stepRecorderInspecting) return;
    if (highlighted) highlighted.style.outline = highlighted.__stepRecorderOutline || '';
    highlighted = e.target;
    highlighted.__stepRecorderOutline = highlighted.style.outline;
    highlighted.style.outline = '2px solid #e0245e';
  }, true);

  document.addEventListener('click', (e) => {
    const el = e.target;
    if (window.__stepRecorderInspecting) {
      e.preventDefault();
      e.stopPropagation();
      if (highlighted) highlighted.style.outline = highlighted.__stepRecorderOutline || '';
      send('` + pickBinding + `', 'click', el, '');
      return;
    }
    if (toggle(el) || el.tagName === 'SELECT' || el.tagName === 'OPTION') return;
    send('` + eventBinding + `', 'click', el, '');
  }, true);

  document.addEventListener('dblclick', (e) => {
    if (window.__stepRecorderInspecting) return;
    send('` + eventBinding + `', 'dblclick', e.target, '');
  }, true);

  document.addEventListener('input', (e) => {
    const el = e.target;
    if (window.__stepRecorderInspecting || !textual(el)) return;
    send('` + eventBinding + `', 'input', el, el.isContentEditable ? el.innerText : el.value);
  }, true);

  document.addEventListener('change', (e) => {
    const el = e.target;
    if (window.__stepRecorderInspecting || textual(el)) return;
    if (toggle(el)) {
      send('` + eventBinding + `', el.checked ? 'check' : 'uncheck', el, '');
    } else if (el.tagName === 'SELECT') {
      send('` + eventBinding + `', 'select', el, el.value);
    } else {
      send('` + eventBinding + `', 'change', el, el.value);
    }
  }, true);

  document.addEventListener('keydown', (e) => {
    if (window.__stepRecorderInspecting) return;
    if (['Enter', 'Tab', 'Escape'].includes(e.key)) {
      send('` + eventBinding + `', 'keydown', e.target, e.key);
    }
  }, true);
})();`

// capturePayload is what the capture script sends for every interaction
type capturePayload struct {
	Kind       string            `json:"kind"`
	XPath      string            `json:"xpath"`
	Value      string            `json:"value"`
	TagName    string            `json:"tagName"`
	InnerText  string            `json:"innerText"`
	Attributes map[string]string `json:"attributes"`
	URL        string            `json:"url"`
	Timestamp  int64             `json:"timestamp"`
	HTML       string            `json:"html"`
}

func decodePayload(args []interface{}) (capturePayload, error) {
	var p capturePayload
	if len(args) == 0 {
		return p, fmt.Errorf("empty capture payload")
	}
	raw, ok := args[0].(string)
	if !ok {
		return p, fmt.Errorf("unexpected capture payload type %T", args[0])
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("failed to decode capture payload: %w", err)
	}
	return p, nil
}

// eventTranslator turns capture payloads into raw events with candidates
// synthesized from the page snapshot
type eventTranslator struct {
	synth *synthesizer.Synthesizer
	log   *logrus.Logger
}

func (t *eventTranslator) candidates(p capturePayload) []entities.SelectorCandidate {
	if p.XPath == "" || p.HTML == "" {
		return nil
	}
	doc, err := html.Parse(strings.NewReader(p.HTML))
	if err != nil {
		t.log.Warnf("Failed to parse page snapshot: %v", err)
		return nil
	}
	target, err := synthesizer.FindByXPath(doc, p.XPath)
	if err != nil {
		t.log.Debugf("Target not in snapshot: %v", err)
		return nil
	}
	return t.synth.Candidates(doc, target)
}

func (t *eventTranslator) rawEvent(p capturePayload) (entities.RawEvent, bool) {
	kind := entities.Action(p.Kind)
	if !kind.IsValid() {
		t.log.Debugf("Ignoring unknown capture kind %q", p.Kind)
		return entities.RawEvent{}, false
	}
	ev := entities.RawEvent{
		Kind:       kind,
		Value:      p.Value,
		TagName:    p.TagName,
		InnerText:  p.InnerText,
		Attributes: p.Attributes,
		URL:        p.URL,
		Timestamp:  p.Timestamp,
		Candidates: t.candidates(p),
	}
	if p.XPath != "" {
		ev.RawSelector = "xpath=" + p.XPath
	}
	return ev, true
}
