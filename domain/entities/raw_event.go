package entities

// RawEvent is one interaction captured from the live page, already carrying
// the candidates synthesized against the page at event time
type RawEvent struct {
	Kind        Action              `json:"kind"`
	RawSelector string              `json:"rawSelector,omitempty"`
	Value       string              `json:"value,omitempty"`
	TagName     string              `json:"tagName,omitempty"`
	InnerText   string              `json:"innerText,omitempty"`
	Attributes  map[string]string   `json:"attributes,omitempty"`
	URL         string              `json:"url,omitempty"`
	Timestamp   int64               `json:"timestamp"`
	Candidates  []SelectorCandidate `json:"candidates,omitempty"`
}

// AssertionPick is an element picked while inspecting, plus the chosen check
type AssertionPick struct {
	Candidates []SelectorCandidate `json:"candidates"`
	Kind       AssertionKind       `json:"kind"`
	Value      string              `json:"value,omitempty"`
	Timestamp  int64               `json:"timestamp"`
}
