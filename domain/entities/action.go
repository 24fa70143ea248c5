package entities

// Action represents the kind of interaction a step performs
type Action string

const (
	ActionClick      Action = "click"
	ActionDblClick   Action = "dblclick"
	ActionInput      Action = "input"
	ActionChange     Action = "change"
	ActionKeydown    Action = "keydown"
	ActionNavigate   Action = "navigate"
	ActionSelect     Action = "select"
	ActionCheck      Action = "check"
	ActionUncheck    Action = "uncheck"
	ActionHover      Action = "hover"
	ActionScroll     Action = "scroll"
	ActionWait       Action = "wait"
	ActionAssert     Action = "assert"
	ActionScreenshot Action = "screenshot"
)

// Actions lists every supported action in display order
var Actions = []Action{
	ActionClick, ActionDblClick, ActionInput, ActionChange, ActionKeydown,
	ActionNavigate, ActionSelect, ActionCheck, ActionUncheck, ActionHover,
	ActionScroll, ActionWait, ActionAssert, ActionScreenshot,
}

// IsValid reports whether a is a known action
func (a Action) IsValid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// TargetsElement reports whether the action operates on a located element.
// navigate, wait and screenshot act on the page itself.
func (a Action) TargetsElement() bool {
	switch a {
	case ActionNavigate, ActionWait, ActionScreenshot:
		return false
	}
	return true
}

// Label - returns the human readable name of the action
func (a Action) Label() string {
	switch a {
	case ActionClick:
		return "Click"
	case ActionDblClick:
		return "Double Click"
	case ActionInput:
		return "Type"
	case ActionChange:
		return "Change"
	case ActionKeydown:
		return "Key Press"
	case ActionNavigate:
		return "Navigate"
	case ActionSelect:
		return "Select"
	case ActionCheck:
		return "Check"
	case ActionUncheck:
		return "Uncheck"
	case ActionHover:
		return "Hover"
	case ActionScroll:
		return "Scroll"
	case ActionWait:
		return "Wait"
	case ActionAssert:
		return "Assert"
	case ActionScreenshot:
		return "Screenshot"
	}
	return string(a)
}
