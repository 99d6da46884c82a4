package entity

import (
	"fmt"
	"strings"
)

type ActionType string

const (
	ActionClick  ActionType = "click"
	ActionInput  ActionType = "input"
	ActionSelect ActionType = "select"
	ActionStop   ActionType = "stop"
	// ActionRaw carries an environment action string returned verbatim by the agent.
	ActionRaw ActionType = "raw"
)

func (t ActionType) String() string {
	return string(t)
}

// ParseActionType accepts the agent-facing spellings, including the
// environment verbs "type" and "fill" for input.
func ParseActionType(s string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "click":
		return ActionClick, nil
	case "input", "type", "fill":
		return ActionInput, nil
	case "select":
		return ActionSelect, nil
	case "stop":
		return ActionStop, nil
	}
	return "", fmt.Errorf("%w: unsupported action type %q", ErrInvalidAction, s)
}

// Action is one agent decision. For click, input and select exactly one of
// ElementID and Selector is meaningful; ElementID wins when both are set.
type Action struct {
	Type      ActionType `json:"type"`
	ElementID string     `json:"element_id,omitempty"`
	Selector  string     `json:"selector,omitempty"`
	Value     string     `json:"value,omitempty"`
	Raw       string     `json:"raw,omitempty"`
}

func (a Action) HasHandle() bool {
	return a.ElementID != ""
}

func (a Action) Validate() error {
	switch a.Type {
	case ActionStop:
		return nil
	case ActionRaw:
		if strings.TrimSpace(a.Raw) == "" {
			return fmt.Errorf("%w: empty raw action", ErrInvalidAction)
		}
		return nil
	case ActionClick, ActionInput, ActionSelect:
		if a.ElementID == "" && a.Selector == "" {
			return fmt.Errorf("%w: %s needs element_id or selector", ErrInvalidAction, a.Type)
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported action type %q", ErrInvalidAction, a.Type)
}

func (a Action) String() string {
	switch a.Type {
	case ActionStop:
		return "stop"
	case ActionRaw:
		return a.Raw
	}

	target := a.Selector
	if a.HasHandle() {
		target = "[" + a.ElementID + "]"
	}
	if a.Value != "" {
		return fmt.Sprintf("%s %s %q", a.Type, target, a.Value)
	}
	return fmt.Sprintf("%s %s", a.Type, target)
}
