// Package script defines the test script document model: timestamped input
// actions stored once in an id-keyed pool, ordered test steps that reference
// actions by id, and the legacy flat format that predates steps.
package script

import "time"

// Version lineage of the persisted formats. Legacy files carry 1.x; the
// step-based format starts at 2.0.
const (
	VersionLegacy = "1.0"
	VersionStep   = "2.0"
)

// ---------------------------------------------------------------------------
// Action
// ---------------------------------------------------------------------------

// ActionType enumerates the recorded input event kinds.
type ActionType string

const (
	ActionMouseMove        ActionType = "mouse_move"
	ActionMouseClick       ActionType = "mouse_click"
	ActionMouseDoubleClick ActionType = "mouse_double_click"
	ActionMouseDown        ActionType = "mouse_down"
	ActionMouseUp          ActionType = "mouse_up"
	ActionMouseDrag        ActionType = "mouse_drag"
	ActionMouseScroll      ActionType = "mouse_scroll"
	ActionKeyPress         ActionType = "key_press"
	ActionKeyDown          ActionType = "key_down"
	ActionKeyUp            ActionType = "key_up"
	ActionTypeText         ActionType = "type_text"
	ActionWait             ActionType = "wait"
	ActionScreenshot       ActionType = "screenshot"
)

// ActionTypes lists every valid action type in a stable order.
func ActionTypes() []ActionType {
	return []ActionType{
		ActionMouseMove, ActionMouseClick, ActionMouseDoubleClick, ActionMouseDown, ActionMouseUp,
		ActionMouseDrag, ActionMouseScroll, ActionKeyPress, ActionKeyDown, ActionKeyUp,
		ActionTypeText, ActionWait, ActionScreenshot,
	}
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionMouseMove, ActionMouseClick, ActionMouseDoubleClick, ActionMouseDown, ActionMouseUp,
		ActionMouseDrag, ActionMouseScroll, ActionKeyPress, ActionKeyDown, ActionKeyUp,
		ActionTypeText, ActionWait, ActionScreenshot:
		return true
	}
	return false
}

// IsMouse reports whether t is a pointer event and therefore requires
// numeric coordinates.
func (t ActionType) IsMouse() bool {
	switch t {
	case ActionMouseMove, ActionMouseClick, ActionMouseDoubleClick, ActionMouseDown, ActionMouseUp,
		ActionMouseDrag, ActionMouseScroll:
		return true
	}
	return false
}

// IsClick reports whether t additionally requires a button.
func (t ActionType) IsClick() bool {
	switch t {
	case ActionMouseClick, ActionMouseDoubleClick, ActionMouseDown, ActionMouseUp:
		return true
	}
	return false
}

// IsKey reports whether t requires a non-empty key name.
func (t ActionType) IsKey() bool {
	switch t {
	case ActionKeyPress, ActionKeyDown, ActionKeyUp:
		return true
	}
	return false
}

// Mouse buttons accepted by the click family.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

// ValidButton reports whether b names a supported mouse button.
func ValidButton(b string) bool {
	return b == ButtonLeft || b == ButtonRight || b == ButtonMiddle
}

// Action is a single recorded input event. Actions live exclusively in a
// script's pool; steps refer to them by id only. Timestamp is seconds from
// recording start. X, Y and Text are pointers so that absent and zero-valued
// stay distinguishable.
type Action struct {
	ID         string         `json:"id,omitempty"`
	Type       ActionType     `json:"type"`
	Timestamp  float64        `json:"timestamp"`
	X          *float64       `json:"x,omitempty"`
	Y          *float64       `json:"y,omitempty"`
	Button     string         `json:"button,omitempty"`
	Key        string         `json:"key,omitempty"`
	Text       *string        `json:"text,omitempty"`
	Modifiers  []string       `json:"modifiers,omitempty"`
	Duration   float64        `json:"duration,omitempty"`
	Screenshot string         `json:"screenshot,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
}

// ---------------------------------------------------------------------------
// Step
// ---------------------------------------------------------------------------

// TestStep is an ordered, human-described unit referencing zero or more pool
// actions. Order values across a script form a dense 1..N permutation.
type TestStep struct {
	ID                string   `json:"id"`
	Order             int      `json:"order"`
	Description       string   `json:"description"`
	ExpectedResult    string   `json:"expected_result"`
	ActionIDs         []string `json:"action_ids"`
	ContinueOnFailure bool     `json:"continue_on_failure"`
}

// ---------------------------------------------------------------------------
// Script
// ---------------------------------------------------------------------------

// Meta carries script-level metadata. ActionCount mirrors the pool size; it
// is validator-checked rather than enforced mid-mutation.
type Meta struct {
	Version       string   `json:"version"`
	CreatedAt     string   `json:"created_at"`
	Duration      float64  `json:"duration"`
	ActionCount   int      `json:"action_count"`
	Platform      string   `json:"platform"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	PreConditions string   `json:"pre_conditions,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// TestScript is the step-based script document. The pool owns every action;
// steps hold weak references by id. The pool may contain orphans that no
// step references.
type TestScript struct {
	Meta       Meta              `json:"meta"`
	Steps      []TestStep        `json:"steps"`
	ActionPool map[string]Action `json:"action_pool"`
	Variables  map[string]string `json:"variables"`
}

// New returns an empty step-based script for a fresh recording.
func New(title, platform string) *TestScript {
	return &TestScript{
		Meta: Meta{
			Version:   VersionStep,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			Platform:  platform,
			Title:     title,
		},
		Steps:      []TestStep{},
		ActionPool: map[string]Action{},
		Variables:  map[string]string{},
	}
}

// ---------------------------------------------------------------------------
// Legacy
// ---------------------------------------------------------------------------

// LegacyMeta is the metadata block of the pre-step flat format.
type LegacyMeta struct {
	CreatedAt   string  `json:"created_at"`
	Duration    float64 `json:"duration"`
	ActionCount int     `json:"action_count"`
	Platform    string  `json:"platform"`
}

// LegacyScript is the flat pre-step document: an ordered array of bare
// actions with no ids and no steps.
type LegacyScript struct {
	Version  string     `json:"version"`
	Metadata LegacyMeta `json:"metadata"`
	Actions  []Action   `json:"actions"`
}
