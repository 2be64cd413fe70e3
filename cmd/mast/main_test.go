package main

import (
	"strings"
	"testing"

	"github.com/maglevlabs/mast/pkg/script"
)

func TestResolveStepID(t *testing.T) {
	s := &script.TestScript{
		Steps: []script.TestStep{
			{ID: "step_b", Order: 2},
			{ID: "step_a", Order: 1},
		},
	}

	id, err := resolveStepID(s, "step_a")
	if err != nil || id != "step_a" {
		t.Errorf("by id: %q, %v", id, err)
	}

	id, err = resolveStepID(s, "2")
	if err != nil || id != "step_b" {
		t.Errorf("by order: %q, %v", id, err)
	}

	id, err = resolveStepID(s, " 1 ")
	if err != nil || id != "step_a" {
		t.Errorf("padded order: %q, %v", id, err)
	}

	if _, err = resolveStepID(s, "7"); err == nil || !strings.Contains(err.Error(), "no step with order 7") {
		t.Errorf("unknown order: %v", err)
	}
	if _, err = resolveStepID(s, "step_z"); err == nil || !strings.Contains(err.Error(), `no step with id "step_z"`) {
		t.Errorf("unknown id: %v", err)
	}
}

func TestDeriveOut(t *testing.T) {
	if got := deriveOut("rec.json", ".script.json"); got != "rec.script.json" {
		t.Errorf("got %q", got)
	}
	if got := deriveOut("rec", ".script.json"); got != "rec.script.json" {
		t.Errorf("no extension: got %q", got)
	}
	if got := deriveOut("a/b/rec.json", ".legacy.json"); got != "a/b/rec.legacy.json" {
		t.Errorf("nested: got %q", got)
	}
}

func TestDescribeAction(t *testing.T) {
	fx := func(v float64) *float64 { return &v }
	tx := func(v string) *string { return &v }

	cases := []struct {
		action script.Action
		want   string
	}{
		{script.Action{Type: script.ActionMouseClick, X: fx(5), Y: fx(9), Button: "right"}, "(5, 9) right"},
		{script.Action{Type: script.ActionMouseMove}, ""},
		{script.Action{Type: script.ActionKeyPress, Key: "tab"}, "tab"},
		{script.Action{Type: script.ActionKeyDown, Key: "a", Modifiers: []string{"ctrl"}}, "ctrl+a"},
		{script.Action{Type: script.ActionTypeText, Text: tx("hi")}, `"hi"`},
		{script.Action{Type: script.ActionWait, Duration: 2.0}, "wait 2.0s"},
		{script.Action{Type: script.ActionScreenshot, Screenshot: "s.png"}, "s.png"},
	}
	for _, tc := range cases {
		if got := describeAction(tc.action); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.action.Type, got, tc.want)
		}
	}
}
