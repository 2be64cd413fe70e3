package tui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

func tuiFixture() *script.TestScript {
	fx := func(v float64) *float64 { return &v }
	tx := func(v string) *string { return &v }
	return &script.TestScript{
		Meta: script.Meta{
			Version:     script.VersionStep,
			CreatedAt:   "2026-07-21T09:00:00Z",
			Duration:    4.0,
			ActionCount: 4,
			Platform:    "linux",
			Title:       "TUI fixture",
		},
		Steps: []script.TestStep{
			{
				ID: "step_a", Order: 1,
				Description:       "Fill form",
				ExpectedResult:    "Form accepts input",
				ActionIDs:         []string{"t1", "t2"},
				ContinueOnFailure: true,
			},
			{ID: "step_b", Order: 2, Description: "Submit", ActionIDs: []string{"t3"}},
		},
		ActionPool: map[string]script.Action{
			"t1": {ID: "t1", Type: script.ActionMouseMove, Timestamp: 0.5, X: fx(100), Y: fx(200)},
			"t2": {ID: "t2", Type: script.ActionTypeText, Timestamp: 1.0, Text: tx("alice")},
			"t3": {ID: "t3", Type: script.ActionMouseClick, Timestamp: 2.0, X: fx(50), Y: fx(60), Button: script.ButtonLeft},
			"t9": {ID: "t9", Type: script.ActionWait, Timestamp: 4.0, Duration: 1.0},
		},
		Variables: map[string]string{},
	}
}

func TestHealthByStep(t *testing.T) {
	s := tuiFixture()
	res := validate.Result{
		Valid: false,
		Errors: []*validate.ValidationError{
			validate.Errorf(validate.PhaseSemantic, "steps[1].action_ids[0]", "bad ref"),
		},
		Warnings: []*validate.ValidationError{
			validate.Warningf(validate.PhaseStructural, "steps[0].description", "empty"),
			validate.Warningf(validate.PhaseStructural, "meta.title", "empty"),
		},
	}

	health := healthByStep(s, res)
	if health["step_a"] != healthWarning {
		t.Errorf("step_a = %v, want warning", health["step_a"])
	}
	if health["step_b"] != healthError {
		t.Errorf("step_b = %v, want error", health["step_b"])
	}
}

func TestHealthByStepErrorBeatsWarning(t *testing.T) {
	s := tuiFixture()
	res := validate.Result{
		Valid: false,
		Errors: []*validate.ValidationError{
			validate.Errorf(validate.PhaseSemantic, "steps[0]", "broken"),
		},
		Warnings: []*validate.ValidationError{
			validate.Warningf(validate.PhaseStructural, "steps[0].description", "empty"),
		},
	}

	health := healthByStep(s, res)
	if health["step_a"] != healthError {
		t.Errorf("step_a = %v, want error", health["step_a"])
	}
}

func TestHealthByStepIgnoresUnanchoredFields(t *testing.T) {
	s := tuiFixture()
	res := validate.Result{
		Valid: true,
		Warnings: []*validate.ValidationError{
			validate.Warningf(validate.PhaseStructural, "meta.created_at", "empty"),
			validate.Warningf(validate.PhaseStructural, "steps[7].description", "out of range"),
		},
	}

	health := healthByStep(s, res)
	if health["step_a"] != healthClean || health["step_b"] != healthClean {
		t.Errorf("health = %v, want all clean", health)
	}
}

func TestSortedPoolIDs(t *testing.T) {
	s := tuiFixture()
	got := sortedPoolIDs(s)
	want := []string{"t1", "t2", "t3", "t9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestSortedPoolIDsTieBreaksOnID(t *testing.T) {
	s := &script.TestScript{
		ActionPool: map[string]script.Action{
			"zz": {ID: "zz", Type: script.ActionWait, Timestamp: 1.0},
			"aa": {ID: "aa", Type: script.ActionWait, Timestamp: 1.0},
			"mm": {ID: "mm", Type: script.ActionWait, Timestamp: 0.5},
		},
	}
	got := sortedPoolIDs(s)
	want := []string{"mm", "aa", "zz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestSummarizeAction(t *testing.T) {
	fx := func(v float64) *float64 { return &v }
	tx := func(v string) *string { return &v }
	long := strings.Repeat("x", 40)

	cases := []struct {
		name   string
		action script.Action
		want   string
	}{
		{"move", script.Action{Type: script.ActionMouseMove, X: fx(10), Y: fx(20)}, "(10, 20)"},
		{"move without coords", script.Action{Type: script.ActionMouseMove}, ""},
		{"click", script.Action{Type: script.ActionMouseClick, X: fx(10), Y: fx(20), Button: "left"}, "(10, 20) left"},
		{"key", script.Action{Type: script.ActionKeyPress, Key: "enter"}, "enter"},
		{"key with modifiers", script.Action{Type: script.ActionKeyPress, Key: "s", Modifiers: []string{"ctrl", "shift"}}, "ctrl+shift+s"},
		{"text", script.Action{Type: script.ActionTypeText, Text: tx("hello")}, `"hello"`},
		{"text nil", script.Action{Type: script.ActionTypeText}, ""},
		{"text truncated", script.Action{Type: script.ActionTypeText, Text: tx(long)}, `"` + strings.Repeat("x", 29) + `..."`},
		{"wait", script.Action{Type: script.ActionWait, Duration: 1.5}, "wait 1.5s"},
		{"screenshot", script.Action{Type: script.ActionScreenshot, Screenshot: "shots/a.png"}, "shots/a.png"},
	}
	for _, tc := range cases {
		if got := summarizeAction(tc.action); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNewModelBuildsStepDetail(t *testing.T) {
	m := NewModel(Config{Script: tuiFixture()})

	if got := m.steps.SelectedID(); got != "step_a" {
		t.Errorf("initial selection = %q, want step_a", got)
	}

	detail := m.detail.contents["step_a"]
	for _, want := range []string{
		"Step 1: step_a",
		"Fill form",
		"Expected:",
		"Form accepts input",
		"Continue on failure: yes",
		"Actions (2):",
		"t1", "mouse_move",
		"t2", "type_text",
	} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail missing %q:\n%s", want, detail)
		}
	}
}

func TestStepDetailMarksUnresolvedReferences(t *testing.T) {
	s := tuiFixture()
	s.Steps[1].ActionIDs = append(s.Steps[1].ActionIDs, "ghost")
	m := NewModel(Config{Script: s})

	detail := m.detail.contents["step_b"]
	if !strings.Contains(detail, "unresolved reference") {
		t.Errorf("detail missing unresolved marker:\n%s", detail)
	}
	if !strings.Contains(detail, "Findings:") {
		t.Errorf("detail missing findings section:\n%s", detail)
	}
}

func TestValidationTextClean(t *testing.T) {
	m := NewModel(Config{Script: tuiFixture()})
	text := m.validationText()
	if !strings.Contains(text, "valid with no warnings") {
		t.Errorf("text = %s", text)
	}
}

func TestValidationTextListsFindings(t *testing.T) {
	s := tuiFixture()
	s.Steps[0].ActionIDs = append(s.Steps[0].ActionIDs, "ghost")
	m := NewModel(Config{Script: s})

	text := m.validationText()
	if !strings.Contains(text, "not in the action pool") {
		t.Errorf("text = %s", text)
	}
	if !strings.Contains(text, "1 error(s)") {
		t.Errorf("text = %s", text)
	}
}

func TestOrphansText(t *testing.T) {
	m := NewModel(Config{Script: tuiFixture()})
	text := m.orphansText()
	if !strings.Contains(text, "t9") || !strings.Contains(text, "1 orphan(s)") {
		t.Errorf("text = %s", text)
	}
}

func TestOrphansTextNone(t *testing.T) {
	s := tuiFixture()
	delete(s.ActionPool, "t9")
	s.Meta.ActionCount = 3
	m := NewModel(Config{Script: s})

	text := m.orphansText()
	if !strings.Contains(text, "every pool action is referenced") {
		t.Errorf("text = %s", text)
	}
}

func TestInfoMarkdown(t *testing.T) {
	m := NewModel(Config{Script: tuiFixture()})
	md := m.infoMarkdown()
	for _, want := range []string{
		"# TUI fixture",
		"| Version | 2.0 |",
		"| Platform | linux |",
		"| Steps | 2 |",
		"| Pool actions | 4 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestInfoMarkdownUntitled(t *testing.T) {
	s := tuiFixture()
	s.Meta.Title = ""
	m := NewModel(Config{Script: s})
	if !strings.Contains(m.infoMarkdown(), "# Untitled Script") {
		t.Error("expected untitled fallback")
	}
}
