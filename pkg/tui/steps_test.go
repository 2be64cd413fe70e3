package tui

import (
	"strings"
	"testing"
)

func panelRows(n int) []stepInfo {
	rows := make([]stepInfo, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, stepInfo{
			ID:          string(rune('a' + i)),
			Order:       i + 1,
			Description: "Step",
			Actions:     1,
		})
	}
	return rows
}

func TestStepsPanelCursorBounds(t *testing.T) {
	p := newStepsPanel()
	p.SetSteps(panelRows(3))

	if got := p.SelectedID(); got != "a" {
		t.Errorf("initial = %q, want a", got)
	}

	p.CursorUp()
	if got := p.SelectedID(); got != "a" {
		t.Errorf("up at top = %q, want a", got)
	}

	p.CursorDown()
	p.CursorDown()
	if got := p.SelectedID(); got != "c" {
		t.Errorf("after two downs = %q, want c", got)
	}

	p.CursorDown()
	if got := p.SelectedID(); got != "c" {
		t.Errorf("down at bottom = %q, want c", got)
	}

	p.CursorUp()
	if got := p.SelectedID(); got != "b" {
		t.Errorf("after up = %q, want b", got)
	}
}

func TestStepsPanelSetStepsClampsCursor(t *testing.T) {
	p := newStepsPanel()
	p.SetSteps(panelRows(3))
	p.CursorDown()
	p.CursorDown()

	p.SetSteps(panelRows(1))
	if got := p.SelectedID(); got != "a" {
		t.Errorf("after shrink = %q, want a", got)
	}
}

func TestStepsPanelEmpty(t *testing.T) {
	p := newStepsPanel()
	p.SetSteps(nil)
	if got := p.SelectedID(); got != "" {
		t.Errorf("empty panel selected %q", got)
	}
	p.width = 30
	p.height = 6
	if !strings.Contains(p.View(), "No steps") {
		t.Error("empty panel should render a placeholder")
	}
}

func TestStepsPanelScrollsToKeepCursorVisible(t *testing.T) {
	p := newStepsPanel()
	p.height = 4 // two visible rows
	p.SetSteps(panelRows(5))

	for i := 0; i < 3; i++ {
		p.CursorDown()
	}
	if p.offset != 2 {
		t.Errorf("offset = %d, want 2", p.offset)
	}

	for i := 0; i < 3; i++ {
		p.CursorUp()
	}
	if p.offset != 0 {
		t.Errorf("offset after scrolling back = %d, want 0", p.offset)
	}
}

func TestStepsPanelStats(t *testing.T) {
	p := newStepsPanel()
	p.SetSteps([]stepInfo{
		{ID: "a", Health: healthClean},
		{ID: "b", Health: healthWarning},
		{ID: "c", Health: healthError},
		{ID: "d", Health: healthClean},
	})

	total, clean, warned, failed := p.Stats()
	if total != 4 || clean != 2 || warned != 1 || failed != 1 {
		t.Errorf("stats = %d/%d/%d/%d, want 4/2/1/1", total, clean, warned, failed)
	}
}
