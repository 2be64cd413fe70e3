package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stepHealth tracks the worst validation finding attached to a step.
type stepHealth int

const (
	healthClean stepHealth = iota
	healthWarning
	healthError
)

// stepInfo holds the display state for a single step.
type stepInfo struct {
	ID          string
	Order       int
	Description string
	Actions     int
	Continue    bool
	Health      stepHealth
}

// stepsPanel renders the scrollable step list.
type stepsPanel struct {
	steps  []stepInfo
	cursor int
	width  int
	height int
	offset int
}

func newStepsPanel() stepsPanel {
	return stepsPanel{}
}

// SetSteps installs the step rows in display order.
func (p *stepsPanel) SetSteps(rows []stepInfo) {
	p.steps = rows
	if p.cursor >= len(rows) {
		p.cursor = len(rows) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	p.ensureVisible()
}

// CursorUp moves the browsing cursor up.
func (p *stepsPanel) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
		p.ensureVisible()
	}
}

// CursorDown moves the browsing cursor down.
func (p *stepsPanel) CursorDown() {
	if p.cursor < len(p.steps)-1 {
		p.cursor++
		p.ensureVisible()
	}
}

// SelectedID returns the step ID at the cursor position.
func (p *stepsPanel) SelectedID() string {
	if p.cursor >= 0 && p.cursor < len(p.steps) {
		return p.steps[p.cursor].ID
	}
	return ""
}

func (p *stepsPanel) ensureVisible() {
	visible := p.height - 2 // account for border/title
	if visible < 1 {
		visible = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

// View renders the step list panel.
func (p *stepsPanel) View() string {
	if len(p.steps) == 0 {
		return panelBorder.Width(p.width).Height(p.height).Render("  No steps")
	}

	visible := p.height - 2
	if visible < 1 {
		visible = 1
	}

	var lines []string
	end := p.offset + visible
	if end > len(p.steps) {
		end = len(p.steps)
	}

	for i := p.offset; i < end; i++ {
		step := p.steps[i]

		var glyph string
		var style lipgloss.Style
		switch step.Health {
		case healthClean:
			glyph = GlyphClean
			style = stepClean
		case healthWarning:
			glyph = GlyphWarning
			style = stepWarning
		case healthError:
			glyph = GlyphError
			style = stepError
		}

		marker := " "
		if step.Continue {
			marker = GlyphContinue
		}

		title := step.Description
		if title == "" {
			title = step.ID
		}
		maxTitle := p.width - 12 // glyph + number + action count
		if maxTitle < 4 {
			maxTitle = 4
		}
		if len(title) > maxTitle {
			title = title[:maxTitle-1] + "…"
		}

		line := fmt.Sprintf(" %s %2d.%s %s (%d)", glyph, step.Order, marker, title, step.Actions)

		if i == p.cursor {
			line = style.Reverse(true).Render(line)
		} else {
			line = style.Render(line)
		}
		lines = append(lines, line)
	}

	for len(lines) < visible {
		lines = append(lines, "")
	}

	content := strings.Join(lines, "\n")
	title := panelTitle.Render("Steps")
	return panelBorder.Width(p.width).Height(p.height).Render(
		title + "\n" + content,
	)
}

// Stats returns counts of steps by health.
func (p *stepsPanel) Stats() (total, clean, warned, failed int) {
	total = len(p.steps)
	for _, s := range p.steps {
		switch s.Health {
		case healthClean:
			clean++
		case healthWarning:
			warned++
		case healthError:
			failed++
		}
	}
	return
}
