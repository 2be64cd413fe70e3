package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// detailPanel renders the scrollable action detail for each step.
type detailPanel struct {
	viewport viewport.Model

	// contents stores the rendered detail text per step ID.
	contents map[string]string

	// activeStep is the step ID whose detail is currently displayed.
	activeStep string

	// search highlight
	highlightQuery string

	width  int
	height int
	ready  bool
}

func newDetailPanel() detailPanel {
	return detailPanel{
		contents: make(map[string]string),
	}
}

// SetSize updates the viewport dimensions.
func (p *detailPanel) SetSize(width, height int) {
	p.width = width
	p.height = height

	contentW := width - 4  // border padding
	contentH := height - 3 // title + border

	if contentW < 1 {
		contentW = 1
	}
	if contentH < 1 {
		contentH = 1
	}

	if !p.ready {
		p.viewport = viewport.New(contentW, contentH)
		p.ready = true
	} else {
		p.viewport.Width = contentW
		p.viewport.Height = contentH
	}

	if content, ok := p.contents[p.activeStep]; ok {
		p.viewport.SetContent(content)
	}
}

// SetStepContent installs the rendered detail text for a step.
func (p *detailPanel) SetStepContent(stepID, text string) {
	p.contents[stepID] = text
	if stepID == p.activeStep {
		p.refreshContent()
	}
}

// ShowStep switches the displayed detail to the given step.
func (p *detailPanel) ShowStep(stepID string) {
	p.activeStep = stepID
	if p.ready {
		p.refreshContent()
		p.viewport.GotoTop()
	}
}

// Update handles viewport-specific messages (mouse scroll, etc.).
func (p *detailPanel) Update(msg tea.Msg) {
	if p.ready {
		p.viewport, _ = p.viewport.Update(msg)
	}
}

// PageUp scrolls the viewport up.
func (p *detailPanel) PageUp() {
	if p.ready {
		p.viewport.HalfViewUp()
	}
}

// PageDown scrolls the viewport down.
func (p *detailPanel) PageDown() {
	if p.ready {
		p.viewport.HalfViewDown()
	}
}

// SetHighlight sets the search highlight query and re-renders.
func (p *detailPanel) SetHighlight(query string) {
	p.highlightQuery = query
	p.refreshContent()
}

// ClearHighlight removes search highlighting.
func (p *detailPanel) ClearHighlight() {
	p.highlightQuery = ""
	p.refreshContent()
}

func (p *detailPanel) refreshContent() {
	if !p.ready {
		return
	}
	content := p.contents[p.activeStep]
	if p.highlightQuery != "" {
		highlighted, _ := HighlightContent(content, p.highlightQuery)
		p.viewport.SetContent(highlighted)
	} else {
		p.viewport.SetContent(content)
	}
}

// View renders the detail panel.
func (p *detailPanel) View() string {
	title := panelTitle.Render("Actions")

	var content string
	if p.ready {
		content = p.viewport.View()
	} else {
		content = "  Loading..."
	}

	// Scroll indicator
	scrollInfo := ""
	if p.ready && p.viewport.TotalLineCount() > p.viewport.VisibleLineCount() {
		pct := p.viewport.ScrollPercent() * 100
		scrollInfo = fmt.Sprintf(" %3.0f%%", pct)
	}

	header := title
	if scrollInfo != "" {
		padding := p.width - 4 - len("Actions") - len(scrollInfo)
		if padding < 0 {
			padding = 0
		}
		header = title + strings.Repeat(" ", padding) + keyDescStyle.Render(scrollInfo)
	}

	return panelBorder.Width(p.width).Height(p.height).Render(
		header + "\n" + content,
	)
}
