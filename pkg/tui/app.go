package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// --- Overlay state ---

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayValidation
	overlayInfo
	overlayOrphans
	overlayHelp
)

// --- Model ---

// Model is the top-level Bubble Tea model for the script viewer.
type Model struct {
	// Components
	steps  stepsPanel
	detail detailPanel
	search searchBar

	// Script under inspection
	script *script.TestScript
	path   string

	// Validation findings, computed once at load
	result validate.Result

	// Overlays
	overlay     overlayKind
	overlayText string

	// Layout
	compact bool // single-column mode for narrow terminals
	width   int
	height  int
}

// Config holds the parameters needed to launch the TUI.
type Config struct {
	Script  *script.TestScript
	Path    string
	Compact bool
}

// Run starts the TUI and blocks until the user quits.
func Run(cfg Config) error {
	if cfg.Script == nil {
		return fmt.Errorf("nil script")
	}
	m := NewModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// NewModel builds the model and precomputes step rows, per-step detail
// text and validation findings.
func NewModel(cfg Config) Model {
	m := Model{
		steps:   newStepsPanel(),
		detail:  newDetailPanel(),
		search:  newSearchBar(),
		script:  cfg.Script,
		path:    cfg.Path,
		compact: cfg.Compact,
	}
	m.result = validate.Script(cfg.Script)
	m.reload()
	return m
}

// reload rebuilds panel contents from the script and findings.
func (m *Model) reload() {
	health := healthByStep(m.script, m.result)

	sorted := script.SortedSteps(m.script)
	rows := make([]stepInfo, 0, len(sorted))
	for _, st := range sorted {
		rows = append(rows, stepInfo{
			ID:          st.ID,
			Order:       st.Order,
			Description: st.Description,
			Actions:     len(st.ActionIDs),
			Continue:    st.ContinueOnFailure,
			Health:      health[st.ID],
		})
		m.detail.SetStepContent(st.ID, m.buildStepDetail(st))
	}
	m.steps.SetSteps(rows)
	if len(rows) > 0 {
		m.detail.ShowStep(m.steps.SelectedID())
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Auto-detect compact mode for narrow terminals
		if msg.Width < 80 {
			m.compact = true
		}
		m.layoutPanels()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Always allow quit, except while the search input is capturing characters
	if !m.search.IsActive() && key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}

	// Route all input to the search bar while it is active
	if m.search.IsActive() {
		closed, committed, cmd := m.search.Update(msg)
		if closed {
			m.detail.ClearHighlight()
			m.search.SetMatchInfo(0)
		}
		if committed || m.search.HasQuery() {
			m.applyHighlight()
		}
		return m, cmd
	}

	// Escape closes overlays, then clears search
	if msg.String() == "esc" {
		if m.overlay != overlayNone {
			m.overlay = overlayNone
			return m, nil
		}
		if m.search.HasQuery() {
			m.search.Close()
			m.detail.ClearHighlight()
			return m, nil
		}
	}

	// Overlays are read-only; any other key is ignored while one is up
	if m.overlay != overlayNone {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Up):
		m.steps.CursorUp()
		m.detail.ShowStep(m.steps.SelectedID())
		m.applyHighlight()

	case key.Matches(msg, keys.Down):
		m.steps.CursorDown()
		m.detail.ShowStep(m.steps.SelectedID())
		m.applyHighlight()

	case key.Matches(msg, keys.PgUp):
		m.detail.PageUp()

	case key.Matches(msg, keys.PgDown):
		m.detail.PageDown()

	case key.Matches(msg, keys.Search):
		m.search.Open()

	case key.Matches(msg, keys.Validate):
		m.overlayText = m.validationText()
		m.overlay = overlayValidation

	case key.Matches(msg, keys.Info):
		m.overlayText = renderMarkdownWidth(m.infoMarkdown(), m.overlayWidth())
		m.overlay = overlayInfo

	case key.Matches(msg, keys.Orphans):
		m.overlayText = m.orphansText()
		m.overlay = overlayOrphans

	case key.Matches(msg, keys.Help):
		m.overlayText = renderMarkdownWidth(helpMarkdown, m.overlayWidth())
		m.overlay = overlayHelp
	}

	return m, nil
}

// applyHighlight pushes the current query into the detail panel and
// refreshes the match count for the visible step.
func (m *Model) applyHighlight() {
	if !m.search.HasQuery() {
		return
	}
	query := m.search.Query()
	m.detail.SetHighlight(query)
	_, n := HighlightContent(m.detail.contents[m.detail.activeStep], query)
	m.search.SetMatchInfo(n)
}

// layoutPanels recalculates panel dimensions based on terminal size.
func (m *Model) layoutPanels() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// Layout: header(1) + main panels + search/key bar(2)
	mainH := m.height - 3
	if mainH < 4 {
		mainH = 4
	}

	if m.compact {
		m.steps.width = 0
		m.steps.height = 0
		m.detail.SetSize(m.width, mainH)
	} else {
		// Steps panel: 34% width, minimum 28, maximum 48
		stepsW := m.width * 34 / 100
		if stepsW < 28 {
			stepsW = 28
		}
		if stepsW > 48 {
			stepsW = 48
		}

		m.steps.width = stepsW
		m.steps.height = mainH
		m.detail.SetSize(m.width-stepsW, mainH)
	}
}

// View renders the complete TUI.
func (m Model) View() string {
	// Overlay views take over the full screen
	if m.overlay != overlayNone {
		return m.renderOverlay()
	}

	header := m.renderHeader()

	var main string
	if m.width > 0 {
		if m.compact {
			main = m.detail.View()
		} else {
			main = lipgloss.JoinHorizontal(lipgloss.Top, m.steps.View(), m.detail.View())
		}
	}

	searchView := m.search.View()

	result := header + "\n" + main
	if searchView != "" {
		result += "\n" + searchView
	}
	result += "\n" + keyBarText(m.overlay)

	return result
}

// renderOverlay renders the active overlay as a centered box.
func (m Model) renderOverlay() string {
	box := overlayBorder.Width(m.overlayWidth()).Render(
		m.overlayText + "\n\n" + keyBarText(m.overlay))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) overlayWidth() int {
	w := m.width - 8
	if w < 50 {
		w = 50
	}
	if w > 100 {
		w = 100
	}
	return w
}

// renderHeader builds the top header line.
func (m Model) renderHeader() string {
	title := headerStyle.Render("mast")
	badge := formatBadgeStyle.Render("v" + m.script.Meta.Version)

	name := m.script.Meta.Title
	if name == "" && m.path != "" {
		name = filepath.Base(m.path)
	}

	var status string
	switch {
	case !m.result.Valid:
		status = invalidBadgeStyle.Render(fmt.Sprintf("✗ %d error(s)", len(m.result.Errors)))
	case len(m.result.Warnings) > 0:
		status = warnBadgeStyle.Render(fmt.Sprintf("⚠ %d warning(s)", len(m.result.Warnings)))
	default:
		status = validBadgeStyle.Render("✓ valid")
	}

	left := title + " " + badge + "  " + detailValueStyle.Render(name)
	right := status

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return left + strings.Repeat(" ", padding) + right
}

// --- content builders ---

// buildStepDetail renders the full detail text for one step.
func (m *Model) buildStepDetail(st script.TestStep) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("━━━ Step %d: %s ━━━\n", st.Order, st.ID))
	if st.Description != "" {
		b.WriteString("  " + detailValueStyle.Render(st.Description) + "\n")
	}
	if st.ExpectedResult != "" {
		b.WriteString("  " + detailLabelStyle.Render("Expected:") + " " + st.ExpectedResult + "\n")
	}
	if st.ContinueOnFailure {
		b.WriteString("  " + detailLabelStyle.Render("Continue on failure:") + " yes\n")
	}
	b.WriteString("\n")

	if len(st.ActionIDs) == 0 {
		b.WriteString(keyDescStyle.Render("  (no actions)") + "\n")
	} else {
		b.WriteString(detailLabelStyle.Render(fmt.Sprintf("Actions (%d):", len(st.ActionIDs))) + "\n")
		for i, id := range st.ActionIDs {
			a, ok := m.script.ActionPool[id]
			if !ok {
				b.WriteString(fmt.Sprintf("  %2d. %s  %s\n", i+1, id,
					errorStyle.Render("unresolved reference")))
				continue
			}
			b.WriteString(fmt.Sprintf("  %2d. %s  %-18s %7.2fs  %s\n",
				i+1, id, a.Type, a.Timestamp, summarizeAction(a)))
		}
	}

	if findings := m.stepFindings(st.ID); len(findings) > 0 {
		b.WriteString("\n" + detailLabelStyle.Render("Findings:") + "\n")
		for _, f := range findings {
			glyph := GlyphWarning
			style := stepWarning
			if f.Severity == validate.SeverityError {
				glyph = GlyphError
				style = stepError
			}
			b.WriteString("  " + style.Render(fmt.Sprintf("%s [%s] %s", glyph, f.Phase, f.Message)) + "\n")
		}
	}

	return b.String()
}

// stepFindings collects validation findings anchored to one step.
func (m *Model) stepFindings(stepID string) []*validate.ValidationError {
	idx := m.script.StepIndex(stepID)
	if idx < 0 {
		return nil
	}
	prefix := fmt.Sprintf("steps[%d]", idx)
	var out []*validate.ValidationError
	for _, f := range append(append([]*validate.ValidationError{}, m.result.Errors...), m.result.Warnings...) {
		if f.Field == prefix || strings.HasPrefix(f.Field, prefix+".") {
			out = append(out, f)
		}
	}
	return out
}

// validationText renders all findings for the validation overlay.
func (m *Model) validationText() string {
	var b strings.Builder
	b.WriteString("━━━ Validation ━━━\n\n")
	if m.result.Valid && len(m.result.Warnings) == 0 {
		b.WriteString(validBadgeStyle.Render("✓ Script is valid with no warnings."))
		return b.String()
	}
	for _, e := range m.result.Errors {
		b.WriteString(stepError.Render(fmt.Sprintf("  %s %s", GlyphError, e.Error())) + "\n")
	}
	for _, w := range m.result.Warnings {
		b.WriteString(stepWarning.Render(fmt.Sprintf("  %s %s", GlyphWarning, w.Error())) + "\n")
	}
	b.WriteString("\n" + keyDescStyle.Render(fmt.Sprintf("  %d error(s), %d warning(s)",
		len(m.result.Errors), len(m.result.Warnings))))
	return b.String()
}

// orphansText renders the pool entries no step references.
func (m *Model) orphansText() string {
	referenced := make(map[string]bool)
	for _, st := range m.script.Steps {
		for _, id := range st.ActionIDs {
			referenced[id] = true
		}
	}
	var b strings.Builder
	b.WriteString("━━━ Orphaned Actions ━━━\n\n")
	count := 0
	for _, id := range sortedPoolIDs(m.script) {
		if referenced[id] {
			continue
		}
		a := m.script.ActionPool[id]
		b.WriteString(fmt.Sprintf("  %s %s  %-18s %7.2fs\n", GlyphOrphan, id, a.Type, a.Timestamp))
		count++
	}
	if count == 0 {
		b.WriteString(keyDescStyle.Render("  (none — every pool action is referenced)"))
	} else {
		b.WriteString("\n" + keyDescStyle.Render(fmt.Sprintf("  %d orphan(s). Orphans survive saves and can be re-attached later.", count)))
	}
	return b.String()
}

// infoMarkdown builds the script info overlay as markdown.
func (m *Model) infoMarkdown() string {
	s := m.script
	var b strings.Builder
	title := s.Meta.Title
	if title == "" {
		title = "Untitled Script"
	}
	b.WriteString("# " + title + "\n\n")
	if s.Meta.Description != "" {
		b.WriteString(s.Meta.Description + "\n\n")
	}
	b.WriteString("| Field | Value |\n|---|---|\n")
	b.WriteString(fmt.Sprintf("| Version | %s |\n", s.Meta.Version))
	if s.Meta.Platform != "" {
		b.WriteString(fmt.Sprintf("| Platform | %s |\n", s.Meta.Platform))
	}
	if s.Meta.CreatedAt != "" {
		b.WriteString(fmt.Sprintf("| Recorded | %s |\n", s.Meta.CreatedAt))
	}
	if s.Meta.Duration > 0 {
		b.WriteString(fmt.Sprintf("| Duration | %.1fs |\n", s.Meta.Duration))
	}
	b.WriteString(fmt.Sprintf("| Steps | %d |\n", len(s.Steps)))
	b.WriteString(fmt.Sprintf("| Pool actions | %d |\n", len(s.ActionPool)))
	b.WriteString(fmt.Sprintf("| Declared action count | %d |\n", s.Meta.ActionCount))
	if len(s.Variables) > 0 {
		b.WriteString(fmt.Sprintf("| Variables | %d |\n", len(s.Variables)))
	}
	return b.String()
}

const helpMarkdown = `# mast viewer

Browse a test script without editing it. The left panel lists steps in
execution order; the right panel shows the selected step's actions
resolved against the shared pool.

| Key | Action |
|---|---|
| ` + "`↑/k` `↓/j`" + ` | select step |
| ` + "`PgUp` `PgDn`" + ` | scroll the action panel |
| ` + "`/`" + ` | search within the action panel |
| ` + "`v`" + ` | validation findings |
| ` + "`i`" + ` | script metadata |
| ` + "`o`" + ` | orphaned pool actions |
| ` + "`Esc`" + ` | close overlay / clear search |
| ` + "`q`" + ` | quit |

Edits happen elsewhere: the ` + "`mast`" + ` CLI (merge, split, update-action,
fix) or the interactive ` + "`mast shell`" + `.
`

// healthByStep maps validation findings onto the steps they anchor to.
func healthByStep(s *script.TestScript, result validate.Result) map[string]stepHealth {
	health := make(map[string]stepHealth, len(s.Steps))
	for _, st := range s.Steps {
		health[st.ID] = healthClean
	}
	mark := func(field string, h stepHealth) {
		for i, st := range s.Steps {
			prefix := fmt.Sprintf("steps[%d]", i)
			if field == prefix || strings.HasPrefix(field, prefix+".") {
				if h > health[st.ID] {
					health[st.ID] = h
				}
				return
			}
		}
	}
	for _, w := range result.Warnings {
		mark(w.Field, healthWarning)
	}
	for _, e := range result.Errors {
		mark(e.Field, healthError)
	}
	return health
}

// sortedPoolIDs returns pool ids ordered by timestamp, then id.
func sortedPoolIDs(s *script.TestScript) []string {
	ids := make([]string, 0, len(s.ActionPool))
	for id := range s.ActionPool {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			a, b := s.ActionPool[ids[j-1]], s.ActionPool[ids[j]]
			if a.Timestamp < b.Timestamp || (a.Timestamp == b.Timestamp && ids[j-1] < ids[j]) {
				break
			}
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// summarizeAction renders an action's payload for one detail line.
func summarizeAction(a script.Action) string {
	switch {
	case a.Type.IsMouse():
		out := ""
		if a.X != nil && a.Y != nil {
			out = fmt.Sprintf("(%.0f, %.0f)", *a.X, *a.Y)
		}
		if a.Type.IsClick() && a.Button != "" {
			out += " " + a.Button
		}
		return strings.TrimSpace(out)
	case a.Type.IsKey():
		if len(a.Modifiers) > 0 {
			return strings.Join(a.Modifiers, "+") + "+" + a.Key
		}
		return a.Key
	case a.Type == script.ActionTypeText:
		if a.Text == nil {
			return ""
		}
		t := *a.Text
		if len(t) > 32 {
			t = t[:29] + "..."
		}
		return fmt.Sprintf("%q", t)
	case a.Type == script.ActionWait:
		return fmt.Sprintf("wait %.1fs", a.Duration)
	case a.Type == script.ActionScreenshot:
		return a.Screenshot
	default:
		return ""
	}
}
