// Package report generates Markdown review documents from test scripts.
//
// The report is produced from static analysis of the script document,
// no actions are executed. Output is suitable for review, onboarding,
// or rendering in a terminal via Render.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// Options controls report generation.
type Options struct {
	// Source is the file path the script was loaded from, shown in the
	// header when non-empty.
	Source string
	// MaxActionsPerStep caps the per-step action table. Zero means no cap.
	MaxActionsPerStep int
}

// Generate produces a Markdown report for a test script.
func Generate(s *script.TestScript, opts Options) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil script")
	}

	stats := analyzeScript(s)
	result := validate.Script(s)

	var sb strings.Builder
	writeHeader(&sb, s, opts, stats)
	writeValidation(&sb, result)
	writeVariables(&sb, s)
	writeSteps(&sb, s, opts)
	writePoolAnalysis(&sb, s, stats)
	writeTiming(&sb, s, stats)
	writeChecklist(&sb, stats)
	return sb.String(), nil
}

// scriptStats holds counters from analysis.
type scriptStats struct {
	totalSteps    int
	poolActions   int
	referenced    int
	orphans       []string
	unresolved    int
	cofSteps      int
	byType        map[script.ActionType]int
	sharedActions map[string][]string // action ID → step IDs, only when >1
	startTime     float64
	endTime       float64
	hasTimes      bool
}

func analyzeScript(s *script.TestScript) *scriptStats {
	stats := &scriptStats{
		byType:        make(map[script.ActionType]int),
		sharedActions: make(map[string][]string),
		poolActions:   len(s.ActionPool),
	}

	seen := make(map[string]bool)
	for _, st := range script.SortedSteps(s) {
		stats.totalSteps++
		if st.ContinueOnFailure {
			stats.cofSteps++
		}
		for _, id := range st.ActionIDs {
			seen[id] = true
			a, ok := s.ActionPool[id]
			if !ok {
				stats.unresolved++
				continue
			}
			stats.byType[a.Type]++
			if !stats.hasTimes || a.Timestamp < stats.startTime {
				stats.startTime = a.Timestamp
			}
			if !stats.hasTimes || a.Timestamp > stats.endTime {
				stats.endTime = a.Timestamp
			}
			stats.hasTimes = true
		}
	}
	stats.referenced = len(seen)

	for id := range s.ActionPool {
		if !seen[id] {
			stats.orphans = append(stats.orphans, id)
		}
	}
	sort.Strings(stats.orphans)

	for id := range s.ActionPool {
		refs := script.StepsReferencingAction(s, id)
		if len(refs) > 1 {
			ids := make([]string, len(refs))
			for i, st := range refs {
				ids[i] = st.ID
			}
			stats.sharedActions[id] = ids
		}
	}
	return stats
}

// --- Markdown sections ---

func writeHeader(sb *strings.Builder, s *script.TestScript, opts Options, stats *scriptStats) {
	title := s.Meta.Title
	if title == "" {
		title = "Untitled Script"
	}
	sb.WriteString(fmt.Sprintf("# Test Script Report: %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Generated**: %s  \n", time.Now().Format("2006-01-02 15:04:05")))
	if opts.Source != "" {
		sb.WriteString(fmt.Sprintf("**Source**: `%s`  \n", opts.Source))
	}
	sb.WriteString(fmt.Sprintf("**Format version**: %s  \n", s.Meta.Version))
	if s.Meta.Platform != "" {
		sb.WriteString(fmt.Sprintf("**Platform**: %s  \n", s.Meta.Platform))
	}
	if s.Meta.CreatedAt != "" {
		sb.WriteString(fmt.Sprintf("**Recorded**: %s  \n", s.Meta.CreatedAt))
	}
	sb.WriteString("\n")

	sb.WriteString("## Overview\n\n")
	if s.Meta.Description != "" {
		sb.WriteString(s.Meta.Description)
		sb.WriteString("\n\n")
	}

	sb.WriteString("| Metric | Count |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Steps | %d |\n", stats.totalSteps))
	sb.WriteString(fmt.Sprintf("| Pool actions | %d |\n", stats.poolActions))
	sb.WriteString(fmt.Sprintf("| Referenced actions | %d |\n", stats.referenced))
	if len(stats.orphans) > 0 {
		sb.WriteString(fmt.Sprintf("| Orphaned actions | %d |\n", len(stats.orphans)))
	}
	if stats.unresolved > 0 {
		sb.WriteString(fmt.Sprintf("| Unresolved references | %d |\n", stats.unresolved))
	}
	if stats.cofSteps > 0 {
		sb.WriteString(fmt.Sprintf("| Continue-on-failure steps | %d |\n", stats.cofSteps))
	}
	if s.Meta.Duration > 0 {
		sb.WriteString(fmt.Sprintf("| Recorded duration | %.1fs |\n", s.Meta.Duration))
	}
	sb.WriteString("\n")
}

func writeValidation(sb *strings.Builder, result validate.Result) {
	sb.WriteString("## Validation\n\n")
	switch {
	case result.Valid && len(result.Warnings) == 0:
		sb.WriteString("✓ Script is valid with no warnings.\n\n")
	case result.Valid:
		sb.WriteString(fmt.Sprintf("⚠ Script is valid with %d warning(s):\n\n", len(result.Warnings)))
		for _, w := range result.Warnings {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", w.Phase, w.Message))
		}
		sb.WriteString("\n")
	default:
		sb.WriteString(fmt.Sprintf("✗ Script has %d error(s):\n\n", len(result.Errors)))
		for _, e := range result.Errors {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", e.Phase, e.Message))
		}
		sb.WriteString("\n")
		for _, w := range result.Warnings {
			sb.WriteString(fmt.Sprintf("- ⚠ [%s] %s\n", w.Phase, w.Message))
		}
		if len(result.Warnings) > 0 {
			sb.WriteString("\n")
		}
	}
}

func writeVariables(sb *strings.Builder, s *script.TestScript) {
	if len(s.Variables) == 0 {
		return
	}

	sb.WriteString("## Variables\n\n")
	sb.WriteString("| Name | Value |\n")
	sb.WriteString("|------|-------|\n")
	names := make([]string, 0, len(s.Variables))
	for name := range s.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("| `%s` | `%s` |\n", name, s.Variables[name]))
	}
	sb.WriteString("\n")
}

func writeSteps(sb *strings.Builder, s *script.TestScript, opts Options) {
	sb.WriteString("## Step-by-Step Walkthrough\n\n")

	for _, st := range script.SortedSteps(s) {
		desc := st.Description
		if desc == "" {
			desc = "(no description)"
		}
		sb.WriteString(fmt.Sprintf("### Step %d: %s [`%s`]\n\n", st.Order, desc, st.ID))

		if st.ExpectedResult != "" {
			sb.WriteString(fmt.Sprintf("**Expected result**: %s  \n", st.ExpectedResult))
		}
		if st.ContinueOnFailure {
			sb.WriteString("**Continue on failure**: yes  \n")
		}
		sb.WriteString("\n")

		if len(st.ActionIDs) == 0 {
			sb.WriteString("No actions.\n\n---\n\n")
			continue
		}

		sb.WriteString("| # | Action | Type | Time | Detail |\n")
		sb.WriteString("|---|--------|------|------|--------|\n")
		shown := 0
		for i, id := range st.ActionIDs {
			if opts.MaxActionsPerStep > 0 && shown >= opts.MaxActionsPerStep {
				sb.WriteString(fmt.Sprintf("| … | | | | %d more action(s) |\n", len(st.ActionIDs)-shown))
				break
			}
			a, ok := s.ActionPool[id]
			if !ok {
				sb.WriteString(fmt.Sprintf("| %d | `%s` | — | — | **unresolved reference** |\n", i+1, id))
				shown++
				continue
			}
			sb.WriteString(fmt.Sprintf("| %d | `%s` | %s | %.2fs | %s |\n",
				i+1, id, a.Type, a.Timestamp, describeAction(a)))
			shown++
		}
		sb.WriteString("\n---\n\n")
	}
}

// describeAction summarizes an action's payload for a table cell.
func describeAction(a script.Action) string {
	switch {
	case a.Type.IsMouse():
		detail := ""
		if a.X != nil && a.Y != nil {
			detail = fmt.Sprintf("(%.0f, %.0f)", *a.X, *a.Y)
		}
		if a.Type.IsClick() && a.Button != "" {
			detail += " " + a.Button + " button"
		}
		return strings.TrimSpace(detail)
	case a.Type.IsKey():
		key := a.Key
		if len(a.Modifiers) > 0 {
			key = strings.Join(a.Modifiers, "+") + "+" + key
		}
		return "`" + key + "`"
	case a.Type == script.ActionTypeText:
		if a.Text == nil {
			return ""
		}
		text := *a.Text
		if len(text) > 40 {
			text = text[:37] + "..."
		}
		return fmt.Sprintf("%q", text)
	case a.Type == script.ActionWait:
		return fmt.Sprintf("%.1fs", a.Duration)
	case a.Type == script.ActionScreenshot:
		if a.Screenshot != "" {
			return "`" + a.Screenshot + "`"
		}
		return ""
	default:
		return ""
	}
}

func writePoolAnalysis(sb *strings.Builder, s *script.TestScript, stats *scriptStats) {
	sb.WriteString("## Action Pool\n\n")

	if len(stats.byType) > 0 {
		sb.WriteString("| Type | Count |\n")
		sb.WriteString("|------|-------|\n")
		for _, t := range script.ActionTypes() {
			if n := stats.byType[t]; n > 0 {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", t, n))
			}
		}
		sb.WriteString("\n")
	}

	if len(stats.sharedActions) > 0 {
		sb.WriteString("### Shared Actions\n\n")
		sb.WriteString("Actions referenced by more than one step. Editing these in the pool affects every referencing step.\n\n")
		sb.WriteString("| Action | Steps |\n")
		sb.WriteString("|--------|-------|\n")
		ids := make([]string, 0, len(stats.sharedActions))
		for id := range stats.sharedActions {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			steps := make([]string, len(stats.sharedActions[id]))
			for i, sid := range stats.sharedActions[id] {
				steps[i] = "`" + sid + "`"
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", id, strings.Join(steps, ", ")))
		}
		sb.WriteString("\n")
	}

	if len(stats.orphans) > 0 {
		sb.WriteString("### Orphaned Actions\n\n")
		sb.WriteString("Pool entries not referenced by any step. They are preserved across edits and can be re-attached later.\n\n")
		for _, id := range stats.orphans {
			line := fmt.Sprintf("- `%s`", id)
			if a, ok := s.ActionPool[id]; ok {
				line += fmt.Sprintf(" (%s at %.2fs)", a.Type, a.Timestamp)
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
}

func writeTiming(sb *strings.Builder, s *script.TestScript, stats *scriptStats) {
	if !stats.hasTimes {
		return
	}

	sb.WriteString("## Timing\n\n")
	sb.WriteString(fmt.Sprintf("Referenced actions span **%.2fs** to **%.2fs**.\n\n", stats.startTime, stats.endTime))

	// Largest idle gaps in the flattened timeline hint at natural
	// split points.
	type gap struct {
		after   string
		seconds float64
	}
	var gaps []gap
	var prev *script.Action
	var prevID string
	for _, id := range script.FlattenActionIDs(s) {
		a, ok := s.ActionPool[id]
		if !ok {
			continue
		}
		if prev != nil && a.Timestamp > prev.Timestamp {
			gaps = append(gaps, gap{after: prevID, seconds: a.Timestamp - prev.Timestamp})
		}
		cp := a
		prev = &cp
		prevID = id
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].seconds > gaps[j].seconds })
	if len(gaps) > 3 {
		gaps = gaps[:3]
	}
	if len(gaps) > 0 {
		sb.WriteString("Largest idle gaps:\n\n")
		for _, g := range gaps {
			sb.WriteString(fmt.Sprintf("- %.2fs after `%s`\n", g.seconds, g.after))
		}
		sb.WriteString("\n")
	}
}

func writeChecklist(sb *strings.Builder, stats *scriptStats) {
	sb.WriteString("## Review Checklist\n\n")
	sb.WriteString("- [ ] Step descriptions say what the user is doing, not which pixels are hit\n")
	sb.WriteString("- [ ] Expected results are observable outcomes\n")
	sb.WriteString("- [ ] Action timestamps follow the recorded order\n")
	sb.WriteString("- [ ] Shared actions are shared on purpose\n")
	if len(stats.orphans) > 0 {
		sb.WriteString("- [ ] Orphaned actions are still worth keeping\n")
	}
	if stats.unresolved > 0 {
		sb.WriteString("- [ ] Unresolved references are fixed or removed\n")
	}
	if stats.cofSteps > 0 {
		sb.WriteString("- [ ] Continue-on-failure steps tolerate partial failure\n")
	}
	sb.WriteString("\n")
}
