// Package diagram renders visual diagrams from test scripts.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/mattn/go-runewidth"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Generate produces a diagram string from a test script.
func Generate(s *script.TestScript, format Format) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil script")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(s), nil
	case FormatASCII:
		return generateASCII(s), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- Mermaid flowchart ---

func generateMermaid(s *script.TestScript) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	boxes := buildBoxes(s)
	if len(boxes) == 0 {
		return b.String()
	}

	// Start node
	b.WriteString("    START([Start]) --> " + boxes[0].node + "\n")

	for i, box := range boxes {
		// Node definition
		b.WriteString("    " + nodeDefinition(box) + "\n")

		// Sequential edge
		if i < len(boxes)-1 {
			if box.cof {
				b.WriteString(fmt.Sprintf("    %s -->|\"continue on failure\"| %s\n",
					box.node, boxes[i+1].node))
			} else {
				b.WriteString(fmt.Sprintf("    %s --> %s\n",
					box.node, boxes[i+1].node))
			}
		}
	}

	// Terminal node
	last := boxes[len(boxes)-1]
	b.WriteString("    DONE([Complete])\n")
	b.WriteString(fmt.Sprintf("    %s --> DONE\n", last.node))
	b.WriteString("    style DONE fill:#0d6,stroke:#0a5,color:#fff\n")

	// Style steps that continue on failure
	for _, box := range boxes {
		if box.cof {
			b.WriteString(fmt.Sprintf("    style %s fill:#1a3a4a,stroke:#0af\n", box.node))
		}
	}

	// Flag steps with unresolved pool references
	for _, box := range boxes {
		if box.missing > 0 {
			b.WriteString(fmt.Sprintf("    style %s fill:#a33,stroke:#f66,color:#fff\n", box.node))
		}
	}

	if n := orphanCount(s); n > 0 {
		b.WriteString(fmt.Sprintf("    %%%% %d pool action(s) not referenced by any step\n", n))
	}

	return b.String()
}

// --- ASCII ---

func generateASCII(s *script.TestScript) string {
	var b strings.Builder

	name := s.Meta.Title
	if name == "" {
		name = "Test Script"
	}

	boxes := buildBoxes(s)
	if len(boxes) == 0 {
		b.WriteString(name + " (empty)\n")
		return b.String()
	}

	// Compute uniform box width so every box and connector aligns.
	const indent = 8
	boxWidth := computeUniformBoxWidth(boxes, name)
	connCol := indent + 1 + boxWidth/2 // +1 accounts for the └/┌ border character
	pad := strings.Repeat(" ", indent)
	connPad := strings.Repeat(" ", connCol)

	// Header, same width as body boxes, title centered.
	headerText := centerPad(name, boxWidth)
	mid := boxWidth / 2
	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + headerText + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", mid) + "╤" + strings.Repeat("═", boxWidth-mid-1) + "╝\n")
	b.WriteString(connPad + "│\n")

	for i, box := range boxes {
		writeASCIIStep(&b, box, indent, boxWidth)
		if i < len(boxes)-1 {
			b.WriteString(connPad + "│\n")
		}
	}

	// Summary footer
	b.WriteString(connPad + "│\n")
	outPad := strings.Repeat(" ", connCol-2)
	b.WriteString(outPad + "✔ " + summaryLine(s, boxes) + "\n")
	if n := orphanCount(s); n > 0 {
		plural := ""
		if n > 1 {
			plural = "s"
		}
		b.WriteString(outPad + fmt.Sprintf("◦ %d pool action%s not referenced by any step\n", n, plural))
	}

	return b.String()
}

func summaryLine(s *script.TestScript, boxes []stepBox) string {
	referenced := 0
	for _, box := range boxes {
		referenced += box.actions
	}
	stepWord := "steps"
	if len(boxes) == 1 {
		stepWord = "step"
	}
	line := fmt.Sprintf("%d %s · %d actions", len(boxes), stepWord, referenced)
	if s.Meta.Duration > 0 {
		line += fmt.Sprintf(" · %.1fs", s.Meta.Duration)
	}
	return line
}

// computeUniformBoxWidth returns the widest interior width needed
// across all step boxes and the header name.
func computeUniformBoxWidth(boxes []stepBox, name string) int {
	minWidth := 22
	w := minWidth

	// Header name with padding
	nameWidth := runewidth.StringWidth(name) + 4 // "  name  "
	if nameWidth > w {
		w = nameWidth
	}

	for _, box := range boxes {
		if bw := boxContentWidth(box); bw > w {
			w = bw
		}
	}
	return w
}

// boxContentWidth returns the interior width a single step box needs.
func boxContentWidth(box stepBox) int {
	content := fmt.Sprintf(" %s %s ", kindIcon(box.kind), box.label)
	w := runewidth.StringWidth(content)
	if box.detail != "" {
		detailLine := " → " + box.detail
		if dw := runewidth.StringWidth(detailLine); dw > w {
			w = dw
		}
	}
	return w
}

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func writeASCIIStep(b *strings.Builder, box stepBox, indent, boxWidth int) {
	content := fmt.Sprintf(" %s %s ", kindIcon(box.kind), box.label)
	contentWidth := runewidth.StringWidth(content)

	pad := strings.Repeat(" ", indent)
	topBot := strings.Repeat("─", boxWidth)
	mid := boxWidth / 2

	b.WriteString(pad + "┌" + topBot + "┐\n")
	b.WriteString(pad + "│" + content + strings.Repeat(" ", boxWidth-contentWidth) + "│\n")
	if box.detail != "" {
		detailLine := " → " + box.detail
		detailWidth := runewidth.StringWidth(detailLine)
		b.WriteString(pad + "│" + detailLine + strings.Repeat(" ", boxWidth-detailWidth) + "│\n")
	}
	b.WriteString(pad + "└" + strings.Repeat("─", mid) + "┬" + strings.Repeat("─", boxWidth-mid-1) + "┘\n")
}

func kindIcon(kind string) string {
	switch kind {
	case "mouse":
		return "🖱"
	case "keyboard":
		return "⌨"
	case "wait":
		return "⏲"
	case "screenshot":
		return "📷"
	default:
		return "○"
	}
}

// --- step summarization ---

type stepBox struct {
	node    string
	order   int
	label   string
	detail  string
	kind    string
	cof     bool
	actions int
	missing int
}

func buildBoxes(s *script.TestScript) []stepBox {
	steps := script.SortedSteps(s)
	boxes := make([]stepBox, 0, len(steps))
	for _, st := range steps {
		box := stepBox{
			node:    fmt.Sprintf("S%d", st.Order),
			order:   st.Order,
			label:   fmt.Sprintf("Step %d: %s", st.Order, st.Description),
			cof:     st.ContinueOnFailure,
			actions: len(st.ActionIDs),
		}
		if st.Description == "" {
			box.label = fmt.Sprintf("Step %d: %s", st.Order, st.ID)
		}

		counts := map[string]int{}
		var times []float64
		for _, id := range st.ActionIDs {
			a, ok := s.ActionPool[id]
			if !ok {
				box.missing++
				continue
			}
			counts[kindOf(a.Type)]++
			times = append(times, a.Timestamp)
		}
		box.kind = dominantKind(counts)
		box.detail = detailLine(box.actions, box.missing, times)
		boxes = append(boxes, box)
	}
	return boxes
}

func kindOf(t script.ActionType) string {
	switch {
	case t.IsMouse():
		return "mouse"
	case t.IsKey() || t == script.ActionTypeText:
		return "keyboard"
	case t == script.ActionWait:
		return "wait"
	case t == script.ActionScreenshot:
		return "screenshot"
	default:
		return "other"
	}
}

// dominantKind picks the most frequent action kind, with a fixed
// precedence for ties so output stays deterministic.
func dominantKind(counts map[string]int) string {
	best := "other"
	bestN := 0
	for _, kind := range []string{"mouse", "keyboard", "wait", "screenshot", "other"} {
		if n := counts[kind]; n > bestN {
			best = kind
			bestN = n
		}
	}
	return best
}

func detailLine(total, missing int, times []float64) string {
	word := "actions"
	if total == 1 {
		word = "action"
	}
	parts := []string{fmt.Sprintf("%d %s", total, word)}
	if len(times) > 0 {
		sort.Float64s(times)
		if times[0] == times[len(times)-1] {
			parts = append(parts, fmt.Sprintf("at %.1fs", times[0]))
		} else {
			parts = append(parts, fmt.Sprintf("%.1fs-%.1fs", times[0], times[len(times)-1]))
		}
	}
	if missing > 0 {
		parts = append(parts, fmt.Sprintf("%d unresolved", missing))
	}
	return strings.Join(parts, " · ")
}

func orphanCount(s *script.TestScript) int {
	referenced := make(map[string]bool)
	for _, st := range s.Steps {
		for _, id := range st.ActionIDs {
			referenced[id] = true
		}
	}
	n := 0
	for id := range s.ActionPool {
		if !referenced[id] {
			n++
		}
	}
	return n
}

// --- string helpers ---

func nodeDefinition(box stepBox) string {
	icon := kindIcon(box.kind)
	label := escMermaid(truncate(box.label, 48))
	detail := ""
	if box.detail != "" {
		detail = "<br/>" + escMermaid(box.detail)
	}

	switch box.kind {
	case "wait":
		return fmt.Sprintf(`%s(["%s %s%s"])`, box.node, icon, label, detail)
	case "screenshot":
		return fmt.Sprintf(`%s[["%s %s%s"]]`, box.node, icon, label, detail)
	case "keyboard":
		return fmt.Sprintf(`%s[/"%s %s%s"/]`, box.node, icon, label, detail)
	default:
		return fmt.Sprintf(`%s["%s %s%s"]`, box.node, icon, label, detail)
	}
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
