package shell

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/maglevlabs/mast/pkg/diagram"
	"github.com/maglevlabs/mast/pkg/merge"
	"github.com/maglevlabs/mast/pkg/query"
	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/split"
	"github.com/maglevlabs/mast/pkg/storage"
	"github.com/maglevlabs/mast/pkg/validate"
)

// handleSteps lists all steps in execution order.
func (sh *Shell) handleSteps() {
	if len(sh.script.Steps) == 0 {
		fmt.Fprintf(sh.output, "No steps defined.\n")
		return
	}
	for _, st := range script.SortedSteps(sh.script) {
		cof := ""
		if st.ContinueOnFailure {
			cof = " [continue-on-failure]"
		}
		fmt.Fprintf(sh.output, "  %2d. %s — %s (%d actions)%s\n",
			st.Order, st.ID, st.Description, len(st.ActionIDs), cof)
	}
}

// handleShow displays one step with its resolved actions.
func (sh *Shell) handleShow(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(sh.output, "Usage: show <step-id|order>\n")
		return
	}
	st, ok := sh.resolveStep(parts[1])
	if !ok {
		fmt.Fprintf(sh.output, "No step %q.\n", parts[1])
		return
	}

	fmt.Fprintf(sh.output, "Step %d: %s\n", st.Order, st.ID)
	fmt.Fprintf(sh.output, "  Description: %s\n", st.Description)
	if st.ExpectedResult != "" {
		fmt.Fprintf(sh.output, "  Expected:    %s\n", st.ExpectedResult)
	}
	if st.ContinueOnFailure {
		fmt.Fprintf(sh.output, "  Continue on failure: true\n")
	}
	if len(st.ActionIDs) == 0 {
		fmt.Fprintf(sh.output, "  No actions.\n")
		return
	}
	fmt.Fprintf(sh.output, "  Actions:\n")
	for i, id := range st.ActionIDs {
		a, ok := sh.script.ActionPool[id]
		if !ok {
			fmt.Fprintf(sh.output, "    %2d. %s  (unresolved)\n", i+1, id)
			continue
		}
		fmt.Fprintf(sh.output, "    %2d. %s  %-18s %7.2fs  %s\n",
			i+1, id, a.Type, a.Timestamp, actionSummary(a))
	}
}

// handlePool lists pool actions sorted by timestamp with reference counts.
func (sh *Shell) handlePool() {
	if len(sh.script.ActionPool) == 0 {
		fmt.Fprintf(sh.output, "Action pool is empty.\n")
		return
	}
	ids := make([]string, 0, len(sh.script.ActionPool))
	for id := range sh.script.ActionPool {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ai, aj := sh.script.ActionPool[ids[i]], sh.script.ActionPool[ids[j]]
		if ai.Timestamp != aj.Timestamp {
			return ai.Timestamp < aj.Timestamp
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		a := sh.script.ActionPool[id]
		refs := len(script.StepsReferencingAction(sh.script, id))
		fmt.Fprintf(sh.output, "  %s  %-18s %7.2fs  refs=%d\n", id, a.Type, a.Timestamp, refs)
	}
}

// handleAction dumps one pool action as JSON.
func (sh *Shell) handleAction(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(sh.output, "Usage: action <action-id>\n")
		return
	}
	a, ok := sh.script.ActionByID(parts[1])
	if !ok {
		fmt.Fprintf(sh.output, "No action %q in the pool.\n", parts[1])
		return
	}
	data, err := json.MarshalIndent(a, "  ", "  ")
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.output, "  %s\n", data)
}

// handleOrphans lists pool actions no step references.
func (sh *Shell) handleOrphans() {
	referenced := make(map[string]bool)
	for _, st := range sh.script.Steps {
		for _, id := range st.ActionIDs {
			referenced[id] = true
		}
	}
	var orphans []string
	for id := range sh.script.ActionPool {
		if !referenced[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		fmt.Fprintf(sh.output, "No orphaned actions.\n")
		return
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		a := sh.script.ActionPool[id]
		fmt.Fprintf(sh.output, "  %s  %-18s %7.2fs\n", id, a.Type, a.Timestamp)
	}
	fmt.Fprintf(sh.output, "  %d orphaned action(s). They are kept on save.\n", len(orphans))
}

// handleValidate runs the full validation pipeline.
func (sh *Shell) handleValidate() {
	result := validate.Script(sh.script)
	for _, e := range result.Errors {
		fmt.Fprintf(sh.output, "  ✗ %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(sh.output, "  ⚠ %s\n", w)
	}
	if result.Valid && len(result.Warnings) == 0 {
		fmt.Fprintf(sh.output, "  ✓ Script is valid.\n")
	} else {
		fmt.Fprintf(sh.output, "  %d error(s), %d warning(s)\n",
			len(result.Errors), len(result.Warnings))
	}
}

// handleMerge combines two or more steps into one.
func (sh *Shell) handleMerge(parts []string) {
	if len(parts) < 3 {
		fmt.Fprintf(sh.output, "Usage: merge <step-id> <step-id> [...]\n")
		return
	}
	preview, err := merge.PreviewMerged(sh.script, parts[1:], merge.Options{})
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	next, err := merge.Merge(sh.script, parts[1:], merge.Options{})
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	sh.apply(next)
	fmt.Fprintf(sh.output, "  ✓ Merged %d steps into %s (%d actions). Script now has %d steps.\n",
		len(parts)-1, preview.StepID, len(preview.ActionIDs), len(next.Steps))
}

// handleSplit splits a step into k parts at its largest idle gaps.
func (sh *Shell) handleSplit(parts []string) {
	if len(parts) != 3 {
		fmt.Fprintf(sh.output, "Usage: split <step-id> <parts>\n")
		return
	}
	k, err := strconv.Atoi(parts[2])
	if err != nil {
		fmt.Fprintf(sh.output, "Error: parts must be a number: %v\n", err)
		return
	}
	specs, err := split.Suggest(sh.script, parts[1], k)
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	res, err := split.Split(sh.script, split.Request{StepID: parts[1], Splits: specs})
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	sh.apply(res.Script)
	fmt.Fprintf(sh.output, "  ✓ Split %s into %d steps: %s\n",
		parts[1], len(res.NewStepIDs), strings.Join(res.NewStepIDs, ", "))
}

// handlePreview shows what a merge or split would produce without applying it.
func (sh *Shell) handlePreview(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(sh.output, "Usage: preview merge <step-id> <step-id> [...] | preview split <step-id> <parts>\n")
		return
	}
	switch parts[1] {
	case "merge":
		if len(parts) < 4 {
			fmt.Fprintf(sh.output, "Usage: preview merge <step-id> <step-id> [...]\n")
			return
		}
		p, err := merge.PreviewMerged(sh.script, parts[2:], merge.Options{})
		if err != nil {
			fmt.Fprintf(sh.output, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(sh.output, "  Merged step:  %s\n", p.StepID)
		fmt.Fprintf(sh.output, "  Description:  %s\n", p.Description)
		if p.ExpectedResult != "" {
			fmt.Fprintf(sh.output, "  Expected:     %s\n", p.ExpectedResult)
		}
		fmt.Fprintf(sh.output, "  Actions (%d): %s\n", len(p.ActionIDs), strings.Join(p.ActionIDs, ", "))
		fmt.Fprintf(sh.output, "  Steps after merge: %d\n", p.StepsAfterMerge)

	case "split":
		if len(parts) != 4 {
			fmt.Fprintf(sh.output, "Usage: preview split <step-id> <parts>\n")
			return
		}
		k, err := strconv.Atoi(parts[3])
		if err != nil {
			fmt.Fprintf(sh.output, "Error: parts must be a number: %v\n", err)
			return
		}
		specs, err := split.Suggest(sh.script, parts[2], k)
		if err != nil {
			fmt.Fprintf(sh.output, "Error: %v\n", err)
			return
		}
		p, err := split.PreviewSplit(sh.script, split.Request{StepID: parts[2], Splits: specs})
		if err != nil {
			fmt.Fprintf(sh.output, "Error: %v\n", err)
			return
		}
		for i, part := range p.Parts {
			fmt.Fprintf(sh.output, "  %d. %s (%d actions, %.2fs-%.2fs)\n",
				i+1, part.Description, part.ActionCount, part.StartTime, part.EndTime)
		}
		fmt.Fprintf(sh.output, "  Steps after split: %d\n", p.StepsAfterSplit)

	default:
		fmt.Fprintf(sh.output, "Unknown preview target: %q. Use 'merge' or 'split'.\n", parts[1])
	}
}

// handleUpdate replaces a pool action from a JSON payload.
func (sh *Shell) handleUpdate(parts []string, line string) {
	if len(parts) < 3 {
		fmt.Fprintf(sh.output, "Usage: update <action-id> <json>\n")
		return
	}
	id := parts[1]
	payload := restAfter(line, 2)

	var a script.Action
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		fmt.Fprintf(sh.output, "Error: invalid action JSON: %v\n", err)
		return
	}

	_, existed := sh.script.ActionPool[id]
	if script.ActionAffectsMultipleSteps(sh.script, id) {
		refs := script.StepsReferencingAction(sh.script, id)
		fmt.Fprintf(sh.output, "  Note: %s is referenced by %d steps; the edit affects all of them.\n",
			id, len(refs))
	}
	sh.apply(script.UpdateActionInPool(sh.script, id, a))
	if existed {
		fmt.Fprintf(sh.output, "  ✓ Updated action %s.\n", id)
	} else {
		fmt.Fprintf(sh.output, "  ✓ Added action %s to the pool.\n", id)
	}
}

// handleQuery filters actions with an expression.
func (sh *Shell) handleQuery(parts []string, line string) {
	if len(parts) < 2 {
		fmt.Fprintf(sh.output, "Usage: query <expression>   e.g. query action.type == \"mouse_click\"\n")
		return
	}
	expression := restAfter(line, 1)
	matches, err := query.Actions(sh.script, expression)
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		fmt.Fprintf(sh.output, "No actions match.\n")
		return
	}
	for _, m := range matches {
		where := "orphan"
		if m.StepOrder > 0 {
			where = fmt.Sprintf("step %d", m.StepOrder)
		}
		fmt.Fprintf(sh.output, "  %s  %-18s %7.2fs  %s\n",
			m.Action.ID, m.Action.Type, m.Action.Timestamp, where)
	}
	fmt.Fprintf(sh.output, "  %d match(es)\n", len(matches))
}

// handleFix applies automatic repairs.
func (sh *Shell) handleFix() {
	fixed, fixes := validate.AutoFix(sh.script)
	if len(fixes) == 0 {
		fmt.Fprintf(sh.output, "  Nothing to fix.\n")
		return
	}
	sh.apply(fixed)
	for _, f := range fixes {
		fmt.Fprintf(sh.output, "  ✓ %s: %s\n", f.Field, f.Message)
	}
	fmt.Fprintf(sh.output, "  %d fix(es) applied.\n", len(fixes))
}

// handleDiagram renders the script as a diagram.
func (sh *Shell) handleDiagram(parts []string) {
	format := diagram.FormatASCII
	if len(parts) > 1 {
		format = diagram.Format(parts[1])
	}
	out, err := diagram.Generate(sh.script, format)
	if err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.output, out)
}

// handleUndo reverts the last edit.
func (sh *Shell) handleUndo() {
	if len(sh.undo) == 0 {
		fmt.Fprintf(sh.output, "Nothing to undo.\n")
		return
	}
	sh.redo = append(sh.redo, sh.script)
	sh.script = sh.undo[len(sh.undo)-1]
	sh.undo = sh.undo[:len(sh.undo)-1]
	sh.dirty = true
	fmt.Fprintf(sh.output, "  Undone. %d more undo(s) available.\n", len(sh.undo))
}

// handleRedo reapplies the last undone edit.
func (sh *Shell) handleRedo() {
	if len(sh.redo) == 0 {
		fmt.Fprintf(sh.output, "Nothing to redo.\n")
		return
	}
	sh.undo = append(sh.undo, sh.script)
	sh.script = sh.redo[len(sh.redo)-1]
	sh.redo = sh.redo[:len(sh.redo)-1]
	sh.dirty = true
	fmt.Fprintf(sh.output, "  Redone.\n")
}

// handleSave writes the script to disk.
func (sh *Shell) handleSave(parts []string) {
	path := sh.path
	if len(parts) > 1 {
		path = parts[1]
	}
	if path == "" {
		fmt.Fprintf(sh.output, "Usage: save <path> (no default path for this session)\n")
		return
	}
	if err := storage.SaveScript(path, sh.script, storage.SaveOptions{Pretty: sh.pretty}); err != nil {
		fmt.Fprintf(sh.output, "Error: %v\n", err)
		return
	}
	sh.path = path
	sh.dirty = false
	fmt.Fprintf(sh.output, "  ✓ Saved: %s\n", path)
}

// handleDump outputs the full script as indented JSON.
func (sh *Shell) handleDump() {
	data, err := json.MarshalIndent(sh.script, "", "  ")
	if err != nil {
		fmt.Fprintf(sh.output, "  Error marshaling script: %v\n", err)
		return
	}
	fmt.Fprintln(sh.output, string(data))
}

// handleHelp displays available commands.
func (sh *Shell) handleHelp() {
	fmt.Fprintln(sh.output, "Available commands:")
	fmt.Fprintln(sh.output, "  steps (s)        List steps in execution order")
	fmt.Fprintln(sh.output, "  show <step>      Show one step with its actions (by id or order)")
	fmt.Fprintln(sh.output, "  pool             List pool actions by timestamp")
	fmt.Fprintln(sh.output, "  action (a) <id>  Dump one action as JSON")
	fmt.Fprintln(sh.output, "  orphans          List pool actions no step references")
	fmt.Fprintln(sh.output, "  validate (v)     Run the validation pipeline")
	fmt.Fprintln(sh.output, "  merge (m)        Merge steps: merge <step-id> <step-id> [...]")
	fmt.Fprintln(sh.output, "  split            Split a step: split <step-id> <parts>")
	fmt.Fprintln(sh.output, "  preview          Dry-run: preview merge <ids...> | preview split <step> <parts>")
	fmt.Fprintln(sh.output, "  update (u)       Edit a pool action: update <action-id> <json>")
	fmt.Fprintln(sh.output, "  query (q)        Filter actions: query action.type == \"mouse_click\"")
	fmt.Fprintln(sh.output, "  fix              Apply automatic repairs")
	fmt.Fprintln(sh.output, "  diagram          Render diagram: diagram [ascii|mermaid]")
	fmt.Fprintln(sh.output, "  undo / redo      Step backward / forward through edits")
	fmt.Fprintln(sh.output, "  save [path]      Write the script to disk")
	fmt.Fprintln(sh.output, "  dump             Output the full script as JSON")
	fmt.Fprintln(sh.output, "  help (?)         Show this help")
	fmt.Fprintln(sh.output, "  quit             Exit the shell")
}

// resolveStep finds a step by id, or by order when token is a number.
func (sh *Shell) resolveStep(token string) (script.TestStep, bool) {
	if n, err := strconv.Atoi(token); err == nil {
		for _, st := range script.SortedSteps(sh.script) {
			if st.Order == n {
				return st, true
			}
		}
		return script.TestStep{}, false
	}
	return sh.script.StepByID(token)
}

// actionSummary renders an action's payload for one table cell.
func actionSummary(a script.Action) string {
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
		return strconv.Quote(t)
	case a.Type == script.ActionWait:
		return fmt.Sprintf("wait %.1fs", a.Duration)
	case a.Type == script.ActionScreenshot:
		return a.Screenshot
	default:
		return ""
	}
}

// restAfter returns line with its first n whitespace-separated fields
// removed, preserving the remainder verbatim.
func restAfter(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		cut := strings.IndexFunc(rest, unicode.IsSpace)
		if cut < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[cut:])
	}
	return rest
}
