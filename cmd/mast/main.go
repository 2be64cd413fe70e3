package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maglevlabs/mast/pkg/canonical"
	"github.com/maglevlabs/mast/pkg/config"
	"github.com/maglevlabs/mast/pkg/diagram"
	"github.com/maglevlabs/mast/pkg/merge"
	"github.com/maglevlabs/mast/pkg/migrate"
	"github.com/maglevlabs/mast/pkg/query"
	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/split"
	"github.com/maglevlabs/mast/pkg/storage"
	"github.com/maglevlabs/mast/pkg/validate"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// workspace is the nearest .mast/config.yaml, or all defaults when none
// exists. Command flags override it.
var workspace = &config.Workspace{}

func main() {
	if ws, err := config.Discover("."); err == nil && ws != nil {
		workspace = ws
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mast",
	Short: "Maintain step-based automation test scripts",
	Long:  "mast — migrate, validate, edit and inspect automation test scripts built on a shared action pool.",
}

// loadStep reads a step-based script, honoring the workspace auto-migrate
// setting for legacy inputs.
func loadStep(path string) (*script.TestScript, error) {
	return storage.LoadScript(path, workspace.AutoMigrate)
}

// saveStep writes a script, running the auto-fixer first when the
// workspace asks for it.
func saveStep(path string, s *script.TestScript) error {
	if workspace.AutoFixOnSave {
		fixed, fixes := validate.AutoFix(s)
		for _, f := range fixes {
			fmt.Fprintf(os.Stderr, "  autofix %s: %s\n", f.Field, f.Message)
		}
		s = fixed
	}
	return storage.SaveScript(path, s, storage.SaveOptions{Pretty: workspace.PrettySave})
}

// resolveStepID accepts either a step id or a 1-based order number.
func resolveStepID(s *script.TestScript, token string) (string, error) {
	token = strings.TrimSpace(token)
	if n, err := strconv.Atoi(token); err == nil {
		for _, st := range s.Steps {
			if st.Order == n {
				return st.ID, nil
			}
		}
		return "", fmt.Errorf("no step with order %d", n)
	}
	if s.StepIndex(token) < 0 {
		return "", fmt.Errorf("no step with id %q", token)
	}
	return token, nil
}

// printWarnings writes warning findings to stderr.
func printWarnings(res validate.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "  ⚠ %s\n", w)
	}
}

// printErrors writes error findings to stderr, numbered.
func printErrors(res validate.Result) {
	for i, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, e)
	}
}

// --- validate ---

var (
	validateCompat bool
	validateJSON   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [script.json]",
	Short: "Validate a script file",
	Long: `Validate a step-based script file through the structural, semantic and
domain phases. With --compat, legacy-conversion blockers are reported as
additional errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}

	var res validate.Result
	if validateCompat {
		res = validate.CheckCompatibility(s)
	} else {
		res = validate.Script(s)
	}

	if validateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
		if !res.Valid {
			os.Exit(1)
		}
		return nil
	}

	printWarnings(res)
	if !res.Valid {
		fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n", len(res.Errors))
		printErrors(res)
		return fmt.Errorf("validation failed with %d error(s)", len(res.Errors))
	}

	name := s.Meta.Title
	if name == "" {
		name = args[0]
	}
	fmt.Printf("✓ %s is valid (%d steps, %d pool actions)\n", name, len(s.Steps), len(s.ActionPool))
	return nil
}

// --- migrate ---

var (
	migrateOut   string
	migrateCheck bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [recording.json]",
	Short: "Migrate a legacy flat recording to the step-based format",
	Long: `Migrate a legacy recording to the step-based format: every action moves
into the pool under a fresh id and a single setup step references them all
in recorded order. The original file is left untouched; output goes to
--out or <name>.script.json.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	doc, err := storage.Load(args[0])
	if err != nil {
		return err
	}
	if doc.Format == script.FormatStep {
		fmt.Println("Already step-based — no migration needed.")
		return nil
	}

	migrated, err := migrate.Migrate(doc.Legacy)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", args[0], err)
	}

	res := migrate.ValidateMigration(doc.Legacy, migrated)
	printWarnings(res)
	if !res.Valid {
		printErrors(res)
		return fmt.Errorf("migration produced an invalid script (%d error(s))", len(res.Errors))
	}

	out := migrateOut
	if out == "" {
		out = deriveOut(args[0], ".script.json")
	}

	if migrateCheck {
		fmt.Printf("Would write %s (%d pool actions, %d step)\n", out, len(migrated.ActionPool), len(migrated.Steps))
		return nil
	}

	if err := saveStep(out, migrated); err != nil {
		return err
	}
	fmt.Printf("✓ Migrated %s → %s (%d pool actions, %d step)\n", args[0], out, len(migrated.ActionPool), len(migrated.Steps))
	return nil
}

// deriveOut swaps a .json suffix for the given one, or appends it.
func deriveOut(path, suffix string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + suffix
	}
	return path + suffix
}

// --- convert ---

var convertOut string

var convertCmd = &cobra.Command{
	Use:   "convert [script.json]",
	Short: "Convert a step-based script back to the legacy flat format",
	Long: `Convert a step-based script to the legacy flat format for older replay
tooling. Step structure, descriptions and the pool are collapsed into a
single chronological action list; unreferenced pool actions are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	doc, err := storage.Load(args[0])
	if err != nil {
		return err
	}
	if doc.Format == script.FormatLegacy {
		fmt.Println("Already legacy format — nothing to convert.")
		return nil
	}

	legacy := migrate.ConvertToLegacy(doc.Script)

	out := convertOut
	if out == "" {
		out = deriveOut(args[0], ".legacy.json")
	}
	if err := storage.SaveLegacy(out, legacy, storage.SaveOptions{Pretty: workspace.PrettySave}); err != nil {
		return err
	}
	fmt.Printf("✓ Converted %s → %s (%d actions, step structure dropped)\n", args[0], out, len(legacy.Actions))
	return nil
}

// --- inspect ---

var (
	inspectStep string
	inspectJSON bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [script.json]",
	Short: "Summarize a script file (either format)",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := storage.Load(args[0])
	if err != nil {
		return err
	}

	if doc.Format == script.FormatLegacy {
		l := doc.Legacy
		if inspectJSON {
			return printJSON(map[string]any{
				"format":   "legacy",
				"version":  l.Version,
				"actions":  len(l.Actions),
				"platform": l.Metadata.Platform,
				"duration": l.Metadata.Duration,
			})
		}
		fmt.Printf("Format:    legacy (%s)\n", l.Version)
		fmt.Printf("Platform:  %s\n", l.Metadata.Platform)
		fmt.Printf("Actions:   %d\n", len(l.Actions))
		fmt.Printf("Duration:  %.1fs\n", l.Metadata.Duration)
		fmt.Println("\nLegacy recording — run 'mast migrate' to convert it to steps.")
		return nil
	}

	s := doc.Script

	if inspectStep != "" {
		id, err := resolveStepID(s, inspectStep)
		if err != nil {
			return err
		}
		return inspectOneStep(s, id)
	}

	referenced := make(map[string]bool)
	for _, st := range s.Steps {
		for _, aid := range st.ActionIDs {
			referenced[aid] = true
		}
	}
	orphans := 0
	for id := range s.ActionPool {
		if !referenced[id] {
			orphans++
		}
	}

	if inspectJSON {
		steps := make([]map[string]any, 0, len(s.Steps))
		for _, st := range script.SortedSteps(s) {
			steps = append(steps, map[string]any{
				"id":          st.ID,
				"order":       st.Order,
				"description": st.Description,
				"actions":     len(st.ActionIDs),
			})
		}
		return printJSON(map[string]any{
			"format":       "step",
			"title":        s.Meta.Title,
			"version":      s.Meta.Version,
			"platform":     s.Meta.Platform,
			"duration":     s.Meta.Duration,
			"steps":        steps,
			"pool_actions": len(s.ActionPool),
			"orphans":      orphans,
			"variables":    len(s.Variables),
		})
	}

	title := s.Meta.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Printf("Title:     %s\n", title)
	fmt.Printf("Format:    step (%s)\n", s.Meta.Version)
	if s.Meta.Platform != "" {
		fmt.Printf("Platform:  %s\n", s.Meta.Platform)
	}
	if s.Meta.CreatedAt != "" {
		fmt.Printf("Recorded:  %s\n", s.Meta.CreatedAt)
	}
	fmt.Printf("Steps:     %d\n", len(s.Steps))
	fmt.Printf("Pool:      %d actions, %d orphaned\n", len(s.ActionPool), orphans)
	if len(s.Variables) > 0 {
		fmt.Printf("Variables: %d\n", len(s.Variables))
	}
	fmt.Println()
	for _, st := range script.SortedSteps(s) {
		marker := ""
		if st.ContinueOnFailure {
			marker = "  [continue-on-failure]"
		}
		fmt.Printf("  %2d. %s (%d actions)%s\n", st.Order, st.Description, len(st.ActionIDs), marker)
	}
	return nil
}

func inspectOneStep(s *script.TestScript, id string) error {
	st, ok := s.StepByID(id)
	if !ok {
		return fmt.Errorf("no step with id %q", id)
	}
	fmt.Printf("Step %d: %s\n", st.Order, st.ID)
	fmt.Printf("  Description: %s\n", st.Description)
	if st.ExpectedResult != "" {
		fmt.Printf("  Expected:    %s\n", st.ExpectedResult)
	}
	fmt.Printf("  Continue on failure: %v\n", st.ContinueOnFailure)
	fmt.Printf("  Actions (%d):\n", len(st.ActionIDs))
	for i, aid := range st.ActionIDs {
		a, ok := s.ActionPool[aid]
		if !ok {
			fmt.Printf("    %2d. %s  ✗ unresolved reference\n", i+1, aid)
			continue
		}
		fmt.Printf("    %2d. %s  %-18s %7.2fs  %s\n", i+1, aid, a.Type, a.Timestamp, describeAction(a))
	}
	return nil
}

// describeAction renders an action payload for terminal listings.
func describeAction(a script.Action) string {
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
		if len(t) > 40 {
			t = t[:37] + "..."
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

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// --- merge ---

var (
	mergeSteps       string
	mergeDescription string
	mergeExpected    string
	mergeOut         string
	mergeDryRun      bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge [script.json]",
	Short: "Merge two or more steps into one",
	Long: `Merge the named steps into a single step. Actions combine in pool
timestamp order, the merged step keeps the id of the earliest selected
step, and remaining steps are renumbered 1..N. Steps are named by id or
by order number, comma-separated.`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}

	var ids []string
	for _, token := range strings.Split(mergeSteps, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		id, err := resolveStepID(s, token)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return fmt.Errorf("--steps needs at least two steps (got %d)", len(ids))
	}

	opts := merge.Options{Description: mergeDescription, ExpectedResult: mergeExpected}

	preview, err := merge.PreviewMerged(s, ids, opts)
	if err != nil {
		return err
	}

	if mergeDryRun {
		fmt.Printf("Would merge %d steps into %s:\n", len(ids), preview.StepID)
		fmt.Printf("  Description: %s\n", preview.Description)
		if preview.ExpectedResult != "" {
			fmt.Printf("  Expected:    %s\n", preview.ExpectedResult)
		}
		fmt.Printf("  Actions:     %d\n", len(preview.ActionIDs))
		fmt.Printf("  Continue on failure: %v\n", preview.ContinueOnFailure)
		fmt.Printf("  Steps after merge:   %d\n", preview.StepsAfterMerge)
		return nil
	}

	merged, err := merge.Merge(s, ids, opts)
	if err != nil {
		return err
	}

	out := mergeOut
	if out == "" {
		out = args[0]
	}
	if err := saveStep(out, merged); err != nil {
		return err
	}
	fmt.Printf("✓ Merged %d steps into %s (%d actions). %d steps remain.\n",
		len(ids), preview.StepID, len(preview.ActionIDs), len(merged.Steps))
	return nil
}

// --- split ---

var (
	splitStep    string
	splitPlan    string
	splitSuggest int
	splitOut     string
	splitDryRun  bool
)

var splitCmd = &cobra.Command{
	Use:   "split [script.json]",
	Short: "Split one step into several",
	Long: `Split a step into consecutive parts. With --suggest N a plan is printed
as JSON (split at the N-1 largest time gaps); pipe it to a file, adjust,
and apply it with --plan. The parts must cover the step's actions exactly,
in order, with no overlap.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func runSplit(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}
	if splitStep == "" {
		return fmt.Errorf("--step is required")
	}
	id, err := resolveStepID(s, splitStep)
	if err != nil {
		return err
	}

	if splitSuggest > 0 {
		stats, err := split.Stat(s, id)
		if err != nil {
			return err
		}
		specs, err := split.Suggest(s, id, splitSuggest)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  %s: %d actions over %.2fs (up to %d parts possible)\n",
			id, stats.ActionCount, stats.Span, stats.MaxParts)
		return printJSON(specs)
	}

	if splitPlan == "" {
		return fmt.Errorf("one of --plan or --suggest is required")
	}
	data, err := os.ReadFile(splitPlan)
	if err != nil {
		return fmt.Errorf("read plan %s: %w", splitPlan, err)
	}
	var specs []split.Spec
	switch strings.ToLower(filepath.Ext(splitPlan)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &specs)
	default:
		err = json.Unmarshal(data, &specs)
	}
	if err != nil {
		return fmt.Errorf("parse plan %s: %w", splitPlan, err)
	}
	req := split.Request{StepID: id, Splits: specs}

	if splitDryRun {
		preview, err := split.PreviewSplit(s, req)
		if err != nil {
			return err
		}
		fmt.Printf("Would split %s into %d parts (%d steps after):\n", id, len(preview.Parts), preview.StepsAfterSplit)
		for i, p := range preview.Parts {
			fmt.Printf("  %d. %s (%d actions, %.2fs-%.2fs)\n", i+1, p.Description, p.ActionCount, p.StartTime, p.EndTime)
		}
		return nil
	}

	res, err := split.Split(s, req)
	if err != nil {
		return err
	}

	out := splitOut
	if out == "" {
		out = args[0]
	}
	if err := saveStep(out, res.Script); err != nil {
		return err
	}
	fmt.Printf("✓ Split %s into %d steps: %s\n", id, len(res.NewStepIDs), strings.Join(res.NewStepIDs, ", "))
	return nil
}

// --- update-action ---

var (
	updateActionID string
	updatePatch    string
	updateOut      string
)

var updateActionCmd = &cobra.Command{
	Use:   "update-action [script.json]",
	Short: "Replace or add one action in the pool",
	Long: `Replace a pool action with the JSON payload from --patch (use '-' for
stdin). Every step referencing the id observes the change; an unknown id
adds a new pool entry without attaching it to any step.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateAction,
}

func runUpdateAction(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}
	if updateActionID == "" {
		return fmt.Errorf("--action is required")
	}

	var data []byte
	if updatePatch == "-" {
		data, err = readAll(os.Stdin)
	} else {
		data, err = os.ReadFile(updatePatch)
	}
	if err != nil {
		return fmt.Errorf("read patch: %w", err)
	}

	var a script.Action
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("parse patch: %w", err)
	}

	_, existed := s.ActionPool[updateActionID]
	refs := script.StepsReferencingAction(s, updateActionID)
	if script.ActionAffectsMultipleSteps(s, updateActionID) {
		fmt.Fprintf(os.Stderr, "  ⚠ action %s is shared by %d steps; all of them observe this change\n",
			updateActionID, len(refs))
	}

	next := script.UpdateActionInPool(s, updateActionID, a)

	out := updateOut
	if out == "" {
		out = args[0]
	}
	if err := saveStep(out, next); err != nil {
		return err
	}
	if existed {
		fmt.Printf("✓ Updated action %s (%d referencing steps)\n", updateActionID, len(refs))
	} else {
		fmt.Printf("✓ Added action %s to the pool (orphaned until a step references it)\n", updateActionID)
	}
	return nil
}

func readAll(f *os.File) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(f)
	return buf.Bytes(), err
}

// --- query ---

var (
	queryOverSteps bool
	queryJSON      bool
	queryCount     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [script.json] [expression]",
	Short: "Filter pool actions (or steps) with an expression",
	Long: `Filter with an expr expression. Action queries see 'action', 'step' (nil
for orphans) and 'script'; step queries see 'step' and 'script'.

  mast query rec.json 'action.type == "mouse_click" && action.x > 100'
  mast query rec.json --steps 'len(step.action_ids) > 5'`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}
	expression := args[1]

	if queryOverSteps {
		steps, err := query.Steps(s, expression)
		if err != nil {
			return err
		}
		if queryCount {
			fmt.Println(len(steps))
			return nil
		}
		if queryJSON {
			return printJSON(steps)
		}
		for _, st := range steps {
			fmt.Printf("  %2d. %s  %s (%d actions)\n", st.Order, st.ID, st.Description, len(st.ActionIDs))
		}
		fmt.Printf("%d step(s) matched\n", len(steps))
		return nil
	}

	matches, err := query.Actions(s, expression)
	if err != nil {
		return err
	}
	if queryCount {
		fmt.Println(len(matches))
		return nil
	}
	if queryJSON {
		return printJSON(matches)
	}
	for _, m := range matches {
		where := "orphan"
		if m.StepOrder > 0 {
			where = fmt.Sprintf("step %d", m.StepOrder)
		}
		fmt.Printf("  %s  %-18s %7.2fs  %s\n", m.Action.ID, m.Action.Type, m.Action.Timestamp, where)
	}
	fmt.Printf("%d action(s) matched\n", len(matches))
	return nil
}

// --- fix ---

var fixOut string

var fixCmd = &cobra.Command{
	Use:   "fix [script.json]",
	Short: "Apply safe automatic fixes",
	Long: `Apply the safe fixes: missing version and negative timestamps are
corrected, unresolved action references are pruned, step orders are
renumbered to 1..N. Orphaned pool actions are reported but never removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func runFix(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}

	fixed, fixes := validate.AutoFix(s)
	if len(fixes) == 0 {
		fmt.Println("✓ Nothing to fix.")
		return nil
	}

	out := fixOut
	if out == "" {
		out = args[0]
	}
	if err := storage.SaveScript(out, fixed, storage.SaveOptions{Pretty: workspace.PrettySave}); err != nil {
		return err
	}
	for _, f := range fixes {
		fmt.Printf("  ✓ %s: %s\n", f.Field, f.Message)
	}
	fmt.Printf("✓ Applied %d fix(es) → %s\n", len(fixes), out)
	return nil
}

// --- fmt ---

var fmtCheck bool

var fmtCmd = &cobra.Command{
	Use:   "fmt [script.json]",
	Short: "Rewrite a script file in canonical form",
	Long: `Rewrite a script file as canonical JSON: sorted keys, no insignificant
whitespace, shortest-form numbers. Scripts formatted this way are
byte-comparable and hash-stable. --check reports instead of rewriting.`,
	Args: cobra.ExactArgs(1),
	RunE: runFmt,
}

func runFmt(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	doc, err := storage.Load(args[0])
	if err != nil {
		return err
	}

	var v any
	if doc.Format == script.FormatLegacy {
		v = doc.Legacy
	} else {
		v = doc.Script
	}
	want, err := canonical.Marshal(v)
	if err != nil {
		return err
	}

	if bytes.Equal(raw, want) {
		fmt.Printf("✓ %s is canonical\n", args[0])
		return nil
	}
	if fmtCheck {
		return fmt.Errorf("%s is not canonical", args[0])
	}
	if err := storage.Save(args[0], doc, storage.SaveOptions{}); err != nil {
		return err
	}
	fmt.Printf("✓ Formatted %s\n", args[0])
	return nil
}

// --- diagram ---

var (
	diagramFormat string
	diagramOut    string
)

var diagramCmd = &cobra.Command{
	Use:   "diagram [script.json]",
	Short: "Render the step flow as a diagram",
	Long:  "Render the step flow as a Mermaid flowchart or an ASCII box diagram.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagram,
}

func runDiagram(cmd *cobra.Command, args []string) error {
	s, err := loadStep(args[0])
	if err != nil {
		return err
	}

	name := diagramFormat
	if name == "" {
		name = workspace.DiagramFormat
	}
	if name == "" {
		name = "mermaid"
	}
	var format diagram.Format
	switch name {
	case "mermaid":
		format = diagram.FormatMermaid
	case "ascii":
		format = diagram.FormatASCII
	default:
		return fmt.Errorf("unknown format %q (mermaid or ascii)", name)
	}

	out, err := diagram.Generate(s, format)
	if err != nil {
		return err
	}
	if diagramOut != "" {
		if err := os.WriteFile(diagramOut, []byte(out), 0644); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s diagram to %s\n", name, diagramOut)
		return nil
	}
	fmt.Println(out)
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mast %s (build: %s)\n", version, commit)
	},
}

func init() {
	// validate flags
	validateCmd.Flags().BoolVar(&validateCompat, "compat", false, "Also check legacy-conversion compatibility")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output the result as structured JSON")

	// migrate flags
	migrateCmd.Flags().StringVarP(&migrateOut, "out", "o", "", "Output path (default <name>.script.json)")
	migrateCmd.Flags().BoolVar(&migrateCheck, "check", false, "Validate the migration without writing")

	// convert flags
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Output path (default <name>.legacy.json)")

	// inspect flags
	inspectCmd.Flags().StringVar(&inspectStep, "step", "", "Show one step in detail (id or order number)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON")

	// merge flags
	mergeCmd.Flags().StringVar(&mergeSteps, "steps", "", "Steps to merge, comma-separated (ids or order numbers)")
	mergeCmd.Flags().StringVar(&mergeDescription, "description", "", "Description for the merged step (default: parts joined with '; ')")
	mergeCmd.Flags().StringVar(&mergeExpected, "expected", "", "Expected result for the merged step")
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "Output path (default: in place)")
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Preview the merge without writing")

	// split flags
	splitCmd.Flags().StringVar(&splitStep, "step", "", "Step to split (id or order number)")
	splitCmd.Flags().StringVar(&splitPlan, "plan", "", "JSON or YAML file with the split parts")
	splitCmd.Flags().IntVar(&splitSuggest, "suggest", 0, "Print a suggested N-way plan instead of splitting")
	splitCmd.Flags().StringVarP(&splitOut, "out", "o", "", "Output path (default: in place)")
	splitCmd.Flags().BoolVar(&splitDryRun, "dry-run", false, "Preview the split without writing")

	// update-action flags
	updateActionCmd.Flags().StringVar(&updateActionID, "action", "", "Pool action id to update")
	updateActionCmd.Flags().StringVar(&updatePatch, "patch", "", "JSON file with the new action ('-' for stdin)")
	updateActionCmd.Flags().StringVarP(&updateOut, "out", "o", "", "Output path (default: in place)")

	// query flags
	queryCmd.Flags().BoolVar(&queryOverSteps, "steps", false, "Query steps instead of actions")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output matches as JSON")
	queryCmd.Flags().BoolVar(&queryCount, "count", false, "Print only the match count")

	// fix flags
	fixCmd.Flags().StringVarP(&fixOut, "out", "o", "", "Output path (default: in place)")

	// fmt flags
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "Report without rewriting; non-zero exit when not canonical")

	// diagram flags
	diagramCmd.Flags().StringVar(&diagramFormat, "format", "", "Diagram format: mermaid or ascii (default mermaid)")
	diagramCmd.Flags().StringVarP(&diagramOut, "out", "o", "", "Write the diagram to a file instead of stdout")

	// root subcommands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(updateActionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(versionCmd)
}
