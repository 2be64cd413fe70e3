package merge

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// mergeFixture builds a four-step script whose pool timestamps interleave
// across steps, so a merge has to actually reorder. Steps are stored
// shuffled to make sure nothing depends on slice position.
func mergeFixture() *script.TestScript {
	fx := func(v float64) *float64 { return &v }
	return &script.TestScript{
		Meta: script.Meta{
			Version:     script.VersionStep,
			CreatedAt:   "2026-01-10T09:00:00Z",
			Duration:    2.0,
			ActionCount: 5,
			Platform:    "windows",
			Title:       "Login flow",
		},
		Steps: []script.TestStep{
			{ID: "step_2", Order: 2, Description: "Open menu", ExpectedResult: "Menu appears", ActionIDs: []string{"m2"}, ContinueOnFailure: true},
			{ID: "step_1", Order: 1, Description: "Approach target", ExpectedResult: "Cursor in place", ActionIDs: []string{"m1", "m3"}},
			{ID: "step_4", Order: 4, Description: "Capture", ActionIDs: []string{"m5"}},
			{ID: "step_3", Order: 3, Description: "Settle", ActionIDs: []string{"m4"}},
		},
		ActionPool: map[string]script.Action{
			"m1": {ID: "m1", Type: script.ActionMouseMove, Timestamp: 0.10, X: fx(10), Y: fx(20)},
			"m2": {ID: "m2", Type: script.ActionMouseClick, Timestamp: 0.35, X: fx(10), Y: fx(20), Button: script.ButtonLeft},
			"m3": {ID: "m3", Type: script.ActionKeyPress, Timestamp: 0.90, Key: "enter"},
			"m4": {ID: "m4", Type: script.ActionWait, Timestamp: 1.50, Duration: 0.25},
			"m5": {ID: "m5", Type: script.ActionScreenshot, Timestamp: 2.00, Screenshot: "shots/final.png"},
		},
		Variables: map[string]string{},
	}
}

func TestMergeCombinesChronologically(t *testing.T) {
	s := mergeFixture()

	out, err := Merge(s, []string{"step_1", "step_2"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(out.Steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(out.Steps))
	}

	merged, ok := out.StepByID("step_1")
	if !ok {
		t.Fatal("merged step step_1 missing")
	}
	// m3 (0.90) trails m2 (0.35) even though step_1 contributed it first.
	want := []string{"m1", "m2", "m3"}
	if !reflect.DeepEqual(merged.ActionIDs, want) {
		t.Errorf("merged action ids = %v, want %v", merged.ActionIDs, want)
	}
	if merged.Order != 1 {
		t.Errorf("merged order = %d, want 1", merged.Order)
	}
	if _, ok := out.StepByID("step_2"); ok {
		t.Error("step_2 should have been absorbed")
	}
}

func TestMergeSelectionOrderIrrelevant(t *testing.T) {
	a, err := Merge(mergeFixture(), []string{"step_1", "step_2"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	b, err := Merge(mergeFixture(), []string{"step_2", "step_1"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	ab, _ := script.Serialize(a)
	bb, _ := script.Serialize(b)
	if !bytes.Equal(ab, bb) {
		t.Error("merge result depends on selection order")
	}
}

func TestMergeJoinsText(t *testing.T) {
	out, err := Merge(mergeFixture(), []string{"step_2", "step_1"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	merged, _ := out.StepByID("step_1")

	// Parts join in ascending step order, not selection order.
	if merged.Description != "Approach target; Open menu" {
		t.Errorf("description = %q", merged.Description)
	}
	if merged.ExpectedResult != "Cursor in place; Menu appears" {
		t.Errorf("expected result = %q", merged.ExpectedResult)
	}
}

func TestMergeFallbackDescription(t *testing.T) {
	s := mergeFixture()
	for i := range s.Steps {
		if s.Steps[i].ID == "step_3" || s.Steps[i].ID == "step_4" {
			s.Steps[i].Description = ""
		}
	}

	out, err := Merge(s, []string{"step_3", "step_4"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	merged, _ := out.StepByID("step_3")
	if merged.Description != "Merged step" {
		t.Errorf("description = %q, want %q", merged.Description, "Merged step")
	}
	if merged.ExpectedResult != "" {
		t.Errorf("expected result = %q, want empty", merged.ExpectedResult)
	}
}

func TestMergeOptionsOverride(t *testing.T) {
	opts := Options{Description: "Open the app menu", ExpectedResult: "Menu is visible"}
	out, err := Merge(mergeFixture(), []string{"step_1", "step_2"}, opts)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	merged, _ := out.StepByID("step_1")
	if merged.Description != opts.Description {
		t.Errorf("description = %q", merged.Description)
	}
	if merged.ExpectedResult != opts.ExpectedResult {
		t.Errorf("expected result = %q", merged.ExpectedResult)
	}
}

func TestMergeORsContinueOnFailure(t *testing.T) {
	out, err := Merge(mergeFixture(), []string{"step_1", "step_2"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged, _ := out.StepByID("step_1"); !merged.ContinueOnFailure {
		t.Error("continue_on_failure should survive from step_2")
	}

	out, err = Merge(mergeFixture(), []string{"step_3", "step_4"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged, _ := out.StepByID("step_3"); merged.ContinueOnFailure {
		t.Error("continue_on_failure should stay false when no input had it")
	}
}

func TestMergeRenumbersDensely(t *testing.T) {
	// Non-adjacent selection leaves a gap that renumbering must close.
	out, err := Merge(mergeFixture(), []string{"step_1", "step_3"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	var ids []string
	for i, st := range script.SortedSteps(out) {
		if st.Order != i+1 {
			t.Errorf("step %s order = %d, want %d", st.ID, st.Order, i+1)
		}
		ids = append(ids, st.ID)
	}
	want := []string{"step_1", "step_2", "step_4"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("surviving steps = %v, want %v", ids, want)
	}
}

func TestMergePinsUnresolvedReferences(t *testing.T) {
	s := mergeFixture()
	for i := range s.Steps {
		if s.Steps[i].ID == "step_1" {
			s.Steps[i].ActionIDs = []string{"m1", "ghost", "m3"}
		}
	}

	out, err := Merge(s, []string{"step_1", "step_2"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	merged, _ := out.StepByID("step_1")
	want := []string{"m1", "ghost", "m2", "m3"}
	if !reflect.DeepEqual(merged.ActionIDs, want) {
		t.Errorf("merged action ids = %v, want %v", merged.ActionIDs, want)
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	s := mergeFixture()
	before, err := script.Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if _, err := Merge(s, []string{"step_1", "step_2"}, Options{}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	after, err := script.Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("input script changed during merge")
	}
}

func TestMergeTooFewSteps(t *testing.T) {
	s := mergeFixture()
	for _, ids := range [][]string{nil, {"step_1"}} {
		out, err := Merge(s, ids, Options{})
		if !errors.Is(err, ErrTooFewSteps) {
			t.Errorf("Merge(%v) error = %v, want ErrTooFewSteps", ids, err)
		}
		if out != nil {
			t.Errorf("Merge(%v) returned a script on failure", ids)
		}
	}
}

func TestMergeUnknownStep(t *testing.T) {
	_, err := Merge(mergeFixture(), []string{"step_1", "step_9"}, Options{})
	if !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("error = %v, want ErrStepNotFound", err)
	}
	if !strings.Contains(err.Error(), "step_9") {
		t.Errorf("error %q does not name the missing step", err)
	}
}

func TestMergeDuplicateSelection(t *testing.T) {
	_, err := Merge(mergeFixture(), []string{"step_1", "step_1"}, Options{})
	if !errors.Is(err, ErrDuplicateSelection) {
		t.Fatalf("error = %v, want ErrDuplicateSelection", err)
	}
}

func TestMergeNilScript(t *testing.T) {
	if _, err := Merge(nil, []string{"a", "b"}, Options{}); err == nil {
		t.Fatal("expected error for nil script")
	}
}

func TestValidateMergingOK(t *testing.T) {
	res := ValidateMerging(mergeFixture(), []string{"step_1", "step_2"})
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("result = %+v, want valid", res)
	}
}

func TestValidateMergingCollectsEverything(t *testing.T) {
	res := ValidateMerging(mergeFixture(), []string{"step_1", "step_1", "step_9"})
	if res.Valid {
		t.Fatal("selection should be invalid")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(res.Errors), res.Errors)
	}
	if !containsMessage(res.Errors, "selected more than once") {
		t.Error("missing duplicate-selection error")
	}
	if !containsMessage(res.Errors, "does not exist") {
		t.Error("missing unknown-step error")
	}

	res = ValidateMerging(mergeFixture(), []string{"step_1"})
	if !containsMessage(res.Errors, "requires at least two steps") {
		t.Errorf("single selection errors = %v", res.Errors)
	}
}

func TestValidateMergingNilScript(t *testing.T) {
	res := ValidateMerging(nil, []string{"step_1", "step_2"})
	if res.Valid || !containsMessage(res.Errors, "script is nil") {
		t.Fatalf("result = %+v", res)
	}
}

func TestPreviewMergedMatchesMerge(t *testing.T) {
	s := mergeFixture()
	before, _ := script.Serialize(s)

	pv, err := PreviewMerged(s, []string{"step_1", "step_2"}, Options{})
	if err != nil {
		t.Fatalf("PreviewMerged: %v", err)
	}
	if pv.StepsAfterMerge != 3 {
		t.Errorf("StepsAfterMerge = %d, want 3", pv.StepsAfterMerge)
	}

	after, _ := script.Serialize(s)
	if !bytes.Equal(before, after) {
		t.Error("preview modified the script")
	}

	out, err := Merge(s, []string{"step_1", "step_2"}, Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	merged, _ := out.StepByID(pv.StepID)
	if merged.Description != pv.Description ||
		merged.ExpectedResult != pv.ExpectedResult ||
		merged.ContinueOnFailure != pv.ContinueOnFailure ||
		!reflect.DeepEqual(merged.ActionIDs, pv.ActionIDs) {
		t.Errorf("preview %+v does not match merged step %+v", pv, merged)
	}
}

// --- helpers ---

func containsMessage(errs []*validate.ValidationError, sub string) bool {
	for _, e := range errs {
		if strings.Contains(e.Message, sub) {
			return true
		}
	}
	return false
}
