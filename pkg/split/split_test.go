package split

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// splitFixture builds a three-step script whose middle step holds five
// actions with two pronounced pauses (after b2 and after b4), so gap-based
// suggestions have something to find.
func splitFixture() *script.TestScript {
	fx := func(v float64) *float64 { return &v }
	tx := func(v string) *string { return &v }
	return &script.TestScript{
		Meta: script.Meta{
			Version:     script.VersionStep,
			CreatedAt:   "2026-02-01T14:30:00Z",
			Duration:    6.0,
			ActionCount: 7,
			Platform:    "macos",
			Title:       "Checkout flow",
		},
		Steps: []script.TestStep{
			{ID: "step_before", Order: 1, Description: "Launch", ActionIDs: []string{"m0"}},
			{ID: "step_big", Order: 2, Description: "Do everything", ExpectedResult: "App responds",
				ActionIDs: []string{"b1", "b2", "b3", "b4", "b5"}, ContinueOnFailure: true},
			{ID: "step_after", Order: 3, Description: "Wrap up", ActionIDs: []string{"m9"}},
		},
		ActionPool: map[string]script.Action{
			"m0": {ID: "m0", Type: script.ActionMouseMove, Timestamp: 0.10, X: fx(5), Y: fx(5)},
			"b1": {ID: "b1", Type: script.ActionMouseClick, Timestamp: 0.40, X: fx(30), Y: fx(40), Button: script.ButtonLeft},
			"b2": {ID: "b2", Type: script.ActionKeyPress, Timestamp: 0.55, Key: "tab"},
			"b3": {ID: "b3", Type: script.ActionWait, Timestamp: 2.60, Duration: 0.2},
			"b4": {ID: "b4", Type: script.ActionTypeText, Timestamp: 2.90, Text: tx("4111")},
			"b5": {ID: "b5", Type: script.ActionScreenshot, Timestamp: 5.00, Screenshot: "shots/cart.png"},
			"m9": {ID: "m9", Type: script.ActionKeyPress, Timestamp: 6.00, Key: "escape"},
		},
		Variables: map[string]string{},
	}
}

func twoWayRequest() Request {
	return Request{
		StepID: "step_big",
		Splits: []Spec{
			{Description: "Fill the form", ExpectedResult: "Fields populated", ActionIDs: []string{"b1", "b2", "b3"}},
			{Description: "Confirm", ActionIDs: []string{"b4", "b5"}},
		},
	}
}

func TestSplitReplacesStepInPlace(t *testing.T) {
	s := splitFixture()

	res, err := Split(s, twoWayRequest())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	out := res.Script
	if len(out.Steps) != 4 {
		t.Fatalf("got %d steps, want 4", len(out.Steps))
	}
	if _, ok := out.StepByID("step_big"); ok {
		t.Error("original step should be gone")
	}
	if len(res.NewStepIDs) != 2 {
		t.Fatalf("got %d new ids, want 2", len(res.NewStepIDs))
	}

	sorted := script.SortedSteps(out)
	wantIDs := []string{"step_before", res.NewStepIDs[0], res.NewStepIDs[1], "step_after"}
	for i, st := range sorted {
		if st.ID != wantIDs[i] {
			t.Errorf("position %d: got %s, want %s", i, st.ID, wantIDs[i])
		}
		if st.Order != i+1 {
			t.Errorf("step %s order = %d, want %d", st.ID, st.Order, i+1)
		}
	}
	for _, id := range res.NewStepIDs {
		if !strings.HasPrefix(id, "step_") {
			t.Errorf("new id %q lacks step_ prefix", id)
		}
	}
	if res.NewStepIDs[0] == res.NewStepIDs[1] {
		t.Error("new step ids collide")
	}
}

func TestSplitAssignsActionsPerSpec(t *testing.T) {
	s := splitFixture()
	req := twoWayRequest()

	res, err := Split(s, req)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i, id := range res.NewStepIDs {
		st, ok := res.Script.StepByID(id)
		if !ok {
			t.Fatalf("new step %s missing", id)
		}
		if !reflect.DeepEqual(st.ActionIDs, req.Splits[i].ActionIDs) {
			t.Errorf("part %d action ids = %v, want %v", i, st.ActionIDs, req.Splits[i].ActionIDs)
		}
		if st.Description != req.Splits[i].Description {
			t.Errorf("part %d description = %q", i, st.Description)
		}
	}
	if !reflect.DeepEqual(res.Script.ActionPool, s.ActionPool) {
		t.Error("split changed the action pool")
	}
}

func TestSplitContinueOnFailure(t *testing.T) {
	s := splitFixture()
	no := false

	req := twoWayRequest()
	req.Splits[1].ContinueOnFailure = &no

	res, err := Split(s, req)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	first, _ := res.Script.StepByID(res.NewStepIDs[0])
	second, _ := res.Script.StepByID(res.NewStepIDs[1])
	if !first.ContinueOnFailure {
		t.Error("part without override should inherit the original flag")
	}
	if second.ContinueOnFailure {
		t.Error("explicit override should win over inheritance")
	}
}

func TestSplitDoesNotMutateInput(t *testing.T) {
	s := splitFixture()
	before, err := script.Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if _, err := Split(s, twoWayRequest()); err != nil {
		t.Fatalf("Split: %v", err)
	}

	after, err := script.Serialize(s)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("input script changed during split")
	}
}

func TestSplitUnknownStep(t *testing.T) {
	req := twoWayRequest()
	req.StepID = "step_nope"
	_, err := Split(splitFixture(), req)
	if !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("error = %v, want ErrStepNotFound", err)
	}
}

func TestSplitTooFewParts(t *testing.T) {
	req := Request{StepID: "step_big", Splits: []Spec{
		{Description: "Everything", ActionIDs: []string{"b1", "b2", "b3", "b4", "b5"}},
	}}
	_, err := Split(splitFixture(), req)
	if !errors.Is(err, ErrTooFewSplits) {
		t.Fatalf("error = %v, want ErrTooFewSplits", err)
	}
}

func TestSplitRejectsIncompletePartition(t *testing.T) {
	req := Request{StepID: "step_big", Splits: []Spec{
		{Description: "Start", ActionIDs: []string{"b1", "b2"}},
		{Description: "End", ActionIDs: []string{"b4", "b5"}}, // b3 left behind
	}}
	_, err := Split(splitFixture(), req)
	if err == nil || !strings.Contains(err.Error(), "not assigned") {
		t.Fatalf("error = %v, want unassigned-action failure", err)
	}
}

func TestValidateSplittingOK(t *testing.T) {
	res := ValidateSplitting(splitFixture(), twoWayRequest())
	if !res.Valid || len(res.Errors) != 0 {
		t.Fatalf("result = %+v, want valid", res)
	}
}

func TestValidateSplittingCollectsEverything(t *testing.T) {
	req := Request{
		StepID: "step_big",
		Splits: []Spec{
			{Description: "", ActionIDs: []string{"b1", "b1"}},
			{Description: "ok", ActionIDs: []string{"b1", "m9", "ghost"}},
		},
	}
	res := ValidateSplitting(splitFixture(), req)
	if res.Valid {
		t.Fatal("request should be invalid")
	}
	for _, want := range []string{
		"description must not be empty",
		"listed twice in this split",
		`already assigned to splits[0]`,
		"is not part of step",
		"is not in the action pool",
		"is not assigned to any split",
	} {
		if !containsMessage(res.Errors, want) {
			t.Errorf("missing error containing %q in %v", want, res.Errors)
		}
	}
}

func TestValidateSplittingEmptyPart(t *testing.T) {
	req := Request{StepID: "step_big", Splits: []Spec{
		{Description: "All of it", ActionIDs: []string{"b1", "b2", "b3", "b4", "b5"}},
		{Description: "Nothing"},
	}}
	res := ValidateSplitting(splitFixture(), req)
	if !containsMessage(res.Errors, "at least one action") {
		t.Fatalf("errors = %v, want empty-part failure", res.Errors)
	}
}

func TestValidateSplittingUnknownStep(t *testing.T) {
	res := ValidateSplitting(splitFixture(), Request{StepID: "step_nope"})
	if res.Valid || len(res.Errors) != 1 {
		t.Fatalf("result = %+v, want exactly the unknown-step error", res)
	}
	if !containsMessage(res.Errors, "does not exist") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestValidateSplittingRequiresTwoParts(t *testing.T) {
	req := Request{StepID: "step_big", Splits: []Spec{
		{Description: "Everything", ActionIDs: []string{"b1", "b2", "b3", "b4", "b5"}},
	}}
	res := ValidateSplitting(splitFixture(), req)
	if !containsMessage(res.Errors, "requires at least two parts") {
		t.Fatalf("errors = %v", res.Errors)
	}
}

func TestValidateSplittingNilScript(t *testing.T) {
	res := ValidateSplitting(nil, twoWayRequest())
	if res.Valid || !containsMessage(res.Errors, "script is nil") {
		t.Fatalf("result = %+v", res)
	}
}

func TestStat(t *testing.T) {
	st, err := Stat(splitFixture(), "step_big")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.StepID != "step_big" || st.ActionCount != 5 || st.MaxParts != 5 {
		t.Errorf("stats = %+v", st)
	}
	if !near(st.StartTime, 0.40) || !near(st.EndTime, 5.00) || !near(st.Span, 4.60) {
		t.Errorf("time window = [%v, %v] span %v", st.StartTime, st.EndTime, st.Span)
	}
	if len(st.Gaps) != 4 {
		t.Fatalf("got %d gaps, want 4", len(st.Gaps))
	}
	if st.Gaps[1].AfterIndex != 1 || !near(st.Gaps[1].Seconds, 2.05) {
		t.Errorf("gap after b2 = %+v", st.Gaps[1])
	}
	if st.Gaps[3].AfterIndex != 3 || !near(st.Gaps[3].Seconds, 2.10) {
		t.Errorf("gap after b4 = %+v", st.Gaps[3])
	}
}

func TestStatSkipsUnresolved(t *testing.T) {
	s := splitFixture()
	s.Steps[1].ActionIDs = []string{"b1", "ghost", "b2"}

	st, err := Stat(s, "step_big")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.ActionCount != 3 || st.MaxParts != 3 {
		t.Errorf("counts = %+v, unresolved ids still count as actions", st)
	}
	// Only one gap: b1 → b2. The ghost contributes no timestamp.
	if len(st.Gaps) != 1 || st.Gaps[0].AfterIndex != 0 || !near(st.Gaps[0].Seconds, 0.15) {
		t.Errorf("gaps = %+v", st.Gaps)
	}
}

func TestStatUnknownStep(t *testing.T) {
	if _, err := Stat(splitFixture(), "step_nope"); !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("error = %v, want ErrStepNotFound", err)
	}
}

func TestPreviewSplit(t *testing.T) {
	s := splitFixture()
	before, _ := script.Serialize(s)

	pv, err := PreviewSplit(s, twoWayRequest())
	if err != nil {
		t.Fatalf("PreviewSplit: %v", err)
	}
	if pv.StepsAfterSplit != 4 {
		t.Errorf("StepsAfterSplit = %d, want 4", pv.StepsAfterSplit)
	}
	if len(pv.Parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(pv.Parts))
	}
	if pv.Parts[0].ActionCount != 3 || !near(pv.Parts[0].StartTime, 0.40) || !near(pv.Parts[0].EndTime, 2.60) {
		t.Errorf("part 0 = %+v", pv.Parts[0])
	}
	if pv.Parts[1].ActionCount != 2 || !near(pv.Parts[1].StartTime, 2.90) || !near(pv.Parts[1].EndTime, 5.00) {
		t.Errorf("part 1 = %+v", pv.Parts[1])
	}

	after, _ := script.Serialize(s)
	if !bytes.Equal(before, after) {
		t.Error("preview modified the script")
	}
}

func TestPreviewSplitRejectsBadRequest(t *testing.T) {
	req := twoWayRequest()
	req.Splits[0].ActionIDs = []string{"b1"}
	if _, err := PreviewSplit(splitFixture(), req); err == nil {
		t.Fatal("expected error for incomplete partition")
	}
}

func TestSuggestCutsAtWidestGaps(t *testing.T) {
	specs, err := Suggest(splitFixture(), "step_big", 3)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("got %d specs, want 3", len(specs))
	}

	want := [][]string{{"b1", "b2"}, {"b3", "b4"}, {"b5"}}
	for i, sp := range specs {
		if !reflect.DeepEqual(sp.ActionIDs, want[i]) {
			t.Errorf("part %d = %v, want %v", i, sp.ActionIDs, want[i])
		}
	}
	if specs[0].Description != "Do everything (part 1 of 3)" {
		t.Errorf("part 1 description = %q", specs[0].Description)
	}
	if specs[2].Description != "Do everything (part 3 of 3)" {
		t.Errorf("part 3 description = %q", specs[2].Description)
	}
}

func TestSuggestFallbackDescription(t *testing.T) {
	s := splitFixture()
	s.Steps[1].Description = ""

	specs, err := Suggest(s, "step_big", 2)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if specs[0].Description != "Part 1 of 2" || specs[1].Description != "Part 2 of 2" {
		t.Errorf("descriptions = %q, %q", specs[0].Description, specs[1].Description)
	}
}

func TestSuggestErrors(t *testing.T) {
	s := splitFixture()

	if _, err := Suggest(s, "step_big", 1); err == nil || !strings.Contains(err.Error(), "at least 2 parts") {
		t.Errorf("k=1 error = %v", err)
	}
	if _, err := Suggest(s, "step_big", 6); err == nil || !strings.Contains(err.Error(), "cannot make 6 parts") {
		t.Errorf("k>n error = %v", err)
	}
	if _, err := Suggest(s, "step_nope", 2); !errors.Is(err, ErrStepNotFound) {
		t.Errorf("unknown step error = %v", err)
	}

	s.Steps[1].ActionIDs = []string{"b1", "ghost", "b2"}
	if _, err := Suggest(s, "step_big", 3); err == nil || !strings.Contains(err.Error(), "resolve in the pool") {
		t.Errorf("unresolved error = %v", err)
	}
}

func TestSuggestThenSplitRoundTrip(t *testing.T) {
	s := splitFixture()

	specs, err := Suggest(s, "step_big", 3)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	req := Request{StepID: "step_big", Splits: specs}
	if res := ValidateSplitting(s, req); !res.Valid {
		t.Fatalf("suggested plan should validate: %v", res.Errors)
	}

	res, err := Split(s, req)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Script.Steps) != 5 {
		t.Errorf("got %d steps, want 5", len(res.Script.Steps))
	}
	if v := validate.Script(res.Script); !v.Valid {
		t.Errorf("split output fails validation: %v", v.Errors)
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

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
