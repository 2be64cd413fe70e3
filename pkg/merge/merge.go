// Package merge combines two or more test steps into one, preserving
// chronological action order and dense step numbering. All operations are
// pure: the input script is never mutated.
package merge

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// PhaseMerge marks findings produced by ValidateMerging.
const PhaseMerge = "merge"

var (
	// ErrTooFewSteps rejects selections of fewer than two steps.
	ErrTooFewSteps = errors.New("at least two steps are required")
	// ErrStepNotFound rejects a selection naming a step the script lacks.
	ErrStepNotFound = errors.New("step not found")
	// ErrDuplicateSelection rejects the same step selected twice.
	ErrDuplicateSelection = errors.New("step selected more than once")
)

// Options overrides the generated description and expected result of the
// merged step. Empty fields keep the generated concatenations.
type Options struct {
	Description    string
	ExpectedResult string
}

// Preview is the merged step as Merge would build it, without applying it.
type Preview struct {
	StepID            string   `json:"step_id"`
	Description       string   `json:"description"`
	ExpectedResult    string   `json:"expected_result"`
	ActionIDs         []string `json:"action_ids"`
	ContinueOnFailure bool     `json:"continue_on_failure"`
	StepsAfterMerge   int      `json:"steps_after_merge"`
}

// ValidateMerging is the side-effect-free pre-check. It collects every
// selection problem instead of stopping at the first, so the UI can show
// them all at once.
func ValidateMerging(s *script.TestScript, stepIDs []string) validate.Result {
	var errs []*validate.ValidationError
	if s == nil {
		errs = append(errs, validate.Errorf(PhaseMerge, "", "script is nil"))
		return validate.ResultOf(errs)
	}
	if len(stepIDs) < 2 {
		errs = append(errs, validate.Errorf(PhaseMerge, "step_ids",
			"merging requires at least two steps (got %d)", len(stepIDs)))
	}
	seen := map[string]bool{}
	for i, id := range stepIDs {
		field := fmt.Sprintf("step_ids[%d]", i)
		if seen[id] {
			errs = append(errs, validate.Errorf(PhaseMerge, field,
				"step %q selected more than once", id))
			continue
		}
		seen[id] = true
		if _, ok := s.StepByID(id); !ok {
			errs = append(errs, validate.Errorf(PhaseMerge, field,
				"step %q does not exist", id))
		}
	}
	return validate.ResultOf(errs)
}

// Merge combines the selected steps into one and returns the resulting
// script. The input script is untouched, even on failure.
//
// The merged step keeps the identity of the lowest-order selected step. Its
// action ids are the concatenation of the selected steps' ids (ascending
// step order) stably sorted by the referenced actions' timestamps; ids that
// do not resolve in the pool hold their original positions. Its
// continue_on_failure is the OR across the selected steps. The remaining
// steps renumber densely.
func Merge(s *script.TestScript, stepIDs []string, opts Options) (*script.TestScript, error) {
	selected, err := resolveSelection(s, stepIDs)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	out := s.Clone()
	merged := buildMergedStep(out, selected, opts)

	isSelected := map[string]bool{}
	for _, st := range selected {
		isSelected[st.ID] = true
	}

	steps := make([]script.TestStep, 0, len(out.Steps)-len(selected)+1)
	for _, st := range script.SortedSteps(out) {
		switch {
		case st.ID == merged.ID:
			steps = append(steps, merged)
		case isSelected[st.ID]:
			// dropped into the merged step
		default:
			steps = append(steps, st)
		}
	}
	script.Renumber(steps)
	out.Steps = steps
	return out, nil
}

// PreviewMerged computes the merged step without modifying anything.
func PreviewMerged(s *script.TestScript, stepIDs []string, opts Options) (*Preview, error) {
	selected, err := resolveSelection(s, stepIDs)
	if err != nil {
		return nil, fmt.Errorf("merge preview: %w", err)
	}
	merged := buildMergedStep(s, selected, opts)
	return &Preview{
		StepID:            merged.ID,
		Description:       merged.Description,
		ExpectedResult:    merged.ExpectedResult,
		ActionIDs:         merged.ActionIDs,
		ContinueOnFailure: merged.ContinueOnFailure,
		StepsAfterMerge:   len(s.Steps) - len(selected) + 1,
	}, nil
}

// resolveSelection maps stepIDs to steps, sorted by ascending order. A
// missing or duplicated id fails the whole selection so the caller mutates
// nothing.
func resolveSelection(s *script.TestScript, stepIDs []string) ([]script.TestStep, error) {
	if s == nil {
		return nil, errors.New("script is nil")
	}
	if len(stepIDs) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewSteps, len(stepIDs))
	}
	seen := map[string]bool{}
	selected := make([]script.TestStep, 0, len(stepIDs))
	for _, id := range stepIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSelection, id)
		}
		seen[id] = true
		st, ok := s.StepByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrStepNotFound, id)
		}
		selected = append(selected, st)
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Order < selected[j].Order
	})
	return selected, nil
}

// buildMergedStep assembles the combined step from an order-sorted
// selection.
func buildMergedStep(s *script.TestScript, selected []script.TestStep, opts Options) script.TestStep {
	var combined []string
	cof := false
	for _, st := range selected {
		combined = append(combined, st.ActionIDs...)
		cof = cof || st.ContinueOnFailure
	}

	desc := opts.Description
	if desc == "" {
		desc = joinParts(selected, func(st script.TestStep) string { return st.Description })
		if desc == "" {
			desc = "Merged step"
		}
	}
	expected := opts.ExpectedResult
	if expected == "" {
		expected = joinParts(selected, func(st script.TestStep) string { return st.ExpectedResult })
	}

	return script.TestStep{
		ID:                selected[0].ID,
		Order:             selected[0].Order,
		Description:       desc,
		ExpectedResult:    expected,
		ActionIDs:         script.SortIDsByTimestamp(s.ActionPool, combined),
		ContinueOnFailure: cof,
	}
}

func joinParts(selected []script.TestStep, get func(script.TestStep) string) string {
	var parts []string
	for _, st := range selected {
		if v := get(st); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "; ")
}
