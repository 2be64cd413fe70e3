// Package split partitions one test step's action references into two or
// more new steps per an explicit assignment. All operations are pure: the
// input script is never mutated.
package split

import (
	"errors"
	"fmt"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// PhaseSplit marks findings produced by ValidateSplitting.
const PhaseSplit = "split"

var (
	// ErrStepNotFound rejects a request naming a step the script lacks.
	ErrStepNotFound = errors.New("step not found")
	// ErrTooFewSplits rejects requests with fewer than two parts.
	ErrTooFewSplits = errors.New("at least two splits are required")
)

// Spec describes one new step of a split. ContinueOnFailure nil inherits
// the original step's flag. Plan files are accepted in JSON or YAML, so both
// tag sets matter.
type Spec struct {
	Description       string   `json:"description" yaml:"description"`
	ExpectedResult    string   `json:"expected_result" yaml:"expected_result"`
	ActionIDs         []string `json:"action_ids" yaml:"action_ids"`
	ContinueOnFailure *bool    `json:"continue_on_failure,omitempty" yaml:"continue_on_failure,omitempty"`
}

// Request is a full split assignment for one step.
type Request struct {
	StepID string `json:"step_id"`
	Splits []Spec `json:"splits"`
}

// Result carries the outcome of a successful split.
type Result struct {
	Script     *script.TestScript `json:"-"`
	NewStepIDs []string           `json:"new_step_ids"`
}

// ValidateSplitting is the required pre-check. All of the following must
// hold: the target step exists; there are at least two splits; every split
// has a non-empty description; the splits' action ids are pairwise
// disjoint; their union exactly equals the original step's action ids; and
// every referenced action resolves in the pool.
func ValidateSplitting(s *script.TestScript, req Request) validate.Result {
	var errs []*validate.ValidationError
	if s == nil {
		errs = append(errs, validate.Errorf(PhaseSplit, "", "script is nil"))
		return validate.ResultOf(errs)
	}

	target, ok := s.StepByID(req.StepID)
	if !ok {
		errs = append(errs, validate.Errorf(PhaseSplit, "step_id",
			"step %q does not exist", req.StepID))
		return validate.ResultOf(errs)
	}

	if len(req.Splits) < 2 {
		errs = append(errs, validate.Errorf(PhaseSplit, "splits",
			"splitting requires at least two parts (got %d)", len(req.Splits)))
	}

	original := map[string]bool{}
	for _, id := range target.ActionIDs {
		original[id] = true
	}

	assigned := map[string]int{} // id → split index that claimed it
	for i, sp := range req.Splits {
		field := fmt.Sprintf("splits[%d]", i)
		if sp.Description == "" {
			errs = append(errs, validate.Errorf(PhaseSplit, field+".description",
				"split description must not be empty"))
		}
		if len(sp.ActionIDs) == 0 {
			errs = append(errs, validate.Errorf(PhaseSplit, field+".action_ids",
				"split must contain at least one action"))
		}
		inThis := map[string]bool{}
		for j, id := range sp.ActionIDs {
			idField := fmt.Sprintf("%s.action_ids[%d]", field, j)
			if inThis[id] {
				errs = append(errs, validate.Errorf(PhaseSplit, idField,
					"action %q listed twice in this split", id))
				continue
			}
			inThis[id] = true
			if prev, taken := assigned[id]; taken {
				errs = append(errs, validate.Errorf(PhaseSplit, idField,
					"action %q already assigned to splits[%d]", id, prev))
				continue
			}
			assigned[id] = i
			if !original[id] {
				errs = append(errs, validate.Errorf(PhaseSplit, idField,
					"action %q is not part of step %q", id, req.StepID))
			}
			if _, ok := s.ActionPool[id]; !ok {
				errs = append(errs, validate.Errorf(PhaseSplit, idField,
					"action %q is not in the action pool", id))
			}
		}
	}

	for _, id := range target.ActionIDs {
		if _, ok := assigned[id]; !ok {
			errs = append(errs, validate.Errorf(PhaseSplit, "splits",
				"action %q from the original step is not assigned to any split", id))
		}
	}

	return validate.ResultOf(errs)
}

// Split replaces the target step with the requested parts. New steps take
// the original's position with fresh ids, and all steps renumber densely.
// The pool is untouched. On any validation failure nothing applies and the
// returned error describes the first problem.
func Split(s *script.TestScript, req Request) (*Result, error) {
	if s == nil {
		return nil, errors.New("split: script is nil")
	}
	if _, ok := s.StepByID(req.StepID); !ok {
		return nil, fmt.Errorf("split: %w: %q", ErrStepNotFound, req.StepID)
	}
	if len(req.Splits) < 2 {
		return nil, fmt.Errorf("split: %w (got %d)", ErrTooFewSplits, len(req.Splits))
	}
	if res := ValidateSplitting(s, req); !res.Valid {
		return nil, fmt.Errorf("split: %s", res.Errors[0].Message)
	}

	out := s.Clone()
	sorted := script.SortedSteps(out)
	pos := -1
	var target script.TestStep
	for i, st := range sorted {
		if st.ID == req.StepID {
			pos = i
			target = st
			break
		}
	}

	created := make([]script.TestStep, len(req.Splits))
	newIDs := make([]string, len(req.Splits))
	for i, sp := range req.Splits {
		cof := target.ContinueOnFailure
		if sp.ContinueOnFailure != nil {
			cof = *sp.ContinueOnFailure
		}
		ids := make([]string, len(sp.ActionIDs))
		copy(ids, sp.ActionIDs)
		created[i] = script.TestStep{
			ID:                script.NewStepID(),
			Description:       sp.Description,
			ExpectedResult:    sp.ExpectedResult,
			ActionIDs:         ids,
			ContinueOnFailure: cof,
		}
		newIDs[i] = created[i].ID
	}

	steps := make([]script.TestStep, 0, len(sorted)-1+len(created))
	steps = append(steps, sorted[:pos]...)
	steps = append(steps, created...)
	steps = append(steps, sorted[pos+1:]...)
	script.Renumber(steps)
	out.Steps = steps

	return &Result{Script: out, NewStepIDs: newIDs}, nil
}
