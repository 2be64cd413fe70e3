// Package query filters script steps and actions with expr-lang
// expressions. Expressions see one row at a time through a map environment:
// action queries get `action` and `step`, step queries get `step` alone,
// and both get the script's `vars`. Absent optional fields are nil, so
// guard them: `action.x != nil && action.x > 100`.
package query

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/maglevlabs/mast/pkg/script"
)

// ActionMatch pairs a matched action with the step referencing it.
// StepOrder 0 marks a pool orphan.
type ActionMatch struct {
	Action    script.Action `json:"action"`
	StepID    string        `json:"step_id,omitempty"`
	StepOrder int           `json:"step_order,omitempty"`
}

// Actions evaluates expression against every referenced action in document
// order (step order, then intra-step order), then against pool orphans in
// timestamp order. It returns the rows for which the expression is true.
func Actions(s *script.TestScript, expression string) ([]ActionMatch, error) {
	if s == nil {
		return nil, fmt.Errorf("query: script is nil")
	}
	program, err := compileBool(expression)
	if err != nil {
		return nil, err
	}

	var matches []ActionMatch
	referenced := map[string]bool{}
	for _, st := range script.SortedSteps(s) {
		for _, id := range st.ActionIDs {
			a, ok := s.ActionPool[id]
			if !ok {
				continue
			}
			if a.ID == "" {
				a.ID = id
			}
			referenced[id] = true
			ok, err := runBool(program, envFor(s, &a, &st))
			if err != nil {
				return nil, err
			}
			if ok {
				matches = append(matches, ActionMatch{Action: a, StepID: st.ID, StepOrder: st.Order})
			}
		}
	}

	orphans := make([]script.Action, 0)
	for id, a := range s.ActionPool {
		if !referenced[id] {
			if a.ID == "" {
				a.ID = id
			}
			orphans = append(orphans, a)
		}
	}
	sort.SliceStable(orphans, func(i, j int) bool {
		if orphans[i].Timestamp != orphans[j].Timestamp {
			return orphans[i].Timestamp < orphans[j].Timestamp
		}
		return orphans[i].ID < orphans[j].ID
	})
	for i := range orphans {
		ok, err := runBool(program, envFor(s, &orphans[i], nil))
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, ActionMatch{Action: orphans[i]})
		}
	}
	return matches, nil
}

// Steps evaluates expression against every step in order and returns the
// matches.
func Steps(s *script.TestScript, expression string) ([]script.TestStep, error) {
	if s == nil {
		return nil, fmt.Errorf("query: script is nil")
	}
	program, err := compileBool(expression)
	if err != nil {
		return nil, err
	}

	var matches []script.TestStep
	for _, st := range script.SortedSteps(s) {
		ok, err := runBool(program, envFor(s, nil, &st))
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, st)
		}
	}
	return matches, nil
}

func compileBool(expression string) (*vm.Program, error) {
	// Compile against the same env shape the rows carry; sub-keys stay
	// untyped maps so any field access resolves at runtime.
	prototype := map[string]any{
		"action": map[string]any{},
		"step":   map[string]any{},
		"vars":   map[string]string{},
	}
	program, err := expr.Compile(expression, expr.Env(prototype), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", expression, err)
	}
	return program, nil
}

func runBool(program *vm.Program, env map[string]any) (bool, error) {
	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval query: %w", err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("query did not return bool (got %T: %v)", output, output)
	}
	return result, nil
}

// envFor builds the expression environment for one row. Either action or
// step may be nil depending on the query kind.
func envFor(s *script.TestScript, a *script.Action, st *script.TestStep) map[string]any {
	env := map[string]any{
		"vars":   s.Variables,
		"action": map[string]any{},
	}

	if a != nil {
		actionEnv := map[string]any{
			"id":         a.ID,
			"type":       string(a.Type),
			"timestamp":  a.Timestamp,
			"button":     a.Button,
			"key":        a.Key,
			"duration":   a.Duration,
			"screenshot": a.Screenshot,
			"modifiers":  a.Modifiers,
			"x":          nil,
			"y":          nil,
			"text":       nil,
		}
		if a.X != nil {
			actionEnv["x"] = *a.X
		}
		if a.Y != nil {
			actionEnv["y"] = *a.Y
		}
		if a.Text != nil {
			actionEnv["text"] = *a.Text
		}
		env["action"] = actionEnv
	}

	if st != nil {
		start, end := 0.0, 0.0
		if s != nil {
			start, end = stepSpan(s, st)
		}
		env["step"] = map[string]any{
			"id":                  st.ID,
			"order":               st.Order,
			"description":         st.Description,
			"expected_result":     st.ExpectedResult,
			"action_count":        len(st.ActionIDs),
			"continue_on_failure": st.ContinueOnFailure,
			"start":               start,
			"end":                 end,
		}
	} else {
		env["step"] = map[string]any{"order": 0}
	}
	return env
}

func stepSpan(s *script.TestScript, st *script.TestStep) (start, end float64) {
	first := true
	for _, id := range st.ActionIDs {
		a, ok := s.ActionPool[id]
		if !ok {
			continue
		}
		if first || a.Timestamp < start {
			start = a.Timestamp
		}
		if first || a.Timestamp > end {
			end = a.Timestamp
		}
		first = false
	}
	return start, end
}
