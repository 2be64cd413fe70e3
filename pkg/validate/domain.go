package validate

import (
	"fmt"

	"github.com/maglevlabs/mast/pkg/script"
)

// validateDomain runs per-action content rules and the global chronology
// check. It only runs once semantic validation passed, so every referenced
// action resolves.
func validateDomain(s *script.TestScript) []*ValidationError {
	var errs []*ValidationError

	// D1..D5: per-action field requirements by type
	for id, a := range s.ActionPool {
		field := "action_pool." + id
		if !a.Type.Valid() {
			errs = append(errs, Errorf(PhaseDomain, field+".type",
				"unknown action type %q", a.Type))
			continue
		}
		if a.Type.IsMouse() {
			if a.X == nil || a.Y == nil {
				errs = append(errs, Errorf(PhaseDomain, field,
					"%s action requires numeric x and y", a.Type))
			}
		}
		if a.Type.IsClick() && !script.ValidButton(a.Button) {
			errs = append(errs, Errorf(PhaseDomain, field+".button",
				"%s action requires button left, right or middle (got %q)", a.Type, a.Button))
		}
		if a.Type.IsKey() && a.Key == "" {
			errs = append(errs, Errorf(PhaseDomain, field+".key",
				"%s action requires a non-empty key", a.Type))
		}
		if a.Type == script.ActionTypeText && a.Text == nil {
			errs = append(errs, Errorf(PhaseDomain, field+".text",
				"type_text action requires text"))
		}
		if a.Timestamp < 0 {
			errs = append(errs, Warningf(PhaseDomain, field+".timestamp",
				"negative timestamp %.3f", a.Timestamp))
		}
	}

	// D6: flattened timestamps must be non-decreasing across the whole
	// script (step order, then intra-step order)
	prev := 0.0
	prevField := ""
	first := true
	for _, st := range script.SortedSteps(s) {
		// Findings anchor to the stored slice position, not the execution
		// position.
		di := s.StepIndex(st.ID)
		for j, id := range st.ActionIDs {
			a, ok := s.ActionPool[id]
			if !ok {
				continue
			}
			field := fmt.Sprintf("steps[%d].action_ids[%d]", di, j)
			if !first && a.Timestamp < prev {
				errs = append(errs, Errorf(PhaseDomain, field,
					"action timestamps must be in ascending order: %.3f at %s follows %.3f at %s",
					a.Timestamp, field, prev, prevField))
			}
			prev = a.Timestamp
			prevField = field
			first = false
		}
	}

	return errs
}
