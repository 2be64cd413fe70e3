package validate

import (
	"fmt"

	"github.com/maglevlabs/mast/pkg/script"
)

// validateSemantic checks referential integrity between steps and the pool.
func validateSemantic(s *script.TestScript) []*ValidationError {
	var errs []*ValidationError

	// M1: every action_ids entry must resolve in the pool
	for i, st := range s.Steps {
		for j, id := range st.ActionIDs {
			if _, ok := s.ActionPool[id]; !ok {
				errs = append(errs, Errorf(PhaseSemantic,
					fmt.Sprintf("steps[%d].action_ids[%d]", i, j),
					"action %q is not in the action pool", id))
			}
		}
	}

	// M2: step ids must be unique
	seen := map[string]int{}
	for i, st := range s.Steps {
		if st.ID == "" {
			continue
		}
		if prev, ok := seen[st.ID]; ok {
			errs = append(errs, Errorf(PhaseSemantic,
				fmt.Sprintf("steps[%d].id", i),
				"duplicate step id %q (first at steps[%d])", st.ID, prev))
		} else {
			seen[st.ID] = i
		}
	}

	// M3: order values must form a dense 1..N permutation
	n := len(s.Steps)
	orders := map[int]int{}
	for i, st := range s.Steps {
		if st.Order < 1 || st.Order > n {
			errs = append(errs, Errorf(PhaseSemantic,
				fmt.Sprintf("steps[%d].order", i),
				"order %d is outside 1..%d", st.Order, n))
			continue
		}
		if prev, ok := orders[st.Order]; ok {
			errs = append(errs, Errorf(PhaseSemantic,
				fmt.Sprintf("steps[%d].order", i),
				"duplicate order %d (first at steps[%d])", st.Order, prev))
		} else {
			orders[st.Order] = i
		}
	}

	// M4: a step referencing the same action twice is suspicious but legal;
	// legacy export collapses the duplicate
	for i, st := range s.Steps {
		dup := map[string]bool{}
		for j, id := range st.ActionIDs {
			if dup[id] {
				errs = append(errs, Warningf(PhaseSemantic,
					fmt.Sprintf("steps[%d].action_ids[%d]", i, j),
					"action %q referenced more than once in this step", id))
			}
			dup[id] = true
		}
	}

	// M5: pool entries must carry the id they are keyed by
	for id, a := range s.ActionPool {
		if a.ID != "" && a.ID != id {
			errs = append(errs, Errorf(PhaseSemantic,
				fmt.Sprintf("action_pool.%s.id", id),
				"pool entry id %q does not match its key", a.ID))
		}
	}

	// M6: action_count mirrors the pool size; mismatch is tolerated between
	// mutations
	if s.Meta.ActionCount != len(s.ActionPool) {
		errs = append(errs, Warningf(PhaseSemantic, "meta.action_count",
			"action_count %d does not match pool size %d", s.Meta.ActionCount, len(s.ActionPool)))
	}

	return errs
}
