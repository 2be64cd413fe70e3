package script

import "sort"

// UpdateActionInPool returns a copy of s in which the pool entry for
// actionID carries newAction. The stored action's ID is always forced to
// actionID, ignoring whatever id newAction carries, so a stray payload can
// never alias another pool entry. A missing actionID inserts. Steps, meta
// and variables are untouched.
func UpdateActionInPool(s *TestScript, actionID string, newAction Action) *TestScript {
	out := s.Clone()
	a := newAction.Clone()
	a.ID = actionID
	out.ActionPool[actionID] = a
	return out
}

// StepsReferencingAction returns the steps whose action_ids contain
// actionID, in script order.
func StepsReferencingAction(s *TestScript, actionID string) []TestStep {
	var refs []TestStep
	for _, st := range SortedSteps(s) {
		for _, id := range st.ActionIDs {
			if id == actionID {
				refs = append(refs, st)
				break
			}
		}
	}
	return refs
}

// ActionAffectsMultipleSteps reports whether editing actionID would be
// visible in more than one step. The UI surfaces this as a hazard before
// an isolated action edit.
func ActionAffectsMultipleSteps(s *TestScript, actionID string) bool {
	return len(StepsReferencingAction(s, actionID)) > 1
}

// SortedSteps returns a copy of the steps ordered by their order field.
// The stored slice order is not trusted.
func SortedSteps(s *TestScript) []TestStep {
	steps := make([]TestStep, len(s.Steps))
	copy(steps, s.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

// StepIndex returns the position of the step with the given id in s.Steps,
// or -1.
func (s *TestScript) StepIndex(id string) int {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// StepByID returns the step with the given id.
func (s *TestScript) StepByID(id string) (TestStep, bool) {
	if i := s.StepIndex(id); i >= 0 {
		return s.Steps[i], true
	}
	return TestStep{}, false
}

// ActionByID returns the pool action with the given id.
func (s *TestScript) ActionByID(id string) (Action, bool) {
	a, ok := s.ActionPool[id]
	return a, ok
}

// FlattenActionIDs returns every step's action ids concatenated in step
// order then intra-step order. Ids are reported as stored, including
// duplicates and ids missing from the pool.
func FlattenActionIDs(s *TestScript) []string {
	var ids []string
	for _, st := range SortedSteps(s) {
		ids = append(ids, st.ActionIDs...)
	}
	return ids
}

// Renumber rewrites the order fields of steps to a dense 1..N sequence in
// slice order.
func Renumber(steps []TestStep) {
	for i := range steps {
		steps[i].Order = i + 1
	}
}
