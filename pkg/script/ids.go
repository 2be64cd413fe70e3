package script

import "github.com/google/uuid"

// NewActionID returns a fresh pool id for an action.
func NewActionID() string {
	return "act_" + uuid.NewString()
}

// NewStepID returns a fresh step id.
func NewStepID() string {
	return "step_" + uuid.NewString()
}
