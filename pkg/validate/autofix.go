package validate

import (
	"fmt"
	"time"

	"github.com/maglevlabs/mast/pkg/script"
)

// Fix describes one repair applied by AutoFix.
type Fix struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AutoFix returns a repaired copy of s plus the list of repairs applied.
// It normalizes what can be normalized mechanically and leaves everything
// else for the validator to report: it never invents keys or coordinates,
// never deletes pool actions, and never errors. An empty fix list means the
// returned clone is identical to the input.
func AutoFix(s *script.TestScript) (*script.TestScript, []Fix) {
	out := s.Clone()
	var fixes []Fix

	// Pool entries whose id drifted from their key realias silently on
	// playback; force the key.
	for id, a := range out.ActionPool {
		if a.ID != id {
			a.ID = id
			out.ActionPool[id] = a
			fixes = append(fixes, Fix{
				Field:   "action_pool." + id + ".id",
				Message: fmt.Sprintf("forced pool entry id to its key %q", id),
			})
		}
	}

	// Clamp negative coordinates and default missing click buttons.
	for id, a := range out.ActionPool {
		field := "action_pool." + id
		changed := false
		if a.X != nil && *a.X < 0 {
			x := 0.0
			a.X = &x
			changed = true
			fixes = append(fixes, Fix{Field: field + ".x", Message: "clamped negative x to 0"})
		}
		if a.Y != nil && *a.Y < 0 {
			y := 0.0
			a.Y = &y
			changed = true
			fixes = append(fixes, Fix{Field: field + ".y", Message: "clamped negative y to 0"})
		}
		if a.Type.IsClick() && !script.ValidButton(a.Button) {
			a.Button = script.ButtonLeft
			changed = true
			fixes = append(fixes, Fix{Field: field + ".button", Message: "defaulted button to left"})
		}
		if changed {
			out.ActionPool[id] = a
		}
	}

	// Drop references that resolve nowhere, then restore chronology inside
	// each step.
	for i := range out.Steps {
		st := &out.Steps[i]
		kept := st.ActionIDs[:0]
		for _, id := range st.ActionIDs {
			if _, ok := out.ActionPool[id]; ok {
				kept = append(kept, id)
			} else {
				fixes = append(fixes, Fix{
					Field:   fmt.Sprintf("steps[%d].action_ids", i),
					Message: fmt.Sprintf("dropped reference to missing action %q", id),
				})
			}
		}
		st.ActionIDs = kept

		if !script.IDsAscending(out.ActionPool, st.ActionIDs) {
			st.ActionIDs = script.SortIDsByTimestamp(out.ActionPool, st.ActionIDs)
			fixes = append(fixes, Fix{
				Field:   fmt.Sprintf("steps[%d].action_ids", i),
				Message: "re-sorted action references by timestamp",
			})
		}
	}

	// Metadata defaults.
	if out.Meta.Version == "" {
		out.Meta.Version = script.VersionStep
		fixes = append(fixes, Fix{Field: "meta.version", Message: "defaulted version to " + script.VersionStep})
	}
	if out.Meta.CreatedAt == "" {
		out.Meta.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		fixes = append(fixes, Fix{Field: "meta.created_at", Message: "filled created_at"})
	}
	if out.Meta.Title == "" {
		out.Meta.Title = "Untitled Script"
		fixes = append(fixes, Fix{Field: "meta.title", Message: "defaulted title"})
	}
	if out.Meta.ActionCount != len(out.ActionPool) {
		out.Meta.ActionCount = len(out.ActionPool)
		fixes = append(fixes, Fix{
			Field:   "meta.action_count",
			Message: fmt.Sprintf("synced action_count to pool size %d", len(out.ActionPool)),
		})
	}

	return out, fixes
}
