// Package migrate converts between the flat legacy recording format and the
// step-based test script document, in both directions, and verifies that a
// forward migration lost nothing.
package migrate

import (
	"fmt"
	"time"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// PhaseMigration marks findings produced by ValidateMigration.
const PhaseMigration = "migration"

// Defaults applied to a freshly migrated script.
const (
	SetupStepDescription    = "Setup Step"
	SetupStepExpectedResult = "All actions execute successfully"
	defaultTitle            = "Migrated Script"
	defaultDescription      = "Migrated from legacy recording"
)

// Migrate converts a legacy flat recording into a step-based script. Every
// legacy action receives a fresh pool id, order preserved, and a single
// setup step (order 1) references them all in their original temporal
// order. Duration, action_count and platform copy 1:1; the version bumps to
// the step-based lineage. A legacy script with no actions migrates to a
// script with no steps.
func Migrate(legacy *script.LegacyScript) (*script.TestScript, error) {
	if legacy == nil {
		return nil, fmt.Errorf("migrate: nil legacy script")
	}

	createdAt := legacy.Metadata.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	out := &script.TestScript{
		Meta: script.Meta{
			Version:     script.VersionStep,
			CreatedAt:   createdAt,
			Duration:    legacy.Metadata.Duration,
			ActionCount: legacy.Metadata.ActionCount,
			Platform:    legacy.Metadata.Platform,
			Title:       defaultTitle,
			Description: defaultDescription,
			Tags:        []string{"migrated"},
		},
		Steps:      []script.TestStep{},
		ActionPool: make(map[string]script.Action, len(legacy.Actions)),
		Variables:  map[string]string{},
	}

	if len(legacy.Actions) == 0 {
		out.Meta.ActionCount = 0
		return out, nil
	}

	ids := make([]string, len(legacy.Actions))
	for i, a := range legacy.Actions {
		id := script.NewActionID()
		pooled := a.Clone()
		pooled.ID = id
		out.ActionPool[id] = pooled
		ids[i] = id
	}

	out.Steps = []script.TestStep{{
		ID:             script.NewStepID(),
		Order:          1,
		Description:    SetupStepDescription,
		ExpectedResult: SetupStepExpectedResult,
		ActionIDs:      ids,
	}}
	out.Meta.ActionCount = len(legacy.Actions)
	return out, nil
}

// ConvertToLegacy flattens a step-based script back to the flat format:
// step order then intra-step order, ids dropped. A duplicate reference
// collapses to its first occurrence, references missing from the pool are
// skipped, and pool orphans are not exported, so the action count can only
// shrink relative to the pool.
func ConvertToLegacy(s *script.TestScript) *script.LegacyScript {
	if s == nil {
		return nil
	}

	var actions []script.Action
	seen := map[string]bool{}
	for _, st := range script.SortedSteps(s) {
		for _, id := range st.ActionIDs {
			if seen[id] {
				continue
			}
			a, ok := s.ActionPool[id]
			if !ok {
				continue
			}
			seen[id] = true
			bare := a.Clone()
			bare.ID = ""
			actions = append(actions, bare)
		}
	}
	if actions == nil {
		actions = []script.Action{}
	}

	return &script.LegacyScript{
		Version: script.VersionLegacy,
		Metadata: script.LegacyMeta{
			CreatedAt:   s.Meta.CreatedAt,
			Duration:    s.Meta.Duration,
			ActionCount: len(actions),
			Platform:    s.Meta.Platform,
		},
		Actions: actions,
	}
}

// ValidateMigration re-checks the forward-migration postconditions. It is
// the gate a caller runs before accepting a migrated script in place of the
// legacy original.
func ValidateMigration(legacy *script.LegacyScript, migrated *script.TestScript) validate.Result {
	var errs []*validate.ValidationError
	if legacy == nil || migrated == nil {
		errs = append(errs, validate.Errorf(PhaseMigration, "", "both scripts are required"))
		return validate.ResultOf(errs)
	}

	want := len(legacy.Actions)

	if migrated.Meta.Version != script.VersionStep {
		errs = append(errs, validate.Errorf(PhaseMigration, "meta.version",
			"expected version %s, got %q", script.VersionStep, migrated.Meta.Version))
	}
	if migrated.Meta.ActionCount != want {
		errs = append(errs, validate.Errorf(PhaseMigration, "meta.action_count",
			"action_count %d does not match legacy action count %d", migrated.Meta.ActionCount, want))
	}
	if migrated.Meta.Duration != legacy.Metadata.Duration {
		errs = append(errs, validate.Errorf(PhaseMigration, "meta.duration",
			"duration %.3f does not match legacy duration %.3f", migrated.Meta.Duration, legacy.Metadata.Duration))
	}
	if migrated.Meta.Platform != legacy.Metadata.Platform {
		errs = append(errs, validate.Errorf(PhaseMigration, "meta.platform",
			"platform %q does not match legacy platform %q", migrated.Meta.Platform, legacy.Metadata.Platform))
	}
	if len(migrated.ActionPool) != want {
		errs = append(errs, validate.Errorf(PhaseMigration, "action_pool",
			"pool holds %d actions, legacy has %d", len(migrated.ActionPool), want))
	}
	if want > 0 && len(migrated.Steps) == 0 {
		errs = append(errs, validate.Errorf(PhaseMigration, "steps",
			"migration of a non-empty recording must produce at least one step"))
	}

	referenced := 0
	for i, st := range migrated.Steps {
		for j, id := range st.ActionIDs {
			referenced++
			if _, ok := migrated.ActionPool[id]; !ok {
				errs = append(errs, validate.Errorf(PhaseMigration,
					fmt.Sprintf("steps[%d].action_ids[%d]", i, j),
					"action %q is not in the pool", id))
			}
		}
	}
	if referenced != want {
		errs = append(errs, validate.Errorf(PhaseMigration, "steps",
			"steps reference %d actions, legacy has %d", referenced, want))
	}

	return validate.ResultOf(errs)
}
