package validate

import (
	"fmt"

	"github.com/maglevlabs/mast/pkg/script"
)

// PhaseCompatibility marks findings from the playback-engine pass.
const PhaseCompatibility = "compatibility"

// CheckCompatibility runs the full validation pipeline and then the stricter
// rules the playback engine enforces on import. Every validation failure is
// also a compatibility failure; some validation warnings escalate to errors
// here.
func CheckCompatibility(s *script.TestScript) Result {
	r := Script(s)
	if s == nil {
		return r
	}

	var errs []*ValidationError

	// C1: the engine only accepts the step-based version
	if s.Meta.Version != script.VersionStep {
		errs = append(errs, Errorf(PhaseCompatibility, "meta.version",
			"playback requires version %s (got %q)", script.VersionStep, s.Meta.Version))
	}

	// C2: action_count must match exactly; the engine preallocates from it
	if s.Meta.ActionCount != len(s.ActionPool) {
		errs = append(errs, Errorf(PhaseCompatibility, "meta.action_count",
			"action_count %d does not match pool size %d", s.Meta.ActionCount, len(s.ActionPool)))
	}

	// C3: the engine's reporter renders step descriptions; empty ones break it
	for i, st := range s.Steps {
		if st.Description == "" {
			errs = append(errs, Errorf(PhaseCompatibility,
				fmt.Sprintf("steps[%d].description", i), "step description is required for playback"))
		}
	}

	// C4: platform is required to pick an input backend
	if s.Meta.Platform == "" {
		errs = append(errs, Errorf(PhaseCompatibility, "meta.platform",
			"platform is required for playback"))
	}

	// C5: the scheduler rejects negative timestamps
	for id, a := range s.ActionPool {
		if a.Timestamp < 0 {
			errs = append(errs, Errorf(PhaseCompatibility,
				fmt.Sprintf("action_pool.%s.timestamp", id),
				"negative timestamp %.3f cannot be scheduled", a.Timestamp))
		}
	}

	return r.Merge(ResultOf(errs))
}
