package validate

import (
	"fmt"

	"github.com/maglevlabs/mast/pkg/script"
)

// validateStructural checks document shape and metadata completeness.
func validateStructural(s *script.TestScript) []*ValidationError {
	var errs []*ValidationError

	// S1: version is required
	if s.Meta.Version == "" {
		errs = append(errs, Errorf(PhaseStructural, "meta.version", "version is required"))
	}

	// S2: created_at should be present
	if s.Meta.CreatedAt == "" {
		errs = append(errs, Warningf(PhaseStructural, "meta.created_at", "created_at is empty"))
	}

	// S3: title should be present
	if s.Meta.Title == "" {
		errs = append(errs, Warningf(PhaseStructural, "meta.title", "title is empty"))
	}

	// S4: every step needs an id; descriptions are expected but only the
	// compatibility pass hard-fails on them
	for i, st := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		if st.ID == "" {
			errs = append(errs, Errorf(PhaseStructural, field+".id", "step id is required"))
		}
		if st.Description == "" {
			errs = append(errs, Warningf(PhaseStructural, field+".description", "step description is empty"))
		}
	}

	return errs
}
