// Package validate implements the script validation pipeline:
// structural → semantic → domain. Content problems travel as values, never
// as Go errors; mutating engines run the matching pre-check before touching
// a script.
package validate

import (
	"fmt"

	"github.com/maglevlabs/mast/pkg/script"
)

// Validation phases, in pipeline order.
const (
	PhaseStructural = "structural"
	PhaseSemantic   = "semantic"
	PhaseDomain     = "domain"
)

// Severities carried by ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents one error or warning from the validation
// pipeline.
type ValidationError struct {
	Phase    string `json:"phase"`
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s at %s", e.Phase, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
}

// Errorf builds an error-severity finding. The migration, merge and split
// engines use it for their own pre-check phases.
func Errorf(phase, field, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Field:    field,
		Message:  fmt.Sprintf(msg, args...),
		Severity: SeverityError,
	}
}

// Warningf builds a warning-severity finding.
func Warningf(phase, field, msg string, args ...any) *ValidationError {
	return &ValidationError{
		Phase:    phase,
		Field:    field,
		Message:  fmt.Sprintf(msg, args...),
		Severity: SeverityWarning,
	}
}

// Result is the outcome of a validation pass. Valid is true when no
// error-severity entries are present; warnings alone leave a script valid.
type Result struct {
	Valid    bool               `json:"valid"`
	Errors   []*ValidationError `json:"errors"`
	Warnings []*ValidationError `json:"warnings"`
}

// ResultOf splits a flat finding list into a Result.
func ResultOf(errs []*ValidationError) Result {
	r := Result{Valid: true}
	for _, e := range errs {
		if e.Severity == SeverityError {
			r.Errors = append(r.Errors, e)
			r.Valid = false
		} else {
			r.Warnings = append(r.Warnings, e)
		}
	}
	return r
}

// Merge folds other into r.
func (r Result) Merge(other Result) Result {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = r.Valid && other.Valid
	return r
}

func hasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Script runs the full pipeline on a loaded script. Domain rules only run
// once the structural and semantic phases pass, so they can assume resolved
// references.
func Script(s *script.TestScript) Result {
	if s == nil {
		return ResultOf([]*ValidationError{Errorf(PhaseStructural, "", "script is nil")})
	}

	var errs []*ValidationError
	errs = append(errs, validateStructural(s)...)
	if hasErrors(errs) {
		return ResultOf(errs)
	}
	errs = append(errs, validateSemantic(s)...)
	if hasErrors(errs) {
		return ResultOf(errs)
	}
	errs = append(errs, validateDomain(s)...)
	return ResultOf(errs)
}

// Bytes parses raw JSON as a step-based script and validates it. Parse
// failures surface as a single structural error, mirroring how every file
// loader in this repository reports them.
func Bytes(raw []byte) (*script.TestScript, Result) {
	s, err := script.Deserialize(raw)
	if err != nil {
		return nil, ResultOf([]*ValidationError{
			Errorf(PhaseStructural, "", "failed to parse: %s", err),
		})
	}
	return s, Script(s)
}
