package validate

import (
	"testing"

	"github.com/maglevlabs/mast/pkg/script"
)

func TestCompatibilityValidScript(t *testing.T) {
	res := CheckCompatibility(validScript())
	if !res.Valid {
		for _, e := range res.Errors {
			t.Errorf("unexpected error: %s", e)
		}
	}
}

func TestCompatibilityVersionGate(t *testing.T) {
	s := validScript()
	s.Meta.Version = script.VersionLegacy
	res := CheckCompatibility(s)
	if res.Valid {
		t.Fatal("legacy version must fail compatibility")
	}
	if !containsMessage(res.Errors, "playback requires version") {
		t.Error("expected version gate error")
	}
}

func TestCompatibilityEscalatesActionCount(t *testing.T) {
	s := validScript()
	s.Meta.ActionCount = 7

	// Plain validation keeps this a warning.
	if res := Script(s); !res.Valid {
		t.Fatal("action_count drift should not fail plain validation")
	}
	// Compatibility escalates it.
	res := CheckCompatibility(s)
	if res.Valid {
		t.Fatal("action_count drift must fail compatibility")
	}
	if !containsPhase(res.Errors, PhaseCompatibility) {
		t.Error("expected a compatibility-phase error")
	}
}

func TestCompatibilityEscalatesEmptyDescription(t *testing.T) {
	s := validScript()
	s.Steps[1].Description = ""
	res := CheckCompatibility(s)
	if res.Valid {
		t.Fatal("empty description must fail compatibility")
	}
	if !containsMessage(res.Errors, "description is required for playback") {
		t.Error("expected description error")
	}
}

func TestCompatibilityRequiresPlatform(t *testing.T) {
	s := validScript()
	s.Meta.Platform = ""
	res := CheckCompatibility(s)
	if !containsMessage(res.Errors, "platform is required") {
		t.Error("expected platform error")
	}
}

func TestCompatibilityRejectsNegativeTimestamps(t *testing.T) {
	s := validScript()
	a := s.ActionPool["a1"]
	a.Timestamp = -1
	s.ActionPool["a1"] = a
	res := CheckCompatibility(s)
	if res.Valid {
		t.Fatal("negative timestamp must fail compatibility")
	}
	if !containsMessage(res.Errors, "cannot be scheduled") {
		t.Error("expected scheduling error")
	}
}

func TestCompatibilityCarriesValidationErrors(t *testing.T) {
	s := validScript()
	s.Steps[0].ActionIDs = []string{"nowhere"}
	res := CheckCompatibility(s)
	if res.Valid {
		t.Fatal("validation errors must also fail compatibility")
	}
	if !containsMessage(res.Errors, "not in the action pool") {
		t.Error("validation findings missing from compatibility result")
	}
}

func containsPhase(errs []*ValidationError, phase string) bool {
	for _, e := range errs {
		if e.Phase == phase {
			return true
		}
	}
	return false
}
