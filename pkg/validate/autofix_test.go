package validate

import (
	"strings"
	"testing"

	"github.com/maglevlabs/mast/pkg/script"
)

func TestAutoFixCleanScript(t *testing.T) {
	s := validScript()
	fixed, fixes := AutoFix(s)
	if len(fixes) != 0 {
		for _, f := range fixes {
			t.Errorf("unexpected fix: %s: %s", f.Field, f.Message)
		}
	}
	d1, _ := script.Digest(s)
	d2, _ := script.Digest(fixed)
	if d1 != d2 {
		t.Error("no-op fix changed the script")
	}
}

func TestAutoFixDoesNotMutateInput(t *testing.T) {
	s := validScript()
	s.Meta.Version = ""
	before, _ := script.Serialize(s)
	AutoFix(s)
	after, _ := script.Serialize(s)
	if string(before) != string(after) {
		t.Fatal("AutoFix mutated its input")
	}
}

func TestAutoFixForcesPoolIDs(t *testing.T) {
	s := validScript()
	a := s.ActionPool["a1"]
	a.ID = "drifted"
	s.ActionPool["a1"] = a

	fixed, fixes := AutoFix(s)
	if fixed.ActionPool["a1"].ID != "a1" {
		t.Errorf("pool id = %q, want a1", fixed.ActionPool["a1"].ID)
	}
	if !hasFix(fixes, "action_pool.a1.id") {
		t.Error("expected an id fix entry")
	}
}

func TestAutoFixClampsAndDefaults(t *testing.T) {
	s := validScript()
	s.ActionPool["bad"] = script.Action{
		ID: "bad", Type: script.ActionMouseClick, Timestamp: 1.5,
		X: f(-10), Y: f(-20), Button: "pinky",
	}
	s.Meta.ActionCount = 4

	fixed, fixes := AutoFix(s)
	got := fixed.ActionPool["bad"]
	if *got.X != 0 || *got.Y != 0 {
		t.Errorf("coordinates not clamped: (%v, %v)", *got.X, *got.Y)
	}
	if got.Button != script.ButtonLeft {
		t.Errorf("button = %q, want left", got.Button)
	}
	if len(fixes) != 3 {
		t.Errorf("expected 3 fixes, got %d", len(fixes))
	}
}

func TestAutoFixDropsUnresolvedReferences(t *testing.T) {
	s := validScript()
	s.Steps[0].ActionIDs = []string{"a1", "ghost", "a2"}

	fixed, fixes := AutoFix(s)
	st, _ := fixed.StepByID("step_1")
	if len(st.ActionIDs) != 2 {
		t.Fatalf("step has %d references, want 2", len(st.ActionIDs))
	}
	for _, id := range st.ActionIDs {
		if id == "ghost" {
			t.Error("unresolved reference survived")
		}
	}
	if !hasFixMessage(fixes, "ghost") {
		t.Error("fix list should name the dropped reference")
	}
}

func TestAutoFixResortsChronology(t *testing.T) {
	s := validScript()
	s.Steps[0].ActionIDs = []string{"a2", "a1"} // 0.2 before 0.1

	fixed, _ := AutoFix(s)
	st, _ := fixed.StepByID("step_1")
	if st.ActionIDs[0] != "a1" || st.ActionIDs[1] != "a2" {
		t.Errorf("references not re-sorted: %v", st.ActionIDs)
	}
	if res := Script(fixed); !res.Valid {
		t.Errorf("fixed script should validate: %v", res.Errors)
	}
}

func TestAutoFixMetadataDefaults(t *testing.T) {
	s := validScript()
	s.Meta.Version = ""
	s.Meta.CreatedAt = ""
	s.Meta.Title = ""
	s.Meta.ActionCount = 0

	fixed, fixes := AutoFix(s)
	if fixed.Meta.Version != script.VersionStep {
		t.Errorf("version = %q, want %s", fixed.Meta.Version, script.VersionStep)
	}
	if fixed.Meta.CreatedAt == "" || fixed.Meta.Title == "" {
		t.Error("created_at and title should be filled")
	}
	if fixed.Meta.ActionCount != len(fixed.ActionPool) {
		t.Errorf("action_count = %d, want %d", fixed.Meta.ActionCount, len(fixed.ActionPool))
	}
	if len(fixes) != 4 {
		t.Errorf("expected 4 fixes, got %d", len(fixes))
	}
}

func TestAutoFixKeepsOrphans(t *testing.T) {
	s := validScript()
	s.ActionPool["orphan"] = script.Action{ID: "orphan", Type: script.ActionWait, Timestamp: 5, Duration: 1}
	s.Meta.ActionCount = 4

	fixed, _ := AutoFix(s)
	if _, ok := fixed.ActionPool["orphan"]; !ok {
		t.Error("orphaned pool actions must survive autofix")
	}
}

// --- helpers ---

func hasFix(fixes []Fix, field string) bool {
	for _, f := range fixes {
		if f.Field == field {
			return true
		}
	}
	return false
}

func hasFixMessage(fixes []Fix, substr string) bool {
	for _, f := range fixes {
		if strings.Contains(f.Message, substr) {
			return true
		}
	}
	return false
}
