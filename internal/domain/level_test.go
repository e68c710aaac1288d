package domain

import (
	"errors"
	"testing"
)

func TestLevelKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level Level
		want  LevelKind
	}{
		{"program", ProgramLevel("P4M-1234"), LevelProgram},
		{"clinic", ClinicLevel("P4M-1234", "DEN-01"), LevelClinic},
		{"location", LocationLevel("P4M-1234", "DEN-01", "DEN-01-A"), LevelLocation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.level.Kind(); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevelValidate(t *testing.T) {
	t.Parallel()

	if err := ProgramLevel("P4M-1234").Validate(); err != nil {
		t.Errorf("Expected no error for program level, got %v", err)
	}

	if err := (Level{}).Validate(); !errors.Is(err, ErrEmptyProgramID) {
		t.Errorf("Expected ErrEmptyProgramID, got %v", err)
	}

	// A location level must carry its clinic ID.
	bad := Level{ProgramID: "P4M-1234", LocationID: "DEN-01-A"}
	if err := bad.Validate(); !errors.Is(err, ErrEmptyClinicID) {
		t.Errorf("Expected ErrEmptyClinicID, got %v", err)
	}
}

func TestLevelParent(t *testing.T) {
	t.Parallel()

	loc := LocationLevel("P4M-1234", "DEN-01", "DEN-01-A")
	parent, err := loc.Parent()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if parent != ClinicLevel("P4M-1234", "DEN-01") {
		t.Errorf("Expected clinic parent, got %+v", parent)
	}

	parent, err = parent.Parent()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if parent != ProgramLevel("P4M-1234") {
		t.Errorf("Expected program parent, got %+v", parent)
	}

	if _, err := parent.Parent(); !errors.Is(err, ErrNoParentLevel) {
		t.Errorf("Expected ErrNoParentLevel, got %v", err)
	}
}

func TestLevelCandidates(t *testing.T) {
	t.Parallel()

	// Most specific first, ending at the program tier.
	loc := LocationLevel("P4M-1234", "DEN-01", "DEN-01-A")
	got := loc.Candidates()
	want := []Level{
		loc,
		ClinicLevel("P4M-1234", "DEN-01"),
		ProgramLevel("P4M-1234"),
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d candidates, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidate %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := ProgramLevel("P4M-1234").Candidates(); len(got) != 1 {
		t.Errorf("Expected 1 candidate for program level, got %d", len(got))
	}
}
