package dberr

import (
	"errors"
	"testing"
)

func TestMissionError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *MissionError
		wantMsg string
	}{
		{
			name:    "without wrapped error",
			err:     &MissionError{Code: CodeMissionNotFound, Message: "mission not found: user=u1 type=x"},
			wantMsg: "MISSION_NOT_FOUND: mission not found: user=u1 type=x",
		},
		{
			name:    "with wrapped error",
			err:     &MissionError{Code: CodeDatabaseError, Message: "transient failure during insert", Err: errors.New("conn reset")},
			wantMsg: "DATABASE_ERROR: transient failure during insert: conn reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", got, tt.wantMsg)
			}
		})
	}
}

func TestMissionError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &MissionError{Code: CodeDatabaseError, Message: "m", Err: inner}
	if err.Unwrap() != inner {
		t.Errorf("Unwrap() did not return the wrapped error")
	}
}

func TestIsKind(t *testing.T) {
	err := Duplicate("evt-1")
	if !IsKind(err, KindDuplicate) {
		t.Errorf("expected Duplicate error to be KindDuplicate")
	}
	if IsKind(err, KindTransient) {
		t.Errorf("did not expect Duplicate error to be KindTransient")
	}
	if IsKind(errors.New("plain"), KindDuplicate) {
		t.Errorf("plain error should never match a kind")
	}
}

func TestConstructors(t *testing.T) {
	if got := LockTimeout("u1"); got.Kind != KindTransient {
		t.Errorf("LockTimeout should be transient, got %v", got.Kind)
	}
	if got := MissionNotFound("u1", "T"); got.Kind != KindLogicalNoOp {
		t.Errorf("MissionNotFound should be logical no-op, got %v", got.Kind)
	}
	if got := RewardOrphaned("u1", "2026-08", errors.New("x")); got.Kind != KindInvariant {
		t.Errorf("RewardOrphaned should be invariant, got %v", got.Kind)
	}
}
