package spark

import (
	"testing"
)

func TestStepFailedMessage(t *testing.T) {
	tests := []struct {
		err      StepFailed
		expected string
	}{
		{StepFailed{Reason: "command exited with status 1", StepNum: 1, LastStepNum: 1, NumSteps: 3},
			"Step 2 of 3 failed: command exited with status 1"},
		{StepFailed{Reason: "boom", StepNum: 0, LastStepNum: 1, NumSteps: 4},
			"Steps 1-2 of 4 failed: boom"},
		{StepFailed{StepNum: 2, LastStepNum: 2},
			"Step 3 failed"},
	}
	for _, tt := range tests {
		if s := tt.err.Error(); s != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, s)
		}
	}
}
