package spark

import (
	"fmt"
)

// StepFailed is returned when a submission exits non-zero. Step numbers
// are 0-indexed; the message counts from one.
type StepFailed struct {
	Reason      string
	StepNum     int
	LastStepNum int
	NumSteps    int
}

func (e *StepFailed) Error() string {
	var desc string
	if e.LastStepNum > e.StepNum {
		desc = fmt.Sprintf("Steps %d-%d", e.StepNum+1, e.LastStepNum+1)
	} else {
		desc = fmt.Sprintf("Step %d", e.StepNum+1)
	}
	if e.NumSteps > 0 {
		desc += fmt.Sprintf(" of %d", e.NumSteps)
	}
	desc += " failed"
	if e.Reason != "" {
		desc += ": " + e.Reason
	}
	return desc
}
