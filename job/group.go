package job

import (
	"fmt"
)

// Group is a run of consecutive steps executed by one cluster submission.
type Group struct {
	// StepNum is the 0-indexed number of the first step in the group.
	StepNum int
	Steps   []Step
}

// LastStepNum returns the 0-indexed number of the last step in the group.
func (g Group) LastStepNum() int {
	return g.StepNum + len(g.Steps) - 1
}

// Kind returns the kind shared by the group's steps.
func (g Group) Kind() Kind {
	return g.Steps[0].Type
}

// JobConf returns the job configuration of the group, which is the same
// for every member.
func (g Group) JobConf() JobConf {
	return g.Steps[0].JobConf
}

// Spans returns true if the group covers all numSteps steps of the job.
func (g Group) Spans(numSteps int) bool {
	return g.StepNum == 0 && g.LastStepNum() == numSteps-1
}

// Describe returns a 1-indexed description such as "step 3" or "steps 1-2".
func (g Group) Describe() string {
	if len(g.Steps) == 1 {
		return fmt.Sprintf("step %d", g.StepNum+1)
	}
	return fmt.Sprintf("steps %d-%d", g.StepNum+1, g.LastStepNum()+1)
}

// GroupSteps partitions steps into groups, preserving order.
//
// Consecutive streaming steps whose job configurations are equal share a
// group, since the harness can run them back to back in one submission with
// the configuration applied once. Every other step gets a group of its own.
func GroupSteps(steps []Step) []Group {
	var groups []Group

	for i, s := range steps {
		if n := len(groups); n > 0 && joins(groups[n-1], s) {
			groups[n-1].Steps = append(groups[n-1].Steps, s)
			continue
		}
		groups = append(groups, Group{StepNum: i, Steps: []Step{s}})
	}
	return groups
}

func joins(g Group, s Step) bool {
	return g.Kind() == Streaming && s.Type == Streaming && s.JobConf.Equal(g.JobConf())
}
