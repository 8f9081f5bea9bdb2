package job

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// IncompatibleStep is returned when a step asks for something the Spark
// runner can't do. It's raised while validating, before anything runs.
type IncompatibleStep struct {
	StepNum int
	Reason  string
}

func (e *IncompatibleStep) Error() string {
	return fmt.Sprintf("step %d: %s", e.StepNum+1, e.Reason)
}

// Validate checks every step of the job, and returns all the problems found.
func (j *Job) Validate() error {
	var result *multierror.Error

	if len(j.Steps) == 0 {
		result = multierror.Append(result, fmt.Errorf("job has no steps"))
	}

	for i, s := range j.Steps {
		for _, reason := range checkStep(j, s) {
			result = multierror.Append(result, &IncompatibleStep{StepNum: i, Reason: reason})
		}
	}
	return result.ErrorOrNil()
}

func checkStep(j *Job, s Step) []string {
	var reasons []string

	if s.InputManifest {
		reasons = append(reasons, "spark runner does not support input manifests")
	}

	switch s.Type {
	case Streaming:
		if j.JobClass == "" {
			reasons = append(reasons, "job_class must be set to run streaming steps")
		}
		if j.Script == "" {
			reasons = append(reasons, "script must be set to run streaming steps")
		}
		for _, r := range s.Roles() {
			if r.RunsCommand() {
				reasons = append(reasons, fmt.Sprintf(
					"%s runs a command, but spark runner does not support commands", r.Name))
			}
		}
	case Spark:
		if j.Script == "" {
			reasons = append(reasons, "script must be set to run spark steps")
		}
		reasons = append(reasons, checkNoRoles(s)...)
	case SparkScript:
		if s.Script == "" {
			reasons = append(reasons, "spark_script step has no script")
		}
		reasons = append(reasons, checkNoRoles(s)...)
	case SparkJar:
		if s.Jar == "" {
			reasons = append(reasons, "spark_jar step has no jar")
		}
		reasons = append(reasons, checkNoRoles(s)...)
	case kindUnset:
		reasons = append(reasons, "step has no type")
	default:
		reasons = append(reasons, fmt.Sprintf("unsupported step type %s", s.Type))
	}
	return reasons
}

func checkNoRoles(s Step) []string {
	if len(s.Roles()) > 0 {
		return []string{fmt.Sprintf("%s step can't have a mapper, combiner or reducer", s.Type)}
	}
	return nil
}
