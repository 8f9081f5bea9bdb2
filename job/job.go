package job

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/getlantern/deepcopy"
	"github.com/ghodss/yaml"
)

// Job is a job definition: its inputs, outputs, and the ordered steps which
// produce them.
type Job struct {
	// Name labels the run, e.g. in the job key.
	Name string `json:"name,omitempty"`
	// Owner defaults to $USER.
	Owner string `json:"owner,omitempty"`
	// JobClass is the class name of the job in Script. Streaming steps
	// need it so the harness can construct the job on the cluster.
	JobClass string `json:"job_class,omitempty"`
	// Script defines the job. It's also the application of "spark" steps.
	Script string `json:"script,omitempty"`
	Input  []string `json:"input,omitempty"`
	Output string   `json:"output,omitempty"`
	// Args are passed through to the job on the cluster.
	Args []string `json:"args,omitempty"`
	// Files and Archives are shipped into the working directory of
	// the cluster's executors.
	Files    []string          `json:"files,omitempty"`
	Archives []string          `json:"archives,omitempty"`
	CmdEnv   map[string]string `json:"cmdenv,omitempty"`
	Steps    []Step            `json:"steps"`
}

// Parse parses a YAML job definition.
func Parse(raw []byte) (*Job, error) {
	j := &Job{}
	if err := yaml.Unmarshal(raw, j); err != nil {
		return nil, fmt.Errorf("parsing job: %v", err)
	}
	for i, st := range j.Steps {
		if st.Type == kindUnset {
			return nil, fmt.Errorf("parsing job: step %d has no type", i)
		}
	}
	if j.Owner == "" {
		j.Owner = os.Getenv("USER")
	}
	return j, nil
}

// ParseFile parses the YAML job definition at the given path. Relative
// paths inside the definition are resolved against the file's directory.
func ParseFile(path string) (*Job, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %v", err)
	}
	j, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	base := filepath.Dir(path)
	j.Script = resolve(base, j.Script)
	for i := range j.Input {
		j.Input[i] = resolve(base, j.Input[i])
	}
	for i := range j.Files {
		j.Files[i] = resolve(base, j.Files[i])
	}
	for i := range j.Archives {
		j.Archives[i] = resolve(base, j.Archives[i])
	}
	for i := range j.Steps {
		j.Steps[i].Script = resolve(base, j.Steps[i].Script)
		j.Steps[i].Jar = resolve(base, j.Steps[i].Jar)
	}
	return j, nil
}

func resolve(base, p string) string {
	if p == "" || IsURI(p) || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Copy returns a deep copy of the job.
func (j *Job) Copy() (*Job, error) {
	c := &Job{}
	if err := deepcopy.Copy(c, j); err != nil {
		return nil, fmt.Errorf("copying job: %v", err)
	}
	return c, nil
}

// NumSteps returns the number of steps in the job.
func (j *Job) NumSteps() int {
	return len(j.Steps)
}

// HasStreamingSteps returns true if any step runs through the harness.
func (j *Job) HasStreamingSteps() bool {
	for _, s := range j.Steps {
		if s.Type.Translated() {
			return true
		}
	}
	return false
}
