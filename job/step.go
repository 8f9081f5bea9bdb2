// Package job describes the steps of a job and how they're batched into
// cluster submissions.
package job

import (
	"fmt"
)

// Kind identifies how a step is executed. The set of kinds is closed.
// The zero value is not a kind; it marks a step whose type wasn't given.
type Kind int

const (
	kindUnset Kind = iota
	// Spark is a Spark job defined by the job script itself.
	Spark
	// SparkScript is a standalone Spark script.
	SparkScript
	// SparkJar is a packaged Spark application.
	SparkJar
	// Streaming is a mapper/combiner/reducer step which Spark doesn't
	// understand natively. It runs through the Spark harness.
	Streaming
)

var kindNames = map[Kind]string{
	Spark:       "spark",
	SparkScript: "spark_script",
	SparkJar:    "spark_jar",
	Streaming:   "streaming",
}

// ParseKind returns the Kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown step type: %q", name)
}

// String returns the step type name, as written in job files.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown step kind: %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Translated returns true if steps of this kind run through the harness.
func (k Kind) Translated() bool {
	switch k {
	case Streaming:
		return true
	case Spark, SparkScript, SparkJar:
		return false
	default:
		panic(fmt.Sprintf("unhandled step kind %d", int(k)))
	}
}

// Role describes one of the mapper, combiner or reducer of a streaming step.
type Role struct {
	// "script" runs the job's own method; "command" runs a shell command.
	Type      string `json:"type,omitempty"`
	Command   string `json:"command,omitempty"`
	PreFilter string `json:"pre_filter,omitempty"`
}

// RunsCommand returns true if the role runs an external shell command
// rather than the job's own code.
func (r *Role) RunsCommand() bool {
	return r != nil && (r.Command != "" || r.PreFilter != "" || r.Type == "command")
}

// Step is one unit of work in a job. Steps are read-only once the job is defined.
type Step struct {
	Type     Kind    `json:"type"`
	JobConf  JobConf `json:"jobconf,omitempty"`
	Mapper   *Role   `json:"mapper,omitempty"`
	Combiner *Role   `json:"combiner,omitempty"`
	Reducer  *Role   `json:"reducer,omitempty"`
	// Script is the application path of a spark_script step.
	Script string `json:"script,omitempty"`
	// Jar and MainClass describe a spark_jar step.
	Jar       string `json:"jar,omitempty"`
	MainClass string `json:"main_class,omitempty"`
	// Args are passed to the application. The placeholders "<input>" and
	// "<output>" are replaced with the step's input and output URIs.
	Args []string `json:"args,omitempty"`
	// SparkArgs are extra spark-submit arguments for this step.
	SparkArgs     []string `json:"spark_args,omitempty"`
	InputManifest bool     `json:"input_manifest,omitempty"`
}

// Roles returns the step's non-empty roles, keyed by name, in mapper,
// combiner, reducer order.
func (s Step) Roles() []NamedRole {
	var roles []NamedRole
	for _, r := range []NamedRole{
		{"mapper", s.Mapper},
		{"combiner", s.Combiner},
		{"reducer", s.Reducer},
	} {
		if r.Role != nil {
			roles = append(roles, r)
		}
	}
	return roles
}

// NamedRole pairs a role with its name.
type NamedRole struct {
	Name string
	*Role
}
