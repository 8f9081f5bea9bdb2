package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Names of the map output compression settings.
const (
	MapOutputCompress      = "mapreduce.map.output.compress"
	MapOutputCompressCodec = "mapreduce.map.output.compress.codec"
)

// Hadoop renamed most of its configuration properties between versions.
// Lookups fall back to the equivalent name from the other version.
var jobConfAliases = map[string]string{
	"mapreduce.map.output.compress":                    "mapred.compress.map.output",
	"mapreduce.map.output.compress.codec":              "mapred.map.output.compression.codec",
	"mapreduce.job.reduces":                            "mapred.reduce.tasks",
	"mapreduce.job.maps":                               "mapred.map.tasks",
	"mapreduce.job.name":                               "mapred.job.name",
	"mapreduce.output.fileoutputformat.compress":       "mapred.output.compress",
	"mapreduce.output.fileoutputformat.compress.codec": "mapred.output.compression.codec",
}

func init() {
	old := make([]string, 0, len(jobConfAliases))
	for k := range jobConfAliases {
		old = append(old, k)
	}
	for _, k := range old {
		jobConfAliases[jobConfAliases[k]] = k
	}
}

// JobConf holds the job configuration properties of a step.
// Values written in job files as numbers or booleans are kept as their
// string form.
type JobConf map[string]string

// Get returns the value of the named property, falling back to the
// property's equivalent name in other Hadoop versions.
func (c JobConf) Get(name string) string {
	if v, ok := c[name]; ok {
		return v
	}
	if alias, ok := jobConfAliases[name]; ok {
		return c[alias]
	}
	return ""
}

// Equal reports whether two configurations hold exactly the same properties.
// A nil and an empty JobConf are equal.
func (c JobConf) Equal(o JobConf) bool {
	if len(c) != len(o) {
		return false
	}
	for k, v := range c {
		ov, ok := o[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the property names in sorted order.
func (c JobConf) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MapOutputCodec returns the map output compression codec, if compression
// is enabled and a codec is set. Both are required.
func (c JobConf) MapOutputCodec() (string, bool) {
	compress := c.Get(MapOutputCompress)
	codec := c.Get(MapOutputCompressCodec)
	if compress == "" || compress == "false" || codec == "" {
		return "", false
	}
	return codec, true
}

// UnmarshalJSON accepts any scalar value and stores its string form.
func (c *JobConf) UnmarshalJSON(b []byte) error {
	var raw map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}
	conf := make(JobConf, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			conf[k] = x
		case json.Number:
			conf[k] = x.String()
		case bool:
			conf[k] = fmt.Sprint(x)
		case nil:
			conf[k] = ""
		default:
			return fmt.Errorf("jobconf %s: expected a scalar value, got %T", k, v)
		}
	}
	*c = conf
	return nil
}
