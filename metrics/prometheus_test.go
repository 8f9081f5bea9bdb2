package metrics

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prometheus/common/expfmt"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Upload("s3")
	m.Upload("s3")
	m.Upload("hdfs")
	m.BackendDisabled("googleStorage")
	m.Submission(true, time.Second)
	m.Submission(false, time.Second*2)

	if v := testutil.ToFloat64(m.uploads.WithLabelValues("s3")); v != 2 {
		t.Error("unexpected s3 uploads", v)
	}
	if v := testutil.ToFloat64(m.disabled.WithLabelValues("googleStorage")); v != 1 {
		t.Error("unexpected disabled count", v)
	}
	if v := testutil.ToFloat64(m.submissions.WithLabelValues("failure")); v != 1 {
		t.Error("unexpected failure count", v)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Upload("s3")
	m.BackendDisabled("s3")
	m.Submission(true, time.Second)
	if err := m.WriteTextfile("/nonexistent/dir/x.prom"); err != nil {
		t.Fatal("expected nil metrics to write nothing", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Upload("file")
	p := filepath.Join(t.TempDir(), "sparkrun.prom")
	if err := m.WriteTextfile(p); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `sparkrun_storage_uploads_total{scheme="file"} 1`) {
		t.Fatal("unexpected textfile content", string(b))
	}

	parser := expfmt.TextParser{}
	met, err := parser.TextToMetricFamilies(strings.NewReader(string(b)))
	if err != nil {
		t.Fatal(err)
	}
	uploads, ok := met["sparkrun_storage_uploads_total"]
	if !ok {
		t.Fatal("missing uploads metric family")
	}
	if v := uploads.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Error("unexpected uploads value", v)
	}
	if _, ok := met["sparkrun_storage_backend_disabled_total"]; ok {
		t.Error("expected no backend_disabled samples")
	}
}
