package logger

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type nilStruct struct{ Name string }

func TestFormatNilPointerField(t *testing.T) {
	var ns *nilStruct

	c := DebugConfig()
	tf := &textFormatter{
		c.TextFormat,
		jsonFormatter{conf: c.JSONFormat},
	}

	entry := logrus.WithFields(logrus.Fields{
		"ns":        "TEST",
		"nil value": ns,
	})
	b, err := tf.Format(entry)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "<nil>") {
		t.Fatal("expected nil pointer to be rendered", string(b))
	}
}

func TestFormatWithoutColorUsesJSON(t *testing.T) {
	c := DefaultConfig()
	c.TextFormat.DisableColors = true
	c.JSONFormat.DisableTimestamp = true
	tf := &textFormatter{
		c.TextFormat,
		jsonFormatter{conf: c.JSONFormat},
	}

	entry := logrus.WithFields(logrus.Fields{"ns": "TEST"})
	entry.Message = "hello"
	entry.Level = logrus.InfoLevel
	b, err := tf.Format(entry)
	if err != nil {
		t.Fatal(err)
	}
	expect := `{"level":"info","msg":"hello","ns":"TEST"}` + "\n"
	if string(b) != expect {
		t.Fatal("unexpected log:", string(b))
	}
}
