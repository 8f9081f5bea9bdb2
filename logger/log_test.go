package logger

import (
	"bytes"
	"errors"
	"testing"
)

func jsonTestLogger() (*Logger, *bytes.Buffer) {
	l := New("foons", "basearg", 1)
	c := DefaultConfig()
	c.Formatter = "json"
	c.JSONFormat.DisableTimestamp = true
	l.Configure(c)

	var b bytes.Buffer
	l.SetOutput(&b)
	return l, &b
}

func TestLog(t *testing.T) {
	l, b := jsonTestLogger()
	l.Info("test")

	expect := `{"basearg":1,"level":"info","msg":"test","ns":"foons"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}

func TestErrorFieldLog(t *testing.T) {
	l, b := jsonTestLogger()

	err := errors.New("fooerr")
	l.Info("test", err)

	expect := `{"basearg":1,"error":"fooerr","level":"info","msg":"test","ns":"foons"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}

func TestWithFieldsSharesOutput(t *testing.T) {
	l, b := jsonTestLogger()

	child := l.WithFields("step", 2)
	child.Warn("child")
	l.Info("parent")

	expect := `{"basearg":1,"level":"warning","msg":"child","ns":"foons","step":2}` + "\n" +
		`{"basearg":1,"level":"info","msg":"parent","ns":"foons"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}

func TestLevelFilter(t *testing.T) {
	l, b := jsonTestLogger()
	l.SetLevel("error")
	l.Info("dropped")
	l.Debug("dropped")
	if b.Len() != 0 {
		t.Fatal("expected info and debug to be filtered:", b.String())
	}
}

func TestSubLoggerNamespace(t *testing.T) {
	l, b := jsonTestLogger()
	l.NewSubLogger("storage").Info("sub")

	expect := `{"basearg":1,"level":"info","msg":"sub","ns":"storage"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}
