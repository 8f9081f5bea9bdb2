package spark

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ohsu-comp-bio/sparkrun/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAll(t *testing.T, out string) []Record {
	t.Helper()
	var recs []Record
	err := ParseRecords(strings.NewReader(out), func(r Record) {
		recs = append(recs, r)
	})
	require.NoError(t, err)
	return recs
}

func TestParseRecords(t *testing.T) {
	recs := parseAll(t, `Warning: Ignoring non-spark config property
19/06/05 12:15:03 INFO SparkContext: Running Spark version 2.4.3
19/06/05 12:15:03 WARN NativeCodeLoader (main): Unable to load native-hadoop library
19/06/05 12:15:09 ERROR Executor: Exception in task 0.0
java.lang.RuntimeException: boom
	at Foo.bar(Foo.java:1)
`)
	require.Len(t, recs, 4)

	assert.Equal(t, Record{Message: "Warning: Ignoring non-spark config property", NumLines: 1}, recs[0])

	assert.Equal(t, Record{
		Timestamp: "19/06/05 12:15:03",
		Level:     "INFO",
		Logger:    "SparkContext",
		Message:   "Running Spark version 2.4.3",
		NumLines:  1,
	}, recs[1])

	assert.Equal(t, "WARN", recs[2].Level)
	assert.Equal(t, "NativeCodeLoader", recs[2].Logger)
	assert.Equal(t, "main", recs[2].Thread)
	assert.Equal(t, "Unable to load native-hadoop library", recs[2].Message)

	assert.Equal(t, "ERROR", recs[3].Level)
	assert.Equal(t, 3, recs[3].NumLines)
	assert.Equal(t, "Exception in task 0.0\njava.lang.RuntimeException: boom\n\tat Foo.bar(Foo.java:1)", recs[3].Message)
}

func TestParseRecordsDashSeparator(t *testing.T) {
	recs := parseAll(t, "19/06/05 12:15:03 INFO org.apache.spark.SparkContext - started\r\n")
	require.Len(t, recs, 1)
	assert.Equal(t, "org.apache.spark.SparkContext", recs[0].Logger)
	assert.Equal(t, "started", recs[0].Message)
}

func TestParseRecordsEmpty(t *testing.T) {
	assert.Empty(t, parseAll(t, ""))
}

func TestParseRecordsTruncatesLongLines(t *testing.T) {
	long := strings.Repeat("x", maxLineSize+4096)
	recs := parseAll(t, "19/06/05 12:15:03 INFO Foo: "+long+"\n"+
		"continued\n"+
		"19/06/05 12:15:04 WARN Bar: after")
	require.Len(t, recs, 2)
	assert.Len(t, recs[0].Message, maxLineSize-len("19/06/05 12:15:03 INFO Foo: ")+len("\ncontinued"))
	assert.Equal(t, 2, recs[0].NumLines)
	assert.Equal(t, "after", recs[1].Message)
	assert.Equal(t, "WARN", recs[1].Level)
}

func TestLogRecords(t *testing.T) {
	var buf bytes.Buffer
	conf := logger.DefaultConfig()
	conf.Formatter = "json"
	conf.Level = "debug"
	log := logger.NewLogger("spark", conf)
	log.SetOutput(&buf)

	handle := LogRecords(log)
	handle(Record{Level: "WARN", Logger: "Foo", Message: "careful"})
	handle(Record{Message: "plain output"})

	out := buf.String()
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, `"logger":"Foo"`)
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "plain output")
}
