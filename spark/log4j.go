package spark

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/ohsu-comp-bio/sparkrun/logger"
)

// log4jLineRE matches the first line of a log4j record, e.g.
//
//	19/06/05 12:15:03 INFO SparkContext: Running Spark version 2.4.3
//	19/06/05 12:15:03 WARN NativeCodeLoader (main): Unable to load native-hadoop library
var log4jLineRE = regexp.MustCompile(
	`^\s*(\d\d/\d\d/\d\d \d\d:\d\d:\d\d)` +
		`\s+([A-Z]+)` +
		`\s+(\S+)` +
		`(?:\s+\((.*?)\))?` +
		`(?: - ?|: ?)` +
		`(.*?)$`)

// Record is one log4j record printed by spark-submit. Lines which
// don't start a record are appended to the message of the previous one.
type Record struct {
	Timestamp string
	Level     string
	Logger    string
	Thread    string
	Message   string
	// NumLines is the number of output lines the record spans.
	NumLines int
}

// RecordHandler receives records parsed from submission output.
type RecordHandler func(Record)

// maxLineSize caps the length of one output line. Longer lines are
// truncated and the rest of the line is discarded.
const maxLineSize = 1024 * 1024

// ParseRecords reads log4j output from r line by line and passes each
// record to handle. A record is handled once the line starting the next
// record, or the end of input, is read. Output before the first record
// start is handled line by line as records without a level.
// Lines longer than maxLineSize are truncated, so r is always read to the end
// unless reading from it fails.
func ParseRecords(r io.Reader, handle RecordHandler) error {
	var cur *Record
	flush := func() {
		if cur != nil {
			handle(*cur)
			cur = nil
		}
	}

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := readLine(br, maxLineSize)
		if err != nil && err != io.EOF {
			flush()
			return err
		}
		if err == io.EOF && line == "" {
			break
		}
		line = strings.TrimRight(strings.TrimSuffix(line, "\n"), "\r")

		if m := log4jLineRE.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Record{
				Timestamp: m[1],
				Level:     m[2],
				Logger:    m[3],
				Thread:    m[4],
				Message:   m[5],
				NumLines:  1,
			}
		} else if cur == nil {
			handle(Record{Message: line, NumLines: 1})
		} else {
			cur.Message += "\n" + line
			cur.NumLines++
		}

		if err == io.EOF {
			break
		}
	}
	flush()
	return nil
}

// readLine returns the next line including its newline, keeping at most
// max bytes of it.
func readLine(br *bufio.Reader, max int) (string, error) {
	var buf []byte
	for {
		frag, err := br.ReadSlice('\n')
		if n := min(len(frag), max-len(buf)); n > 0 {
			buf = append(buf, frag[:n]...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return string(buf), err
	}
}

// LogRecords returns a RecordHandler which logs each record at its own
// level. Records with no known level are logged at info.
func LogRecords(log *logger.Logger) RecordHandler {
	return func(rec Record) {
		args := []interface{}{}
		if rec.Logger != "" {
			args = append(args, "logger", rec.Logger)
		}
		if rec.Thread != "" {
			args = append(args, "thread", rec.Thread)
		}

		switch rec.Level {
		case "TRACE", "DEBUG":
			log.Debug(rec.Message, args...)
		case "WARN", "WARNING":
			log.Warn(rec.Message, args...)
		case "ERROR", "FATAL":
			log.Error(rec.Message, args...)
		default:
			log.Info(rec.Message, args...)
		}
	}
}
