package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

type recordingTransfer struct {
	url, path string
	log       *eventLog
}

func (r *recordingTransfer) URL() string      { return r.url }
func (r *recordingTransfer) Path() string     { return r.path }
func (r *recordingTransfer) Started()         { r.log.add("started " + r.url) }
func (r *recordingTransfer) Finished()        { r.log.add("finished " + r.url) }
func (r *recordingTransfer) Failed(err error) { r.log.add("failed " + r.url) }

func TestUploadStartsAfterMkdir(t *testing.T) {
	fake := NewFake()
	events := &eventLog{}
	transfers := []Transfer{
		&recordingTransfer{url: "s3://bucket/ok/a.txt", path: "/tmp/a.txt", log: events},
		&recordingTransfer{url: "s3://bucket/bad/b.txt", path: "/tmp/b.txt", log: events},
	}
	mkdir := func(dir string) error {
		if dir == "s3://bucket/bad" {
			return errors.New("mkdir failed")
		}
		return nil
	}

	Upload(context.Background(), fake, transfers, 2, mkdir)

	sort.Strings(events.events)
	assert.Equal(t, []string{
		"failed s3://bucket/bad/b.txt",
		"finished s3://bucket/ok/a.txt",
		"started s3://bucket/ok/a.txt",
	}, events.events)
	assert.Equal(t, []string{"put s3://bucket/ok/a.txt"}, fake.Calls)
}
