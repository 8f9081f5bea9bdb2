package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ohsu-comp-bio/sparkrun/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of requests GenericS3Backend.Exists makes.
type fakeS3 struct {
	mu    sync.Mutex
	heads []string
	keys  map[string]bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && q.Get("list-type") == "2":
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<ListBucketResult><Name>bucket</Name><IsTruncated>false</IsTruncated></ListBucketResult>`))
	case r.Method == http.MethodGet:
		if _, ok := q["location"]; ok {
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(`<LocationConstraint></LocationConstraint>`))
			return
		}
		w.WriteHeader(http.StatusNotImplemented)
	case r.Method == http.MethodHead:
		f.mu.Lock()
		f.heads = append(f.heads, r.URL.Path)
		f.mu.Unlock()
		if !f.keys[r.URL.Path] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.Header().Set("Content-Length", "3")
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestGenericS3ExistsStatsObject(t *testing.T) {
	fake := &fakeS3{keys: map[string]bool{"/bucket/data/a.txt": true}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s3, err := NewGenericS3Backend(config.GenericS3Storage{
		Endpoint: srv.URL,
		Key:      "key",
		Secret:   "secret",
	})
	require.NoError(t, err)

	ctx := context.Background()
	ok, err := s3.Exists(ctx, "s3://bucket/data/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s3.Exists(ctx, "s3://bucket/data/missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"/bucket/data/a.txt", "/bucket/data/missing.txt"}, fake.heads)
}
