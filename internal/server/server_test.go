package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bootmatch/internal/allocator"
	"bootmatch/internal/cmdb"
	"bootmatch/internal/hw"
	"bootmatch/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAllocator struct {
	res   *allocator.Result
	err   error
	facts hw.Facts
}

func (f *fakeAllocator) Allocate(_ context.Context, facts hw.Facts) (*allocator.Result, error) {
	f.facts = facts
	return f.res, f.err
}

func uploadRequest(t *testing.T, field string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "hw.yaml")
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const factDump = `[[system, product, serial, "CZ123"], [disk, sda, size, 500]]`

func TestUploadSuccess(t *testing.T) {
	alloc := &fakeAllocator{res: &allocator.Result{
		RequestID: "req-1",
		Profile:   "hp",
		Vars:      map[string]any{"ip": "10.0.0.1"},
		Template:  []byte("config(ip)\n"),
	}}
	rec := httptest.NewRecorder()
	New(alloc).Handler().ServeHTTP(rec, uploadRequest(t, UploadField, []byte(factDump)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "ip: 10.0.0.1\n---\nconfig(ip)\n", rec.Body.String())
	require.Len(t, alloc.facts, 2)
	assert.Equal(t, int64(500), alloc.facts[1].Value)
}

func TestUploadFailuresHaveEmptyBody(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no match", &profile.NoMatchError{}, http.StatusNotFound},
		{"exhausted", fmt.Errorf("profile hp: %w", cmdb.ErrPoolExhausted), http.StatusConflict},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(&fakeAllocator{err: tt.err}).Handler().ServeHTTP(rec, uploadRequest(t, UploadField, []byte(factDump)))
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestUploadBadRequest(t *testing.T) {
	alloc := &fakeAllocator{}
	h := New(alloc).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "other", []byte(factDump)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, UploadField, []byte(`[[a, b, c]]`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, alloc.facts, "allocator must not be called")
}

func TestUploadMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&fakeAllocator{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	h := New(&fakeAllocator{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&fakeAllocator{}).Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
