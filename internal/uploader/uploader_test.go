package uploader

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nuverotech/gst-automation-tool/internal/api"
	"github.com/nuverotech/gst-automation-tool/internal/config"
)

const uploadAccepted = `{
	"success": true,
	"message": "File uploaded successfully and processing started",
	"data": {
		"id": 42,
		"filename": "a1b2c3_report.xlsx",
		"original_filename": "report.xlsx",
		"file_size": 1024,
		"status": "pending",
		"created_at": "2024-05-01T10:00:00Z"
	}
}`

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		APIURL:            apiURL,
		MaxFileSize:       50 << 20,
		AllowedExtensions: []string{"xlsx", "xls", "xlsb", "csv"},
		HTTPTimeout:       5 * time.Second,
	}
}

func newUploader(t *testing.T, handler http.Handler) (*Uploader, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	cfg := testConfig(srv.URL)
	return New(api.New(cfg, nil), cfg, log.New(io.Discard, "", 0)), &hits
}

func writeFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func TestOversizedFileFailsBeforeAnyRequest(t *testing.T) {
	up, hits := newUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	path := writeFile(t, "huge.xlsx", 60<<20)

	_, err := up.Submit(context.Background(), path)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Reason, "exceeds")
	require.Zero(t, hits.Load())
}

func TestDisallowedExtensionFailsBeforeAnyRequest(t *testing.T) {
	up, hits := newUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	path := writeFile(t, "notes.pdf", 128)

	_, err := up.Submit(context.Background(), path)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Zero(t, hits.Load())
}

func TestSubmitReturnsUploadRecord(t *testing.T) {
	var gotMethod, gotPath, gotFilename string
	up, hits := newUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if _, header, err := r.FormFile("file"); err == nil {
				gotFilename = header.Filename
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, uploadAccepted)
	}))
	path := writeFile(t, "report.xlsx", 1024)

	record, err := up.SubmitFirst(context.Background(), []string{path})
	require.NoError(t, err)
	require.Equal(t, 42, record.ID)
	require.Equal(t, "report.xlsx", record.OriginalFilename)
	require.EqualValues(t, 1, hits.Load())
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/api/v1/upload", gotPath)
	require.Equal(t, "report.xlsx", gotFilename)
}

func TestSubmitFirstConsidersOnlyFirstPath(t *testing.T) {
	up, hits := newUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, uploadAccepted)
	}))
	first := writeFile(t, "first.xlsx", 512)
	second := writeFile(t, "second.xlsx", 512)

	_, err := up.SubmitFirst(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.EqualValues(t, 1, hits.Load())
}

func TestServerRejectionCarriesDetail(t *testing.T) {
	up, _ := newUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "File type not allowed. Allowed types: xlsx,xls,xlsb,csv"}`)
	}))
	path := writeFile(t, "report.csv", 512)

	_, err := up.Submit(context.Background(), path)
	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)
	require.Contains(t, uerr.Error(), "File type not allowed")
}

func TestConcurrentSubmissionRejected(t *testing.T) {
	release := make(chan struct{})
	up, _ := newUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, uploadAccepted)
	}))
	path := writeFile(t, "report.xlsx", 512)

	done := make(chan error, 1)
	go func() {
		_, err := up.Submit(context.Background(), path)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !up.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("uploader never became busy")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := up.Submit(context.Background(), path)
	require.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	require.False(t, up.Busy())
}

func TestNoFileSupplied(t *testing.T) {
	up, hits := newUploader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	_, err := up.SubmitFirst(context.Background(), nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Zero(t, hits.Load())
}
