// Package uploader validates a locally picked spreadsheet and submits it to
// the server. Validation here is advisory, the server is the authority; the
// point is to fail fast before any bytes cross the network.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/nuverotech/gst-automation-tool/internal/api"
	"github.com/nuverotech/gst-automation-tool/internal/config"
	"github.com/nuverotech/gst-automation-tool/internal/model"
)

// ErrBusy is returned when a second submission starts while one is still in
// flight. One active upload at a time is an explicit precondition.
var ErrBusy = errors.New("an upload is already in progress")

// ValidationError is a client-side precondition failure. It never reaches
// the network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// UploadError is a submission the server rejected or that failed in
// transit. Detail carries the server message when one exists.
type UploadError struct {
	Detail string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "upload failed"
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// FileClient is the slice of the API client the uploader needs.
type FileClient interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) (*model.Upload, error)
}

// Uploader submits one file at a time.
type Uploader struct {
	client FileClient
	cfg    *config.Config
	logger *log.Logger
	busy   atomic.Bool
}

// New constructs an Uploader.
func New(client FileClient, cfg *config.Config, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.Default()
	}
	return &Uploader{client: client, cfg: cfg, logger: logger}
}

// Busy reports whether a submission is in flight.
func (u *Uploader) Busy() bool {
	return u.busy.Load()
}

// SubmitFirst mirrors the drop-target rule: when several paths arrive only
// the first is considered, the rest are discarded with a notice.
func (u *Uploader) SubmitFirst(ctx context.Context, paths []string) (*model.Upload, error) {
	if len(paths) == 0 {
		return nil, &ValidationError{Reason: "no file supplied"}
	}
	if len(paths) > 1 {
		u.logger.Printf("ignoring %d extra file(s); submitting %s", len(paths)-1, paths[0])
	}
	return u.Submit(ctx, paths[0])
}

// Submit validates path and uploads it, returning the created upload
// record. There is no automatic retry.
func (u *Uploader) Submit(ctx context.Context, path string) (*model.Upload, error) {
	if err := u.validate(path); err != nil {
		return nil, err
	}
	if !u.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer u.busy.Store(false)

	f, err := os.Open(path)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	defer f.Close()
	u.sniff(f, path)

	upload, err := u.client.UploadFile(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, uploadError(err)
	}
	return upload, nil
}

func (u *Uploader) validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	if info.IsDir() {
		return &ValidationError{Reason: fmt.Sprintf("%s is a directory", path)}
	}
	if info.Size() > u.cfg.MaxFileSize {
		return &ValidationError{Reason: fmt.Sprintf(
			"file size %s exceeds the %s limit",
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(u.cfg.MaxFileSize)))}
	}
	if ext := filepath.Ext(path); !u.cfg.AllowedExtension(ext) {
		return &ValidationError{Reason: fmt.Sprintf(
			"file type %q not allowed (allowed: %s)",
			ext, strings.Join(u.cfg.AllowedExtensions, ", "))}
	}
	return nil
}

// sniff reads up to 512 bytes for content detection and rewinds. A mismatch
// is only logged; the extension allow-list already gated submission.
func (u *Uploader) sniff(f *os.File, path string) {
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n > 0 {
		ct := http.DetectContentType(buf[:n])
		if strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "image/") {
			u.logger.Printf("%s sniffs as %s, the server may reject it", filepath.Base(path), ct)
		}
	}
	_, _ = f.Seek(0, io.SeekStart)
}

func uploadError(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return &UploadError{Detail: apiErr.Detail, Err: err}
	}
	return &UploadError{Err: err}
}
