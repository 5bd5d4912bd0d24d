// Package view drives the upload flow as a state machine with mutually
// exclusive display modes: submission, live progress, and the two terminal
// views. A dismissable error banner sits outside the modes.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/nuverotech/gst-automation-tool/internal/model"
	"github.com/nuverotech/gst-automation-tool/internal/poller"
)

// Mode is the current display mode.
type Mode int

const (
	// ModeSubmit shows the submission prompt: no active upload, no error.
	ModeSubmit Mode = iota
	// ModeProgress tracks an active upload in a non-terminal status.
	ModeProgress
	// ModeSuccess offers the download action for a completed upload.
	ModeSuccess
	// ModeFailure shows the stored error with a retry hint.
	ModeFailure
)

func (m Mode) String() string {
	switch m {
	case ModeSubmit:
		return "submit"
	case ModeProgress:
		return "progress"
	case ModeSuccess:
		return "success"
	case ModeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Composer owns the transient view state for one upload-to-terminal cycle.
type Composer struct {
	mode     Mode
	uploadID int
	filename string
	status   model.ProcessingStatus
	progress int
	phase    string
	result   string
	failure  string
	banner   string
}

// NewComposer starts in the submission mode.
func NewComposer() *Composer {
	return &Composer{mode: ModeSubmit}
}

// Mode returns the current display mode.
func (c *Composer) Mode() Mode {
	return c.mode
}

// UploadID returns the active upload identifier, zero when none.
func (c *Composer) UploadID() int {
	return c.uploadID
}

// Banner returns the dismissable error banner text, empty when none.
func (c *Composer) Banner() string {
	return c.banner
}

// Progress returns the last observed progress figure.
func (c *Composer) Progress() int {
	return c.progress
}

// Phase returns the last observed phase label.
func (c *Composer) Phase() string {
	return c.phase
}

// SubmitSucceeded enters the progress mode for the returned identifier.
func (c *Composer) SubmitSucceeded(id int, filename string) {
	c.Reset()
	c.mode = ModeProgress
	c.uploadID = id
	c.filename = filename
	c.status = model.StatusPending
	c.phase = poller.PhaseLabel(0)
}

// SubmitFailed raises the error banner and stays on the submission view.
func (c *Composer) SubmitFailed(err error) {
	c.Reset()
	c.banner = err.Error()
}

// DismissBanner clears the error banner.
func (c *Composer) DismissBanner() {
	c.banner = ""
}

// Observe folds one poller update into the view state. Updates arriving
// after a reset or a terminal transition are dropped.
func (c *Composer) Observe(u poller.Update) {
	if c.mode != ModeProgress {
		return
	}
	c.status = u.Status
	c.progress = u.Progress
	c.phase = u.Phase
	switch u.Status {
	case model.StatusCompleted:
		c.mode = ModeSuccess
		c.progress = 100
		c.result = u.ProcessedFilePath
	case model.StatusFailed:
		c.mode = ModeFailure
		c.failure = u.ErrorMessage
	}
}

// Reset clears all transient state and returns to the submission view.
// Used by both the post-success "process another" and post-failure "retry"
// actions.
func (c *Composer) Reset() {
	*c = Composer{mode: ModeSubmit}
}

// Render writes the current view to w.
func (c *Composer) Render(w io.Writer) {
	if c.banner != "" {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed).Sprint("error:"), c.banner)
	}
	switch c.mode {
	case ModeSubmit:
		fmt.Fprintln(w, "no active upload; submit one with: gstctl upload <file.xlsx>")
	case ModeProgress:
		fmt.Fprintf(w, "upload #%d %s %s %3d%%  %s\n",
			c.uploadID, c.filename, progressBar(c.progress), c.progress, c.phase)
	case ModeSuccess:
		fmt.Fprintf(w, "%s upload #%d processed; fetch it with: gstctl download %d\n",
			color.New(color.FgGreen).Sprint("done:"), c.uploadID, c.uploadID)
	case ModeFailure:
		msg := c.failure
		if msg == "" {
			msg = "processing failed"
		}
		fmt.Fprintf(w, "%s upload #%d: %s (retry with: gstctl upload)\n",
			color.New(color.FgRed).Sprint("failed:"), c.uploadID, msg)
	}
}

func progressBar(p int) string {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	filled := p / 5
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}
