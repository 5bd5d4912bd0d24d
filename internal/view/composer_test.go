package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/nuverotech/gst-automation-tool/internal/model"
	"github.com/nuverotech/gst-automation-tool/internal/poller"
)

func init() {
	color.NoColor = true
}

func render(c *Composer) string {
	var buf bytes.Buffer
	c.Render(&buf)
	return buf.String()
}

func TestUploadToCompletionCycle(t *testing.T) {
	c := NewComposer()
	require.Equal(t, ModeSubmit, c.Mode())

	c.SubmitSucceeded(42, "report.xlsx")
	require.Equal(t, ModeProgress, c.Mode())
	require.Equal(t, 42, c.UploadID())

	c.Observe(poller.Update{Status: model.StatusProcessing, Progress: 25, Phase: "reading file"})
	require.Equal(t, ModeProgress, c.Mode())
	require.Equal(t, 25, c.Progress())
	require.Equal(t, "reading file", c.Phase())
	out := render(c)
	require.Contains(t, out, "reading file")
	require.Contains(t, out, "25%")

	c.Observe(poller.Update{Status: model.StatusCompleted, Progress: 100, Phase: "complete", Terminal: true})
	require.Equal(t, ModeSuccess, c.Mode())
	require.Contains(t, render(c), "gstctl download 42")
}

func TestFailureShowsStoredError(t *testing.T) {
	c := NewComposer()
	c.SubmitSucceeded(7, "broken.csv")
	c.Observe(poller.Update{Status: model.StatusFailed, ErrorMessage: "invalid GSTIN in row 3", Terminal: true})
	require.Equal(t, ModeFailure, c.Mode())
	require.Contains(t, render(c), "invalid GSTIN in row 3")
}

func TestLateUpdatesAfterTerminalAreDropped(t *testing.T) {
	c := NewComposer()
	c.SubmitSucceeded(7, "a.xlsx")
	c.Observe(poller.Update{Status: model.StatusCompleted, Terminal: true})
	c.Observe(poller.Update{Status: model.StatusProcessing, Progress: 10})
	require.Equal(t, ModeSuccess, c.Mode())
}

func TestSubmitFailureBanner(t *testing.T) {
	c := NewComposer()
	c.SubmitFailed(errors.New("file type \".pdf\" not allowed"))
	require.Equal(t, ModeSubmit, c.Mode())
	require.Contains(t, c.Banner(), "not allowed")
	require.Contains(t, render(c), "error:")

	c.DismissBanner()
	require.Empty(t, c.Banner())
	require.False(t, strings.Contains(render(c), "error:"))
}

func TestResetReturnsToSubmission(t *testing.T) {
	c := NewComposer()
	c.SubmitSucceeded(9, "b.xlsx")
	c.Observe(poller.Update{Status: model.StatusFailed, ErrorMessage: "boom", Terminal: true})
	c.Reset()
	require.Equal(t, ModeSubmit, c.Mode())
	require.Zero(t, c.UploadID())
	require.Empty(t, c.Banner())
}
