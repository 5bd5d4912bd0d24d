// Package history renders the account's past uploads. The list is fetched
// once per render; it is a point-in-time snapshot and is never refreshed
// behind the caller's back.
package history

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/nuverotech/gst-automation-tool/internal/model"
)

// UploadLister is the slice of the API client the view needs.
type UploadLister interface {
	Uploads(ctx context.Context) ([]model.Upload, error)
}

// View fetches and renders the upload history.
type View struct {
	client UploadLister
}

// New constructs a View.
func New(client UploadLister) *View {
	return &View{client: client}
}

// Render fetches the history and writes it to w. Zero uploads render an
// empty-state message, no table.
func (v *View) Render(ctx context.Context, w io.Writer) error {
	uploads, err := v.client.Uploads(ctx)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	if len(uploads) == 0 {
		fmt.Fprintln(w, "No uploads yet. Submit one with: gstctl upload <file.xlsx>")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "File", "Status", "Size", "Created", "Detail"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, u := range uploads {
		table.Append([]string{
			strconv.Itoa(u.ID),
			u.OriginalFilename,
			statusCell(u.Status),
			formatSize(u.FileSize),
			u.CreatedAt.Local().Format("2006-01-02 15:04"),
			detailCell(u),
		})
	}
	table.Render()
	return nil
}

// formatSize converts bytes to mebibytes with two-decimal rounding.
func formatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MiB", float64(bytes)/(1024*1024))
}

func statusCell(s model.ProcessingStatus) string {
	switch model.ParseStatus(string(s)) {
	case model.StatusCompleted:
		return color.New(color.FgGreen).Sprint("✓ completed")
	case model.StatusFailed:
		return color.New(color.FgRed).Sprint("✗ failed")
	case model.StatusProcessing:
		return color.New(color.FgYellow).Sprint("… processing")
	case model.StatusPending:
		return color.New(color.FgCyan).Sprint("○ pending")
	default:
		return string(s)
	}
}

// detailCell shows the stored error for failed rows and the download action
// for completed ones.
func detailCell(u model.Upload) string {
	switch model.ParseStatus(string(u.Status)) {
	case model.StatusFailed:
		if u.ErrorMessage != nil {
			return *u.ErrorMessage
		}
		return ""
	case model.StatusCompleted:
		return "gstctl download " + strconv.Itoa(u.ID)
	default:
		return ""
	}
}
