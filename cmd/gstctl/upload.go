package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nuverotech/gst-automation-tool/internal/history"
	"github.com/nuverotech/gst-automation-tool/internal/poller"
	"github.com/nuverotech/gst-automation-tool/internal/uploader"
	"github.com/nuverotech/gst-automation-tool/internal/view"
)

func newUploadCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Submit a spreadsheet for GST processing",
		Long: `Submit a spreadsheet for GST processing and, unless --no-watch is given,
track the server-side progress until it completes or fails. When several
files are supplied only the first is submitted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.requireUser(ctx); err != nil {
				return err
			}
			up := uploader.New(app.client, app.cfg, log.Default())
			composer := view.NewComposer()

			record, err := up.SubmitFirst(ctx, args)
			if err != nil {
				composer.SubmitFailed(err)
				composer.Render(os.Stderr)
				return err
			}
			composer.SubmitSucceeded(record.ID, record.OriginalFilename)
			fmt.Printf("upload #%d accepted (%s)\n", record.ID, record.OriginalFilename)
			if noWatch {
				fmt.Printf("track it later with: gstctl status %d --watch\n", record.ID)
				return nil
			}
			return watchUpload(ctx, app, composer, record.ID)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Return immediately instead of tracking progress")
	return cmd
}

// watchUpload drives the poller until a terminal state, rendering each
// observation through the view composer.
func watchUpload(ctx context.Context, app *app, composer *view.Composer, id int) error {
	p := poller.New(app.client, app.cfg.PollInterval, log.Default())
	watch := p.Start(ctx, id)
	defer watch.Stop()
	for update := range watch.Updates() {
		composer.Observe(update)
		composer.Render(os.Stdout)
	}
	switch composer.Mode() {
	case view.ModeSuccess:
		return nil
	case view.ModeFailure:
		// The failure view already rendered the stored message.
		return errors.New("processing failed")
	default:
		// Watch ended without a terminal state: cancelled.
		return ctx.Err()
	}
}

func newStatusCmd() *cobra.Command {
	var watchFlag bool
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show (or follow) the processing status of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid upload id %q", args[0])
			}
			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.requireUser(ctx); err != nil {
				return err
			}
			if watchFlag {
				composer := view.NewComposer()
				composer.SubmitSucceeded(id, "")
				return watchUpload(ctx, app, composer, id)
			}
			st, err := app.client.Status(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("upload #%d: %s %d%% (%s)\n", st.ID, st.Status, st.Progress, poller.PhaseLabel(st.Progress))
			if st.ErrorMessage != nil && *st.ErrorMessage != "" {
				fmt.Printf("error: %s\n", *st.ErrorMessage)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Poll until the upload reaches a terminal state")
	return cmd
}

func newDownloadCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the processed file for a completed upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid upload id %q", args[0])
			}
			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.requireUser(ctx); err != nil {
				return err
			}
			fallback := fmt.Sprintf("gst_processed_%d.xlsx", id)
			return saveArtifact(output, fallback, func(w *os.File) (string, int64, error) {
				return app.client.Download(ctx, id, w)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (defaults to the server-suggested name)")
	return cmd
}

// saveArtifact streams a download into a temp file first so a failed fetch
// never leaves a truncated artifact at the destination.
func saveArtifact(output, fallback string, fetch func(*os.File) (string, int64, error)) error {
	tmp, err := os.CreateTemp(".", ".gstctl-download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	suggested, n, err := fetch(tmp)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if closeErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("flush download: %w", closeErr)
	}
	path := output
	if path == "" {
		path = suggested
	}
	if path == "" {
		path = fallback
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("move download into place: %w", err)
	}
	fmt.Printf("wrote %s (%s)\n", path, humanize.IBytes(uint64(n)))
	return nil
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your past uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.requireUser(ctx); err != nil {
				return err
			}
			return history.New(app.client).Render(ctx, os.Stdout)
		},
	}
}

func newHealthCmd() *cobra.Command {
	var wait bool
	var attempts uint
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the server liveness endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp()
			if err != nil {
				return err
			}
			check := func() error { return app.client.Health(ctx) }
			if wait {
				err = retry.Do(check,
					retry.Context(ctx),
					retry.Attempts(attempts),
					retry.Delay(time.Second),
					retry.DelayType(retry.FixedDelay),
					retry.OnRetry(func(n uint, err error) {
						log.Printf("health attempt %d: %v", n+1, err)
					}),
				)
			} else {
				err = check()
			}
			if err != nil {
				return err
			}
			fmt.Println("server is healthy")
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Retry until the server is healthy")
	cmd.Flags().UintVar(&attempts, "attempts", 30, "Maximum attempts with --wait")
	return cmd
}
