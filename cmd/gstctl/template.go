package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage the GST template used for your uploads",
	}
	cmd.AddCommand(
		newTemplateUploadCmd(),
		newTemplateDeleteCmd(),
		newTemplateInfoCmd(),
		newTemplateDefaultCmd(),
	)
	return cmd
}

func newTemplateUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Replace the default template with a custom one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.requireUser(ctx); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open template: %w", err)
			}
			defer f.Close()
			name, err := app.client.UploadTemplate(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Printf("custom template saved as %s\n", name)
			return nil
		},
	}
}

func newTemplateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the custom template and revert to the default",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.requireUser(ctx); err != nil {
				return err
			}
			if err := app.client.DeleteTemplate(ctx); err != nil {
				return err
			}
			fmt.Println("custom template removed; the default template is active")
			return nil
		},
	}
}

func newTemplateInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show which template is active",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp()
			if err != nil {
				return err
			}
			if _, err := app.requireUser(ctx); err != nil {
				return err
			}
			info, err := app.client.CurrentTemplate(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("active template: %s\n", info.TemplateName)
			if info.IsCustom {
				fmt.Println("revert to the default with: gstctl template delete")
			}
			return nil
		},
	}
}

func newTemplateDefaultCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download-default",
		Short: "Download the stock GST template",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp()
			if err != nil {
				return err
			}
			return saveArtifact(output, "GST_Template_Default.xlsx", func(w *os.File) (string, int64, error) {
				return app.client.DownloadDefaultTemplate(ctx, w)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path")
	return cmd
}
