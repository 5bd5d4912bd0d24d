// Command gstctl is a terminal client for the GST Automation Tool server:
// sign up, upload a spreadsheet, watch server-side processing, and download
// the transformed file.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nuverotech/gst-automation-tool/internal/api"
	"github.com/nuverotech/gst-automation-tool/internal/config"
	"github.com/nuverotech/gst-automation-tool/internal/model"
	"github.com/nuverotech/gst-automation-tool/internal/session"
)

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gstctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gstctl",
		Short: "Terminal client for the GST Automation Tool",
		Long: `gstctl talks to a GST Automation Tool server: authenticate, submit a
spreadsheet for GST processing, track the server-side progress, and download
the transformed file once it completes.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newAuthCmd(),
		newUploadCmd(),
		newStatusCmd(),
		newDownloadCmd(),
		newHistoryCmd(),
		newHealthCmd(),
		newTemplateCmd(),
	)
	return cmd
}

// app bundles the pieces every command wires together: config, token
// storage, the API client reading that storage, and the session store.
type app struct {
	cfg     *config.Config
	tokens  *session.TokenFile
	client  *api.Client
	session *session.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	tokens := session.NewTokenFile(cfg.TokenPath)
	client := api.New(cfg, tokens)
	return &app{
		cfg:     cfg,
		tokens:  tokens,
		client:  client,
		session: session.New(client, tokens, log.Default()),
	}, nil
}

// requireUser resolves the persisted session and refuses anonymous callers.
// This is the CLI analog of the login redirect.
func (a *app) requireUser(ctx context.Context) (*model.User, error) {
	a.session.Resolve(ctx)
	if user := a.session.CurrentUser(); user != nil {
		return user, nil
	}
	return nil, errors.New("not logged in; run 'gstctl auth login' first")
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(data), nil
}
