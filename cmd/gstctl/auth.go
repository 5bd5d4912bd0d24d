package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nuverotech/gst-automation-tool/internal/api"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the login session",
	}
	cmd.AddCommand(
		newSignupCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newAuthStatusCmd(),
	)
	return cmd
}

func newLoginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if username == "" {
				if username, err = prompt("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword("Password: "); err != nil {
					return err
				}
			}
			user, err := app.session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func newSignupCmd() *cobra.Command {
	var email, username, fullName, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register an account and log straight in",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if username == "" {
				if username, err = prompt("Username: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword("Password: "); err != nil {
					return err
				}
			}
			user, err := app.session.Signup(cmd.Context(), api.SignupRequest{
				Email:    email,
				Username: username,
				Password: password,
				FullName: fullName,
			})
			if err != nil {
				return err
			}
			fmt.Printf("account created; logged in as %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Display name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			// Unconditional: logging out with no session is a no-op.
			app.session.Logout()
			fmt.Println("logged out")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			app.session.Resolve(cmd.Context())
			user := app.session.CurrentUser()
			if user == nil {
				fmt.Println("not logged in")
				return nil
			}
			fmt.Printf("logged in as %s (%s)\n", user.Username, user.Email)
			if exp, ok := app.session.TokenExpiry(); ok {
				fmt.Printf("token expires %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}
