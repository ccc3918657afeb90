package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/pbadmin/pkg/model"
)

func newLoginCmd() *cobra.Command {
	var identity, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to PocketBase",
		Long:  "Authenticate with email or username and password. The session is saved for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			prompt := func(label string) (string, error) {
				fmt.Fprint(cmd.OutOrStdout(), label)
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
				}
				return strings.TrimSpace(line), nil
			}

			var err error
			if identity == "" {
				if identity, err = prompt("Email or username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt("Password: "); err != nil {
					return err
				}
			}
			if identity == "" || password == "" {
				return fmt.Errorf("identity and password cannot be empty")
			}

			if err := app.Auth.Login(cmd.Context(), identity, password); err != nil {
				return err
			}

			name := model.DisplayName(app.Auth.CurrentUser())
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&identity, "identity", "u", "", "Email or username (prompted if omitted)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}
			id, err := app.Auth.GetIdentity(ctx)
			if err != nil {
				return err
			}
			role, err := app.Auth.GetPermissions(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:     %v\n", id.ID)
			fmt.Fprintf(out, "Name:   %s\n", id.FullName)
			fmt.Fprintf(out, "Role:   %s\n", role)
			if id.Avatar != "" {
				fmt.Fprintf(out, "Avatar: %s\n", id.Avatar)
			}
			return nil
		},
	}
}
