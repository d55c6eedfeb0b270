// internal/cli/login.go
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/keyfc/bbs/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the forum and save the session",
	Long: `Logs in with the account given by --username (or KEYFC_USERNAME) and saves the
session cookies under --session, or under the username when no session name is given.

The password is read from KEYFC_PASSWORD or the config file, otherwise it is prompted for.
Later commands pick the saved session up with the same --username or --session.`,
	Example: `  # Log in and save the session as "alice"
  $ keyfc login -u alice

  # Log in non-interactively in a script
  $ KEYFC_PASSWORD=secret keyfc login -u alice --session=work

  # Use the saved session
  $ keyfc uc -u alice`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	username := a.Config.Username
	if username == "" {
		return fmt.Errorf("username is required: pass --username or set KEYFC_USERNAME")
	}

	password := a.Config.Password
	if password == "" {
		var err error
		if password, err = promptPassword(cmd.ErrOrStderr(), os.Stdin); err != nil {
			return err
		}
	}

	log.Info().Str("username", username).Str("base_url", a.Config.BaseURL).Msg("Logging in")
	result := a.Login(cmd.Context(), username, password)
	if err := result.AsError(); err != nil {
		return err
	}

	session, err := a.SaveSession()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Success("✓ Logged in as "+username))
	fmt.Fprintf(out, "  %s %s\n", ui.Bold("Session:"), session.Name)
	if !session.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "  %s %s\n", ui.Bold("Expires:"), session.ExpiresAt.Format(time.RFC1123))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	name := a.SessionName()
	if name == "" {
		return fmt.Errorf("no session selected: pass --session or --username")
	}
	a.Client.Logout()
	if err := a.Sessions.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success("✓ Session '"+name+"' removed"))
	return nil
}

// promptPassword reads without echo on a terminal, else the first line of in
func promptPassword(w io.Writer, in *os.File) (string, error) {
	fmt.Fprint(w, "Password: ")
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}
