// internal/cli/sessions.go
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/keyfc/bbs/internal/auth"
	"github.com/keyfc/bbs/internal/ui"
	"github.com/spf13/cobra"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved forum sessions",
	Long: `List, view, import and delete saved forum sessions.

Sessions are stored in your OS keyring when one is reachable, otherwise as files
under ~/.keyfc/sessions (or --session-dir).`,
	Example: `  # List all saved sessions
  $ keyfc sessions list

  # View details of a specific session
  $ keyfc sessions view alice

  # Delete a session without confirmation
  $ keyfc sessions delete alice --yes`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-name>",
	Short: "View details of a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsView,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsViewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)

	sessionsDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store := GetApp(cmd).Sessions
	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No saved sessions found.")
		fmt.Fprintln(out, ui.Info("Create one with: keyfc login -u <username>"))
		return nil
	}

	fmt.Fprintln(out, ui.Bold(fmt.Sprintf("Saved Sessions (%d)", len(names))))
	now := time.Now()
	for i, name := range names {
		session, err := store.Load(name)
		if err != nil {
			fmt.Fprintf(out, "%d. %s %s\n", i+1, name, ui.Error("("+err.Error()+")"))
			continue
		}
		fmt.Fprintf(out, "%d. %s  %s\n", i+1, ui.ColorCyan+name+ui.ColorReset, sessionStatus(session, now))
	}
	return nil
}

func runSessionsView(cmd *cobra.Command, args []string) error {
	name := args[0]
	session, err := GetApp(cmd).Sessions.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Bold("Session: "+name))
	fmt.Fprintf(out, "Username: %s\n", session.Username)
	fmt.Fprintf(out, "Forum:    %s\n", session.BaseURL)
	fmt.Fprintf(out, "Created:  %s\n", session.CreatedAt.Format(time.RFC1123))
	fmt.Fprintf(out, "Status:   %s\n", sessionStatus(session, time.Now()))

	fmt.Fprintf(out, "\nCookies (%d):\n", len(session.Cookies))
	for _, c := range session.Cookies {
		fmt.Fprintf(out, "  • %s (domain: %s)\n", c.Name, c.Domain)
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete session '%s'?", name)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	if err := GetApp(cmd).Sessions.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success("✓ Session '"+name+"' deleted"))
	return nil
}

func sessionStatus(s *auth.Session, now time.Time) string {
	if s.ExpiresAt.IsZero() {
		return ui.Info("no expiry recorded")
	}
	if s.Expired(now) {
		return ui.Error(fmt.Sprintf("expired %s ago", now.Sub(s.ExpiresAt).Round(time.Minute)))
	}
	return ui.Success(fmt.Sprintf("valid, expires in %s", s.ExpiresAt.Sub(now).Round(time.Minute)))
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
