// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/keyfc/bbs/internal/app"
	"github.com/keyfc/bbs/internal/config"
	"github.com/keyfc/bbs/internal/ui"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keyfc",
	Short: "Read the KeyFC forum from the command line",
	Long: `keyfc reads the KeyFC ASP.NET forum: the archiver board index, boards and threads,
search, and the control panel pages of a logged-in account.

Sessions are saved per account and reused between runs. With KEYFC_PASSWORD set
the client logs in again by itself once the saved session goes stale.`,
	Version:       "0.1.0",
	SilenceErrors: true,
	SilenceUsage:  true,
	// The application is built lazily so -h and --version never touch the network or keyring
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if GetApp(cmd) != nil {
			return nil
		}
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	},
}

// Execute runs the command line and closes the application afterwards, even when the command failed.
// Errors are printed here; the caller only decides the exit code.
func Execute(ctx context.Context) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)

	if a := GetApp(cmd); a != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
		SetApp(cmd, nil)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
	}
	return err
}

func init() {
	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for keyfc")
	rootCmd.Flags().Bool("version", false, "Version for keyfc")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}
