package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var syncToken string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending local changes and pull the remote state",
	Long: `Push pending local changes and pull the remote state.

The session token is taken from --token or the MYHEALTH_TOKEN environment
variable. Without a token nothing is synced.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncToken, "token", "", "session token (JWT) of the user to sync for")
}

func runSync(cmd *cobra.Command, args []string) error {
	token := syncToken
	if token == "" {
		token = os.Getenv("MYHEALTH_TOKEN")
	}
	if token == "" {
		return errors.New("a session token is required (--token or MYHEALTH_TOKEN)")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	user, err := a.Sessions.ParseToken(token)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	report := a.Engine.Sync(ctx, user)

	out := cmd.OutOrStdout()
	if !report.Ran() {
		_, _ = fmt.Fprintf(out, "Sync skipped: %s\n", report.Skipped)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Synced for %s in %s: %d pushed, %d failed, %d pulled, %d malformed\n",
		user.UserID, report.Duration.Round(time.Millisecond), report.Pushed, report.Failed, report.Pulled, report.Malformed)
	return nil
}
