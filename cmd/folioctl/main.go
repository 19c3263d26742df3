// Command folioctl administers a folio deployment: schema migrations,
// bucket provisioning, seeding, sign-in and listing.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"folio/internal/app"
	"folio/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "folioctl",
	Short:        "Administer the folio file explorer",
	SilenceUsage: true,
}

// cliLogger writes warnings and errors to stderr, debug output with --verbose.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// newApp reads the config and wires the services. The caller must defer
// a.Close().
func newApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg := config.Load()
	a, err := app.New(ctx, cfg, cliLogger(cmd))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	// migrate subcommands
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateDownCmd.Flags().IntP("steps", "n", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateStatusCmd)

	// bucket subcommands
	bucketCmd.AddCommand(bucketEnsureCmd)

	// root commands
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bucketCmd)
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("email", "admin@example.com", "Admin account email")
	seedCmd.Flags().String("password", "", "Admin account password (required)")
	seedCmd.Flags().Bool("force", false, "Allow seeding in production")
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().StringP("query", "q", "", "Filter by name or description")
	lsCmd.Flags().String("sort", "", "Sort key: name or created_at")
	lsCmd.Flags().String("order", "", "Sort direction: asc or desc")
}
