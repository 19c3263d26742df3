package main

import (
	"database/sql"
	"fmt"

	"folio/internal/config"
	"folio/internal/database/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the metadata schema",
}

// openDB opens the configured database for migrations. The caller must
// close it.
func openDB() (*sql.DB, *config.Config, error) {
	cfg := config.Load()
	if cfg.SupabaseDBURL == "" {
		return nil, nil, fmt.Errorf("SUPABASE_DB_URL is not set")
	}
	db, err := migrations.Open(cfg.SupabaseDBURL)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cfg, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.MigrateUp(db, cfg.TablePrefix); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Schema is up to date (prefix %q)\n", cfg.TablePrefix)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")

		db, cfg, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.IsProduction() {
			return fmt.Errorf("refusing to roll back migrations in production")
		}
		if err := migrations.MigrateDown(db, cfg.TablePrefix, steps); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Rolled back %d migration(s)\n", steps)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cfg, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := migrations.GetStatus(db, cfg.TablePrefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Version: %d\n", st.Version)
		fmt.Fprintf(out(cmd), "Latest:  %d\n", st.Latest)
		if st.Dirty {
			fmt.Fprintln(out(cmd), "State:   dirty (a migration failed, fix and force the version)")
		}
		return nil
	},
}
