package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/leafsii/blog-backend/internal/config"
	gdb "github.com/leafsii/blog-backend/internal/db"
	"github.com/leafsii/blog-backend/internal/db/backends/sqlstore"
	"github.com/leafsii/blog-backend/internal/db/migrations"
	"github.com/leafsii/blog-backend/internal/db/query"
)

const (
	typeFlag = "type"
	dsnFlag  = "dsn"
)

// Empty values fall back to BLOG_DB_TYPE and BLOG_DB_DSN.
var dbFlags = map[string]cobraflags.Flag{
	typeFlag: &cobraflags.StringFlag{
		Name:  typeFlag,
		Value: "",
		Usage: "Database type (sqlite, postgres). Defaults to BLOG_DB_TYPE",
	},
	dsnFlag: &cobraflags.StringFlag{
		Name:  dsnFlag,
		Value: "",
		Usage: "Database DSN. Defaults to BLOG_DB_DSN",
	},
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the blog database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	subcommands := []*cobra.Command{
		{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE:  upCommand,
		},
		{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE:  downCommand,
		},
		{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE:  statusCommand,
		},
		{
			Use:   "seed",
			Short: "Apply migrations and insert demo data into an empty database",
			RunE:  seedCommand,
		},
	}
	for _, cmd := range subcommands {
		cobraflags.RegisterMap(cmd, dbFlags)
		rootCmd.AddCommand(cmd)
	}
	return rootCmd
}

func databaseConfig() (*gdb.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	dbCfg := &gdb.Config{
		Type:         cfg.Database.Type,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
	if v := dbFlags[typeFlag].GetString(); v != "" {
		dbCfg.Type = v
	}
	if v := dbFlags[dsnFlag].GetString(); v != "" {
		dbCfg.DSN = v
	}
	return dbCfg, nil
}

// openSQL connects to the configured SQL database. The in-memory store has
// no schema to migrate.
func openSQL(ctx context.Context) (*sqlstore.Database, error) {
	dbCfg, err := databaseConfig()
	if err != nil {
		return nil, err
	}

	dialect, err := query.ParseDialect(dbCfg.Type)
	if err != nil {
		return nil, fmt.Errorf("migrations need a sql database: %w", err)
	}

	store := sqlstore.New(dialect, dbCfg.DSN, sqlstore.Options{
		MaxOpenConns: dbCfg.MaxOpenConns,
		MaxIdleConns: dbCfg.MaxIdleConns,
	})
	if err := store.Connect(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), time.Minute)
}

func upCommand(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	n, err := migrations.Up(ctx, store.Dialect(), store.DB())
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
	return nil
}

func downCommand(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	if err := migrations.Down(ctx, store.Dialect(), store.DB()); err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
	return nil
}

func statusCommand(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	status, err := migrations.CurrentStatus(ctx, store.Dialect(), store.DB())
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-8s %-8s %s\n", "VERSION", "STATE", "FILE")
	for _, s := range status {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "%-8d %-8s %s\n", s.Version, state, s.Path)
	}
	return nil
}

func seedCommand(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	dbCfg, err := databaseConfig()
	if err != nil {
		return err
	}
	db, err := gdb.NewDatabase(dbCfg)
	if err != nil {
		return err
	}
	if err := gdb.ConnectAndMigrate(ctx, db); err != nil {
		return err
	}
	defer db.Disconnect(ctx)

	n, err := gdb.Seed(ctx, db)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d record(s)\n", n)
	return nil
}
