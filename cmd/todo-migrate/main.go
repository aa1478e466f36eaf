// Command todo-migrate manages the todo database schema: it generates
// migration scripts by diffing the GORM models against the live database
// and applies pending scripts.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/xenking/todo-api/db"
	"github.com/xenking/todo-api/internal/migrate"
	"github.com/xenking/todo-api/internal/storage/postgres"
)

type options struct {
	databaseURL string
	dir         string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("todo-migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "todo-migrate",
		Short:         "Generate and apply todo database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.databaseURL == "" {
				opts.databaseURL = os.Getenv("DATABASE_URL")
			}
			if opts.databaseURL == "" {
				return errors.New("database URL is required: set --database-url or DATABASE_URL")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "migrations directory (default: scripts embedded in the binary; db/migrations for revision)")

	root.AddCommand(
		revisionCommand(&opts),
		upgradeCommand(&opts),
		statusCommand(&opts),
	)
	return root
}

func revisionCommand(opts *options) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "revision",
		Short: "Write a migration script for the difference between the models and the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dir := opts.dir
			if dir == "" {
				dir = "db/migrations"
			}

			pool, err := connect(ctx, opts.databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Diffing against a database that lags the scripts would
			// regenerate changes that already have a migration.
			existing, err := load(dir)
			if err != nil {
				return err
			}
			states, err := migrate.Status(ctx, pool, existing)
			if err != nil {
				return errors.Wrap(err, "read status")
			}
			for _, s := range states {
				if !s.Applied {
					return errors.Errorf("database is not up to date: %s is pending, run upgrade first", s.File())
				}
			}

			gdb, err := postgres.OpenGorm(pool)
			if err != nil {
				return errors.Wrap(err, "open gorm")
			}
			rev, err := migrate.Generate(ctx, gdb, dir, message, postgres.Models()...)
			if err != nil {
				return errors.Wrap(err, "generate revision")
			}
			if rev.Path == "" {
				slog.Info("no changes detected, schema matches models")
				return nil
			}
			slog.Info("wrote revision", slog.String("path", rev.Path), slog.Int("changes", len(rev.Changes)))
			for _, c := range rev.Changes {
				slog.Info("detected change", slog.String("sql", c.SQL()))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "revision message, used in the file name")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func upgradeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			migrations, err := load(opts.dir)
			if err != nil {
				return err
			}

			pool, err := connect(ctx, opts.databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrate.Apply(ctx, pool, migrations)
			if err != nil {
				return err
			}
			for _, m := range applied {
				slog.Info("applied migration", slog.String("file", m.File()))
			}
			slog.Info("database is up to date", slog.Int("applied", len(applied)))
			return nil
		},
	}
}

func statusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they have been applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			migrations, err := load(opts.dir)
			if err != nil {
				return err
			}

			pool, err := connect(ctx, opts.databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			states, err := migrate.Status(ctx, pool, migrations)
			if err != nil {
				return errors.Wrap(err, "read status")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tNAME\tSTATE\tAPPLIED AT")
			for _, s := range states {
				state, at := "pending", ""
				if s.Applied {
					state, at = "applied", s.AppliedAt.Format("2006-01-02 15:04:05 MST")
				}
				fmt.Fprintf(tw, "%04d\t%s\t%s\t%s\n", s.Version, s.Name, state, at)
			}
			return tw.Flush()
		},
	}
}

func load(dir string) ([]migrate.Migration, error) {
	var fsys fs.FS = db.Migrations()
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	migrations, err := migrate.Load(fsys)
	if err != nil {
		return nil, errors.Wrap(err, "load migrations")
	}
	return migrations, nil
}

func connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, databaseURL, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	return pool, nil
}
