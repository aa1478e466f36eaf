package migrate

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createVersionTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	selectAppliedSQL = `SELECT version, applied_at FROM schema_migrations`

	insertVersionSQL = `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`
)

// State reports whether a migration has been applied.
type State struct {
	Migration
	Applied   bool
	AppliedAt time.Time
}

// Apply runs every migration not yet recorded in schema_migrations, each in
// its own transaction, and returns the ones it applied. Running it again
// with the same migrations is a no-op.
func Apply(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) ([]Migration, error) {
	states, err := Status(ctx, pool, migrations)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, s := range states {
		if s.Applied {
			continue
		}
		if err := applyOne(ctx, pool, s.Migration); err != nil {
			return applied, errors.Wrapf(err, "apply %s", s.File())
		}
		applied = append(applied, s.Migration)
	}
	return applied, nil
}

// Status returns the applied state of each migration, in version order.
func Status(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) ([]State, error) {
	if _, err := pool.Exec(ctx, createVersionTableSQL); err != nil {
		return nil, errors.Wrap(err, "create schema_migrations")
	}

	rows, err := pool.Query(ctx, selectAppliedSQL)
	if err != nil {
		return nil, errors.Wrap(err, "select applied versions")
	}
	appliedAt := make(map[int]time.Time)
	var (
		version int
		at      time.Time
	)
	_, err = pgx.ForEachRow(rows, []any{&version, &at}, func() error {
		appliedAt[version] = at
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan applied versions")
	}

	states := make([]State, len(migrations))
	for i, m := range migrations {
		at, ok := appliedAt[m.Version]
		states[i] = State{Migration: m, Applied: ok, AppliedAt: at}
	}
	return states, nil
}

func applyOne(ctx context.Context, pool *pgxpool.Pool, m Migration) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			return errors.Wrap(err, "exec script")
		}
		if _, err := tx.Exec(ctx, insertVersionSQL, m.Version, m.Name); err != nil {
			return errors.Wrap(err, "record version")
		}
		return nil
	})
}
