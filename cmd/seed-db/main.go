package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/xenking/todo-api/db"
	"github.com/xenking/todo-api/internal/domain/todo"
	"github.com/xenking/todo-api/internal/migrate"
	"github.com/xenking/todo-api/internal/storage/postgres"
)

type todoJSON struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

func main() {
	var (
		databaseURL string
		todosFile   string
		runMigrate  bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&todosFile, "todos-file", "db/seed/todos.json", "path to a JSON array of todos, optionally gzip-compressed (.gz)")
	flag.BoolVar(&runMigrate, "migrate", true, "apply pending migrations before seeding")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, todosFile, runMigrate); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, todosFile string, runMigrate bool) error {
	items, err := readTodos(todosFile)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL, postgres.PoolOptions{})
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if runMigrate {
		migrations, err := migrate.Load(db.Migrations())
		if err != nil {
			return errors.Wrap(err, "load migrations")
		}
		applied, err := migrate.Apply(ctx, pool, migrations)
		if err != nil {
			return errors.Wrap(err, "run migrations")
		}
		slog.Info("migrations applied", slog.Int("count", len(applied)))
	}

	gdb, err := postgres.OpenGorm(pool)
	if err != nil {
		return errors.Wrap(err, "open gorm")
	}
	todos := todo.NewService(postgres.NewTodoRepository(gdb))

	slog.Info("inserting todos", slog.Int("count", len(items)))
	for i, item := range items {
		t, err := todos.Create(ctx, todo.Input{
			Title:       item.Title,
			Description: item.Description,
			Completed:   item.Completed,
		})
		if err != nil {
			return errors.Wrapf(err, "insert todo #%d", i)
		}
		slog.Info("inserted todo", slog.Int64("id", t.ID), slog.String("title", t.Title))
	}
	return nil
}

func readTodos(path string) ([]todoJSON, error) {
	slog.Info("reading todos file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open todos file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	var items []todoJSON
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "parse todos JSON")
	}
	return items, nil
}
