package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"gorm.io/gorm"
)

// Revision is the outcome of generating a migration.
type Revision struct {
	// Path is empty when the schema already matches the models.
	Path    string
	Changes []Change
}

// Generate diffs every model against the live database and, if anything
// differs, writes the next numbered migration script into dir.
func Generate(ctx context.Context, db *gorm.DB, dir, message string, models ...any) (*Revision, error) {
	db = db.WithContext(ctx)

	var changes []Change
	for _, model := range models {
		declared, err := Declared(db, model)
		if err != nil {
			return nil, err
		}
		live, err := Live(db, declared.Name)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Diff(declared, live)...)
	}
	if len(changes) == 0 {
		return &Revision{}, nil
	}

	existing, err := Load(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	next := NextMigration(existing, message)
	next.SQL = Render(message, changes)

	path := filepath.Join(dir, next.File())
	if err := os.WriteFile(path, []byte(next.SQL), 0o644); err != nil {
		return nil, errors.Wrapf(err, "write %s", path)
	}
	return &Revision{Path: path, Changes: changes}, nil
}

// NextMigration returns an empty migration numbered after existing and named
// after message.
func NextMigration(existing []Migration, message string) Migration {
	version := 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}
	return Migration{Version: version, Name: slug(message)}
}

func slug(message string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(message) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "revision"
	}
	return s
}
