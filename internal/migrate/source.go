// Package migrate applies versioned SQL migrations and generates new ones by
// diffing the declared GORM models against the live database schema.
package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"

	"github.com/go-faster/errors"
)

var fileRe = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.sql$`)

// Migration is a single versioned SQL script.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// File returns the file name the migration is stored under.
func (m Migration) File() string {
	return fmt.Sprintf("%04d_%s.sql", m.Version, m.Name)
}

// Load reads every NNNN_name.sql file at the root of fsys, ordered by
// version. Other files are ignored.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations dir")
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := fileRe.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		version, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, errors.Wrapf(err, "parse version of %s", e.Name())
		}
		if prev, ok := seen[version]; ok {
			return nil, errors.Errorf("duplicate migration version %d: %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", e.Name())
		}
		out = append(out, Migration{Version: version, Name: match[2], SQL: string(data)})
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}
