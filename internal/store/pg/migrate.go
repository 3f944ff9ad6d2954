package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/dropDatabas3/boardhole/migrations/postgres"
)

// Las migraciones SQL se embeben en el binario.
// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql)

type migration struct {
	version int
	name    string
	sql     string
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

func parseMigrations() ([]migration, error) {
	var out []migration

	err := fs.WalkDir(migrations.FS, migrations.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := migrationFilePattern.FindStringSubmatch(filepath.Base(path))
		if matches == nil {
			return nil // Ignorar archivos que no coinciden
		}
		version, _ := strconv.Atoi(matches[1])

		content, err := migrations.FS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		out = append(out, migration{version: version, name: matches[2], sql: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// Migrate aplica las migraciones pendientes y retorna las versiones
// aplicadas en esta corrida.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]int, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("getting applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	migs, err := parseMigrations()
	if err != nil {
		return nil, fmt.Errorf("parsing migrations: %w", err)
	}

	var ran []int
	for _, m := range migs {
		if applied[m.version] {
			continue
		}
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return ran, fmt.Errorf("applying migration %d_%s: %w", m.version, m.name, err)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO _migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name); err != nil {
			return ran, fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		ran = append(ran, m.version)
	}
	return ran, nil
}

// Migrate aplica las migraciones sobre el pool del Store.
func (s *Store) Migrate(ctx context.Context) ([]int, error) {
	return Migrate(ctx, s.pool)
}
