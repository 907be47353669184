package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PgExecer is the subset of the pgx pool used to apply schema files.
type PgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ChExecer is the subset of the clickhouse connection used to apply
// schema files.
type ChExecer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// RunPostgres applies all embedded PostgreSQL schema files in lexical
// order. Files are idempotent.
func RunPostgres(ctx context.Context, db PgExecer) error {
	return run(PostgresFS, "postgres", func(sql string) error {
		_, err := db.Exec(ctx, sql)
		return err
	})
}

// RunClickhouse applies all embedded ClickHouse schema files.
func RunClickhouse(ctx context.Context, db ChExecer) error {
	return run(ClickhouseFS, "clickhouse", func(sql string) error {
		return db.Exec(ctx, sql)
	})
}

func run(fsys fs.FS, dir string, exec func(sql string) error) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if err := exec(string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}
