package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	// registers the pure-Go "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationTable = "schema_migrations"

type Storage struct {
	Connection *sql.DB
}

// NewSQLiteStorage opens the database at path. ":memory:" gives a private in-memory database.
func NewSQLiteStorage(path string) (*Storage, error) {
	dsn := ":memory:"
	if strings.TrimSpace(path) != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	// a single connection keeps an in-memory database alive and serialises writers.
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

// Init applies embedded migrations that have not run yet.
func (that *Storage) Init(ctx context.Context) error {
	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`, migrationTable)
	if _, err := that.Connection.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("can't create migration table: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("can't list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		if err = that.applyMigration(ctx, file); err != nil {
			return err
		}
	}

	return nil
}

func (that *Storage) applyMigration(ctx context.Context, file string) error {
	name := filepath.Base(file)

	var count int
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE name = ?`, migrationTable)
	if err := that.Connection.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return fmt.Errorf("can't check migration %s: %w", name, err)
	}
	if count > 0 {
		return nil
	}

	content, err := migrationsFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("can't read migration %s: %w", name, err)
	}

	tx, err := that.Connection.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin migration %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("can't apply migration %s: %w", name, err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (name, applied_at) VALUES (?, ?)`, migrationTable)
	if _, err = tx.ExecContext(ctx, insert, name, time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("can't record migration %s: %w", name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit migration %s: %w", name, err)
	}

	return nil
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}
