package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"LinkedLens/internal/ports"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const settingsSchema = `CREATE TABLE IF NOT EXISTS settings (
    name       TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

// SQLRepository persists user settings as name/value rows in SQLite or Postgres.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.SettingsStore = (*SQLRepository)(nil)

// NewSQLRepository wires a sql.DB opened with the given driver.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	var placeholders sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholders = sq.Dollar
	}
	return &SQLRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholders),
	}
}

// OpenSQL opens the database and creates the settings table if needed.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	repo := NewSQLRepository(db, driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// EnsureSchema creates the settings table.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, settingsSchema); err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	return nil
}

// Get returns the stored values for keys; keys with no row are absent from the map.
func (r *SQLRepository) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	if r.db == nil || len(keys) == 0 {
		return result, nil
	}

	query, args, err := r.builder.
		Select("name", "value").
		From("settings").
		Where(sq.Eq{"name": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build settings query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		result[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// Set upserts all values in one statement.
func (r *SQLRepository) Set(ctx context.Context, values map[string]string) error {
	if r.db == nil || len(values) == 0 {
		return nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC()
	insert := r.builder.Insert("settings").Columns("name", "value", "updated_at")
	for _, name := range names {
		insert = insert.Values(name, values[name], now)
	}
	query, args, err := insert.
		Suffix("ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build settings upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
