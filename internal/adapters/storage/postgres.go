package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"

	"github.com/calendarease/core/internal/infrastructure/database"
	"github.com/calendarease/core/internal/ports"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresStore keeps each key as a row of a two-column table created by the
// migrations in migrations/
type PostgresStore struct {
	db          *sqlx.DB
	table       string
	selectQuery string
	upsertQuery string
}

// NewPostgresStore creates a store on the given table
func NewPostgresStore(db *sqlx.DB, table string) (*PostgresStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	return &PostgresStore{
		db:          db,
		table:       table,
		selectQuery: fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, table),
		upsertQuery: fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, table),
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, s.selectQuery, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// SetMany upserts every entry in one transaction
func (s *PostgresStore) SetMany(ctx context.Context, entries ...ports.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	return database.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, s.upsertQuery, e.Key, e.Value); err != nil {
				return fmt.Errorf("upsert %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ ports.KVStore = (*PostgresStore)(nil)
