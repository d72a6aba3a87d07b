package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/telshop/storefront/internal/domain"
)

// SQLiteStore keeps the snapshot as one row keyed by session id.
type SQLiteStore struct {
	db        *sql.DB
	sessionID string
}

func NewSQLiteStore(dbPath, sessionID string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLiteStore{db: db, sessionID: sessionID}, nil
}

func (s *SQLiteStore) RunMigrations(migrationsPath string) error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*domain.Cart, error) {
	const query = `SELECT payload FROM cart_snapshots WHERE session_id = ?`

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, s.sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EmptyCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	return decodeSnapshot(payload), nil
}

func (s *SQLiteStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := encodeSnapshot(cart)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}

	const query = `
INSERT INTO cart_snapshots (session_id, payload, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (session_id) DO UPDATE
SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
`
	if _, err := s.db.ExecContext(ctx, query, s.sessionID, data); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_snapshots WHERE session_id = ?`, s.sessionID); err != nil {
		return fmt.Errorf("clear cart snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
