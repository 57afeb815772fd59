// Package store persists credentials and settings in a local SQLite
// key/value table.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned for a missing or expired key
var ErrNotFound = errors.New("store: key not found")

// Entry is one stored value
type Entry struct {
	Key       string
	Value     string
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

// Store wraps the database connection
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and migrates it
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("local store opened", zap.String("path", path))
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.logger.Debug("closing local store")
	return s.db.Close()
}

// RunMigrations applies the embedded migrations
func (s *Store) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		// ErrNoChange means we're already up to date
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		s.logger.Warn("failed to get migration version", zap.Error(err))
		return nil
	}
	s.logger.Debug("store migrations completed",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Put stores value under key. A ttl of zero means the entry never expires.
func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	now := s.now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}

	query := `
		INSERT INTO kv (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt, now.UnixMilli()); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Get returns the entry for key. Expired entries are deleted and reported
// as ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	query := `SELECT value, expires_at, updated_at FROM kv WHERE key = ?`

	var (
		value     string
		expiresAt sql.NullInt64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	entry := &Entry{Key: key, Value: value, UpdatedAt: time.UnixMilli(updatedAt)}
	if expiresAt.Valid {
		exp := time.UnixMilli(expiresAt.Int64)
		if !s.now().Before(exp) {
			if err := s.Delete(ctx, key); err != nil {
				s.logger.Warn("failed to delete expired entry", zap.String("key", key), zap.Error(err))
			}
			return nil, ErrNotFound
		}
		entry.ExpiresAt = &exp
	}
	return entry, nil
}

// Delete removes keys; missing keys are ignored
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}

// PurgeExpired deletes every expired entry and returns how many were removed
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged entries: %w", err)
	}
	if n > 0 {
		s.logger.Debug("purged expired entries", zap.Int64("count", n))
	}
	return n, nil
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}
