// Package store persists daily speaking time and learner profiles in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	errx "github.com/chative-tutor/server/internal/core/error"
	logx "github.com/chative-tutor/server/pkg/logger"
	_ "modernc.org/sqlite"
)

// DateLayout is the calendar day key of the usage ledger (UTC).
const DateLayout = "2006-01-02"

// ErrProfileNotFound is returned by GetProfile for unknown users.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is the learner row written on every chat turn.
type Profile struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SQLiteStore implements the usage ledger and profile table.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serialises writers to avoid SQLITE_BUSY
	now     func() time.Time
}

// Config for the SQLite database file.
type Config struct {
	Path string `envconfig:"DB_PATH" default:"data/tutor.db"`
}

// NewSQLite opens (and creates) the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage (
		identity TEXT NOT NULL,
		date TEXT NOT NULL,
		seconds INTEGER NOT NULL DEFAULT 0,
		client_addr TEXT,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (identity, date)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		firstname TEXT,
		lastname TEXT,
		email TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Today returns the ledger key for the current UTC day.
func (s *SQLiteStore) Today() string {
	return s.now().UTC().Format(DateLayout)
}

// SecondsUsed returns the seconds recorded for identity on date, zero when none.
func (s *SQLiteStore) SecondsUsed(ctx context.Context, identity, date string) (int, error) {
	var seconds int
	err := s.db.QueryRowContext(ctx,
		`SELECT seconds FROM usage WHERE identity = ? AND date = ?`, identity, date,
	).Scan(&seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		logx.Error().Err(err).Str("identity", identity).Str("date", date).Msg("failed to read usage")
		return 0, errx.WrapSQLite(err)
	}
	return seconds, nil
}

// AddSeconds atomically adds delta to the identity's day and returns the new total.
func (s *SQLiteStore) AddSeconds(ctx context.Context, identity, clientAddr, date string, delta int) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := `
	INSERT INTO usage (identity, date, seconds, client_addr, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(identity, date) DO UPDATE SET
		seconds = usage.seconds + excluded.seconds,
		client_addr = COALESCE(excluded.client_addr, usage.client_addr),
		updated_at = excluded.updated_at
	RETURNING seconds`

	var addr any
	if clientAddr != "" {
		addr = clientAddr
	}
	var total int
	err := s.db.QueryRowContext(ctx, query, identity, date, delta, addr, s.now().Unix()).Scan(&total)
	if err != nil {
		logx.Error().Err(err).Str("identity", identity).Str("date", date).Msg("failed to add usage")
		return 0, errx.WrapSQLite(err)
	}
	return total, nil
}

// UpsertProfile creates or refreshes a learner row. Empty fields keep the stored value.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, p Profile) error {
	if p.UserID == "" {
		return errors.New("profile user id is required")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := `
	INSERT INTO profiles (user_id, firstname, lastname, email, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		firstname = COALESCE(NULLIF(excluded.firstname, ''), profiles.firstname),
		lastname = COALESCE(NULLIF(excluded.lastname, ''), profiles.lastname),
		email = COALESCE(NULLIF(excluded.email, ''), profiles.email),
		updated_at = excluded.updated_at`

	now := s.now().Unix()
	if _, err := s.db.ExecContext(ctx, query, p.UserID, p.FirstName, p.LastName, p.Email, now, now); err != nil {
		logx.Error().Err(err).Str("user_id", p.UserID).Msg("failed to upsert profile")
		return errx.WrapSQLite(err)
	}
	return nil
}

// GetProfile loads a learner row.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	var first, last, email sql.NullString
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, firstname, lastname, email, created_at, updated_at FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &first, &last, &email, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errx.NotFound(ErrProfileNotFound, "profile not found")
	}
	if err != nil {
		return nil, errx.WrapSQLite(err)
	}
	p.FirstName, p.LastName, p.Email = first.String, last.String, email.String
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
