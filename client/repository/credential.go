package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	access_token TEXT    NOT NULL,
	token_type   TEXT    NOT NULL DEFAULT '',
	expires_at   INTEGER NOT NULL DEFAULT 0,
	user_id      INTEGER NOT NULL DEFAULT 0,
	display_name TEXT    NOT NULL DEFAULT '',
	is_guest     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const deviceIDKey = "device_id"

var _ usecase.LocalStore = (*CredentialStore)(nil)

// CredentialStore keeps the bearer credential and the device id in a local
// sqlite file.
type CredentialStore struct {
	db *sql.DB
}

func OpenCredentialStore(path string) (*CredentialStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate credential db: %w", err)
	}
	return &CredentialStore{db: db}, nil
}

func (s *CredentialStore) Close() error {
	return s.db.Close()
}

func (s *CredentialStore) Save(ctx context.Context, cred domain.Credential) error {
	query := `
		INSERT INTO credentials (id, access_token, token_type, expires_at, user_id, display_name, is_guest)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type   = excluded.token_type,
			expires_at   = excluded.expires_at,
			user_id      = excluded.user_id,
			display_name = excluded.display_name,
			is_guest     = excluded.is_guest
	`
	var expiresAt int64
	if !cred.ExpiresAt.IsZero() {
		expiresAt = cred.ExpiresAt.UnixMilli()
	}
	if _, err := s.db.ExecContext(ctx, query,
		cred.AccessToken, cred.TokenType, expiresAt, cred.UserID, cred.DisplayName, cred.IsGuest,
	); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Load returns ErrNotFound when nobody is logged in.
func (s *CredentialStore) Load(ctx context.Context) (domain.Credential, error) {
	query := `SELECT access_token, token_type, expires_at, user_id, display_name, is_guest FROM credentials WHERE id = 1`
	var (
		cred      domain.Credential
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, query).Scan(
		&cred.AccessToken, &cred.TokenType, &expiresAt, &cred.UserID, &cred.DisplayName, &cred.IsGuest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Credential{}, ErrNotFound
	}
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to load credential: %w", err)
	}
	if expiresAt > 0 {
		cred.ExpiresAt = time.UnixMilli(expiresAt)
	} else if exp, ok := TokenExpiry(cred.AccessToken); ok {
		cred.ExpiresAt = exp
	}
	return cred, nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// DeviceID returns the id this installation presents when joining rooms,
// creating it on first use.
func (s *CredentialStore) DeviceID(ctx context.Context) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, deviceIDKey, ulid.Make().String(),
	); err != nil {
		return "", fmt.Errorf("failed to create device id: %w", err)
	}
	var id string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, deviceIDKey).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	return id, nil
}

// TokenExpiry reads the exp claim without verifying the signature.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
