package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// AccountRepository implements persistence.AccountRepository using SQLite.
type AccountRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAccountRepository creates a new SQLite account repository.
func NewAccountRepository(pool *ConnectionPool) *AccountRepository {
	return &AccountRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const accountColumns = `id, role, email, password_hash, display_name, first_name, last_name, phone, address, is_admin, disabled, created_at, updated_at`

// CreateAccount stores a new account. A duplicate email fails with ErrDuplicate.
func (r *AccountRepository) CreateAccount(ctx context.Context, account persistence.Account) error {
	if account.ID == "" || strings.TrimSpace(account.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Role,
		strings.ToLower(strings.TrimSpace(account.Email)),
		account.PasswordHash,
		account.DisplayName,
		account.FirstName,
		account.LastName,
		account.Phone,
		account.Address,
		account.IsAdmin,
		account.Disabled,
		formatTime(account.CreatedAt),
		formatTime(account.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetAccount retrieves an account by id.
func (r *AccountRepository) GetAccount(ctx context.Context, id string) (persistence.Account, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return r.scanAccount(row)
}

// GetAccountByEmail retrieves an account by its normalized email.
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (persistence.Account, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return persistence.Account{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, normalized)
	return r.scanAccount(row)
}

func (r *AccountRepository) scanAccount(row *sql.Row) (persistence.Account, error) {
	var account persistence.Account
	var createdAt, updatedAt string

	err := row.Scan(
		&account.ID,
		&account.Role,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.FirstName,
		&account.LastName,
		&account.Phone,
		&account.Address,
		&account.IsAdmin,
		&account.Disabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Account{}, r.mapper.MapError(err)
	}

	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Account{}, err
	}
	if account.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Account{}, err
	}
	return account, nil
}

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession stores a new session token for an account.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.AccountID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO sessions (id, account_id, token, expires_at, revoked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.AccountID,
		strings.TrimSpace(session.Token),
		formatTime(session.ExpiresAt),
		formatTimePtr(session.RevokedAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	var session persistence.Session
	var expiresAt, createdAt, updatedAt string
	var revokedAt sql.NullString

	err := r.helper.QueryRow(ctx, `
		SELECT id, account_id, token, expires_at, revoked_at, created_at, updated_at
		FROM sessions
		WHERE token = ?`, normalized).Scan(
		&session.ID,
		&session.AccountID,
		&session.Token,
		&expiresAt,
		&revokedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseTimePtr(revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// RevokeSession marks a session as revoked based on its token value.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ?`,
		formatTime(revokedAt), formatTime(revokedAt), normalized)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, err
	}
	if affected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return r.GetSession(ctx, normalized)
}

// DeleteExpiredSessions removes sessions that expired on or before the reference time.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference))
	return r.mapper.MapError(err)
}
