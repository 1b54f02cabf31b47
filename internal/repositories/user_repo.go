package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, phone, role,
		failed_login_attempts, locked_until, password_changed_at, require_password_change,
		two_factor_enabled, two_factor_secret, last_login_ip, created_at, updated_at`

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var lockedUntil *time.Time
	var firstName, lastName, phone, twoFactorSecret, lastLoginIP *string

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&firstName, &lastName, &phone, &user.Role,
		&user.FailedLoginAttempts, &lockedUntil,
		&user.PasswordChangedAt, &user.RequirePasswordChange,
		&user.TwoFactorEnabled, &twoFactorSecret, &lastLoginIP,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.LockedUntil = lockedUntil
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if phone != nil {
		user.Phone = *phone
	}
	if twoFactorSecret != nil {
		user.TwoFactorSecret = *twoFactorSecret
	}
	if lastLoginIP != nil {
		user.LastLoginIP = *lastLoginIP
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.PasswordChangedAt.IsZero() {
		user.PasswordChangedAt = now
	}
	if user.Role == "" {
		user.Role = models.RoleMember
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, phone, role,
			password_changed_at, require_password_change, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		nullable(user.FirstName), nullable(user.LastName), nullable(user.Phone), user.Role,
		user.PasswordChangedAt, user.RequirePasswordChange, user.CreatedAt, user.UpdatedAt,
	))
}

// UpdateProfile persists the caller-editable fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error) {
	query := `
		UPDATE users SET first_name = $1, last_name = $2, email = $3, phone = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		nullable(user.FirstName), nullable(user.LastName), user.Email, nullable(user.Phone),
		time.Now().UTC(), id,
	))
}

// RecordLoginFailure increments the failure counter and, when the incremented
// value reaches the threshold, sets the lock expiry in the same statement. The
// single UPDATE serializes concurrent failed attempts on the authoritative row,
// so two racing requests cannot both observe a pre-increment count.
// Returns the post-increment counter and the lock expiry, if one is now set.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
			locked_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN $3::timestamptz
				ELSE locked_until
			END,
			updated_at = $4
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until
	`

	now := time.Now().UTC()
	lockUntil := now.Add(lockDuration)

	var count int
	var lockedUntil *time.Time
	err := r.db.Pool.QueryRow(ctx, query, id, threshold, lockUntil, now).Scan(&count, &lockedUntil)
	if err != nil {
		return 0, nil, database.MapPostgresError(err)
	}

	return count, lockedUntil, nil
}

// ResetLoginFailures zeroes the counter and clears any lock.
func (r *UserRepository) ResetLoginFailures(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, updated_at = $2
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearExpiredLock removes the lock and resets the counter only when the lock
// has already elapsed. The WHERE clause makes the self-healing transition
// idempotent: a second call matches no row and changes nothing.
func (r *UserRepository) ClearExpiredLock(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, updated_at = $3
		WHERE id = $1 AND locked_until IS NOT NULL AND locked_until <= $2
	`

	_, err := r.db.Pool.Exec(ctx, query, id, now, time.Now().UTC())
	return database.MapPostgresError(err)
}

func (r *UserRepository) UpdateLastLoginIP(ctx context.Context, id, ip string) error {
	query := `UPDATE users SET last_login_ip = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.Pool.Exec(ctx, query, id, ip, time.Now().UTC())
	return database.MapPostgresError(err)
}

// UpdatePassword stores a new hash, stamps the change time and clears the
// forced-change flag.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = $3, require_password_change = FALSE, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetTwoFactor enables or disables TOTP. The secret is cleared on disable.
func (r *UserRepository) SetTwoFactor(ctx context.Context, id string, enabled bool, secret string) error {
	query := `
		UPDATE users
		SET two_factor_enabled = $2, two_factor_secret = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, enabled, nullable(secret), time.Now().UTC())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return scanUserRows(rows)
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return users, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
