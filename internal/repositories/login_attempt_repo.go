package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/google/uuid"
)

// LoginAttemptRepository is the append-only attempt log. Rows are never
// updated; they are only pruned by the background cleanup.
type LoginAttemptRepository struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func (r *LoginAttemptRepository) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (id, username, ip_address, user_agent, success, failure_reason, attempt_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.AttemptTime.IsZero() {
		attempt.AttemptTime = time.Now().UTC()
	}

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.ID,
		attempt.Username,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Success,
		attempt.FailureReason,
		attempt.AttemptTime,
	)

	return database.MapPostgresError(err)
}

// ListRecentByUsername returns the newest attempts first. Display only; policy
// decisions never read from here.
func (r *LoginAttemptRepository) ListRecentByUsername(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, username, ip_address, user_agent, success, failure_reason, attempt_time
		FROM login_attempts
		WHERE username = $1
		ORDER BY attempt_time DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0)
	for rows.Next() {
		var a models.LoginAttempt
		if err := rows.Scan(&a.ID, &a.Username, &a.IPAddress, &a.UserAgent, &a.Success, &a.FailureReason, &a.AttemptTime); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return attempts, nil
}

// DeleteOlderThan prunes attempts past the retention window.
func (r *LoginAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM login_attempts WHERE attempt_time < $1`

	result, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
