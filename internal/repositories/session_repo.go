package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/google/uuid"
)

// SessionRepository tracks one row per login session, keyed by the unique
// session key. Rows are soft-deactivated, never deleted, so the session
// history stays auditable.
type SessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert inserts or updates in place on session_key. A key always maps to
// exactly one row; re-login under the same key reactivates it and refreshes
// the activity timestamp.
func (r *SessionRepository) Upsert(ctx context.Context, session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (id, user_id, session_key, ip_address, user_agent, created_at, last_activity, active)
		VALUES ($1, $2, $3, $4, $5, $6, $6, TRUE)
		ON CONFLICT (session_key) DO UPDATE
		SET user_id = EXCLUDED.user_id,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			last_activity = EXCLUDED.last_activity,
			active = TRUE
	`

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.LastActivity = now
	session.Active = true

	_, err := r.db.Pool.Exec(ctx, query,
		session.ID, session.UserID, session.SessionKey,
		session.IPAddress, session.UserAgent, now,
	)

	return database.MapPostgresError(err)
}

// GetActiveByKey resolves a session cookie to its active row.
func (r *SessionRepository) GetActiveByKey(ctx context.Context, sessionKey string) (*models.UserSession, error) {
	query := `
		SELECT id, user_id, session_key, ip_address, user_agent, created_at, last_activity, active
		FROM user_sessions
		WHERE session_key = $1 AND active = TRUE
	`

	var s models.UserSession
	err := r.db.Pool.QueryRow(ctx, query, sessionKey).Scan(
		&s.ID, &s.UserID, &s.SessionKey, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.LastActivity, &s.Active,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

// DeactivateByKey marks the session inactive on logout. Missing keys are not
// an error; logout is idempotent.
func (r *SessionRepository) DeactivateByKey(ctx context.Context, sessionKey string) error {
	query := `UPDATE user_sessions SET active = FALSE WHERE session_key = $1`
	_, err := r.db.Pool.Exec(ctx, query, sessionKey)
	return database.MapPostgresError(err)
}

// DeactivateOwned terminates a session row by id, but only when it belongs to
// ownerID. An unowned row reports ErrNotFound exactly like a missing one, so
// the caller cannot probe other users' session ids.
func (r *SessionRepository) DeactivateOwned(ctx context.Context, id, ownerID string) error {
	query := `UPDATE user_sessions SET active = FALSE WHERE id = $1 AND user_id = $2`

	result, err := r.db.Pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListActiveByUser returns the user's active sessions, most recent activity first.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.UserSession, error) {
	query := `
		SELECT id, user_id, session_key, ip_address, user_agent, created_at, last_activity, active
		FROM user_sessions
		WHERE user_id = $1 AND active = TRUE
		ORDER BY last_activity DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.UserSession, 0)
	for rows.Next() {
		var s models.UserSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.SessionKey, &s.IPAddress, &s.UserAgent,
			&s.CreatedAt, &s.LastActivity, &s.Active); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return sessions, nil
}

// Touch refreshes last_activity on authenticated use.
func (r *SessionRepository) Touch(ctx context.Context, sessionKey string) error {
	query := `UPDATE user_sessions SET last_activity = $2 WHERE session_key = $1 AND active = TRUE`
	_, err := r.db.Pool.Exec(ctx, query, sessionKey, time.Now().UTC())
	return database.MapPostgresError(err)
}

// DeactivateIdleSince marks sessions inactive when their last activity is
// older than the cutoff.
func (r *SessionRepository) DeactivateIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE user_sessions SET active = FALSE WHERE active = TRUE AND last_activity < $1`

	result, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
