package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/google/uuid"
)

type ContentRepository struct {
	db *database.DB
}

func NewContentRepository(db *database.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	query := `SELECT id, heading, body, created_at, updated_at FROM contents WHERE id = $1`

	var c models.Content
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Heading, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func (r *ContentRepository) List(ctx context.Context) ([]*models.Content, error) {
	query := `SELECT id, heading, body, created_at, updated_at FROM contents ORDER BY updated_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	contents := make([]*models.Content, 0)
	for rows.Next() {
		var c models.Content
		if err := rows.Scan(&c.ID, &c.Heading, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return contents, nil
}

func (r *ContentRepository) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO contents (id, heading, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, heading, body, created_at, updated_at
	`

	var created models.Content
	err := r.db.Pool.QueryRow(ctx, query, c.ID, c.Heading, c.Body, c.CreatedAt, c.UpdatedAt).
		Scan(&created.ID, &created.Heading, &created.Body, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &created, nil
}

func (r *ContentRepository) Update(ctx context.Context, id string, c *models.Content) (*models.Content, error) {
	query := `
		UPDATE contents SET heading = $2, body = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, heading, body, created_at, updated_at
	`

	var updated models.Content
	err := r.db.Pool.QueryRow(ctx, query, id, c.Heading, c.Body, time.Now().UTC()).
		Scan(&updated.ID, &updated.Heading, &updated.Body, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &updated, nil
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
