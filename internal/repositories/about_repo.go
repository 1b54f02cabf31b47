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

const aboutColumns = `id, title, banner_title, banner_images, banner_descriptions,
		welcome_message, short_description, mission, vision, history, description,
		established_year, phone, email, address, working_hours, active, updated_at`

type AboutRepository struct {
	db *database.DB
}

func NewAboutRepository(db *database.DB) *AboutRepository {
	return &AboutRepository{db: db}
}

func scanAboutRow(scanner rowScanner) (*models.About, error) {
	var a models.About
	err := scanner.Scan(
		&a.ID, &a.Title, &a.BannerTitle, &a.BannerImages, &a.BannerDescriptions,
		&a.WelcomeMessage, &a.ShortDescription, &a.Mission, &a.Vision, &a.History,
		&a.Description, &a.EstablishedYear, &a.Phone, &a.Email, &a.Address,
		&a.WorkingHours, &a.Active, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

func (r *AboutRepository) GetByID(ctx context.Context, id string) (*models.About, error) {
	query := `SELECT ` + aboutColumns + ` FROM about_entries WHERE id = $1`
	return scanAboutRow(r.db.Pool.QueryRow(ctx, query, id))
}

// List returns entries newest-updated first. When publishedOnly is set, only
// active entries are visible (the anonymous-visitor view).
func (r *AboutRepository) List(ctx context.Context, publishedOnly bool) ([]*models.About, error) {
	query := `SELECT ` + aboutColumns + ` FROM about_entries`
	if publishedOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query about entries: %w", err)
	}
	return collectAboutRows(rows)
}

func collectAboutRows(rows pgx.Rows) ([]*models.About, error) {
	defer rows.Close()

	entries := make([]*models.About, 0)
	for rows.Next() {
		entry, err := scanAboutRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan about entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

func (r *AboutRepository) Create(ctx context.Context, a *models.About) (*models.About, error) {
	a.ID = uuid.New().String()
	a.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO about_entries (id, title, banner_title, banner_images, banner_descriptions,
			welcome_message, short_description, mission, vision, history, description,
			established_year, phone, email, address, working_hours, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + aboutColumns

	return scanAboutRow(r.db.Pool.QueryRow(ctx, query,
		a.ID, a.Title, a.BannerTitle, a.BannerImages, a.BannerDescriptions,
		a.WelcomeMessage, a.ShortDescription, a.Mission, a.Vision, a.History,
		a.Description, a.EstablishedYear, a.Phone, a.Email, a.Address,
		a.WorkingHours, a.Active, a.UpdatedAt,
	))
}

func (r *AboutRepository) Update(ctx context.Context, id string, a *models.About) (*models.About, error) {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE about_entries
		SET title = $2, banner_title = $3, banner_images = $4, banner_descriptions = $5,
			welcome_message = $6, short_description = $7, mission = $8, vision = $9,
			history = $10, description = $11, established_year = $12, phone = $13,
			email = $14, address = $15, working_hours = $16, active = $17, updated_at = $18
		WHERE id = $1
		RETURNING ` + aboutColumns

	return scanAboutRow(r.db.Pool.QueryRow(ctx, query,
		id, a.Title, a.BannerTitle, a.BannerImages, a.BannerDescriptions,
		a.WelcomeMessage, a.ShortDescription, a.Mission, a.Vision, a.History,
		a.Description, a.EstablishedYear, a.Phone, a.Email, a.Address,
		a.WorkingHours, a.Active, a.UpdatedAt,
	))
}

func (r *AboutRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM about_entries WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
