package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/google/uuid"
)

const homeColumns = `id, banner_title, banner_images, banner_descriptions,
		welcome_message, short_description, mission, vision, image_url, video_embed, updated_at`

type HomePageRepository struct {
	db *database.DB
}

func NewHomePageRepository(db *database.DB) *HomePageRepository {
	return &HomePageRepository{db: db}
}

func scanHomeRow(scanner rowScanner) (*models.HomePage, error) {
	var h models.HomePage
	err := scanner.Scan(
		&h.ID, &h.BannerTitle, &h.BannerImages, &h.BannerDescriptions,
		&h.WelcomeMessage, &h.ShortDescription, &h.Mission, &h.Vision,
		&h.ImageURL, &h.VideoEmbed, &h.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &h, nil
}

func (r *HomePageRepository) GetByID(ctx context.Context, id string) (*models.HomePage, error) {
	query := `SELECT ` + homeColumns + ` FROM home_pages WHERE id = $1`
	return scanHomeRow(r.db.Pool.QueryRow(ctx, query, id))
}

// List returns home-page entries newest first.
func (r *HomePageRepository) List(ctx context.Context) ([]*models.HomePage, error) {
	query := `SELECT ` + homeColumns + ` FROM home_pages ORDER BY updated_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query home pages: %w", err)
	}
	defer rows.Close()

	pages := make([]*models.HomePage, 0)
	for rows.Next() {
		page, err := scanHomeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan home page: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return pages, nil
}

func (r *HomePageRepository) Create(ctx context.Context, h *models.HomePage) (*models.HomePage, error) {
	h.ID = uuid.New().String()
	h.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO home_pages (id, banner_title, banner_images, banner_descriptions,
			welcome_message, short_description, mission, vision, image_url, video_embed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + homeColumns

	return scanHomeRow(r.db.Pool.QueryRow(ctx, query,
		h.ID, h.BannerTitle, h.BannerImages, h.BannerDescriptions,
		h.WelcomeMessage, h.ShortDescription, h.Mission, h.Vision,
		h.ImageURL, h.VideoEmbed, h.UpdatedAt,
	))
}

func (r *HomePageRepository) Update(ctx context.Context, id string, h *models.HomePage) (*models.HomePage, error) {
	h.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE home_pages
		SET banner_title = $2, banner_images = $3, banner_descriptions = $4,
			welcome_message = $5, short_description = $6, mission = $7, vision = $8,
			image_url = $9, video_embed = $10, updated_at = $11
		WHERE id = $1
		RETURNING ` + homeColumns

	return scanHomeRow(r.db.Pool.QueryRow(ctx, query,
		id, h.BannerTitle, h.BannerImages, h.BannerDescriptions,
		h.WelcomeMessage, h.ShortDescription, h.Mission, h.Vision,
		h.ImageURL, h.VideoEmbed, h.UpdatedAt,
	))
}

func (r *HomePageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM home_pages WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
