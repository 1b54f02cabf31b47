package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/google/uuid"
)

const portfolioColumns = `id, title, category_id, description, image_url, created_at, updated_at`

type PortfolioRepository struct {
	db *database.DB
}

func NewPortfolioRepository(db *database.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func scanPortfolioRow(scanner rowScanner) (*models.Portfolio, error) {
	var p models.Portfolio
	err := scanner.Scan(&p.ID, &p.Title, &p.CategoryID, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &p, nil
}

func (r *PortfolioRepository) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio_entries WHERE id = $1`
	return scanPortfolioRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *PortfolioRepository) List(ctx context.Context) ([]*models.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio_entries ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.Portfolio, 0)
	for rows.Next() {
		entry, err := scanPortfolioRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

func (r *PortfolioRepository) Create(ctx context.Context, p *models.Portfolio) (*models.Portfolio, error) {
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO portfolio_entries (id, title, category_id, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + portfolioColumns

	return scanPortfolioRow(r.db.Pool.QueryRow(ctx, query,
		p.ID, p.Title, p.CategoryID, p.Description, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	))
}

func (r *PortfolioRepository) Update(ctx context.Context, id string, p *models.Portfolio) (*models.Portfolio, error) {
	query := `
		UPDATE portfolio_entries
		SET title = $2, category_id = $3, description = $4, image_url = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + portfolioColumns

	return scanPortfolioRow(r.db.Pool.QueryRow(ctx, query,
		id, p.Title, p.CategoryID, p.Description, p.ImageURL, time.Now().UTC(),
	))
}

func (r *PortfolioRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM portfolio_entries WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Categories

type PortfolioCategoryRepository struct {
	db *database.DB
}

func NewPortfolioCategoryRepository(db *database.DB) *PortfolioCategoryRepository {
	return &PortfolioCategoryRepository{db: db}
}

func (r *PortfolioCategoryRepository) GetByID(ctx context.Context, id string) (*models.PortfolioCategory, error) {
	query := `SELECT id, name, description FROM portfolio_categories WHERE id = $1`

	var c models.PortfolioCategory
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func (r *PortfolioCategoryRepository) List(ctx context.Context) ([]*models.PortfolioCategory, error) {
	query := `SELECT id, name, description FROM portfolio_categories ORDER BY name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.PortfolioCategory, 0)
	for rows.Next() {
		var c models.PortfolioCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio category: %w", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return categories, nil
}

func (r *PortfolioCategoryRepository) Create(ctx context.Context, c *models.PortfolioCategory) (*models.PortfolioCategory, error) {
	c.ID = uuid.New().String()

	query := `
		INSERT INTO portfolio_categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, name, description
	`

	var created models.PortfolioCategory
	err := r.db.Pool.QueryRow(ctx, query, c.ID, c.Name, c.Description).
		Scan(&created.ID, &created.Name, &created.Description)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &created, nil
}

// Delete removes a category; entries referencing it keep existing with a NULL
// category (ON DELETE SET NULL on the foreign key).
func (r *PortfolioCategoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM portfolio_categories WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
