package integration

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/apvaldes/healthcenter/internal/database"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/apvaldes/healthcenter/internal/repositories"
	"github.com/apvaldes/healthcenter/pkg/auth"
)

// TestDB manages a PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("healthcenter"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations against the container
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	goose.SetLogger(log.New(io.Discard, "", 0))

	// Goose needs a database/sql connection; use the pgx stdlib adapter.
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"user_sessions",
		"login_attempts",
		"portfolio_entries",
		"portfolio_categories",
		"contents",
		"home_pages",
		"about_entries",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// InitializeRepositories creates all repository instances from the database wrapper
func InitializeRepositories(db *database.DB) (
	*repositories.UserRepository,
	*repositories.LoginAttemptRepository,
	*repositories.SessionRepository,
	*repositories.AboutRepository,
	*repositories.HomePageRepository,
	*repositories.ContentRepository,
	*repositories.PortfolioRepository,
	*repositories.PortfolioCategoryRepository,
) {
	return repositories.NewUserRepository(db),
		repositories.NewLoginAttemptRepository(db),
		repositories.NewSessionRepository(db),
		repositories.NewAboutRepository(db),
		repositories.NewHomePageRepository(db),
		repositories.NewContentRepository(db),
		repositories.NewPortfolioRepository(db),
		repositories.NewPortfolioCategoryRepository(db)
}

// SeedUser inserts a test user with a hashed password and the given role
func SeedUser(ctx context.Context, pool *pgxpool.Pool, username, password, role string) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, role, password_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW(), NOW())
		RETURNING id, username, email, password_hash, role, failed_login_attempts, password_changed_at, created_at, updated_at
	`

	var user models.User
	err = pool.QueryRow(ctx, query, username, username+"@example.com", hashedPassword, role).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.FailedLoginAttempts,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedLockedUser inserts a user whose account lock expired in the past
func SeedLockedUser(ctx context.Context, pool *pgxpool.Pool, username, password string, lockedUntil time.Time) (*models.User, error) {
	user, err := SeedUser(ctx, pool, username, password, models.RoleMember)
	if err != nil {
		return nil, err
	}

	query := `UPDATE users SET failed_login_attempts = 5, locked_until = $2 WHERE id = $1`
	if _, err := pool.Exec(ctx, query, user.ID, lockedUntil); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	user.FailedLoginAttempts = 5
	user.LockedUntil = &lockedUntil

	return user, nil
}
