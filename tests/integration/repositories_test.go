package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apvaldes/healthcenter/internal/models"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	if err := testDB.Teardown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to tear down test database: %v\n", err)
	}

	os.Exit(code)
}

func setupTest(t *testing.T) context.Context {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))
	return ctx
}

func TestUserRepository_RecordLoginFailure_LocksAtThreshold(t *testing.T) {
	ctx := setupTest(t)
	users, _, _, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	user, err := SeedUser(ctx, testDB.Pool, "alice", "Str0ng!Pass", models.RoleMember)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		count, lockedUntil, err := users.RecordLoginFailure(ctx, user.ID, 5, 30*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Nil(t, lockedUntil)
	}

	count, lockedUntil, err := users.RecordLoginFailure(ctx, user.ID, 5, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	require.NotNil(t, lockedUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *lockedUntil, 5*time.Second)
}

func TestUserRepository_ResetLoginFailures(t *testing.T) {
	ctx := setupTest(t)
	users, _, _, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	user, err := SeedLockedUser(ctx, testDB.Pool, "bob", "Str0ng!Pass", time.Now().Add(30*time.Minute))
	require.NoError(t, err)

	require.NoError(t, users.ResetLoginFailures(ctx, user.ID))

	reloaded, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.FailedLoginAttempts)
	assert.Nil(t, reloaded.LockedUntil)
}

func TestUserRepository_ClearExpiredLock(t *testing.T) {
	ctx := setupTest(t)
	users, _, _, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	t.Run("clears an elapsed lock", func(t *testing.T) {
		user, err := SeedLockedUser(ctx, testDB.Pool, "carol", "Str0ng!Pass", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		require.NoError(t, users.ClearExpiredLock(ctx, user.ID, time.Now()))

		reloaded, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, reloaded.FailedLoginAttempts)
		assert.Nil(t, reloaded.LockedUntil)

		// Second call matches no row and stays a no-op.
		require.NoError(t, users.ClearExpiredLock(ctx, user.ID, time.Now()))
	})

	t.Run("leaves an unexpired lock in place", func(t *testing.T) {
		until := time.Now().Add(30 * time.Minute)
		user, err := SeedLockedUser(ctx, testDB.Pool, "dave", "Str0ng!Pass", until)
		require.NoError(t, err)

		require.NoError(t, users.ClearExpiredLock(ctx, user.ID, time.Now()))

		reloaded, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, reloaded.FailedLoginAttempts)
		require.NotNil(t, reloaded.LockedUntil)
	})
}

func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	ctx := setupTest(t)
	users, _, _, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	_, err := SeedUser(ctx, testDB.Pool, "erin", "Str0ng!Pass", models.RoleMember)
	require.NoError(t, err)

	_, err = users.Create(ctx, &models.User{
		Username:     "erin",
		Email:        "other@example.com",
		PasswordHash: "x",
		Role:         models.RoleMember,
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestLoginAttemptRepository_RecordAndPrune(t *testing.T) {
	ctx := setupTest(t)
	_, attempts, _, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	reason := models.FailureBadPassword
	for i := 0; i < 3; i++ {
		err := attempts.Record(ctx, &models.LoginAttempt{
			Username:      "alice",
			IPAddress:     "203.0.113.7",
			UserAgent:     "integration-test",
			Success:       false,
			FailureReason: &reason,
		})
		require.NoError(t, err)
	}
	require.NoError(t, attempts.Record(ctx, &models.LoginAttempt{
		Username:  "alice",
		IPAddress: "203.0.113.7",
		Success:   true,
	}))

	recent, err := attempts.ListRecentByUsername(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.True(t, recent[0].Success, "newest attempt should come first")

	// Nothing is old enough to prune yet.
	pruned, err := attempts.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, pruned)

	pruned, err = attempts.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 4, pruned)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	ctx := setupTest(t)
	_, _, sessions, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	user, err := SeedUser(ctx, testDB.Pool, "frank", "Str0ng!Pass", models.RoleMember)
	require.NoError(t, err)

	session := &models.UserSession{
		UserID:     user.ID,
		SessionKey: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		IPAddress:  "203.0.113.7",
		UserAgent:  "integration-test",
	}
	require.NoError(t, sessions.Upsert(ctx, session))

	found, err := sessions.GetActiveByKey(ctx, session.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)
	assert.True(t, found.Active)

	// Re-login under the same key updates in place rather than adding a row.
	require.NoError(t, sessions.Upsert(ctx, &models.UserSession{
		UserID:     user.ID,
		SessionKey: session.SessionKey,
		IPAddress:  "203.0.113.8",
	}))

	active, err := sessions.ListActiveByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "203.0.113.8", active[0].IPAddress)

	require.NoError(t, sessions.DeactivateByKey(ctx, session.SessionKey))

	_, err = sessions.GetActiveByKey(ctx, session.SessionKey)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSessionRepository_DeactivateOwned(t *testing.T) {
	ctx := setupTest(t)
	_, _, sessions, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	owner, err := SeedUser(ctx, testDB.Pool, "grace", "Str0ng!Pass", models.RoleMember)
	require.NoError(t, err)
	other, err := SeedUser(ctx, testDB.Pool, "heidi", "Str0ng!Pass", models.RoleMember)
	require.NoError(t, err)

	session := &models.UserSession{
		UserID:     owner.ID,
		SessionKey: "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210",
		IPAddress:  "203.0.113.7",
	}
	require.NoError(t, sessions.Upsert(ctx, session))

	// Another user's id must look exactly like a missing session.
	err = sessions.DeactivateOwned(ctx, session.ID, other.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, sessions.DeactivateOwned(ctx, session.ID, owner.ID))

	active, err := sessions.ListActiveByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSessionRepository_DeactivateIdleSince(t *testing.T) {
	ctx := setupTest(t)
	_, _, sessions, _, _, _, _, _ := InitializeRepositories(testDB.DB)

	user, err := SeedUser(ctx, testDB.Pool, "ivan", "Str0ng!Pass", models.RoleMember)
	require.NoError(t, err)

	session := &models.UserSession{
		UserID:     user.ID,
		SessionKey: "00112233445566770011223344556677001122334455667700112233445566aa",
		IPAddress:  "203.0.113.7",
	}
	require.NoError(t, sessions.Upsert(ctx, session))

	// Backdate the activity timestamp past the idle cutoff.
	_, err = testDB.Pool.Exec(ctx,
		`UPDATE user_sessions SET last_activity = NOW() - INTERVAL '15 days' WHERE session_key = $1`,
		session.SessionKey)
	require.NoError(t, err)

	reaped, err := sessions.DeactivateIdleSince(ctx, time.Now().Add(-14*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, reaped)

	_, err = sessions.GetActiveByKey(ctx, session.SessionKey)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAboutRepository_PublishedFilter(t *testing.T) {
	ctx := setupTest(t)
	_, _, _, about, _, _, _, _ := InitializeRepositories(testDB.DB)

	published, err := about.Create(ctx, &models.About{
		Title:          "Clinic",
		WelcomeMessage: "Welcome",
		Active:         true,
	})
	require.NoError(t, err)

	_, err = about.Create(ctx, &models.About{
		Title:  "Draft rewrite",
		Active: false,
	})
	require.NoError(t, err)

	visible, err := about.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, published.ID, visible[0].ID)

	all, err := about.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestContentRepository_CRUD(t *testing.T) {
	ctx := setupTest(t)
	_, _, _, _, _, contents, _, _ := InitializeRepositories(testDB.DB)

	created, err := contents.Create(ctx, &models.Content{
		Heading: "Visiting hours",
		Body:    "Open weekdays 8am-5pm.",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := contents.Update(ctx, created.ID, &models.Content{
		Heading: "Visiting hours",
		Body:    "Open weekdays 8am-6pm.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Open weekdays 8am-6pm.", updated.Body)

	require.NoError(t, contents.Delete(ctx, created.ID))

	_, err = contents.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = contents.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPortfolioRepository_CategoryDeleteNullsReference(t *testing.T) {
	ctx := setupTest(t)
	_, _, _, _, _, _, portfolio, categories := InitializeRepositories(testDB.DB)

	category, err := categories.Create(ctx, &models.PortfolioCategory{Name: "Outreach"})
	require.NoError(t, err)

	entry, err := portfolio.Create(ctx, &models.Portfolio{
		Title:      "Vaccination drive",
		CategoryID: &category.ID,
	})
	require.NoError(t, err)

	_, err = categories.Create(ctx, &models.PortfolioCategory{Name: "Outreach"})
	assert.ErrorIs(t, err, models.ErrConflict)

	require.NoError(t, categories.Delete(ctx, category.ID))

	reloaded, err := portfolio.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CategoryID, "deleting a category detaches its entries")
}
