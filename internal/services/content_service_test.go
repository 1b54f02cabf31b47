package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAboutRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.About, error)
	ListFunc    func(ctx context.Context, publishedOnly bool) ([]*models.About, error)
	CreateFunc  func(ctx context.Context, a *models.About) (*models.About, error)
	UpdateFunc  func(ctx context.Context, id string, a *models.About) (*models.About, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockAboutRepository) GetByID(ctx context.Context, id string) (*models.About, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAboutRepository) List(ctx context.Context, publishedOnly bool) ([]*models.About, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, publishedOnly)
	}
	return []*models.About{}, nil
}

func (m *MockAboutRepository) Create(ctx context.Context, a *models.About) (*models.About, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAboutRepository) Update(ctx context.Context, id string, a *models.About) (*models.About, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, a)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAboutRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type MockContentRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.Content, error)
	ListFunc    func(ctx context.Context) ([]*models.Content, error)
	CreateFunc  func(ctx context.Context, c *models.Content) (*models.Content, error)
	UpdateFunc  func(ctx context.Context, id string, c *models.Content) (*models.Content, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockContentRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockContentRepository) List(ctx context.Context) ([]*models.Content, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Content{}, nil
}

func (m *MockContentRepository) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil, models.ErrInternalServer
}

func (m *MockContentRepository) Update(ctx context.Context, id string, c *models.Content) (*models.Content, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, c)
	}
	return nil, models.ErrInternalServer
}

func (m *MockContentRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func newTestContentService(about AboutRepository, contents ContentRepository) *ContentService {
	if about == nil {
		about = &MockAboutRepository{}
	}
	if contents == nil {
		contents = &MockContentRepository{}
	}
	return NewContentService(about, nil, contents, nil, nil, nil, slog.Default())
}

func staffUser() *models.User {
	return &models.User{ID: "staff1", Username: "staff", Role: models.RoleStaff}
}

func memberUser() *models.User {
	return &models.User{ID: "member1", Username: "member", Role: models.RoleMember}
}

func TestContentService_ListAbout_AnonymousSeesPublishedOnly(t *testing.T) {
	about := &MockAboutRepository{
		ListFunc: func(ctx context.Context, publishedOnly bool) ([]*models.About, error) {
			assert.True(t, publishedOnly)
			return []*models.About{{ID: "a1", Active: true}}, nil
		},
	}

	svc := newTestContentService(about, nil)
	entries, err := svc.ListAbout(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a1", entries[0].ID)
}

func TestContentService_ListAbout_StaffSeesEverything(t *testing.T) {
	about := &MockAboutRepository{
		ListFunc: func(ctx context.Context, publishedOnly bool) ([]*models.About, error) {
			assert.False(t, publishedOnly)
			return []*models.About{{ID: "a1", Active: true}, {ID: "a2", Active: false}}, nil
		},
	}

	svc := newTestContentService(about, nil)
	entries, err := svc.ListAbout(context.Background(), staffUser())

	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestContentService_GetAbout_InactiveHiddenFromVisitors(t *testing.T) {
	about := &MockAboutRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.About, error) {
			return &models.About{ID: id, Active: false}, nil
		},
	}

	svc := newTestContentService(about, nil)

	_, err := svc.GetAbout(context.Background(), nil, "a1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.GetAbout(context.Background(), memberUser(), "a1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	entry, err := svc.GetAbout(context.Background(), staffUser(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", entry.ID)
}

func TestContentService_CreateAbout_RequiresManager(t *testing.T) {
	created := false
	about := &MockAboutRepository{
		CreateFunc: func(ctx context.Context, a *models.About) (*models.About, error) {
			created = true
			a.ID = "a1"
			return a, nil
		},
	}

	svc := newTestContentService(about, nil)

	_, err := svc.CreateAbout(context.Background(), nil, &models.About{Title: "About us"})
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.False(t, created)

	_, err = svc.CreateAbout(context.Background(), memberUser(), &models.About{Title: "About us"})
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.False(t, created)

	entry, err := svc.CreateAbout(context.Background(), staffUser(), &models.About{Title: "About us"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a1", entry.ID)
}

func TestContentService_DeleteContent_RequiresManager(t *testing.T) {
	deleted := false
	contents := &MockContentRepository{
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}

	svc := newTestContentService(nil, contents)

	err := svc.DeleteContent(context.Background(), memberUser(), "c1")
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.False(t, deleted)

	admin := &models.User{ID: "admin1", Role: models.RoleAdmin}
	err = svc.DeleteContent(context.Background(), admin, "c1")
	require.NoError(t, err)
	assert.True(t, deleted)
}
