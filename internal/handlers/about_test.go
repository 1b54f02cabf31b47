package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/apvaldes/healthcenter/internal/handlers"
	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAboutService struct {
	ListAboutFunc   func(ctx context.Context, actor *models.User) ([]*models.About, error)
	GetAboutFunc    func(ctx context.Context, actor *models.User, id string) (*models.About, error)
	CreateAboutFunc func(ctx context.Context, actor *models.User, a *models.About) (*models.About, error)
	UpdateAboutFunc func(ctx context.Context, actor *models.User, id string, a *models.About) (*models.About, error)
	DeleteAboutFunc func(ctx context.Context, actor *models.User, id string) error
}

func (m *mockAboutService) ListAbout(ctx context.Context, actor *models.User) ([]*models.About, error) {
	if m.ListAboutFunc != nil {
		return m.ListAboutFunc(ctx, actor)
	}
	return []*models.About{}, nil
}

func (m *mockAboutService) GetAbout(ctx context.Context, actor *models.User, id string) (*models.About, error) {
	if m.GetAboutFunc != nil {
		return m.GetAboutFunc(ctx, actor, id)
	}
	return nil, models.ErrNotFound
}

func (m *mockAboutService) CreateAbout(ctx context.Context, actor *models.User, a *models.About) (*models.About, error) {
	if m.CreateAboutFunc != nil {
		return m.CreateAboutFunc(ctx, actor, a)
	}
	return nil, models.ErrForbidden
}

func (m *mockAboutService) UpdateAbout(ctx context.Context, actor *models.User, id string, a *models.About) (*models.About, error) {
	if m.UpdateAboutFunc != nil {
		return m.UpdateAboutFunc(ctx, actor, id, a)
	}
	return nil, models.ErrForbidden
}

func (m *mockAboutService) DeleteAbout(ctx context.Context, actor *models.User, id string) error {
	if m.DeleteAboutFunc != nil {
		return m.DeleteAboutFunc(ctx, actor, id)
	}
	return models.ErrForbidden
}

func TestAboutList_AnonymousGetsPublished(t *testing.T) {
	mock := &mockAboutService{
		ListAboutFunc: func(ctx context.Context, actor *models.User) ([]*models.About, error) {
			assert.Nil(t, actor)
			return []*models.About{{ID: "a1", Title: "About us", Active: true}}, nil
		},
	}

	handler := handlers.NewAboutHandler(mock)
	req := handlers.NewTestRequest(t, "GET", "/about", nil)

	w := httptest.NewRecorder()
	handler.List(w, req)

	var resp []*handlers.AboutResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "About us", resp[0].Title)
}

func TestAboutCreate_RequiresAuthentication(t *testing.T) {
	handler := handlers.NewAboutHandler(&mockAboutService{})
	req := handlers.NewTestRequest(t, "POST", "/about", handlers.AboutRequest{Title: "About us"})

	w := httptest.NewRecorder()
	handler.Create(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestAboutCreate_MemberForbidden(t *testing.T) {
	mock := &mockAboutService{
		CreateAboutFunc: func(ctx context.Context, actor *models.User, a *models.About) (*models.About, error) {
			return nil, models.ErrForbidden
		},
	}

	handler := handlers.NewAboutHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/about", handlers.AboutRequest{Title: "About us"})
	req = handlers.WithUserContext(req, handlers.TestUser("user1", "member"), "key")

	w := httptest.NewRecorder()
	handler.Create(w, req)

	handlers.AssertErrorResponse(t, w, 403, "forbidden")
}

func TestAboutCreate_Staff(t *testing.T) {
	mock := &mockAboutService{
		CreateAboutFunc: func(ctx context.Context, actor *models.User, a *models.About) (*models.About, error) {
			a.ID = "a1"
			return a, nil
		},
	}

	staff := handlers.TestUser("staff1", "staff")
	staff.Role = models.RoleStaff

	handler := handlers.NewAboutHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/about", handlers.AboutRequest{
		Title:           "About us",
		Mission:         "Accessible community healthcare",
		EstablishedYear: intPtr(1998),
		Active:          true,
	})
	req = handlers.WithUserContext(req, staff, "key")

	w := httptest.NewRecorder()
	handler.Create(w, req)

	var resp handlers.AboutResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "a1", resp.ID)
	assert.Equal(t, 1998, *resp.EstablishedYear)
}

func TestAboutCreate_RichTextScreened(t *testing.T) {
	called := false
	mock := &mockAboutService{
		CreateAboutFunc: func(ctx context.Context, actor *models.User, a *models.About) (*models.About, error) {
			called = true
			return a, nil
		},
	}

	staff := handlers.TestUser("staff1", "staff")
	staff.Role = models.RoleStaff

	handler := handlers.NewAboutHandler(mock)
	req := handlers.NewTestRequest(t, "POST", "/about", handlers.AboutRequest{
		Title:   "About us",
		Mission: "care; DROP TABLE users",
	})
	req = handlers.WithUserContext(req, staff, "key")

	w := httptest.NewRecorder()
	handler.Create(w, req)

	assert.Equal(t, 400, w.Code)
	assert.False(t, called)
}

func intPtr(v int) *int { return &v }
