package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/apvaldes/healthcenter/internal/auth"
	"github.com/apvaldes/healthcenter/internal/models"
	pkghttp "github.com/apvaldes/healthcenter/pkg/http"
	"github.com/go-chi/chi/v5"
)

type PortfolioServiceInterface interface {
	ListPortfolio(ctx context.Context) ([]*models.Portfolio, error)
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	CreatePortfolio(ctx context.Context, actor *models.User, p *models.Portfolio) (*models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, actor *models.User, id string, p *models.Portfolio) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, actor *models.User, id string) error
	ListCategories(ctx context.Context) ([]*models.PortfolioCategory, error)
	CreateCategory(ctx context.Context, actor *models.User, c *models.PortfolioCategory) (*models.PortfolioCategory, error)
	DeleteCategory(ctx context.Context, actor *models.User, id string) error
}

type PortfolioHandler struct {
	service PortfolioServiceInterface
}

func NewPortfolioHandler(service PortfolioServiceInterface) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

type PortfolioRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	CategoryID  *string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
}

type PortfolioResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	CategoryID  *string `json:"category_id,omitempty"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func portfolioToResponse(p *models.Portfolio) *PortfolioResponse {
	return &PortfolioResponse{
		ID:          p.ID,
		Title:       p.Title,
		CategoryID:  p.CategoryID,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

// List handles GET /portfolio.
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListPortfolio(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]*PortfolioResponse, 0, len(entries))
	for _, p := range entries {
		resp = append(resp, portfolioToResponse(p))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /portfolio/{id}.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetPortfolio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Portfolio entry not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, portfolioToResponse(entry))
}

// Create handles POST /portfolio.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreatePortfolio(r.Context(), actor, &models.Portfolio{
		Title:       req.Title,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, portfolioToResponse(created))
}

// Update handles PUT /portfolio/{id}.
func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	updated, err := h.service.UpdatePortfolio(r.Context(), actor, chi.URLParam(r, "id"), &models.Portfolio{
		Title:       req.Title,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, portfolioToResponse(updated))
}

// Delete handles DELETE /portfolio/{id}.
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeletePortfolio(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /portfolio/categories.
func (h *PortfolioHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]*CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, &CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description})
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// CreateCategory handles POST /portfolio/categories.
func (h *PortfolioHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.CreateCategory(r.Context(), actor, &models.PortfolioCategory{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "A category with this name already exists")
			return
		}
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, &CategoryResponse{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
	})
}

// DeleteCategory handles DELETE /portfolio/categories/{id}. Entries in the
// category survive with their category cleared.
func (h *PortfolioHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Category not found")
			return
		}
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) decode(w http.ResponseWriter, r *http.Request) (*PortfolioRequest, bool) {
	var req PortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return nil, false
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	if err := ValidateRichText(req.Description); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	return &req, true
}

func (h *PortfolioHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Staff access required")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Portfolio entry not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid category reference")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
