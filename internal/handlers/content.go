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

type ContentServiceInterface interface {
	ListContents(ctx context.Context) ([]*models.Content, error)
	GetContent(ctx context.Context, id string) (*models.Content, error)
	CreateContent(ctx context.Context, actor *models.User, c *models.Content) (*models.Content, error)
	UpdateContent(ctx context.Context, actor *models.User, id string, c *models.Content) (*models.Content, error)
	DeleteContent(ctx context.Context, actor *models.User, id string) error
}

type ContentHandler struct {
	service ContentServiceInterface
}

func NewContentHandler(service ContentServiceInterface) *ContentHandler {
	return &ContentHandler{service: service}
}

type ContentRequest struct {
	Heading string `json:"heading" validate:"required,max=200"`
	Body    string `json:"body" validate:"required"`
}

type ContentResponse struct {
	ID        string `json:"id"`
	Heading   string `json:"heading"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func contentToResponse(c *models.Content) *ContentResponse {
	return &ContentResponse{
		ID:        c.ID,
		Heading:   c.Heading,
		Body:      c.Body,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

// List handles GET /content.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListContents(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]*ContentResponse, 0, len(entries))
	for _, c := range entries {
		resp = append(resp, contentToResponse(c))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /content/{id}.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Content not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, contentToResponse(entry))
}

// Create handles POST /content.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateContent(r.Context(), actor, &models.Content{
		Heading: req.Heading,
		Body:    req.Body,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, contentToResponse(created))
}

// Update handles PUT /content/{id}.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	updated, err := h.service.UpdateContent(r.Context(), actor, chi.URLParam(r, "id"), &models.Content{
		Heading: req.Heading,
		Body:    req.Body,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, contentToResponse(updated))
}

// Delete handles DELETE /content/{id}.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeleteContent(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) decode(w http.ResponseWriter, r *http.Request) (*ContentRequest, bool) {
	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return nil, false
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	if err := ValidateRichText(req.Body); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	return &req, true
}

func (h *ContentHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Staff access required")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Content not found")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
