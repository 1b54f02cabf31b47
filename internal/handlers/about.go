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

// AboutServiceInterface defines the about-page operations used by the handler.
type AboutServiceInterface interface {
	ListAbout(ctx context.Context, actor *models.User) ([]*models.About, error)
	GetAbout(ctx context.Context, actor *models.User, id string) (*models.About, error)
	CreateAbout(ctx context.Context, actor *models.User, a *models.About) (*models.About, error)
	UpdateAbout(ctx context.Context, actor *models.User, id string, a *models.About) (*models.About, error)
	DeleteAbout(ctx context.Context, actor *models.User, id string) error
}

type AboutHandler struct {
	service AboutServiceInterface
}

func NewAboutHandler(service AboutServiceInterface) *AboutHandler {
	return &AboutHandler{service: service}
}

type AboutRequest struct {
	Title              string   `json:"title" validate:"required,max=200"`
	BannerTitle        string   `json:"banner_title,omitempty" validate:"max=200"`
	BannerImages       []string `json:"banner_images,omitempty" validate:"max=3,dive,url"`
	BannerDescriptions []string `json:"banner_descriptions,omitempty" validate:"max=3"`
	WelcomeMessage     string   `json:"welcome_message,omitempty"`
	ShortDescription   string   `json:"short_description,omitempty" validate:"max=500"`
	Mission            string   `json:"mission,omitempty"`
	Vision             string   `json:"vision,omitempty"`
	History            string   `json:"history,omitempty"`
	Description        string   `json:"description,omitempty"`
	EstablishedYear    *int     `json:"established_year,omitempty" validate:"omitempty,min=1800,max=2100"`
	Phone              string   `json:"phone,omitempty" validate:"max=20"`
	Email              string   `json:"email,omitempty" validate:"omitempty,email"`
	Address            string   `json:"address,omitempty" validate:"max=300"`
	WorkingHours       string   `json:"working_hours,omitempty" validate:"max=200"`
	Active             bool     `json:"active"`
}

type AboutResponse struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	BannerTitle        string   `json:"banner_title,omitempty"`
	BannerImages       []string `json:"banner_images,omitempty"`
	BannerDescriptions []string `json:"banner_descriptions,omitempty"`
	WelcomeMessage     string   `json:"welcome_message,omitempty"`
	ShortDescription   string   `json:"short_description,omitempty"`
	Mission            string   `json:"mission,omitempty"`
	Vision             string   `json:"vision,omitempty"`
	History            string   `json:"history,omitempty"`
	Description        string   `json:"description,omitempty"`
	EstablishedYear    *int     `json:"established_year,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Email              string   `json:"email,omitempty"`
	Address            string   `json:"address,omitempty"`
	WorkingHours       string   `json:"working_hours,omitempty"`
	Active             bool     `json:"active"`
	UpdatedAt          string   `json:"updated_at"`
}

func aboutToResponse(a *models.About) *AboutResponse {
	return &AboutResponse{
		ID:                 a.ID,
		Title:              a.Title,
		BannerTitle:        a.BannerTitle,
		BannerImages:       a.BannerImages,
		BannerDescriptions: a.BannerDescriptions,
		WelcomeMessage:     a.WelcomeMessage,
		ShortDescription:   a.ShortDescription,
		Mission:            a.Mission,
		Vision:             a.Vision,
		History:            a.History,
		Description:        a.Description,
		EstablishedYear:    a.EstablishedYear,
		Phone:              a.Phone,
		Email:              a.Email,
		Address:            a.Address,
		WorkingHours:       a.WorkingHours,
		Active:             a.Active,
		UpdatedAt:          a.UpdatedAt.Format(time.RFC3339),
	}
}

func (req *AboutRequest) toModel() *models.About {
	return &models.About{
		Title:              req.Title,
		BannerTitle:        req.BannerTitle,
		BannerImages:       req.BannerImages,
		BannerDescriptions: req.BannerDescriptions,
		WelcomeMessage:     req.WelcomeMessage,
		ShortDescription:   req.ShortDescription,
		Mission:            req.Mission,
		Vision:             req.Vision,
		History:            req.History,
		Description:        req.Description,
		EstablishedYear:    req.EstablishedYear,
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		WorkingHours:       req.WorkingHours,
		Active:             req.Active,
	}
}

func (req *AboutRequest) validateText() error {
	for _, field := range []string{
		req.WelcomeMessage, req.Mission, req.Vision,
		req.History, req.Description,
	} {
		if err := ValidateRichText(field); err != nil {
			return err
		}
	}
	return nil
}

// List handles GET /about. Anonymous visitors see active entries only;
// managers see everything.
func (h *AboutHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	entries, err := h.service.ListAbout(r.Context(), actor)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]*AboutResponse, 0, len(entries))
	for _, a := range entries {
		resp = append(resp, aboutToResponse(a))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /about/{id}.
func (h *AboutHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	entry, err := h.service.GetAbout(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "About entry not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, aboutToResponse(entry))
}

// Create handles POST /about.
func (h *AboutHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req AboutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := req.validateText(); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.CreateAbout(r.Context(), actor, req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, aboutToResponse(created))
}

// Update handles PUT /about/{id}.
func (h *AboutHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req AboutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := req.validateText(); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateAbout(r.Context(), actor, chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, aboutToResponse(updated))
}

// Delete handles DELETE /about/{id}.
func (h *AboutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeleteAbout(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AboutHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Staff access required")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "About entry not found")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
