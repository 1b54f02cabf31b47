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

type HomeServiceInterface interface {
	ListHomePages(ctx context.Context) ([]*models.HomePage, error)
	CreateHomePage(ctx context.Context, actor *models.User, h *models.HomePage) (*models.HomePage, error)
	UpdateHomePage(ctx context.Context, actor *models.User, id string, h *models.HomePage) (*models.HomePage, error)
	DeleteHomePage(ctx context.Context, actor *models.User, id string) error
}

type HomeHandler struct {
	service HomeServiceInterface
}

func NewHomeHandler(service HomeServiceInterface) *HomeHandler {
	return &HomeHandler{service: service}
}

type HomePageRequest struct {
	BannerTitle        string   `json:"banner_title,omitempty" validate:"max=200"`
	BannerImages       []string `json:"banner_images,omitempty" validate:"max=3,dive,url"`
	BannerDescriptions []string `json:"banner_descriptions,omitempty" validate:"max=3"`
	WelcomeMessage     string   `json:"welcome_message,omitempty"`
	ShortDescription   string   `json:"short_description,omitempty" validate:"max=500"`
	Mission            string   `json:"mission,omitempty"`
	Vision             string   `json:"vision,omitempty"`
	ImageURL           string   `json:"image_url,omitempty" validate:"omitempty,url"`
	VideoEmbed         string   `json:"video_embed,omitempty" validate:"omitempty,url"`
}

type HomePageResponse struct {
	ID                 string   `json:"id"`
	BannerTitle        string   `json:"banner_title,omitempty"`
	BannerImages       []string `json:"banner_images,omitempty"`
	BannerDescriptions []string `json:"banner_descriptions,omitempty"`
	WelcomeMessage     string   `json:"welcome_message,omitempty"`
	ShortDescription   string   `json:"short_description,omitempty"`
	Mission            string   `json:"mission,omitempty"`
	Vision             string   `json:"vision,omitempty"`
	ImageURL           string   `json:"image_url,omitempty"`
	VideoEmbed         string   `json:"video_embed,omitempty"`
	UpdatedAt          string   `json:"updated_at"`
}

func homeToResponse(p *models.HomePage) *HomePageResponse {
	return &HomePageResponse{
		ID:                 p.ID,
		BannerTitle:        p.BannerTitle,
		BannerImages:       p.BannerImages,
		BannerDescriptions: p.BannerDescriptions,
		WelcomeMessage:     p.WelcomeMessage,
		ShortDescription:   p.ShortDescription,
		Mission:            p.Mission,
		Vision:             p.Vision,
		ImageURL:           p.ImageURL,
		VideoEmbed:         p.VideoEmbed,
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339),
	}
}

func (req *HomePageRequest) toModel() *models.HomePage {
	return &models.HomePage{
		BannerTitle:        req.BannerTitle,
		BannerImages:       req.BannerImages,
		BannerDescriptions: req.BannerDescriptions,
		WelcomeMessage:     req.WelcomeMessage,
		ShortDescription:   req.ShortDescription,
		Mission:            req.Mission,
		Vision:             req.Vision,
		ImageURL:           req.ImageURL,
		VideoEmbed:         req.VideoEmbed,
	}
}

func (req *HomePageRequest) validateText() error {
	for _, field := range []string{req.WelcomeMessage, req.Mission, req.Vision} {
		if err := ValidateRichText(field); err != nil {
			return err
		}
	}
	return nil
}

// List handles GET /home.
func (h *HomeHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListHomePages(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]*HomePageResponse, 0, len(pages))
	for _, p := range pages {
		resp = append(resp, homeToResponse(p))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Create handles POST /home.
func (h *HomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req HomePageRequest
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

	created, err := h.service.CreateHomePage(r.Context(), actor, req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, homeToResponse(created))
}

// Update handles PUT /home/{id}.
func (h *HomeHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req HomePageRequest
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

	updated, err := h.service.UpdateHomePage(r.Context(), actor, chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, homeToResponse(updated))
}

// Delete handles DELETE /home/{id}.
func (h *HomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.DeleteHomePage(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HomeHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Staff access required")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Home page not found")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
