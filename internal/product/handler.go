package product

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"storefront-api/internal/auth"
	"storefront-api/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name           string         `json:"name"`
	CategoryID     string         `json:"category_id"`
	Description    string         `json:"description"`
	Images         []string       `json:"images"`
	Specifications map[string]any `json:"specifications"`
	IsActive       *bool          `json:"is_active"`
	SEOTitle       string         `json:"seo_title"`
	SEODescription string         `json:"seo_description"`
	SEOKeywords    string         `json:"seo_keywords"`
	SEOSlug        string         `json:"seo_slug"`
}

type updateRequest struct {
	Name           *string        `json:"name"`
	CategoryID     *string        `json:"category_id"`
	Description    *string        `json:"description"`
	Images         *[]string      `json:"images"`
	Specifications map[string]any `json:"specifications"`
	IsActive       *bool          `json:"is_active"`
	SEOTitle       *string        `json:"seo_title"`
	SEODescription *string        `json:"seo_description"`
	SEOKeywords    *string        `json:"seo_keywords"`
	SEOSlug        *string        `json:"seo_slug"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	filter.CategoryID = strings.TrimSpace(r.URL.Query().Get("category_id"))

	h.writeList(w, r, filter)
}

// ListByMainCategory lists products under a main category slug, optionally
// narrowed to one sub-category.
func (h *Handler) ListByMainCategory(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	filter.MainCategorySlug = chi.URLParam(r, "slug")
	filter.CategoryID = strings.TrimSpace(r.URL.Query().Get("sub_category_id"))

	h.writeList(w, r, filter)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	products, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    total,
		"limit":    filter.Limit,
		"skip":     filter.Skip,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"product": p})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, _ := auth.PayloadFrom(r.Context())
	p, err := h.service.Create(r.Context(), CreateInput{
		Name:           body.Name,
		CategoryID:     body.CategoryID,
		Description:    body.Description,
		Images:         body.Images,
		Specifications: body.Specifications,
		IsActive:       body.IsActive,
		SEOTitle:       body.SEOTitle,
		SEODescription: body.SEODescription,
		SEOKeywords:    body.SEOKeywords,
		SEOSlug:        body.SEOSlug,
		CreatedBy:      payload.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, map[string]any{"product": p})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateInput{
		Name:           body.Name,
		CategoryID:     body.CategoryID,
		Description:    body.Description,
		Images:         body.Images,
		Specifications: body.Specifications,
		IsActive:       body.IsActive,
		SEOTitle:       body.SEOTitle,
		SEODescription: body.SEODescription,
		SEOKeywords:    body.SEOKeywords,
		SEOSlug:        body.SEOSlug,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"product": p})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"message": "Product deleted successfully"})
}

func parseFilter(w http.ResponseWriter, r *http.Request) (ListFilter, bool) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return ListFilter{}, false
	}

	active, err := httpx.QueryBool(r, "is_active")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "is_active must be true or false")
		return ListFilter{}, false
	}

	filter := ListFilter{IsActive: true, Limit: page.Limit, Skip: page.Skip}
	if active != nil {
		filter.IsActive = *active
	}
	return filter, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validation ValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, ErrUploaderUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrUploadFailed):
		sentry.CaptureException(err)
		httpx.WriteError(w, http.StatusBadGateway, ErrUploadFailed.Error())
	default:
		sentry.CaptureException(err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
