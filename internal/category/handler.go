package category

import (
	"errors"
	"net/http"

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
	Name           string `json:"name"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	Slug           string `json:"slug"`
	MainCategoryID string `json:"main_category_id"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) ListMain(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListMain(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) ListSubs(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListSubsOf(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.AdminTree(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"main_categories":        tree.Main,
		"sub_categories_by_main": tree.SubsByMainID,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, _ := auth.PayloadFrom(r.Context())
	created, err := h.service.Create(r.Context(), CreateInput{
		Name:           body.Name,
		Type:           body.Type,
		Description:    body.Description,
		Slug:           body.Slug,
		MainCategoryID: body.MainCategoryID,
		CreatedBy:      payload.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, map[string]any{"category": created})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"category": updated})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"message": "Category deleted successfully"})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validation ValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMainNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	default:
		sentry.CaptureException(err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
