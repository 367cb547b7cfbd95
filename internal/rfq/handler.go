package rfq

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"

	"storefront-api/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Company         string `json:"company"`
	Requirements    string `json:"requirements"`
	AdditionalInfo  string `json:"additional_info"`
	ProductCategory string `json:"product_category"`
	Quantity        string `json:"quantity"`
	Budget          string `json:"budget"`
	Timeline        string `json:"timeline"`
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var body submitRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.Submit(r.Context(), SubmitInput(body))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, map[string]any{
		"message": "RFQ submitted successfully",
		"rfq_id":  created.ID,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests, total, err := h.service.List(r.Context(), ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Limit:  page.Limit,
		Skip:   page.Skip,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"rfq_requests": requests,
		"total":        total,
		"limit":        page.Limit,
		"skip":         page.Skip,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status, body.Notes); err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"message": "RFQ status updated successfully"})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validation ValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	default:
		sentry.CaptureException(err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
