package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"storefront-api/internal/httpx"
)

const maxUploadBytes = 10 << 20

type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

type UploadHandler struct {
	uploader ImageUploader
}

// NewUploadHandler accepts a nil uploader; uploads then answer 503.
func NewUploadHandler(uploader ImageUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "image uploader is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	switch {
	case len(data) == 0:
		httpx.WriteError(w, http.StatusBadRequest, "file is empty")
		return
	case len(data) > maxUploadBytes:
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		httpx.WriteError(w, http.StatusBadRequest, "file must be an image")
		return
	}

	source := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	secureURL, err := h.uploader.UploadImage(r.Context(), source)
	if err != nil {
		sentry.CaptureException(err)
		httpx.WriteError(w, http.StatusBadGateway, "failed to upload image")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"secure_url": secureURL})
}
