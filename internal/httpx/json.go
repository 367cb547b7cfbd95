package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const MaxJSONBodyBytes = 1 << 20

var ErrInvalidBody = errors.New("invalid json body")

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {"success": true} merged with fields.
func WriteSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		body[key] = value
	}
	body["success"] = true
	WriteJSON(w, status, body)
}

// WriteError writes {"success": false, "error": message} plus optional extra fields.
func WriteError(w http.ResponseWriter, status int, message string, extra ...map[string]any) {
	body := map[string]any{"success": false, "error": message}
	for _, fields := range extra {
		for key, value := range fields {
			body[key] = value
		}
	}
	WriteJSON(w, status, body)
}

// DecodeJSON reads a bounded JSON object into dst. Keys dst does not declare are
// ignored; trailing data is rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return ErrInvalidBody
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrInvalidBody
	}

	return nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// QueryBool reports whether key is "true" or "1", or nil when absent.
func QueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
