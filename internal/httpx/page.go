package httpx

import (
	"errors"
	"net/http"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

var ErrInvalidPage = errors.New("limit and skip must be non-negative integers")

type Page struct {
	Limit int
	Skip  int
}

// ParsePage reads ?limit= and ?skip=. The limit is capped at MaxPageLimit.
func ParsePage(r *http.Request) (Page, error) {
	limit, err := QueryInt(r, "limit", DefaultPageLimit)
	if err != nil || limit < 0 {
		return Page{}, ErrInvalidPage
	}
	skip, err := QueryInt(r, "skip", 0)
	if err != nil || skip < 0 {
		return Page{}, ErrInvalidPage
	}

	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return Page{Limit: limit, Skip: skip}, nil
}
