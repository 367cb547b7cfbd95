package product

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var allowedURLChars = regexp.MustCompile(`^[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+$`)
var allowedHost = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)

const (
	maxImages      = 20
	maxImageURLLen = 500
)

var (
	ErrUploaderUnavailable = errors.New("image uploader is not configured")
	ErrUploadFailed        = errors.New("failed to upload image")
)

type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

// resolveImages uploads data: URIs and validates the remaining entries as
// public http(s) links.
func resolveImages(ctx context.Context, uploader ImageUploader, images []string) ([]string, error) {
	if len(images) > maxImages {
		return nil, invalid("at most %d images are allowed", maxImages)
	}

	out := make([]string, 0, len(images))
	for i, image := range images {
		image = strings.TrimSpace(image)
		if image == "" {
			continue
		}

		if strings.HasPrefix(image, "data:image/") {
			if uploader == nil {
				return nil, ErrUploaderUnavailable
			}
			uploaded, err := uploader.UploadImage(ctx, image)
			if err != nil {
				return nil, fmt.Errorf("%w: image %d: %v", ErrUploadFailed, i, err)
			}
			out = append(out, uploaded)
			continue
		}

		if err := validateImageURL(image); err != nil {
			return nil, err
		}
		out = append(out, image)
	}

	return out, nil
}

func validateImageURL(raw string) error {
	if len(raw) > maxImageURLLen || !isASCII(raw) || !allowedURLChars.MatchString(raw) {
		return invalid("image url contains invalid characters")
	}

	parsed, err := url.ParseRequestURI(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return invalid("image url must be a valid link")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return invalid("image url must start with http or https")
	}
	if parsed.User != nil || !allowedHost.MatchString(parsed.Hostname()) {
		return invalid("image url host is invalid")
	}

	return nil
}

func isASCII(value string) bool {
	for i := 0; i < len(value); i++ {
		if value[i] < 32 || value[i] > 126 {
			return false
		}
	}
	return true
}
