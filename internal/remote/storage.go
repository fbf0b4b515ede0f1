package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// objectName prefixes the upload with a millisecond timestamp and replaces
// whitespace, so two uploads of "my photo.png" never collide
func objectName(suggested string, now time.Time) string {
	base := filepath.Base(strings.TrimSpace(suggested))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	base = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, base)
	return fmt.Sprintf("%d_%s", now.UnixMilli(), base)
}

// PublicURL is where an uploaded object can be read without credentials
func (c *SupabaseClient) PublicURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.cfg.BaseURL, c.cfg.Bucket, url.PathEscape(name))
}

func (c *SupabaseClient) UploadImage(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if len(data) == 0 {
		return "", errors.Wrap(ErrUploadFailed, "empty image")
	}

	name := objectName(suggestedName, c.now())
	contentType := http.DetectContentType(data)

	resp, err := c.call(ctx, AreaStorage, "upload", c.cfg.UploadTimeout, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Content-Type", contentType).
			SetHeader("x-upsert", "false").
			SetBody(data).
			Post(fmt.Sprintf("/storage/v1/object/%s/%s", c.cfg.Bucket, url.PathEscape(name)))
	})
	if err != nil {
		return "", errors.Wrapf(ErrUploadFailed, "%s: %v", name, err)
	}
	if resp.IsError() {
		return "", errors.Wrapf(ErrUploadFailed, "%s: status %d: %s", name, resp.StatusCode(), errorMessage(resp))
	}

	publicURL := c.PublicURL(name)
	log.WithFields(log.Fields{
		"object": name,
		"bytes":  len(data),
		"type":   contentType,
	}).Info("Image uploaded")

	return publicURL, nil
}
