// Package localstore keeps the client-side key/value slots the storefront
// persists between runs: cart, favorites, theme, the catalog cache and the
// admin session.
package localstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Slot keys. The values are JSON documents.
const (
	KeyCart      = "glow_cart"
	KeyFavorites = "glow_favorites"
	KeyTheme     = "glow_theme"
	KeyProducts  = "glow_products"
	KeySession   = "glow_session"
)

var (
	// ErrNotFound is returned when a slot has never been written
	ErrNotFound = errors.New("slot not found")
	// ErrCorrupt is returned when a slot holds something that does not decode
	ErrCorrupt = errors.New("slot corrupt")
)

// Store is a named-slot byte store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Load decodes the slot at key into dst
func Load(ctx context.Context, s Store, key string, dst interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(ErrCorrupt, "%s: %v", key, err)
	}
	return nil
}

// Save encodes v and writes it to the slot at key
func Save(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return s.Set(ctx, key, raw)
}
