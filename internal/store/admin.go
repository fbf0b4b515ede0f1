package store

import (
	"context"
	"fmt"

	"github.com/glowempire/storefront/internal/localstore"
	"github.com/glowempire/storefront/internal/metrics"
	"github.com/glowempire/storefront/internal/models"
	"github.com/glowempire/storefront/internal/router"
	log "github.com/sirupsen/logrus"
)

// AddProduct uploads image (if any), then inserts the product and appends
// the stored row to the catalog. Nothing is inserted when the upload fails.
func (s *Store) AddProduct(ctx context.Context, draft models.ProductDraft, image *Image) (models.Product, error) {
	draft, err := draft.Normalize()
	if err != nil {
		return models.Product{}, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}

	if image != nil && len(image.Data) > 0 {
		url, err := s.remote.UploadImage(ctx, image.Data, image.Name)
		if err != nil {
			return models.Product{}, fmt.Errorf("upload image: %w", err)
		}
		draft.Image = url
	}

	created, err := s.remote.InsertProduct(ctx, draft)
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}

	s.mu.Lock()
	s.products = append(s.products, created)
	s.persistLocked(localstore.KeyProducts, s.products)
	count := len(s.products)
	s.mu.Unlock()
	metrics.CatalogProducts.Set(float64(count))

	log.WithFields(log.Fields{
		"product_id": created.ID,
		"name":       created.Name,
		"price":      created.Price,
	}).Info("Product added")

	return created, nil
}

// DeleteProduct removes a product remotely and refetches the catalog
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.remote.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	log.WithField("product_id", id).Info("Product deleted")

	if err := s.RefreshCatalog(ctx); err != nil {
		// the delete went through; drop the row locally so the admin
		// list does not show it until the next successful fetch
		log.WithError(err).Warn("Catalog refetch after delete failed")
		s.mu.Lock()
		kept := s.products[:0:0]
		for _, p := range s.products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.products = kept
		s.mu.Unlock()
	}
	return nil
}

// SignIn opens an admin session and moves off the login screen
func (s *Store) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	session, err := s.remote.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	u := session.User
	s.user = &u
	s.screen, _ = router.Next(s.screen, router.SignedIn{}, true)
	s.mu.Unlock()

	// a failed initial fetch is retried once signed in
	if err := s.RefreshOrders(ctx); err != nil {
		log.WithError(err).Warn("Orders refetch after sign-in failed")
	}

	return &u, nil
}

// SignOut ends the admin session. The local session is dropped even when
// the backend cannot be reached; that error is still returned.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.remote.SignOut(ctx)

	s.mu.Lock()
	s.user = nil
	s.screen, _ = router.Next(s.screen, router.SignedOut{}, false)
	s.mu.Unlock()

	return err
}
