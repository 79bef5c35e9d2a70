package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/metrics"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/notify"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FavoriteService manages the per-user favorite set.
type FavoriteService struct {
	favorites repositories.FavoriteRepository
	products  repositories.ProductRepository
	notifier  Notifier
	log       *slog.Logger
	now       func() time.Time
}

func NewFavoriteService(favorites repositories.FavoriteRepository, products repositories.ProductRepository, notifier Notifier, log *slog.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		products:  products,
		notifier:  notifier,
		log:       log.With("component", "favorites"),
		now:       time.Now,
	}
}

// Add favorites productID for actor. It is idempotent: an existing favorite,
// including one inserted by a concurrent request, reports success with
// created=false. Only a new favorite notifies the seller.
func (s *FavoriteService) Add(ctx context.Context, actor auth.Identity, productID string) (bool, error) {
	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return false, storageErr(err, "Product not found")
	}
	// Favorites are keyed by the stored id, not the client's spelling of it.
	productID = product.ID.Hex()

	exists, err := s.favorites.IsFavorite(ctx, actor.UserID, productID)
	if err != nil {
		return false, apperr.Wrap(err, "lookup favorite")
	}
	if exists {
		return false, nil
	}

	favorite := &models.Favorite{UserID: actor.UserID, ProductID: productID, CreatedAt: s.now()}
	if err := s.favorites.CreateFavorite(ctx, favorite); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return false, nil
		}
		return false, apperr.Wrap(err, "create favorite")
	}
	metrics.FavoritesAdded.Inc()

	if err := s.products.IncrementFavoritesCount(ctx, productID, 1); err != nil {
		s.log.Warn("increment favorites count failed", "product_id", productID, "error", err)
	}

	s.notifier.EmitFunc(models.NotificationFavorite, s.favoriteEvent(actor, productID))
	return true, nil
}

// favoriteEvent re-reads the product on the worker; a product deleted in the
// meantime skips the notification.
func (s *FavoriteService) favoriteEvent(actor auth.Identity, productID string) notify.BuildFunc {
	return func(ctx context.Context) (notify.Event, bool, error) {
		product, err := s.products.GetProductByID(ctx, productID)
		if errors.Is(err, repositories.ErrNotFound) {
			return notify.Event{}, false, nil
		}
		if err != nil {
			return notify.Event{}, false, err
		}
		return notify.Event{
			Actor:   actor.UserID,
			Target:  product.SellerID,
			Type:    models.NotificationFavorite,
			Title:   "Your listing was favorited",
			Message: displayName(actor) + " added \"" + product.Title + "\" to favorites",
			Data: models.NotificationData{Favorite: &models.FavoritePayload{
				ProductID:    productID,
				ProductTitle: product.Title,
				UserName:     displayName(actor),
			}},
			RelatedProduct: productID,
			RelatedUser:    actor.UserID,
		}, true, nil
	}
}

// Remove deletes the favorite if present; removing an absent favorite succeeds.
func (s *FavoriteService) Remove(ctx context.Context, userID, productID string) error {
	productID = canonicalProductID(productID)
	removed, err := s.favorites.DeleteFavorite(ctx, userID, productID)
	if err != nil {
		return apperr.Wrap(err, "delete favorite")
	}
	if removed > 0 {
		if err := s.products.IncrementFavoritesCount(ctx, productID, -1); err != nil {
			s.log.Warn("decrement favorites count failed", "product_id", productID, "error", err)
		}
	}
	return nil
}

// IsFavorite reports whether userID has favorited productID.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	ok, err := s.favorites.IsFavorite(ctx, userID, canonicalProductID(productID))
	if err != nil {
		return false, apperr.Wrap(err, "lookup favorite")
	}
	return ok, nil
}

// ListProducts resolves the user's favorites to products, newest favorite
// first. Favorites whose product no longer exists are left out.
func (s *FavoriteService) ListProducts(ctx context.Context, userID string) ([]models.Product, error) {
	favorites, err := s.favorites.GetFavoritesByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, "list favorites")
	}
	ids := lo.Map(favorites, func(f models.Favorite, _ int) string { return f.ProductID })

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(err, "resolve favorite products")
	}
	byID := lo.KeyBy(products, func(p models.Product) string { return p.ID.Hex() })

	return lo.FilterMap(ids, func(id string, _ int) (models.Product, bool) {
		p, ok := byID[id]
		return p, ok
	}), nil
}

// canonicalProductID returns the lowercase hex form of a product id. Ids that
// do not parse are returned as is; no favorite can reference them.
func canonicalProductID(id string) string {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return id
	}
	return oid.Hex()
}
