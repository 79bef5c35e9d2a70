package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/notify"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"github.com/samber/lo"
)

const productNotFound = "Product not found"

// ProductService is the product catalog. Changes to a listing are fanned out
// to the users who favorited it.
type ProductService struct {
	products  repositories.ProductRepository
	favorites repositories.FavoriteRepository
	notifier  Notifier
	log       *slog.Logger
}

func NewProductService(products repositories.ProductRepository, favorites repositories.FavoriteRepository, notifier Notifier, log *slog.Logger) *ProductService {
	return &ProductService{
		products:  products,
		favorites: favorites,
		notifier:  notifier,
		log:       log.With("component", "products"),
	}
}

func (s *ProductService) Create(ctx context.Context, seller auth.Identity, req models.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		SellerID:    seller.UserID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Images:      req.Images,
		Status:      models.ProductStatusActive,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, apperr.Wrap(err, "create product")
	}
	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, productNotFound)
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context, filter repositories.ProductFilter, page, limit int) ([]models.Product, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	products, err := s.products.GetProducts(ctx, filter, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, apperr.Wrap(err, "list products")
	}
	return products, nil
}

// owned loads a product the caller may modify.
func (s *ProductService) owned(ctx context.Context, caller auth.Identity, id string, allowAdmin bool) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != caller.UserID && !(allowAdmin && caller.IsAdmin()) {
		return nil, apperr.NewForbidden("You can only modify your own listings")
	}
	return product, nil
}

// Update edits a listing and notifies its watchers.
func (s *ProductService) Update(ctx context.Context, caller auth.Identity, id string, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.owned(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		product.Title = req.Title
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.Images != nil {
		product.Images = req.Images
	}

	if err := s.products.UpdateProduct(ctx, id, product); err != nil {
		return nil, storageErr(err, productNotFound)
	}

	s.notifyWatchers(ctx, caller, product, models.NotificationProductUpdated,
		"A favorite was updated", fmt.Sprintf("\"%s\" was updated", product.Title))
	return product, nil
}

// MarkSold flags a listing as sold. Marking a sold listing again changes nothing.
func (s *ProductService) MarkSold(ctx context.Context, caller auth.Identity, id string) (*models.Product, error) {
	product, err := s.owned(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}
	if product.Status == models.ProductStatusSold {
		return product, nil
	}

	if err := s.products.SetStatus(ctx, id, models.ProductStatusSold); err != nil {
		return nil, storageErr(err, productNotFound)
	}
	product.Status = models.ProductStatusSold

	s.notifyWatchers(ctx, caller, product, models.NotificationProductSold,
		"A favorite was sold", fmt.Sprintf("\"%s\" has been sold", product.Title))
	return product, nil
}

// Delete removes a listing; sellers may delete their own, admins any.
func (s *ProductService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if _, err := s.owned(ctx, caller, id, true); err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return storageErr(err, productNotFound)
	}
	return nil
}

// notifyWatchers emits one notification per user who favorited the product.
// Failing to load the watchers is logged and ignored.
func (s *ProductService) notifyWatchers(ctx context.Context, actor auth.Identity, product *models.Product, kind models.NotificationType, title, message string) {
	watchers, err := s.favorites.GetUserIDsByProduct(ctx, product.ID.Hex())
	if err != nil {
		s.log.Warn("load product watchers failed", "product_id", product.ID.Hex(), "error", err)
		return
	}

	payload := &models.ProductPayload{
		ProductID:    product.ID.Hex(),
		ProductTitle: product.Title,
		Price:        product.Price,
		Status:       product.Status,
	}
	for _, userID := range lo.Without(watchers, product.SellerID) {
		s.notifier.Emit(notify.Event{
			Actor:          actor.UserID,
			Target:         userID,
			Type:           kind,
			Title:          title,
			Message:        message,
			Data:           models.NotificationData{Product: payload},
			RelatedProduct: product.ID.Hex(),
			RelatedUser:    product.SellerID,
		})
	}
}
