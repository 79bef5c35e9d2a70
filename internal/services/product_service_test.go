package services

import (
	"context"
	"testing"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestUpdateProductOwnerOnly(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Lamp")

	price := 25.5
	_, err := f.products.Update(ctx, alice, product.ID.Hex(), models.UpdateProductRequest{Price: &price})
	req.True(apperr.Is(err, apperr.Forbidden))

	updated, err := f.products.Update(ctx, bob, product.ID.Hex(), models.UpdateProductRequest{Price: &price, Title: "Desk lamp"})
	req.NoError(err)
	req.Equal(25.5, updated.Price)
	req.Equal("Desk lamp", updated.Title)
}

func TestProductChangesNotifyWatchers(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Lamp")

	for _, who := range []auth.Identity{alice, carol, bob} {
		_, err := f.favorites.Add(ctx, who, product.ID.Hex())
		req.NoError(err)
	}

	sold, err := f.products.MarkSold(ctx, bob, product.ID.Hex())
	req.NoError(err)
	req.Equal(models.ProductStatusSold, sold.Status)

	// already sold: no second fan-out
	_, err = f.products.MarkSold(ctx, bob, product.ID.Hex())
	req.NoError(err)

	f.flush()

	for _, watcher := range []string{alice.UserID, carol.UserID} {
		var soldNotices int
		for _, n := range f.notificationsFor(watcher) {
			if n.Type == models.NotificationProductSold {
				soldNotices++
				req.NotNil(n.Data.Product)
				req.Equal(models.ProductStatusSold, n.Data.Product.Status)
			}
		}
		req.Equal(1, soldNotices, watcher)
	}
	for _, n := range f.notificationsFor(bob.UserID) {
		req.NotEqual(models.NotificationProductSold, n.Type)
	}
}

func TestDeleteProductAdminOverride(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Lamp")

	req.True(apperr.Is(f.products.Delete(ctx, alice, product.ID.Hex()), apperr.Forbidden))
	req.NoError(f.products.Delete(ctx, admin, product.ID.Hex()))

	_, err := f.products.Get(ctx, product.ID.Hex())
	req.True(apperr.Is(err, apperr.NotFound))
}
