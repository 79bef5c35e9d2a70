package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddFavoriteTwiceKeepsOneRecord(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Lamp")

	created, err := f.favorites.Add(ctx, alice, product.ID.Hex())
	req.NoError(err)
	req.True(created)

	created, err = f.favorites.Add(ctx, alice, product.ID.Hex())
	req.NoError(err)
	req.False(created)

	req.Equal(1, f.store.Favorites().Count())
	ok, err := f.favorites.IsFavorite(ctx, alice.UserID, product.ID.Hex())
	req.NoError(err)
	req.True(ok)

	stored, err := f.products.Get(ctx, product.ID.Hex())
	req.NoError(err)
	req.Equal(1, stored.FavoritesCount)

	f.flush()
	inbox := f.notificationsFor(bob.UserID)
	req.Len(inbox, 1)
	req.Equal(models.NotificationFavorite, inbox[0].Type)
	req.NotNil(inbox[0].Data.Favorite)
	req.Equal("Lamp", inbox[0].Data.Favorite.ProductTitle)
	req.Equal("Alice", inbox[0].Data.Favorite.UserName)
}

func TestAddFavoriteNormalizesProductID(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Lamp")
	upper := strings.ToUpper(product.ID.Hex())

	created, err := f.favorites.Add(ctx, alice, product.ID.Hex())
	req.NoError(err)
	req.True(created)

	created, err = f.favorites.Add(ctx, alice, upper)
	req.NoError(err)
	req.False(created)
	req.Equal(1, f.store.Favorites().Count())

	ok, err := f.favorites.IsFavorite(ctx, alice.UserID, upper)
	req.NoError(err)
	req.True(ok)

	stored, err := f.products.Get(ctx, product.ID.Hex())
	req.NoError(err)
	req.Equal(1, stored.FavoritesCount)

	list, err := f.favorites.ListProducts(ctx, alice.UserID)
	req.NoError(err)
	req.Len(list, 1)

	f.flush()
	req.Len(f.notificationsFor(bob.UserID), 1)

	req.NoError(f.favorites.Remove(ctx, alice.UserID, upper))
	req.Zero(f.store.Favorites().Count())
	stored, err = f.products.Get(ctx, product.ID.Hex())
	req.NoError(err)
	req.Zero(stored.FavoritesCount)
}

func TestAddFavoriteConcurrentDuplicates(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Lamp")

	const callers = 16
	created := make([]bool, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created[i], errs[i] = f.favorites.Add(ctx, alice, product.ID.Hex())
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < callers; i++ {
		req.NoError(errs[i])
		if created[i] {
			wins++
		}
	}
	req.Equal(1, wins)
	req.Equal(1, f.store.Favorites().Count())

	stored, err := f.products.Get(ctx, product.ID.Hex())
	req.NoError(err)
	req.Equal(1, stored.FavoritesCount)

	f.flush()
	req.Len(f.notificationsFor(bob.UserID), 1)
}

func TestFavoritingOwnProductDoesNotNotify(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	product := f.product(t, bob, "Lamp")

	created, err := f.favorites.Add(context.Background(), bob, product.ID.Hex())
	req.NoError(err)
	req.True(created)

	f.flush()
	req.Empty(f.store.Notifications().All())
}

func TestAddFavoriteUnknownProduct(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.favorites.Add(context.Background(), alice, primitive.NewObjectID().Hex())
	req.True(apperr.Is(err, apperr.NotFound))
	req.Zero(f.store.Favorites().Count())
}

func TestRemoveFavoriteIsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	product := f.product(t, bob, "Lamp")

	req.NoError(f.favorites.Remove(ctx, alice.UserID, product.ID.Hex()))

	_, err := f.favorites.Add(ctx, alice, product.ID.Hex())
	req.NoError(err)
	req.NoError(f.favorites.Remove(ctx, alice.UserID, product.ID.Hex()))
	req.NoError(f.favorites.Remove(ctx, alice.UserID, product.ID.Hex()))

	ok, err := f.favorites.IsFavorite(ctx, alice.UserID, product.ID.Hex())
	req.NoError(err)
	req.False(ok)

	stored, err := f.products.Get(ctx, product.ID.Hex())
	req.NoError(err)
	req.Zero(stored.FavoritesCount)
}

func TestListFavoriteProductsSkipsDeleted(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	lamp := f.product(t, bob, "Lamp")
	chair := f.product(t, bob, "Chair")
	desk := f.product(t, carol, "Desk")

	for _, p := range []*models.Product{lamp, chair, desk} {
		_, err := f.favorites.Add(ctx, alice, p.ID.Hex())
		req.NoError(err)
	}
	req.NoError(f.products.Delete(ctx, bob, chair.ID.Hex()))

	list, err := f.favorites.ListProducts(ctx, alice.UserID)
	req.NoError(err)
	req.Len(list, 2)
	req.Equal(desk.ID, list[0].ID)
	req.Equal(lamp.ID, list[1].ID)
}
