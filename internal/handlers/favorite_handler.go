package handlers

import (
	"net/http"

	"github.com/anonto42/bazaar/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FavoriteHandler handles favorite HTTP requests
type FavoriteHandler struct {
	favorites *services.FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favorites *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// RegisterFavoriteRoutes registers favorite routes
func (h *FavoriteHandler) RegisterFavoriteRoutes(g *echo.Group) {
	g.GET("/favorites", h.ListFavorites)
	g.POST("/favorites/:productId", h.AddFavorite)
	g.DELETE("/favorites/:productId", h.RemoveFavorite)
	g.GET("/favorites/:productId/status", h.FavoriteStatus)
}

// AddFavorite favorites a product. Adding twice is not an error.
func (h *FavoriteHandler) AddFavorite(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	productID := c.Param("productId")
	created, err := h.favorites.Add(c.Request().Context(), me, productID)
	if err != nil {
		return httpError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return respond(c, status, echo.Map{"product_id": productID, "favorited": true})
}

// RemoveFavorite removes a product from favorites. Removing an absent favorite succeeds.
func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	productID := c.Param("productId")
	if err := h.favorites.Remove(c.Request().Context(), me.UserID, productID); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"product_id": productID, "favorited": false})
}

// ListFavorites returns the caller's favorite products, newest favorite first
func (h *FavoriteHandler) ListFavorites(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	products, err := h.favorites.ListProducts(c.Request().Context(), me.UserID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"products": products})
}

func (h *FavoriteHandler) FavoriteStatus(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	productID := c.Param("productId")
	ok, err := h.favorites.IsFavorite(c.Request().Context(), me.UserID, productID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"product_id": productID, "favorited": ok})
}
