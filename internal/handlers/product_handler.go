package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"github.com/anonto42/bazaar/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ProductHandler handles HTTP requests related to listings
type ProductHandler struct {
	products *services.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterProductRoutes registers product-related routes
func (h *ProductHandler) RegisterProductRoutes(g *echo.Group) {
	g.POST("/products", h.CreateProduct)
	g.GET("/products", h.GetProducts) // filter with seller_id, status, category
	g.GET("/products/:id", h.GetProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.POST("/products/:id/sold", h.MarkSold)
	g.DELETE("/products/:id", h.DeleteProduct)
}

// CreateProduct creates a new listing owned by the caller
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.products.Create(c.Request().Context(), me, req)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusCreated, product)
}

// GetProduct retrieves a listing by ID
func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.products.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, product)
}

// GetProducts lists listings, newest first
func (h *ProductHandler) GetProducts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	filter := repositories.ProductFilter{
		SellerID: c.QueryParam("seller_id"),
		Status:   c.QueryParam("status"),
		Category: c.QueryParam("category"),
	}
	products, err := h.products.List(c.Request().Context(), filter, page, limit)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, echo.Map{"products": products})
}

// UpdateProduct edits a listing; only its seller may do so
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.products.Update(c.Request().Context(), me, c.Param("id"), req)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, product)
}

// MarkSold flags a listing as sold
func (h *ProductHandler) MarkSold(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	product, err := h.products.MarkSold(c.Request().Context(), me, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, product)
}

// DeleteProduct removes a listing; sellers and admins only
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.products.Delete(c.Request().Context(), me, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
