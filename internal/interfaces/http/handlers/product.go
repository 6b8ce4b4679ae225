// internal/interfaces/http/handlers/product.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/domain/catalog"
)

// ProductHandler serves the read-only catalog
type ProductHandler struct {
	products catalog.Repository
	logger   logrus.FieldLogger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products catalog.Repository, logger logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// GetProducts handles GET /products, optionally filtered by ?category=
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to retrieve products")
		return
	}

	if category := c.Query("category"); category != "" {
		filtered := make([]catalog.Product, 0, len(products))
		for _, p := range products {
			if p.InCategory(category) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetRelated handles GET /products/:id/related
func (h *ProductHandler) GetRelated(c *gin.Context) {
	product, ok := h.lookup(c)
	if !ok {
		return
	}

	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
		"related": catalog.Related(products, product),
		"others":  catalog.Others(products, product),
	})
}

// GetCategories handles GET /categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to retrieve categories")
		return
	}
	c.JSON(http.StatusOK, catalog.GroupByCategory(products))
}

func (h *ProductHandler) lookup(c *gin.Context) (catalog.Product, bool) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, catalog.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    codeProductNotFound,
			"message": "Product not found",
		})
		return catalog.Product{}, false
	}
	if err != nil {
		h.internalError(c, err, "Failed to retrieve product")
		return catalog.Product{}, false
	}
	return product, true
}

func (h *ProductHandler) internalError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	h.logger.WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": msg,
	})
}
