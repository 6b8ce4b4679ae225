// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/domain/catalog"
	"github.com/your-org/cart-sync/internal/domain/remotecart"
	"github.com/your-org/cart-sync/internal/interfaces/http/middleware"
)

const (
	SessionHeader = "X-Session-ID"
	sessionCookie = "session_id"

	codeInsufficientStock = "InsufficientStock"
	codeInvalidQuantity   = "InvalidQuantity"
	codeItemNotFound      = "ItemNotFound"
	codeProductNotFound   = "ProductNotFound"
)

// CartHandler handles the session cart endpoints
type CartHandler struct {
	cartService *remotecart.Service
	sessionTTL  time.Duration
	logger      logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *remotecart.Service, sessionTTL time.Duration, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		sessionTTL:  sessionTTL,
		logger:      logger,
	}
}

// AddToCartRequest is the body of POST /cart/add
type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// UpdateQuantityRequest is the body of PUT /cart/update/:id
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	items, err := h.cartService.GetCart(c.Request.Context(), h.sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetSummary handles GET /cart/summary
func (h *CartHandler) GetSummary(c *gin.Context) {
	items, err := h.cartService.GetCart(c.Request.Context(), h.sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items.Totals())
}

// AddToCart handles POST /cart/add
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ProductID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "productId is required",
		})
		return
	}

	items, err := h.cartService.AddItem(c.Request.Context(), h.sessionID(c), req.ProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// RemoveFromCart handles DELETE /cart/remove/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	sessionID := h.sessionID(c)
	if err := h.cartService.RemoveItem(c.Request.Context(), sessionID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondCart(c, sessionID)
}

// UpdateQuantity handles PUT /cart/update/:id
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID := h.sessionID(c)
	if err := h.cartService.UpdateQuantity(c.Request.Context(), sessionID, c.Param("id"), req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondCart(c, sessionID)
}

// ConfirmPickup handles PUT /cart/confirm/:id
func (h *CartHandler) ConfirmPickup(c *gin.Context) {
	sessionID := h.sessionID(c)
	if err := h.cartService.ConfirmPickup(c.Request.Context(), sessionID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondCart(c, sessionID)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.ClearCart(c.Request.Context(), h.sessionID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) respondCart(c *gin.Context, sessionID string) {
	items, err := h.cartService.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CartHandler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, remotecart.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{
			"code":    codeInsufficientStock,
			"message": "Stock insuficiente",
			"error":   err.Error(),
		})
	case errors.Is(err, remotecart.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    codeInvalidQuantity,
			"message": err.Error(),
		})
	case errors.Is(err, remotecart.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    codeItemNotFound,
			"message": err.Error(),
		})
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    codeProductNotFound,
			"message": err.Error(),
		})
	case errors.Is(err, remotecart.ErrSessionRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Request timeout",
		})
	default:
		h.logger.WithError(err).WithField("request_id", c.GetString(middleware.RequestIDKey)).Error("cart request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process cart request",
		})
	}
}

// sessionID resolves the cart session from the X-Session-ID header, then the
// session cookie, and otherwise starts a new session. The resolved id is
// echoed back in both places.
func (h *CartHandler) sessionID(c *gin.Context) string {
	if id, ok := c.Get(middleware.SessionIDKey); ok {
		return id.(string)
	}

	sessionID := strings.TrimSpace(c.GetHeader(SessionHeader))
	if sessionID == "" {
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			sessionID = strings.TrimSpace(cookie)
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	c.Set(middleware.SessionIDKey, sessionID)
	c.Header(SessionHeader, sessionID)
	c.SetCookie(sessionCookie, sessionID, int(h.sessionTTL.Seconds()), "/", "", false, true)
	return sessionID
}
