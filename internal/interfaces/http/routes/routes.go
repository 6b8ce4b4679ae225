// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/cart-sync/internal/interfaces/http/handlers"
)

// SetupCartRoutes sets up the session cart routes
func SetupCartRoutes(rg *gin.RouterGroup, cartHandler *handlers.CartHandler) {
	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.GET("/summary", cartHandler.GetSummary)
		cart.POST("/add", cartHandler.AddToCart)
		cart.DELETE("/remove/:id", cartHandler.RemoveFromCart)
		cart.PUT("/update/:id", cartHandler.UpdateQuantity)
		cart.PUT("/confirm/:id", cartHandler.ConfirmPickup)
		cart.DELETE("", cartHandler.ClearCart)
	}
}

// SetupProductRoutes sets up the catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/related", productHandler.GetRelated)
	}

	rg.GET("/categories", productHandler.GetCategories)
}

// SetupRoutes wires every API route group
func SetupRoutes(api *gin.RouterGroup, cartHandler *handlers.CartHandler, productHandler *handlers.ProductHandler) {
	SetupCartRoutes(api, cartHandler)
	SetupProductRoutes(api, productHandler)
}
