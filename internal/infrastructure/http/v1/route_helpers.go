// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"fiskalis/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByCode(c *gin.Context)
	Update(c *gin.Context)
	SetActive(c *gin.Context)
}

// CatalogTreeHandler is an optional interface for hierarchical catalogs.
type CatalogTreeHandler interface {
	GetTree(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// This eliminates the need to manually wire up routes for each catalog.
//
// Usage:
//
//	repo := catalog_repo.NewAccountRepo(txManager)
//	service := accounts.NewService(repo, txManager)
//	handler := handlers.NewAccountHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/accounts"), handler, "catalog:account")
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, permission string) {
	group.GET("", middleware.RequirePermission(permission+":read"), handler.List)
	group.POST("", middleware.RequirePermission(permission+":create"), handler.Create)
	group.GET("/:id", middleware.RequirePermission(permission+":read"), handler.Get)
	group.GET("/by-code/:code", middleware.RequirePermission(permission+":read"), handler.GetByCode)
	group.PUT("/:id", middleware.RequirePermission(permission+":update"), handler.Update)
	group.POST("/:id/active", middleware.RequirePermission(permission+":update"), handler.SetActive)

	// Register tree route if the catalog is hierarchical (optional)
	if treeHandler, ok := handler.(CatalogTreeHandler); ok {
		group.GET("/tree", middleware.RequirePermission(permission+":read"), treeHandler.GetTree)
	}
}
