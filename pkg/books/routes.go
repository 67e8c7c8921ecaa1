package books

import (
	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers book routes. Reads are public; writes are staff
// only.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
		imageDir:    cfg.ImageDir,
	}

	g := e.Group("/books")
	g.GET("", h.list)
	g.GET("/categories", h.categories)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/image", h.image)
	g.POST("", h.create, authMiddleware.Authenticate, authMiddleware.RequireStaff)
	g.POST("/:id", h.update, authMiddleware.Authenticate, authMiddleware.RequireStaff)
	g.POST("/:id/image", h.uploadImage, authMiddleware.Authenticate, authMiddleware.RequireStaff)
	g.DELETE("/:id", h.delete, authMiddleware.Authenticate, authMiddleware.RequireStaff)
}
