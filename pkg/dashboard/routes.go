package dashboard

import (
	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	dashboardService := NewService(db)

	h := &handler{
		dashboardService: dashboardService,
	}

	g := e.Group("/dashboard")
	g.Use(authMiddleware.Authenticate)
	g.Use(authMiddleware.RequireStaff)
	g.GET("/stats", h.stats)

	return dashboardService
}
