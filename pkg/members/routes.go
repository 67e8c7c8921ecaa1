package members

import (
	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers member routes. The roster is staff only; the
// profile endpoints act on the authenticated user's own member record.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	memberService := NewService(db)

	h := &handler{
		memberService: memberService,
	}

	profile := e.Group("/profile")
	profile.Use(authMiddleware.Authenticate)
	profile.GET("", h.profile)
	profile.POST("", h.updateProfile)

	g := e.Group("/members")
	g.Use(authMiddleware.Authenticate)
	g.Use(authMiddleware.RequireStaff)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.POST("/:id", h.update)
	g.DELETE("/:id", h.delete)

	return memberService
}
