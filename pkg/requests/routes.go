package requests

import (
	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/loans"
	"github.com/Bervaline/Library-Management-System/pkg/members"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers request routes. Any authenticated user can file
// and list their own requests; resolving the queue is staff only.
func RegisterRoutes(e *echo.Echo, db *bun.DB, loanService *loans.Service, memberService *members.Service, authMiddleware *auth.Middleware) *Service {
	requestService := NewService(db, loanService)

	h := &handler{
		requestService: requestService,
		memberService:  memberService,
	}

	g := e.Group("/requests")
	g.Use(authMiddleware.Authenticate)
	g.POST("", h.submit)
	g.GET("/mine", h.myRequests)

	g.GET("", h.list, authMiddleware.RequireStaff)
	g.GET("/:id", h.retrieve, authMiddleware.RequireStaff)
	g.POST("/:id/approve", h.approve, authMiddleware.RequireStaff)
	g.POST("/:id/reject", h.reject, authMiddleware.RequireStaff)
	g.DELETE("/:id", h.delete, authMiddleware.RequireStaff)

	return requestService
}
