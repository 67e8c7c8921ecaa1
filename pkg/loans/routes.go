package loans

import (
	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/members"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers loan routes. The transactions group is the staff
// ledger; the loans group is patron self-service against the caller's own
// member record.
func RegisterRoutes(e *echo.Echo, db *bun.DB, memberService *members.Service, authMiddleware *auth.Middleware) *Service {
	loanService := NewService(db)

	h := &handler{
		loanService:   loanService,
		memberService: memberService,
	}

	g := e.Group("/transactions")
	g.Use(authMiddleware.Authenticate)
	g.Use(authMiddleware.RequireStaff)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.issue)
	g.POST("/:id/return", h.markReturned)
	g.DELETE("/:id", h.delete)

	self := e.Group("/loans")
	self.Use(authMiddleware.Authenticate)
	self.GET("", h.myLoans)
	self.POST("", h.borrow)
	self.POST("/:id/return", h.returnOwn)

	return loanService
}
