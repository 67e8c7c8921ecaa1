package chatbot

import (
	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/members"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, memberService *members.Service, authMiddleware *auth.Middleware) *Service {
	chatbotService := NewService(db)

	h := &handler{
		chatbotService: chatbotService,
		memberService:  memberService,
	}

	g := e.Group("/chatbot")
	g.Use(authMiddleware.AuthenticateOptional)
	g.POST("/query", h.query)

	return chatbotService
}
