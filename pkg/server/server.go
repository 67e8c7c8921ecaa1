package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Bervaline/Library-Management-System/pkg/auth"
	"github.com/Bervaline/Library-Management-System/pkg/binder"
	"github.com/Bervaline/Library-Management-System/pkg/books"
	"github.com/Bervaline/Library-Management-System/pkg/chatbot"
	"github.com/Bervaline/Library-Management-System/pkg/config"
	"github.com/Bervaline/Library-Management-System/pkg/dashboard"
	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/loans"
	"github.com/Bervaline/Library-Management-System/pkg/members"
	"github.com/Bervaline/Library-Management-System/pkg/requests"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	books.RegisterRoutes(e, db, cfg, authMiddleware)
	memberService := members.RegisterRoutes(e, db, authMiddleware)
	loanService := loans.RegisterRoutes(e, db, memberService, authMiddleware)
	requests.RegisterRoutes(e, db, loanService, memberService, authMiddleware)
	chatbot.RegisterRoutes(e, db, memberService, authMiddleware)
	dashboard.RegisterRoutes(e, db, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
