// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/money-transfer/internal/accountdelivery"
	"github.com/go-petr/money-transfer/internal/accountrepo"
	"github.com/go-petr/money-transfer/internal/ledgerservice"
	"github.com/go-petr/money-transfer/internal/middleware"
	"github.com/go-petr/money-transfer/pkg/configpkg"
	"github.com/go-petr/money-transfer/pkg/txpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) *Server {
	accountRepo := accountrepo.NewRepoPGS()
	txScope := txpkg.New(conn)

	ledgerService := ledgerservice.New(accountRepo, txScope)

	accountHandler := accountdelivery.NewHandler(ledgerService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.GET("/accounts", accountHandler.List)
	engine.POST("/accounts", accountHandler.Create)
	engine.GET("/accounts/:id", accountHandler.Get)
	engine.POST("/accounts/:id/topup", accountHandler.TopUp)
	engine.POST("/accounts/:id/withdraw", accountHandler.Withdraw)
	engine.PUT("/transfers", accountHandler.Transfer)

	return &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}
}
