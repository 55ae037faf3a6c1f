package http

import (
	stdhttp "net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatboard/chatboard-server/internal/config"
	"github.com/chatboard/chatboard-server/internal/store"
)

// NewServer builds the HTTP server. The transport is thin glue: it extracts
// (room, username, text) from requests, calls the store, and renders whatever
// comes back.
func NewServer(st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggerMiddleware(logger), gin.Recovery())

	handlers := NewChatHandlers(st, logger)

	router.GET("/health", healthHandler)
	api := router.Group("/api")
	api.GET("/chat/:room", handlers.GetHistory)
	api.POST("/chat/:room", handlers.PostMessage)

	// Any other GET serves the static frontend, whatever the room in the
	// path; the page itself picks the room out of location.pathname.
	router.NoRoute(indexHandler(cfg.IndexFile))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func indexHandler(indexFile string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != stdhttp.MethodGet {
			c.Status(stdhttp.StatusNotFound)
			return
		}
		if _, err := os.Stat(indexFile); err != nil {
			c.Status(stdhttp.StatusNotFound)
			return
		}
		c.File(indexFile)
	}
}
