// Package web provides an HTTP status server for the smart-clock daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sweeney/smart-clock/internal/logger"
	"github.com/sweeney/smart-clock/internal/metrics"
	"github.com/sweeney/smart-clock/internal/status"
)

// Server serves the status page, JSON, a live websocket stream and metrics.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New creates a Server that reads state from the given tracker.
// m may be nil, in which case /metrics returns 404.
func New(addr string, tracker *status.Tracker, m *metrics.Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{tracker: tracker, metrics: m, log: log}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleIndex)
	router.GET("/index.html", s.handleIndex)
	router.GET("/index.json", s.handleJSON)
	router.GET("/health", s.handleHealth)
	router.GET("/ws", s.wsConnect)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return router
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := renderHTML(c.Writer, snap); err != nil {
		s.log.Errorw("render status page", "error", err)
	}
}

func (s *Server) handleJSON(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Data(http.StatusOK, "application/json", status.FormatJSON(snap))
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"synced":         snap.Synced,
		"uptime_seconds": int64(snap.Uptime().Seconds()),
	})
}
