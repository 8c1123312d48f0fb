// Package api exposes the router over HTTP for web chat widgets and manual
// testing.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/club-assistant/internal/models"
	"github.com/xaenox/club-assistant/internal/router"
	"go.uber.org/zap"
)

// RouteRequest is the body of POST /v1/route. Now overrides the wall clock
// used by the business-hours gate.
type RouteRequest struct {
	ConversationID string     `json:"conversation_id" binding:"required"`
	Text           string     `json:"text"`
	Now            *time.Time `json:"now,omitempty"`
}

type RouteResponse struct {
	Reply          string              `json:"reply"`
	MustEscalate   bool                `json:"must_escalate"`
	Intent         models.IntentKey    `json:"intent"`
	Kind           models.DecisionKind `json:"kind"`
	NotifyOperator bool                `json:"notify_operator"`
	Staffed        bool                `json:"staffed"`
}

type MenuOption struct {
	Number      int              `json:"number"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Intent      models.IntentKey `json:"intent"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler provides the HTTP handlers.
type Handler struct {
	Router *router.Router
	Logger *zap.Logger
	Now    func() time.Time
}

func NewHandler(r *router.Router, logger *zap.Logger) *Handler {
	return &Handler{Router: r, Logger: logger, Now: time.Now}
}

// Route handles routing one message.
func (h *Handler) Route(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "conversation_id is required"})
		return
	}

	now := h.Now()
	if req.Now != nil {
		now = *req.Now
	}

	// A blank message asks for the menu, as on the chat transports.
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = string(models.IntentMenu)
	}

	out := h.Router.Dispatch(c.Request.Context(), text, models.ConversationID(req.ConversationID), now)
	c.JSON(http.StatusOK, RouteResponse{
		Reply:          out.Reply,
		MustEscalate:   out.Decision.MustEscalate,
		Intent:         out.Decision.Intent,
		Kind:           out.Decision.Kind,
		NotifyOperator: out.NotifyOperator,
		Staffed:        out.Staffed,
	})
}

// Menu handles listing the menu options.
func (h *Handler) Menu(c *gin.Context) {
	options := h.Router.Options()
	resp := make([]MenuOption, 0, len(options))
	for i, opt := range options {
		resp = append(resp, MenuOption{
			Number:      i + 1,
			Label:       opt.Label,
			Description: opt.Description,
			Intent:      opt.Intent,
		})
	}
	c.JSON(http.StatusOK, gin.H{"menu": h.Router.Menu(), "options": resp})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NewEngine builds the gin engine with all routes registered.
func NewEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(h.Logger))

	engine.GET("/healthz", h.Health)

	v1 := engine.Group("/v1")
	v1.POST("/route", h.Route)
	v1.GET("/menu", h.Menu)

	return engine
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Server runs the engine until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(addr string, h *Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewEngine(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: h.Logger,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
