// Package devserver is the development backend: accounts with opaque tokens,
// credit accounting and streaming checklist generation.
package devserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/goalcheck/goalcheck/internal/enrich"
	"github.com/goalcheck/goalcheck/internal/events"
	"github.com/goalcheck/goalcheck/internal/generator"
	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/store"
)

// Options configures the HTTP server wiring.
type Options struct {
	Store          *store.Store
	Generator      *generator.Generator
	Enricher       enrich.Source
	Bus            *events.Bus
	Logger         *logutil.Logger
	GraphQLHandler http.Handler

	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	InitialCredits int
	StreamDelay    time.Duration
	BcryptCost     int
}

// Server wraps the Gin engine and associated configuration.
type Server struct {
	engine *gin.Engine
}

// NewServer constructs a Server with all HTTP routes configured.
func NewServer(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	h := newHandler(opts)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), metricsMiddleware(), requestLogger(h.logger))

	// Health + meta
	engine.GET("/healthz", h.health)
	engine.GET("/openapi", h.openAPISpec)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Accounts
	engine.POST("/auth/register", h.register)
	engine.POST("/auth/login", h.login)
	engine.POST("/auth/refresh", h.refresh)
	engine.POST("/auth/logout", h.logout)

	protected := engine.Group("/")
	protected.Use(authMiddleware(opts.Store))

	protected.GET("/auth/me", h.me)
	protected.POST("/questions", h.questions)
	protected.POST("/questions/stream", h.questionsStream)
	protected.POST("/checklists", h.generate)
	protected.POST("/checklists/stream", h.generateStream)
	protected.GET("/checklists", h.listChecklists)
	protected.GET("/checklists/:id", h.getChecklist)
	protected.DELETE("/checklists/:id", h.deleteChecklist)

	if opts.GraphQLHandler != nil {
		protected.GET("/graphql", gin.WrapH(opts.GraphQLHandler))
		protected.POST("/graphql", gin.WrapH(opts.GraphQLHandler))
	}

	return &Server{engine: engine}
}

// Engine exposes the underlying Gin engine for advanced use (testing, etc.).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start launches the HTTP server on the provided address. There is no write
// timeout: generation streams stay open until they complete.
func (s *Server) Start(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return srv
}

type handler struct {
	store    *store.Store
	gen      *generator.Generator
	enricher enrich.Source
	bus      *events.Bus
	logger   *logutil.Logger

	accessTTL      time.Duration
	refreshTTL     time.Duration
	initialCredits int
	delay          time.Duration
	bcryptCost     int
}

func newHandler(opts Options) *handler {
	h := &handler{
		store:          opts.Store,
		gen:            opts.Generator,
		enricher:       opts.Enricher,
		bus:            opts.Bus,
		logger:         opts.Logger,
		accessTTL:      opts.AccessTTL,
		refreshTTL:     opts.RefreshTTL,
		initialCredits: opts.InitialCredits,
		delay:          opts.StreamDelay,
		bcryptCost:     opts.BcryptCost,
	}
	if h.gen == nil {
		h.gen = generator.New()
	}
	if h.enricher == nil {
		h.enricher = enrich.NewInline(h.gen, opts.StreamDelay)
	}
	if h.logger == nil {
		h.logger = logutil.Default()
	}
	if h.accessTTL == 0 {
		h.accessTTL = 15 * time.Minute
	}
	if h.refreshTTL <= 0 {
		h.refreshTTL = 30 * 24 * time.Hour
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = bcrypt.DefaultCost
	}
	return h
}

func (h *handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "driver": h.store.Driver()})
}
