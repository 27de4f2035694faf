// Package console serves mounted admin list views over HTTP. Each view owns
// one paginated list and its infinite scroll controller; the browser only
// renders snapshots and reports its viewport.
package console

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/threedollars/admin-console/pkg/client"
	"github.com/threedollars/admin-console/pkg/metrics"
	"github.com/threedollars/admin-console/pkg/pagination"
	"github.com/threedollars/admin-console/pkg/session"
)

// SessionHeader carries the console session id.
const SessionHeader = "X-Console-Session"

// DefaultCORSOrigin is allowed when no origins are configured.
const DefaultCORSOrigin = "http://localhost:3000"

// Sessions is the session store used by the console.
type Sessions interface {
	Create(ctx context.Context, token string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
	TokenSource(id string) client.TokenSource
}

// Evictor removes cached backend responses; *cache.Manager implements it.
type Evictor interface {
	Evict(ctx context.Context, endpoint string) (int, error)
}

// Config holds console server configuration.
type Config struct {
	Env             string
	Addr            string
	CORSOrigins     []string
	PageSize        int
	Controller      pagination.ControllerConfig
	ViewIdleTimeout time.Duration
}

// Deps are the collaborators of the server.
type Deps struct {
	Backend  *client.Client
	Sessions Sessions

	// Cache is nil when response caching is disabled
	Cache Evictor

	// Ready reports whether dependencies are reachable
	Ready func(ctx context.Context) error
}

// Server is the admin console HTTP server.
type Server struct {
	cfg      Config
	backend  *client.Client
	sessions Sessions
	cache    Evictor
	ready    func(ctx context.Context) error
	views    *Registry
	router   *gin.Engine
	logger   zerolog.Logger
}

// New creates a server and registers its routes.
func New(cfg Config, deps Deps) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = pagination.DefaultPageSize
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{DefaultCORSOrigin}
	}
	logger := log.With().Str("component", "console").Logger()

	s := &Server{
		cfg:      cfg,
		backend:  deps.Backend,
		sessions: deps.Sessions,
		cache:    deps.Cache,
		ready:    deps.Ready,
		views:    NewRegistry(cfg.ViewIdleTimeout, logger),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	configureGinMode(s.cfg.Env)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(s.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  s.cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", SessionHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", s.health)
	router.GET("/ready", s.readiness)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.POST("/sessions", s.createSession)
	api.GET("/resources", s.listResources)

	authed := api.Group("")
	authed.Use(s.requireSession)
	authed.DELETE("/sessions", s.deleteSession)
	authed.POST("/views", s.mountView)
	authed.GET("/views/:id", s.getView)
	authed.PUT("/views/:id/filter", s.changeFilter)
	authed.POST("/views/:id/scroll", s.scroll)
	authed.POST("/views/:id/load-more", s.loadMore)
	authed.DELETE("/views/:id/items/:itemId", s.deleteItem)
	authed.DELETE("/views/:id", s.unmountView)
	authed.POST("/cache/evict", s.evictCache)

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the handler in an http.Server listening on cfg.Addr.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Views returns the view registry.
func (s *Server) Views() *Registry {
	return s.views
}

// RunJanitor sweeps idle views every interval until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.views.Close()
			return nil
		case <-ticker.C:
			s.views.Sweep()
		}
	}
}

func configureGinMode(env string) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test", "testing":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}
