package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/caseops-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// GuardedHandler registers routes behind an extra middleware.
type GuardedHandler interface {
	RegisterRoutes(*gin.RouterGroup, gin.HandlerFunc)
}

// OpsHandler serves the public health endpoints.
type OpsHandler interface {
	RegisterRoutes(*gin.RouterGroup, gin.HandlerFunc)
}

// MetricsHandler records and exposes HTTP metrics.
type MetricsHandler interface {
	Middleware() gin.HandlerFunc
	Handler() gin.HandlerFunc
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	cases    Handler
	session  Handler
	branches GuardedHandler
	health   OpsHandler
	metrics  MetricsHandler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	CORSConfig       middleware.CORSConfig
}

type Handlers struct {
	Cases    Handler
	Session  Handler
	Branches GuardedHandler
	Health   OpsHandler
	// Metrics may be nil when prometheus is disabled.
	Metrics MetricsHandler
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		cases:    handlers.Cases,
		session:  handlers.Session,
		branches: handlers.Branches,
		health:   handlers.Health,
		metrics:  handlers.Metrics,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	if r.metrics != nil {
		engine.Use(r.metrics.Middleware())
	}
	engine.Use(
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = config.MaxBodyBytes
	}
	engine.Use(middleware.SizeLimit(sizeLimit))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	var metrics gin.HandlerFunc
	if r.metrics != nil {
		metrics = r.metrics.Handler()
	}
	r.health.RegisterRoutes(api, metrics)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.session.RegisterRoutes(rg)
	r.cases.RegisterRoutes(rg)
	r.branches.RegisterRoutes(rg, r.auth.RequireManagementRole())
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
