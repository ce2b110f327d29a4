package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/healthplus/internal/handler"
	"github.com/jwalitptl/healthplus/internal/handler/prometheus"
	"github.com/jwalitptl/healthplus/internal/middleware"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine    *gin.Engine
	config    RouterConfig
	auth      *middleware.AuthMiddleware
	metrics   *prometheus.Handler
	public    []Handler
	protected []Handler
}

type RouterConfig struct {
	BasePath         string
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	SizeLimit        middleware.SizeLimitConfig
	Logger           *logger.Logger
}

// NewRouter mounts public handlers as-is and protected handlers behind bearer
// authentication, all under config.BasePath.
func NewRouter(
	auth *middleware.AuthMiddleware,
	metrics *prometheus.Handler,
	public []Handler,
	protected []Handler,
	config RouterConfig,
) *Router {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:    engine,
		config:    config,
		auth:      auth,
		metrics:   metrics,
		public:    public,
		protected: protected,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(config.Logger.Named("http")),
		metrics.Middleware(),
		middleware.Recovery(config.Logger),
		middleware.CORS(config.CORSConfig),
		middleware.ErrorHandler(config.Logger),
		middleware.SizeLimit(config.SizeLimit),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	engine.NoRoute(func(c *gin.Context) {
		handler.Fail(c, apperrors.NotFound("route", nil))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handler.NewErrorResponse("method not allowed"))
	})

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.metrics.Handler())

	api := r.engine.Group(r.config.BasePath)
	for _, h := range r.public {
		h.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
