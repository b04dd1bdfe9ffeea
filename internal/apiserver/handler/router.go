package handler

import (
	"net/http"
	"time"

	"github.com/amoylab/casamento/internal/apiserver/database"
	"github.com/amoylab/casamento/internal/apiserver/middleware"
	"github.com/amoylab/casamento/internal/apiserver/service"
	"github.com/amoylab/casamento/internal/auth/jwt"
	"github.com/amoylab/casamento/internal/common/cnst"
	"github.com/amoylab/casamento/internal/common/config"
	"github.com/amoylab/casamento/pkg/metrics"
	"github.com/amoylab/casamento/pkg/trace"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options holds the dependencies of the HTTP router
type Options struct {
	Logger   *zap.Logger
	DB       database.Database
	Registry *service.Registry
	JWT      *jwt.Service
	Metrics  *metrics.Metrics // nil disables /metrics
	CORS     config.CORSConfig

	// TracingService names server spans; empty disables tracing middleware
	TracingService string
}

// NewRouter builds the gin engine serving every collection of the registry
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Logger))
	r.Use(corsMiddleware(opts.CORS))
	r.Use(middleware.Language())
	if opts.TracingService != "" {
		r.Use(trace.Middleware(opts.TracingService))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(middleware.JWTAuthMiddleware(opts.JWT, opts.Registry))

	errs := NewErrorHandler(opts.Logger)

	system := NewSystem(opts.DB, opts.Registry)
	r.GET("/health", system.Health)
	r.GET("/openapi.json", system.OpenAPI)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	auth := NewAuth(opts.Registry, opts.JWT, errs, opts.Logger)
	authGroup := r.Group("/auth")
	authGroup.POST("/login/", auth.Login)
	authGroup.GET("/me/", middleware.RequireAuth(), auth.Me)

	var recorder OperationRecorder
	if opts.Metrics != nil {
		recorder = opts.Metrics
	}
	for _, svc := range opts.Registry.Services() {
		NewResource(svc, errs, recorder).Register(r)
	}

	return r
}

func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Accept-Language", cnst.XLang, cnst.XRequestID},
		ExposeHeaders:    []string{"Content-Length", cnst.XRequestID},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		c.AllowOrigins = nil
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return cors.New(c)
}
