package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/agruezo/userhub/internal/auth"
	"github.com/agruezo/userhub/internal/cache"
	"github.com/agruezo/userhub/internal/config"
	"github.com/agruezo/userhub/internal/domain/user"
	"github.com/agruezo/userhub/internal/http/handlers"
	"github.com/agruezo/userhub/internal/http/middlewares"
	"github.com/agruezo/userhub/internal/observability"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Deps carries everything the HTTP surface needs; main wires it up once.
type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Pool     *pgxpool.Pool // nil in DB-less tests
	Store    user.Store
	AuthSvc  *auth.Service
	Cache    cache.Cache // optional
	Prom     *observability.Prom
	Registry *prometheus.Registry
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(otelgin.Middleware("userhub-api"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	ping := func(ctx context.Context) error {
		if d.Pool == nil {
			return nil
		}
		return d.Pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(d.AuthSvc, d.Cache)
	usersHandler := handlers.NewUsersHandler(d.Store, d.Cache, time.Duration(d.Cfg.CacheTTLSeconds)*time.Second)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.GET("/status", authHandler.Status)
	}

	r.GET("/users", usersHandler.ListUsers)
	r.POST("/users", usersHandler.CreateUser)
	r.GET("/users/:id", usersHandler.GetUserByID)
	r.PUT("/users/:id", usersHandler.UpdateUser)
	r.DELETE("/users/:id", usersHandler.DeleteUser)

	return r
}
