package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PixelBlog/app/controllers"
	"github.com/ManuelReschke/PixelBlog/app/repository"
	apiv1 "github.com/ManuelReschke/PixelBlog/internal/api/v1"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/cache"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/env"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/middleware"
)

const (
	// Limiter counters live in their own Redis database (the job queue uses DB 0)
	limiterRedisDB      = 2
	defaultAPIRateLimit = 60
	rateLimitWindow     = time.Minute
)

type ApiRouter struct {
	server  apiv1.ServerInterface
	users   repository.UserRepository
	limiter limiter.Config
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(h.limiter))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes; writes need an API key
	v1 := api.Group("/v1")
	apiv1.RegisterHandlersWithOptions(v1, h.server, apiv1.FiberServerOptions{
		Protected: []fiber.Handler{middleware.APIKeyAuthMiddleware(h.users)},
	})
}

// NewApiRouter wires the router from the global controller, factory and cache
func NewApiRouter() *ApiRouter {
	return NewApiRouterWith(
		apiv1.NewAPIServer(controllers.GetAPIPostController()),
		repository.GetGlobalFactory().GetUserRepository(),
		LimiterConfig(env.GetEnvInt("API_RATE_LIMIT", defaultAPIRateLimit), NewLimiterStorage()),
	)
}

// NewApiRouterWith builds the router from explicit collaborators
func NewApiRouterWith(server apiv1.ServerInterface, users repository.UserRepository, cfg limiter.Config) *ApiRouter {
	return &ApiRouter{
		server:  server,
		users:   users,
		limiter: cfg,
	}
}

// LimiterConfig allows max requests per client IP per minute. A nil storage
// keeps the counters in memory.
func LimiterConfig(max int, storage fiber.Storage) limiter.Config {
	if max <= 0 {
		max = defaultAPIRateLimit
	}
	return limiter.Config{
		Max:        max,
		Expiration: rateLimitWindow,
		Storage:    storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "too_many_requests",
				"message": "Rate limit exceeded, slow down",
			})
		},
	}
}

// NewLimiterStorage opens the Redis storage shared by all app instances
func NewLimiterStorage() fiber.Storage {
	host, port, password := cache.ConnectionParams()
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: limiterRedisDB,
		Reset:    false,
	})
}
