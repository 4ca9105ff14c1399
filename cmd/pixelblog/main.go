package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PixelBlog/app/controllers"
	"github.com/ManuelReschke/PixelBlog/app/repository"
	apiv1 "github.com/ManuelReschke/PixelBlog/internal/api/v1"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/cache"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/database"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/env"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/router"
)

const openAPIDocument = "public/docs/v1/openapi.yml"

func main() {
	app := NewApplication()

	manager := jobqueue.GetManager()
	manager.Start()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	manager.Stop()
	if cerr := cache.Close(); cerr != nil {
		log.Printf("Failed to close Redis client: %v", cerr)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	controllers.InitializeAPIPostController(jobqueue.GetManager().Notifier())

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/pixelblog to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + openAPIDocument); err == nil {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// refuse to serve a broken API document
	if _, err := apiv1.LoadSpec(context.Background(), basePath+openAPIDocument); err != nil {
		panic(err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "PixelBlog",
		BodyLimit: 4 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New(monitor.Config{Title: "PixelBlog Metrics"}))

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + openAPIDocument,
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
