package main

import (
	"context"
	"log"
	"os"

	"github.com/example/tarefas-api/config"
	"github.com/example/tarefas-api/modules/activity"
	"github.com/example/tarefas-api/modules/api"
	"github.com/example/tarefas-api/modules/cache"
	"github.com/example/tarefas-api/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Tarefas API - Fiber + GORM + Redis ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// LOG_LEVEL=error silences everything but failures.
	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Plugins start before and stop after every regular module.
	cachePlugin := cache.NewPluginModule(cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL, app.Logger())
	if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
		log.Fatalf("Failed to register cache plugin: %v", err)
	}

	activityModule := activity.NewModule(activity.DefaultCapacity, app.Logger())
	taskModule := task.NewModule(task.Config{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DBDSN,
		Debug:       cfg.DBDebug,
		MaxPageSize: cfg.MaxPageSize,
	}, app.Logger())
	apiModule := api.NewModule(api.Config{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
	}, activityModule, app.Logger())

	apiModule.AddHealthCheck("task", taskModule)
	apiModule.AddHealthCheck("cache", cachePlugin)
	apiModule.AddHealthCheck("api", apiModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - activity: Event consumer (task lifecycle feed)
	// - task: Core domain (GORM storage, emits events)
	// - api: Driving adapter (Fiber HTTP server, depends on task)
	if err := app.Register(activityModule); err != nil {
		log.Fatalf("Failed to register activity module: %v", err)
	}
	if err := app.Register(taskModule); err != nil {
		log.Fatalf("Failed to register task module: %v", err)
	}
	if err := app.Register(apiModule); err != nil {
		log.Fatalf("Failed to register API module: %v", err)
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	cacheBackend := "disabled"
	if cfg.CacheEnabled() {
		cacheBackend = "Redis at " + cfg.RedisAddr
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber")
	log.Printf("  - Database: GORM (%s)", cfg.DBDriver)
	log.Printf("  - Cache: %s", cacheBackend)
	if cfg.RateLimit > 0 {
		log.Printf("  - Rate limit: %d requests/minute per IP", cfg.RateLimit)
	}
	log.Println("")
	log.Println("Event-Driven Activity Feed:")
	log.Println("  - TaskCreated, TaskUpdated, TaskStatusToggled, TaskDeleted -> activity module")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.Port)
	log.Println("  POST   /api/tarefas                 - Create a task")
	log.Println("  GET    /api/tarefas                 - List tasks (?pagina=&porPagina=)")
	log.Println("  GET    /api/tarefas/:id             - Get a task")
	log.Println("  PUT    /api/tarefas/:id             - Replace a task")
	log.Println("  PATCH  /api/tarefas/:id/status      - Toggle task status")
	log.Println("  GET    /api/tarefas/status/:status  - Filter by status (pendente|concluida)")
	log.Println("  DELETE /api/tarefas/:id             - Delete a task")
	log.Println("  GET    /api/atividades              - Recent activity")
	log.Println("  GET    /api-docs                    - Swagger UI")
	log.Println("  GET    /health                      - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
