// Command task-service stores to-do items for users signed in through
// identity-service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/gotasks/auth"
	"github.com/kbukum/gotasks/auth/jwt"
	"github.com/kbukum/gotasks/bootstrap"
	"github.com/kbukum/gotasks/config"
	"github.com/kbukum/gotasks/database"
	"github.com/kbukum/gotasks/database/migration"
	"github.com/kbukum/gotasks/identityclient"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/server"
	"github.com/kbukum/gotasks/server/middleware"
	"github.com/kbukum/gotasks/task"
)

const serviceName = "task-service"

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	flag.Parse()

	if err := run(context.Background(), *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	var cfg task.Config
	if err := config.LoadConfig(serviceName, &cfg, config.WithConfigFile(configFile)); err != nil {
		return err
	}
	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	app.OnStart(func(ctx context.Context) error {
		shutdown, err := observability.Setup(ctx, cfg.Tracing, observability.ServiceInfo{
			Name:        cfg.Name,
			Version:     app.Version,
			Environment: cfg.Environment,
		}, log)
		if err != nil {
			return err
		}
		app.OnStop(bootstrap.Hook(shutdown))

		metrics, err := observability.NewMetrics(observability.Meter())
		if err != nil {
			return err
		}

		db, err := database.Open(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		app.OnStop(func(context.Context) error { return db.Close() })
		if err := migrateSchema(db, cfg.Database.AutoMigrate); err != nil {
			return err
		}
		app.Summary.TrackInfrastructure("sqlite", "database", cfg.Database.DSN, 0)

		users, err := identityclient.New(cfg.Identity, log, identityclient.WithMetrics(metrics))
		if err != nil {
			return err
		}
		app.AddHealthChecker(db, users)
		app.Summary.TrackClient("identity", cfg.Identity.BaseURL, "http")

		codec, err := jwt.NewCodec(&cfg.Auth.Token)
		if err != nil {
			return err
		}
		svc := task.NewService(task.NewGormStore(db), users, log)

		srv := server.New(cfg.Server, log, server.WithMetrics(metrics))
		srv.ApplyMiddleware()
		srv.GinEngine().Use(middleware.Authenticate(middleware.AuthConfig{
			Verifier:    auth.NewVerifier(codec),
			PublicPaths: task.PublicPaths,
			Logger:      log,
			Metrics:     metrics,
		}))
		srv.RegisterDefaultEndpoints(cfg.Name, db, users)
		task.NewHandler(svc, log).RegisterRoutes(srv.GinEngine())
		srv.LogRoutes()
		for _, r := range srv.Routes() {
			app.Summary.TrackRoute(r.Method, r.Path, r.Handler)
		}

		if err := srv.Start(ctx); err != nil {
			return err
		}
		app.OnStop(srv.Stop)
		app.Summary.TrackInfrastructure("http", "server", srv.Addr(), 0)
		return nil
	})

	return app.Run(ctx)
}

func migrateSchema(db *database.DB, auto bool) error {
	if auto {
		return db.AutoMigrate(&task.Task{})
	}
	return migration.Up(db.GormDB, task.Migrations, task.MigrationsPath)
}
