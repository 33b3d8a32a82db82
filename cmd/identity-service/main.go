// Command identity-service registers users, signs them in and answers
// service-to-service user lookups.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/gotasks/auth"
	"github.com/kbukum/gotasks/auth/jwt"
	"github.com/kbukum/gotasks/auth/password"
	"github.com/kbukum/gotasks/bootstrap"
	"github.com/kbukum/gotasks/config"
	"github.com/kbukum/gotasks/database"
	"github.com/kbukum/gotasks/database/migration"
	"github.com/kbukum/gotasks/identity"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/server"
	"github.com/kbukum/gotasks/server/middleware"
)

const serviceName = "identity-service"

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	flag.Parse()

	if err := run(context.Background(), *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	var cfg identity.Config
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
		app.AddHealthChecker(db)
		app.Summary.TrackInfrastructure("sqlite", "database", cfg.Database.DSN, 0)

		codec, err := jwt.NewCodec(&cfg.Auth.Token)
		if err != nil {
			return err
		}
		svc, err := identity.NewService(
			identity.NewGormStore(db),
			password.NewHasher(cfg.Auth.Password),
			codec,
			log,
			identity.WithMetrics(metrics),
		)
		if err != nil {
			return err
		}
		if cfg.Internal.ServiceKey == "" {
			log.Warn("internal.service_key is empty; /internal routes trust the network")
		}

		srv := server.New(cfg.Server, log, server.WithMetrics(metrics))
		srv.ApplyMiddleware()
		srv.GinEngine().Use(middleware.Authenticate(middleware.AuthConfig{
			Verifier:    auth.NewVerifier(codec),
			PublicPaths: identity.PublicPaths,
			Logger:      log,
			Metrics:     metrics,
		}))
		srv.RegisterDefaultEndpoints(cfg.Name, db)
		identity.NewHandler(svc, cfg.Internal.ServiceKey, log).RegisterRoutes(srv.GinEngine())
		srv.LogRoutes()
		for _, r := range srv.Routes() {
			app.Summary.TrackRoute(r.Method, r.Path, r.Handler)
		}

		if err := srv.Start(ctx); err != nil {
			return err
		}
		app.OnStop(srv.Stop)
		app.Summary.TrackInfrastructure("http", "server", srv.Addr(), 0)
		app.Summary.TrackInfrastructure("auth", "token", cfg.Auth.Describe(), 0)
		return nil
	})

	return app.Run(ctx)
}

func migrateSchema(db *database.DB, auto bool) error {
	if auto {
		return db.AutoMigrate(&identity.User{})
	}
	return migration.Up(db.GormDB, identity.Migrations, identity.MigrationsPath)
}
