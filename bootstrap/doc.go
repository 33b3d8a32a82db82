// Package bootstrap runs a service process: typed configuration, the
// logger, startup and shutdown hooks, a ready check over health checkers,
// graceful shutdown on SIGINT/SIGTERM, and a startup summary.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStart(func(ctx context.Context) error {
//	    if err := srv.Start(ctx); err != nil {
//	        return err
//	    }
//	    app.OnStop(srv.Stop)
//	    return nil
//	})
//	if err := app.Run(ctx); err != nil {
//	    os.Exit(1)
//	}
package bootstrap
