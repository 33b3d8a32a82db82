// Package database wraps GORM over SQLite with connection retry, pool
// settings, query logging through the service logger, transaction helpers,
// health reporting and translation of driver errors to AppErrors.
//
// Open retries until the database answers a ping:
//
//	db, err := database.Open(ctx, cfg.Database, log)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// Schema is managed by the migration subpackage, or by GORM auto-migration
// when Config.AutoMigrate is set.
package database
