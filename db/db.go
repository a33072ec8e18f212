package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/jraweb/jraweb/config"
	"github.com/jraweb/jraweb/models"
)

// Setup opens a database connection using the provided config and exits on failure.
func Setup(cfg *config.Config) *bun.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	return db
}

// Open opens and pings the configured database. The pool is bounded by
// cfg.MaxOpenConns; callers wait for a free connection under load.
func Open(cfg *config.Config) (*bun.DB, error) {
	var db *bun.DB
	switch cfg.Driver {
	case config.DriverMySQL:
		sqldb, err := sql.Open("mysql", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db = bun.NewDB(sqldb, mysqldialect.New())
	case config.DriverSQLite:
		sqldb, err := sql.Open("sqlite", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// one writer; also keeps a :memory: database alive
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN())))
		db = bun.NewDB(sqldb, pgdialect.New())
	}

	if cfg.Driver != config.DriverSQLite {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Tables lists every model in dependency order.
func Tables() []interface{} {
	return []interface{}{
		(*models.Racecourse)(nil),
		(*models.Horse)(nil),
		(*models.Race)(nil),
		(*models.Jockey)(nil),
		(*models.RaceEntry)(nil),
		(*models.FavoriteHorse)(nil),
		(*models.FavoriteRace)(nil),
		(*models.FavoriteRacecourse)(nil),
	}
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, model := range Tables() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*models.Horse)(nil), "horses_name_idx", []string{"name"}},
		{(*models.Race)(nil), "races_name_idx", []string{"name"}},
		{(*models.RaceEntry)(nil), "race_entries_license_idx", []string{"license_number"}},
	}
	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...)
		if db.Dialect().Name() != dialect.MySQL {
			q = q.IfNotExists()
		}
		if _, err := q.Exec(ctx); err != nil {
			log.Printf("index %s: %v", idx.name, err)
		}
	}

	return nil
}
