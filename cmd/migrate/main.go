// cmd/migrate/main.go
// Imports the legacy MySQL jra_website database into the configured database.
// Rows are copied in id order and re-runs skip rows that already exist.
// Plaintext jockey passwords are hashed on the way in.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/jra_website?parseTime=true" \
//	DB_PASS="pgpass" JWT_SECRET=x \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"log"
	"reflect"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"golang.org/x/crypto/bcrypt"

	"github.com/jraweb/jraweb/cache"
	"github.com/jraweb/jraweb/config"
	bundb "github.com/jraweb/jraweb/db"
	"github.com/jraweb/jraweb/handlers"
	"github.com/jraweb/jraweb/models"
)

const batchSize = 500

// migrated lists the models whose legacy table has the same columns.
// Each has an int64 ID primary key.
type migrated interface {
	models.Horse | models.Race | models.Racecourse | models.Jockey |
		models.FavoriteHorse | models.FavoriteRace | models.FavoriteRacecourse
}

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/jra_website?parseTime=true")
	}
	sqldb, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	sqldb.SetMaxOpenConns(4)
	src := bun.NewDB(sqldb, mysqldialect.New())
	defer src.Close()
	if err := src.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to legacy MySQL")

	// --- destination ---
	dst := bundb.Setup(cfg)
	defer dst.Close()
	log.Printf("connected to %s", cfg.Driver)

	if err := bundb.CreateTables(ctx, dst); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	hash := passwordHasher(cfg.BcryptCost)
	for _, s := range steps(src, dst, hash) {
		n, err := s.fn(ctx)
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-27s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, dst)
	if cfg.RedisAddr != "" {
		forgetOptions(ctx, cfg)
	}
	log.Println("migration complete")
}

// forgetOptions drops the entry form choices the API cached in Redis.
func forgetOptions(ctx context.Context, cfg *config.Config) {
	rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cache.RedisPrefix)
	if err != nil {
		log.Printf("cached options not cleared: %v", err)
		return
	}
	defer rc.Close()
	if err := dropOptions(ctx, rc); err != nil {
		log.Printf("cached options not cleared: %v", err)
		return
	}
	log.Println("cached options cleared")
}

func dropOptions(ctx context.Context, c cache.Cache) error {
	return c.Delete(ctx, handlers.OptionCacheKeys...)
}

type step struct {
	name string
	fn   func(context.Context) (int, error)
}

// steps lists the copies in dependency order.
func steps(src, dst *bun.DB, hash func(*models.Jockey) error) []step {
	return []step{
		{"racecourses", func(ctx context.Context) (int, error) { return copyTable[models.Racecourse](ctx, src, dst, nil) }},
		{"horses", func(ctx context.Context) (int, error) { return copyTable[models.Horse](ctx, src, dst, nil) }},
		{"races", func(ctx context.Context) (int, error) { return copyTable[models.Race](ctx, src, dst, nil) }},
		{"jockeys", func(ctx context.Context) (int, error) { return copyTable(ctx, src, dst, hash) }},
		{"race_entries", func(ctx context.Context) (int, error) { return copyRows(ctx, src, dst, legacyRaceEntry.entry) }},
		{"user_favorite_horses", func(ctx context.Context) (int, error) { return copyTable[models.FavoriteHorse](ctx, src, dst, nil) }},
		{"user_favorite_races", func(ctx context.Context) (int, error) { return copyTable[models.FavoriteRace](ctx, src, dst, nil) }},
		{"user_favorite_racecourses", func(ctx context.Context) (int, error) {
			return copyTable[models.FavoriteRacecourse](ctx, src, dst, nil)
		}},
	}
}

// copyTable copies a table whose legacy columns match the current model.
// prep, when set, runs on every row before insert.
func copyTable[T migrated](ctx context.Context, src, dst *bun.DB, prep func(*T) error) (int, error) {
	return copyRows(ctx, src, dst, func(row T) (T, error) {
		if prep == nil {
			return row, nil
		}
		err := prep(&row)
		return row, err
	})
}

// copyRows reads legacy rows S from src in id-ordered batches, converts
// each to T and inserts the batch into dst, keeping ids. S must have an
// int64 ID field.
func copyRows[S, T any](ctx context.Context, src, dst *bun.DB, conv func(S) (T, error)) (int, error) {
	total := 0
	var last int64
	for {
		var batch []S
		err := src.NewSelect().
			Model(&batch).
			Where("?TableAlias.id > ?", last).
			OrderExpr("?TableAlias.id ASC").
			Limit(batchSize).
			Scan(ctx)
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		rows := make([]T, len(batch))
		for i := range batch {
			if rows[i], err = conv(batch[i]); err != nil {
				return total, err
			}
		}
		if err := bulkInsert(ctx, dst, rows); err != nil {
			return total, err
		}
		total += len(batch)

		last = reflect.ValueOf(batch[len(batch)-1]).FieldByName("ID").Int()
		if len(batch) < batchSize {
			return total, nil
		}
	}
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, db *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&rows).Ignore().Exec(ctx)
	return err
}

// passwordHasher returns a prep func replacing plaintext passwords with
// bcrypt hashes. Values that already parse as bcrypt hashes are kept.
func passwordHasher(cost int) func(*models.Jockey) error {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return func(j *models.Jockey) error {
		if isBcrypt(j.Password) {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(j.Password), cost)
		if err != nil {
			return err
		}
		j.Password = string(hash)
		return nil
	}
}

func isBcrypt(s string) bool {
	if !strings.HasPrefix(s, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// resetSequences moves postgres id sequences past the imported ids.
func resetSequences(ctx context.Context, db *bun.DB) {
	if db.Dialect().Name() != dialect.PG {
		return
	}
	for _, model := range bundb.Tables() {
		table := db.Table(reflect.TypeOf(model).Elem()).Name
		_, err := db.ExecContext(ctx,
			"SELECT setval(pg_get_serial_sequence(?, 'id'), COALESCE((SELECT MAX(id) FROM ?), 1))",
			table, bun.Ident(table),
		)
		if err != nil {
			log.Printf("reset seq %s: %v", table, err)
		}
	}
	log.Println("sequences reset")
}
