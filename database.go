package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const mysqlDuplicateEntry = 1062

// OpenMySQL opens a pooled MySQL connection configured from cfg.
// parseTime is forced so DATE and DATETIME columns scan into time.Time.
func OpenMySQL(ctx context.Context, cfg DatabaseConfig) (*bun.DB, error) {
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid database dsn")
	}
	mcfg.ParseTime = true

	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create mysql connector")
	}

	sqldb := sql.OpenDB(connector)
	applyPool(sqldb, cfg)

	db := bun.NewDB(sqldb, mysqldialect.New())
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to reach database")
	}

	return db, nil
}

// OpenSQLite opens a SQLite database, used for tests and local runs.
// A single connection keeps in-memory databases shared across queries.
func OpenSQLite(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite")
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to enable foreign keys")
	}

	return db, nil
}

func applyPool(sqldb *sql.DB, cfg DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// IsDuplicateKeyError reports unique constraint violations from MySQL or SQLite
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	if errors.IsCategory(err, repository.CategoryDatabaseDuplicate) {
		return true
	}

	var myErr *mysql.MySQLError
	if stderrors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if strings.Contains(e.Error(), "UNIQUE constraint failed") {
			return true
		}
	}
	return false
}
