// Package journal stores one row per processing attempt in SQLite or
// Postgres. It is observational only; the ledger decides what is processed.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Config struct {
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// ParseDSN maps a journal DSN to its dialect and the driver-level DSN.
//
//	sqlite://./journal.db   -> sqlite, ./journal.db
//	file:journal.db?mode=rwc -> sqlite, unchanged
//	postgres://...          -> postgres, unchanged
func ParseDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", common.NewAppError("CONFIG_ERROR", "sqlite dsn has no path", common.ErrConfig)
		}
		return DialectSQLite, path, nil
	case strings.HasPrefix(dsn, "file:"):
		return DialectSQLite, dsn, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	}
	return "", "", common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unsupported journal dsn %q", redact(dsn)), common.ErrConfig)
}

// openDB opens a *sql.DB for the DSN. Postgres goes through a pgx pool
// wrapped by pgx's database/sql adapter.
func openDB(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, Dialect, error) {
	dialect, dsn, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, "", err
	}
	logger.Info("connecting to journal", "dialect", dialect, "dsn", redact(cfg.DSN))

	switch dialect {
	case DialectPostgres:
		pc, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			logger.Error("failed to parse journal dsn", "error", err)
			return nil, "", common.NewAppError("DATABASE_ERROR", "parse dsn", errors.Join(common.ErrDatabase, err))
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "invoice-watch"

		dialTimeout := cfg.DialTimeout
		if dialTimeout <= 0 {
			dialTimeout = 5 * time.Second
		}
		dctx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dctx, pc)
		if err != nil {
			logger.Error("failed to connect to journal", "error", err)
			return nil, "", common.NewAppError("DATABASE_ERROR", "connect", errors.Join(common.ErrDatabase, err))
		}
		return stdlib.OpenDBFromPool(pool), dialect, nil
	default:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", common.NewAppError("DATABASE_ERROR", "open sqlite", errors.Join(common.ErrDatabase, err))
		}
		// one writer; avoids SQLITE_BUSY between queue workers
		db.SetMaxOpenConns(1)
		return db, dialect, nil
	}
}

// redact hides the password of a URL-style DSN.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		creds = creds[:i] + ":***"
	}
	return dsn[:scheme+3] + creds + dsn[at:]
}
