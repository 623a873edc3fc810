// Package postgres implements the repositories on top of a pgx pool.
//
// Expected schema:
//
//	CREATE TABLE stories (
//	    id                TEXT PRIMARY KEY,
//	    title             TEXT NOT NULL,
//	    content           TEXT NOT NULL,
//	    summary           TEXT NOT NULL,
//	    image_url         TEXT NOT NULL DEFAULT '',
//	    genre             TEXT NOT NULL,
//	    status            TEXT NOT NULL,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    published_at      TIMESTAMPTZ,
//	    scheduled_at_date TEXT NOT NULL DEFAULT '',
//	    scheduled_at_time TEXT NOT NULL DEFAULT ''
//	);
//
//	CREATE TABLE scheduled_generations (
//	    id                 TEXT PRIMARY KEY,
//	    scheduled_date     TEXT NOT NULL,
//	    scheduled_time     TEXT NOT NULL,
//	    genre              TEXT NOT NULL,
//	    status             TEXT NOT NULL,
//	    generated_story_id TEXT NOT NULL DEFAULT '',
//	    error_message      TEXT NOT NULL DEFAULT '',
//	    created_at         TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE weekly_schedules (
//	    id          TEXT PRIMARY KEY,
//	    day_of_week INT  NOT NULL,
//	    time_of_day TEXT NOT NULL,
//	    genre       TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL,
//	    UNIQUE (day_of_week, time_of_day)
//	);
package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories rely on; pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// builder produces statements with Postgres placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
