package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/hrygo/dispatchsense/internal/profile"
	"github.com/hrygo/dispatchsense/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database with the DSN from the profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	pgDB.SetMaxOpenConns(16)
	pgDB.SetMaxIdleConns(4)

	driver := DB{db: pgDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() any {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS ticket (
	id BIGSERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	request_type TEXT NOT NULL DEFAULT 'other',
	priority TEXT NOT NULL DEFAULT 'normal',
	customer_email TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	payload JSONB NOT NULL DEFAULT '{}',
	assignee TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ticket_request_type_status ON ticket (request_type, status);

CREATE TABLE IF NOT EXISTS routing_rule (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	predicate JSONB NOT NULL DEFAULT '{}',
	assignees TEXT[] NOT NULL CHECK (cardinality(assignees) > 0),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	eval_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS routing_audit (
	id BIGSERIAL PRIMARY KEY,
	ticket_uid TEXT NOT NULL,
	operation TEXT NOT NULL,
	input JSONB NOT NULL DEFAULT '{}',
	output JSONB,
	success BOOLEAN NOT NULL DEFAULT FALSE,
	latency_ms BIGINT NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_routing_audit_ticket_uid ON routing_audit (ticket_uid);
`

// Migrate applies the bootstrap schema. All statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply postgres schema")
	}
	return nil
}
