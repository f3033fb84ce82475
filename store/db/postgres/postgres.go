package postgres

import (
	"context"
	"database/sql"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tleai/thomas/internal/profile"
	"github.com/tleai/thomas/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection pool for the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	postgresDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	if err := postgresDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}

	driver := DB{db: postgresDB, profile: profile}
	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'conversation')`,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	initialized, err := d.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check schema")
	}
	if initialized {
		return nil
	}
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

const schema = `
CREATE TABLE conversation (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	creator_id INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT 'New Conversation',
	title_source TEXT NOT NULL DEFAULT 'default',
	pinned BOOLEAN NOT NULL DEFAULT FALSE,
	row_status TEXT NOT NULL DEFAULT 'NORMAL',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE message (
	id BIGSERIAL PRIMARY KEY,
	conversation_id INTEGER NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	citations JSONB NOT NULL DEFAULT '[]',
	created_ts BIGINT NOT NULL
);

CREATE INDEX idx_message_conversation_created ON message (conversation_id, created_ts);

CREATE TABLE conversation_summary (
	id BIGSERIAL PRIMARY KEY,
	conversation_id INTEGER NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
	summary_text TEXT NOT NULL,
	covered_until_ts BIGINT NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE INDEX idx_conversation_summary_conversation ON conversation_summary (conversation_id, created_ts);

CREATE TABLE usage_log (
	id BIGSERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL,
	conversation_id INTEGER REFERENCES conversation (id) ON DELETE SET NULL,
	query_text TEXT NOT NULL DEFAULT '',
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL
);

CREATE INDEX idx_usage_log_user_created ON usage_log (user_id, created_ts);

CREATE TABLE document (
	id SERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	filename TEXT NOT NULL DEFAULT '',
	external_file_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX idx_document_external_file_id ON document (external_file_id);
`
