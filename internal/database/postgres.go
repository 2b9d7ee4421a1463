package database

import (
	"database/sql"
)

// schema is applied at startup. The system has no schema versioning, so
// the statements must stay idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE,
	socket_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id SERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	sender_id TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	body TEXT NOT NULL,
	images TEXT[] NOT NULL DEFAULT '{}',
	seen BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
`

type PgChatRepository struct {
	conn *sql.DB
}

func NewPgChatRepository(dsn string) (*PgChatRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgChatRepository{conn: db}, nil
}

func (db *PgChatRepository) EnsureSchema() error {
	_, err := db.conn.Exec(schema)
	return err
}

func (db *PgChatRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgChatRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
