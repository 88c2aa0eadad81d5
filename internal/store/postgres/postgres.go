package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"chatroom-service/internal/store"
)

// Store implements store.Store on Postgres. Every collection shares one
// documents table; the (collection, field, value) triple is the document key
// and the payload lives in a JSONB column.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// Connect opens the database and applies the schema.
func Connect(dsn string, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Info().Msg("document store schema applied")
	return &Store{db: db, log: log}, nil
}

func migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            collection TEXT NOT NULL,
            field      TEXT NOT NULL,
            value      TEXT NOT NULL,
            doc        JSONB NOT NULL,
            PRIMARY KEY (collection, field, value)
        );`,
		`CREATE INDEX IF NOT EXISTS documents_prefix_idx
            ON documents (collection, field, value text_pattern_ops);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) store.Collection {
	return &collection{db: s.db, name: name}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type collection struct {
	db   *sqlx.DB
	name string
}

func (c *collection) FindOne(ctx context.Context, field, value string, out any) error {
	var raw []byte
	err := c.db.GetContext(ctx, &raw,
		`SELECT doc FROM documents WHERE collection=$1 AND field=$2 AND value=$3`,
		c.name, field, value)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s/%s=%s: %w", c.name, field, value, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s/%s=%s: %w", c.name, field, value, err)
	}
	return nil
}

func (c *collection) FindPrefix(ctx context.Context, field, prefix string) ([]json.RawMessage, error) {
	rows, err := c.db.QueryxContext(ctx,
		`SELECT doc FROM documents WHERE collection=$1 AND field=$2 AND value LIKE $3 ORDER BY value ASC`,
		c.name, field, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w", c.name, field, err)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s/%s: %w", c.name, field, err)
		}
		docs = append(docs, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w", c.name, field, err)
	}
	return docs, nil
}

func (c *collection) Upsert(ctx context.Context, field, value string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s=%s: %w", c.name, field, value, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (collection, field, value, doc) VALUES ($1, $2, $3, $4)
         ON CONFLICT (collection, field, value) DO UPDATE SET doc = EXCLUDED.doc`,
		c.name, field, value, raw)
	if err != nil {
		return fmt.Errorf("upsert %s/%s=%s: %w", c.name, field, value, err)
	}
	return nil
}

func (c *collection) Delete(ctx context.Context, field, value string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection=$1 AND field=$2 AND value=$3`,
		c.name, field, value)
	if err != nil {
		return fmt.Errorf("delete %s/%s=%s: %w", c.name, field, value, err)
	}
	return nil
}

// likePrefix escapes LIKE metacharacters so a prefix scan stays a prefix scan.
func likePrefix(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}
	return string(escaped) + "%"
}
