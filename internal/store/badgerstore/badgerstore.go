package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"chatroom-service/internal/store"
)

// Store implements store.Store on an embedded badger database. Documents are
// stored as JSON under composite keys "collection/field/value"; badger's
// lexicographic key order makes FindPrefix come back sorted by value, so the
// zero-padded message sequence keys hydrate in chronological order.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (or creates) the database at path. An empty path opens an
// in-memory store, which the tests rely on.
func Open(path string, log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) store.Collection {
	return &collection{db: s.db, name: name}
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type collection struct {
	db   *badger.DB
	name string
}

func (c *collection) key(field, value string) []byte {
	return []byte(c.name + "/" + field + "/" + value)
}

func (c *collection) FindOne(ctx context.Context, field, value string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(field, value))
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			return json.Unmarshal(raw, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s/%s=%s: %w", c.name, field, value, err)
	}
	return nil
}

func (c *collection) FindPrefix(ctx context.Context, field, prefix string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var docs []json.RawMessage
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		scan := c.key(field, prefix)
		opts.Prefix = scan
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(scan); it.ValidForPrefix(scan); it.Next() {
			err := it.Item().Value(func(raw []byte) error {
				doc := make(json.RawMessage, len(raw))
				copy(doc, raw)
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w", c.name, field, err)
	}
	return docs, nil
}

func (c *collection) Upsert(ctx context.Context, field, value string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s=%s: %w", c.name, field, value, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(field, value), raw)
	})
	if err != nil {
		return fmt.Errorf("upsert %s/%s=%s: %w", c.name, field, value, err)
	}
	return nil
}

func (c *collection) Delete(ctx context.Context, field, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(c.key(field, value))
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s=%s: %w", c.name, field, value, err)
	}
	return nil
}
