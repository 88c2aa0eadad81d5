package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by FindOne when no document carries the requested
// field/value pair.
var ErrNotFound = errors.New("store: document not found")

// Collection is a keyed namespace of JSON documents in the durable store.
// Documents are addressed the way the registries query them: by an indexed
// field and its exact value (FindOne) or a value prefix (FindPrefix).
//
// All calls are synchronous and block the caller until the store answers.
// There is no retry and no backoff; a failed call is a hard failure for the
// operation that triggered it.
type Collection interface {
	// FindOne unmarshals the document whose field equals value into out.
	// Returns ErrNotFound when absent.
	FindOne(ctx context.Context, field, value string, out any) error

	// FindPrefix returns every document whose field value starts with prefix,
	// ordered by the field value.
	FindPrefix(ctx context.Context, field, prefix string) ([]json.RawMessage, error)

	// Upsert inserts the document under (field, value), replacing any
	// existing document with the same key.
	Upsert(ctx context.Context, field, value string, doc any) error

	// Delete removes the document under (field, value). Deleting an absent
	// document is not an error.
	Delete(ctx context.Context, field, value string) error
}

// Store hands out named collections backed by one durable store.
type Store interface {
	Collection(name string) Collection
	Close() error
}
