// Package store is the document store client. A Store holds one
// Collection per entity type; every backend implements the same
// Collection contract, and a by-id lookup that matches nothing returns
// (nil, nil).
package store

import (
	"context"

	"github.com/hanpama/docgraph/internal/model"
)

const (
	UsersCollection = "users"
	PostsCollection = "posts"
)

// Filter selects documents whose fields equal every given value. Keys are
// the JSON field names of the document type.
type Filter map[string]any

// Patch sets the given fields and leaves the rest untouched. An "id" key
// is ignored.
type Patch map[string]any

// Collection is the operation set of one document collection.
type Collection[T any] interface {
	FindByID(ctx context.Context, id string) (*T, error)
	Find(ctx context.Context, filter Filter) ([]T, error)
	// Insert assigns a fresh id, replacing any id already set on doc.
	Insert(ctx context.Context, doc T) (T, error)
	FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (*T, error)
	FindByIDAndRemove(ctx context.Context, id string) (*T, error)
}

// Store is the handle resolvers receive.
type Store struct {
	Users Collection[model.User]
	Posts Collection[model.Post]

	backend backend
}

type backend interface {
	Ping(ctx context.Context) error
	Close() error
}

func newStore(b backend, users Collection[model.User], posts Collection[model.Post]) *Store {
	return &Store{
		Users:   Instrument(UsersCollection, users),
		Posts:   Instrument(PostsCollection, posts),
		backend: b,
	}
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
