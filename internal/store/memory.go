package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/hanpama/docgraph/internal/model"
	"github.com/pkg/errors"
)

// NewMemory returns a Store kept in process memory. Documents are held
// encoded so callers never share memory with the store.
func NewMemory() *Store {
	return newStore(memoryBackend{}, newMemoryCollection[model.User](), newMemoryCollection[model.Post]())
}

type memoryBackend struct{}

func (memoryBackend) Ping(context.Context) error { return nil }
func (memoryBackend) Close() error               { return nil }

type memoryCollection[T any] struct {
	mu   sync.RWMutex
	docs map[string][]byte
	ids  []string // insertion order
}

func newMemoryCollection[T any]() *memoryCollection[T] {
	return &memoryCollection[T]{docs: make(map[string][]byte)}
}

func (c *memoryCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return decodeDoc[T](raw)
}

func (c *memoryCollection[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := newMatcher(filter)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.ids))
	for _, id := range c.ids {
		raw := c.docs[id]
		if m != nil {
			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				return nil, errors.Wrapf(err, "decoding %s", id)
			}
			if !m.match(fields) {
				continue
			}
		}
		doc, err := decodeDoc[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (c *memoryCollection[T]) Insert(ctx context.Context, doc T) (T, error) {
	if err := ctx.Err(); err != nil {
		return doc, err
	}
	id := uuid.NewString()
	doc, err := withID(doc, id)
	if err != nil {
		return doc, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return doc, errors.Wrap(err, "encoding document")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[id] = raw
	c.ids = append(c.ids, id)
	return doc, nil
}

func (c *memoryCollection[T]) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	doc, err := decodeDoc[T](raw)
	if err != nil {
		return nil, err
	}
	updated, err := applyPatch(*doc, patch)
	if err != nil {
		return nil, err
	}
	if raw, err = json.Marshal(updated); err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	c.docs[id] = raw
	return &updated, nil
}

func (c *memoryCollection[T]) FindByIDAndRemove(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	delete(c.docs, id)
	if i := slices.Index(c.ids, id); i >= 0 {
		c.ids = slices.Delete(c.ids, i, i+1)
	}
	return decodeDoc[T](raw)
}

func decodeDoc[T any](raw []byte) (*T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	return &doc, nil
}
