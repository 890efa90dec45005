package store

import (
	"context"
	"time"

	"github.com/hanpama/docgraph/internal/eventbus"
	"github.com/hanpama/docgraph/internal/events"
)

// Instrument wraps c so every call publishes an events.StoreCall.
func Instrument[T any](name string, c Collection[T]) Collection[T] {
	if _, ok := c.(*instrumented[T]); ok {
		return c
	}
	return &instrumented[T]{name: name, next: c}
}

type instrumented[T any] struct {
	name string
	next Collection[T]
}

func (c *instrumented[T]) publish(ctx context.Context, op events.StoreOp, id string, found bool, err error, start time.Time) {
	eventbus.Publish(ctx, events.StoreCall{
		Collection: c.name,
		Op:         op,
		ID:         id,
		Found:      found,
		Err:        err,
		Start:      start,
		Duration:   time.Since(start),
	})
}

func (c *instrumented[T]) FindByID(ctx context.Context, id string) (*T, error) {
	start := time.Now()
	doc, err := c.next.FindByID(ctx, id)
	c.publish(ctx, events.StoreFindByID, id, doc != nil, err, start)
	return doc, err
}

func (c *instrumented[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	start := time.Now()
	docs, err := c.next.Find(ctx, filter)
	c.publish(ctx, events.StoreFind, "", len(docs) > 0, err, start)
	return docs, err
}

func (c *instrumented[T]) Insert(ctx context.Context, doc T) (T, error) {
	start := time.Now()
	created, err := c.next.Insert(ctx, doc)
	var id string
	if err == nil {
		if fields, ferr := toFields(created); ferr == nil {
			id, _ = fields["id"].(string)
		}
	}
	c.publish(ctx, events.StoreInsert, id, err == nil, err, start)
	return created, err
}

func (c *instrumented[T]) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (*T, error) {
	start := time.Now()
	doc, err := c.next.FindByIDAndUpdate(ctx, id, patch)
	c.publish(ctx, events.StoreUpdate, id, doc != nil, err, start)
	return doc, err
}

func (c *instrumented[T]) FindByIDAndRemove(ctx context.Context, id string) (*T, error) {
	start := time.Now()
	doc, err := c.next.FindByIDAndRemove(ctx, id)
	c.publish(ctx, events.StoreRemove, id, doc != nil, err, start)
	return doc, err
}
