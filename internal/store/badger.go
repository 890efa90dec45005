package store

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/hanpama/docgraph/internal/model"
	"github.com/pkg/errors"
)

// OpenBadger opens an embedded badger store under dir. An empty dir keeps
// everything in memory.
func OpenBadger(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger at %q", dir)
	}
	b := &badgerBackend{db: db}
	return newStore(b,
		&badgerCollection[model.User]{db: db, prefix: []byte(UsersCollection + "/")},
		&badgerCollection[model.Post]{db: db, prefix: []byte(PostsCollection + "/")},
	), nil
}

type badgerBackend struct {
	db *badger.DB
}

func (b *badgerBackend) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

func (b *badgerBackend) Close() error { return b.db.Close() }

// badgerCollection keeps each document under prefix+id.
type badgerCollection[T any] struct {
	db     *badger.DB
	prefix []byte
}

func (c *badgerCollection[T]) key(id string) []byte {
	k := make([]byte, 0, len(c.prefix)+len(id))
	return append(append(k, c.prefix...), id...)
}

func (c *badgerCollection[T]) get(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(c.key(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", id)
	}
	var doc *T
	err = item.Value(func(val []byte) error {
		doc, err = decodeDoc[T](val)
		return err
	})
	return doc, err
}

func (c *badgerCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *T
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = c.get(txn, id)
		return err
	})
	return doc, err
}

func (c *badgerCollection[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	m, err := newMatcher(filter)
	if err != nil {
		return nil, err
	}
	out := []T{}
	err = c.db.View(func(txn *badger.Txn) error {
		iopt := badger.DefaultIteratorOptions
		iopt.Prefix = c.prefix
		itr := txn.NewIterator(iopt)
		defer itr.Close()

		for itr.Seek(c.prefix); itr.ValidForPrefix(c.prefix); itr.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := itr.Item().Value(func(val []byte) error {
				if m != nil {
					var fields map[string]any
					if err := json.Unmarshal(val, &fields); err != nil {
						return errors.Wrap(err, "decoding document fields")
					}
					if !m.match(fields) {
						return nil
					}
				}
				doc, err := decodeDoc[T](val)
				if err != nil {
					return err
				}
				out = append(out, *doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *badgerCollection[T]) Insert(ctx context.Context, doc T) (T, error) {
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
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(id), raw)
	})
	return doc, errors.Wrapf(err, "writing %s", id)
}

func (c *badgerCollection[T]) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var updated *T
	err := c.db.Update(func(txn *badger.Txn) error {
		doc, err := c.get(txn, id)
		if err != nil || doc == nil {
			return err
		}
		next, err := applyPatch(*doc, patch)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return errors.Wrap(err, "encoding document")
		}
		if err := txn.Set(c.key(id), raw); err != nil {
			return errors.Wrapf(err, "writing %s", id)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *badgerCollection[T]) FindByIDAndRemove(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var removed *T
	err := c.db.Update(func(txn *badger.Txn) error {
		doc, err := c.get(txn, id)
		if err != nil || doc == nil {
			return err
		}
		if err := txn.Delete(c.key(id)); err != nil {
			return errors.Wrapf(err, "deleting %s", id)
		}
		removed = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
