package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hanpama/docgraph/internal/model"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// OpenPostgres connects with dsn and keeps each collection in a table of
// (id, doc jsonb) rows, creating the tables when missing.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging postgres")
	}
	for _, table := range []string{UsersCollection, PostsCollection} {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`, table)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "creating table %s", table)
		}
	}
	return newStore(&postgresBackend{db: db},
		&postgresCollection[model.User]{db: db, table: UsersCollection},
		&postgresCollection[model.Post]{db: db, table: PostsCollection},
	), nil
}

type postgresBackend struct {
	db *sql.DB
}

func (b *postgresBackend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }
func (b *postgresBackend) Close() error                   { return b.db.Close() }

// postgresCollection stores documents as JSONB. table is one of the fixed
// collection names, never user input.
type postgresCollection[T any] struct {
	db    *sql.DB
	table string
}

func (c *postgresCollection[T]) scanOne(row *sql.Row) (*T, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", c.table)
	}
	return decodeDoc[T](raw)
}

func (c *postgresCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	q := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, c.table)
	return c.scanOne(c.db.QueryRowContext(ctx, q, id))
}

func (c *postgresCollection[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	if filter == nil {
		filter = Filter{}
	}
	contains, err := json.Marshal(filter)
	if err != nil {
		return nil, errors.Wrap(err, "encoding filter")
	}
	q := fmt.Sprintf(`SELECT doc FROM %s WHERE doc @> $1::jsonb`, c.table)
	rows, err := c.db.QueryContext(ctx, q, string(contains))
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", c.table)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrapf(err, "scanning %s", c.table)
		}
		doc, err := decodeDoc[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, errors.Wrapf(rows.Err(), "iterating %s", c.table)
}

func (c *postgresCollection[T]) Insert(ctx context.Context, doc T) (T, error) {
	id := uuid.NewString()
	doc, err := withID(doc, id)
	if err != nil {
		return doc, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return doc, errors.Wrap(err, "encoding document")
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)`, c.table)
	if _, err := c.db.ExecContext(ctx, q, id, string(raw)); err != nil {
		return doc, errors.Wrapf(err, "inserting into %s", c.table)
	}
	return doc, nil
}

func (c *postgresCollection[T]) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (*T, error) {
	raw, err := json.Marshal(withoutID(patch))
	if err != nil {
		return nil, errors.Wrap(err, "encoding patch")
	}
	q := fmt.Sprintf(`UPDATE %s SET doc = doc || $2::jsonb WHERE id = $1 RETURNING doc`, c.table)
	return c.scanOne(c.db.QueryRowContext(ctx, q, id, string(raw)))
}

func (c *postgresCollection[T]) FindByIDAndRemove(ctx context.Context, id string) (*T, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING doc`, c.table)
	return c.scanOne(c.db.QueryRowContext(ctx, q, id))
}
