package store

import (
	"context"

	"github.com/hanpama/docgraph/internal/model"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OpenMongo connects to uri and uses the users and posts collections of
// database. Ids are ObjectID hex strings stored as the _id value.
func OpenMongo(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongo")
	}
	db := client.Database(database)
	return newStore(&mongoBackend{client: client},
		&mongoCollection[model.User]{coll: db.Collection(UsersCollection)},
		&mongoCollection[model.Post]{coll: db.Collection(PostsCollection)},
	), nil
}

type mongoBackend struct {
	client *mongo.Client
}

func (b *mongoBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx, nil)
}

func (b *mongoBackend) Close() error {
	return b.client.Disconnect(context.Background())
}

type mongoCollection[T any] struct {
	coll *mongo.Collection
}

// mongoFields renames the "id" key to "_id".
func mongoFields(m map[string]any) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		if k == "id" {
			k = "_id"
		}
		out[k] = v
	}
	return out
}

func (c *mongoCollection[T]) decodeOne(res *mongo.SingleResult) (*T, error) {
	var doc T
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "%s", c.coll.Name())
	}
	return &doc, nil
}

func (c *mongoCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return c.decodeOne(c.coll.FindOne(ctx, bson.M{"_id": id}))
}

func (c *mongoCollection[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	// plain values so named string types such as model.Status encode as strings
	normalized, err := toFields(map[string]any(filter))
	if err != nil {
		return nil, err
	}
	cur, err := c.coll.Find(ctx, mongoFields(normalized))
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", c.coll.Name())
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrapf(err, "reading %s", c.coll.Name())
	}
	return out, nil
}

func (c *mongoCollection[T]) Insert(ctx context.Context, doc T) (T, error) {
	doc, err := withID(doc, primitive.NewObjectID().Hex())
	if err != nil {
		return doc, err
	}
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return doc, errors.Wrapf(err, "inserting into %s", c.coll.Name())
	}
	return doc, nil
}

func (c *mongoCollection[T]) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (*T, error) {
	set, err := toFields(map[string]any(withoutID(patch)))
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return c.FindByID(ctx, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return c.decodeOne(c.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(set)}, opts))
}

func (c *mongoCollection[T]) FindByIDAndRemove(ctx context.Context, id string) (*T, error) {
	return c.decodeOne(c.coll.FindOneAndDelete(ctx, bson.M{"_id": id}))
}
