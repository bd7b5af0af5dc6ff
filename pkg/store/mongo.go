package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/reefrank/pkg/errors"
	"github.com/matzehuels/reefrank/pkg/pipeline"
)

const (
	mongoDatabase   = "reefrank"
	mongoCollection = "runs"

	// mongoPingAttempts covers a deployment that is still starting.
	mongoPingAttempts = 3
)

// runDoc is the stored form of a run. Summary fields are inlined so
// listings can project the body away.
type runDoc struct {
	RunSummary `bson:",inline"`
	Body       []byte `bson:"body"`
}

// MongoStore implements Store on a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongoStore connects to the MongoDB deployment at uri and verifies the
// connection with a ping, retrying while the deployment comes up.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongo")
	}
	err = retry(ctx, mongoPingAttempts, time.Second, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return &transientError{err}
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongo")
	}

	runs := client.Database(mongoDatabase).Collection(mongoCollection)
	_, err = runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("store: create index: %w", err)
	}
	return &MongoStore{client: client, runs: runs}, nil
}

// SaveRun implements Store.
func (s *MongoStore) SaveRun(ctx context.Context, res *pipeline.Result) error {
	body, err := encode(res)
	if err != nil {
		return err
	}
	doc := runDoc{RunSummary: summarize(res), Body: body}
	_, err = s.runs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store: save run %s: %w", doc.ID, err)
	}
	return nil
}

// GetRun implements Store.
func (s *MongoStore) GetRun(ctx context.Context, id string) (*pipeline.Result, error) {
	var doc runDoc
	err := s.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run %s: %w", id, err)
	}
	return decode(id, doc.Body)
}

// ListRuns implements Store.
func (s *MongoStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"body": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.runs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	var out []RunSummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// DeleteRun implements Store.
func (s *MongoStore) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.runs.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("store: delete run %s: %w", id, err)
	}
	return nil
}

// Close implements Store.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
