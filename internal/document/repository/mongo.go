package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familyvault/familyvault/internal/document"
)

// DocumentRepository defines persistence operations for document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*document.Document, error)
	Delete(ctx context.Context, id string) error
}

// MongoRepo implements a MongoDB-backed repository for document metadata.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	_, err := m.col.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*document.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.col.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ DocumentRepository = (*MongoRepo)(nil)
