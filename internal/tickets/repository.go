package tickets

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository provides ticket persistence operations
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByToken(ctx context.Context, token string) (*Ticket, error)
	DeleteByToken(ctx context.Context, token string) error
}

// MongoRepository implements Repository using a Mongo collection with a TTL
// index so spent or abandoned tickets age out on their own.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, t *Ticket) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *MongoRepository) GetByToken(ctx context.Context, token string) (*Ticket, error) {
	var t Ticket
	if err := r.col.FindOne(ctx, bson.M{"token": token}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *MongoRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"token": token})
	return err
}
