package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familyvault/familyvault/internal/share"
)

// MongoStore implements GrantStore on a MongoDB collection. The
// at-most-one-active invariant is enforced by a partial unique index over
// unrevoked (documentId, recipientId) pairs: the supersede step revokes any
// unrevoked grant for the pair, and the index catches the insert/insert race
// that the revoke-then-insert sequence alone would permit.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	idx := mongo.IndexModel{
		Keys: bson.D{{Key: "documentId", Value: 1}, {Key: "recipientId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"revoked": false}),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return &MongoStore{col: col}
}

func (s *MongoStore) Insert(ctx context.Context, g *share.ShareGrant) (string, error) {
	if g.ID == "" {
		g.ID = primitive.NewObjectID().Hex()
	}
	// Two attempts: the second covers a concurrent insert sneaking in between
	// the supersede update and our insert.
	for attempt := 0; attempt < 2; attempt++ {
		_, err := s.col.UpdateMany(ctx,
			bson.M{"documentId": g.DocumentID, "recipientId": g.RecipientID, "revoked": false},
			bson.M{"$set": bson.M{"revoked": true, "revokedAt": g.CreatedAt}},
		)
		if err != nil {
			return "", err
		}
		_, err = s.col.InsertOne(ctx, g)
		if err == nil {
			return g.ID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", err
		}
	}
	return "", ErrConflict
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*share.ShareGrant, error) {
	var g share.ShareGrant
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *MongoStore) FindByRecipient(ctx context.Context, userID string) ([]*share.ShareGrant, error) {
	return s.find(ctx, bson.M{"recipientId": userID})
}

func (s *MongoStore) FindByOwner(ctx context.Context, userID string) ([]*share.ShareGrant, error) {
	return s.find(ctx, bson.M{"ownerId": userID})
}

func (s *MongoStore) FindActiveByRecipient(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error) {
	return s.find(ctx, bson.M{"recipientId": userID, "revoked": false, "expiresAt": bson.M{"$gt": now}})
}

func (s *MongoStore) FindActiveByOwner(ctx context.Context, userID string, now time.Time) ([]*share.ShareGrant, error) {
	return s.find(ctx, bson.M{"ownerId": userID, "revoked": false, "expiresAt": bson.M{"$gt": now}})
}

func (s *MongoStore) FindLatestByDocumentRecipient(ctx context.Context, documentID, userID string) (*share.ShareGrant, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var g share.ShareGrant
	err := s.col.FindOne(ctx, bson.M{"documentId": documentID, "recipientId": userID}, opts).Decode(&g)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (s *MongoStore) HasActiveByDocument(ctx context.Context, documentID string, now time.Time) (bool, error) {
	filter := bson.M{"documentId": documentID, "revoked": false, "expiresAt": bson.M{"$gt": now}}
	n, err := s.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoStore) MarkRevoked(ctx context.Context, id string, now time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true, "revokedAt": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// distinguish missing from already revoked (idempotent no-op)
		n, err := s.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]*share.ShareGrant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*share.ShareGrant{}
	for cur.Next(ctx) {
		var g share.ShareGrant
		if err := cur.Decode(&g); err != nil {
			return nil, err
		}
		out = append(out, &g)
	}
	return out, cur.Err()
}

var _ GrantStore = (*MongoStore)(nil)
