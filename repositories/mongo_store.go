package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	accountsCollection = "accounts"
	membersCollection  = "members"
	profilesCollection = "profiles"
)

// Connect opens a client, pings it and returns the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the unique indexes the stores rely on for
// one-account-one-document guarantees.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		accountsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(UniqueEmail)},
		},
		membersCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true).SetName(UniqueAccountID)},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		profilesCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true).SetName(UniqueAccountID)},
			{Keys: bson.D{{Key: "tandem_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName(UniqueTandemID)},
			{Keys: bson.D{{Key: "followers", Value: 1}}},
			{Keys: bson.D{{Key: "following", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// translateError maps driver errors onto the package sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return &DuplicateKeyError{Field: duplicateIndex(err)}
	}
	return err
}

// duplicateIndex pulls the index name out of an E11000 message.
func duplicateIndex(err error) string {
	msg := err.Error()
	for _, name := range []string{UniqueTandemID, UniqueEmail, UniqueAccountID} {
		if strings.Contains(msg, "index: "+name+" ") || strings.Contains(msg, "index: "+name+"_") {
			return name
		}
	}
	return "_id"
}

func now() time.Time {
	return time.Now().UTC()
}
