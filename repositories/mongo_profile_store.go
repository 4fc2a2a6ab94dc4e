package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tandem-server/models"
)

type MongoProfileStore struct {
	collection *mongo.Collection
}

func NewMongoProfileStore(db *mongo.Database) *MongoProfileStore {
	return &MongoProfileStore{collection: db.Collection(profilesCollection)}
}

func (s *MongoProfileStore) Create(ctx context.Context, profile *models.Profile) error {
	profile.CreatedAt, profile.UpdatedAt = now(), now()
	_, err := s.collection.InsertOne(ctx, profile)
	return translateError(err)
}

func (s *MongoProfileStore) FindByAccount(ctx context.Context, accountID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.collection.FindOne(ctx, bson.M{"user": accountID}).Decode(&profile); err != nil {
		return nil, translateError(err)
	}
	return &profile, nil
}

// UpdateFields $sets only the named settings, so a concurrent notifications
// toggle, picture upload or follow is not overwritten with a stale value.
func (s *MongoProfileStore) UpdateFields(ctx context.Context, profile *models.Profile, fields []string) error {
	set, err := settingsUpdate(profile, fields)
	if err != nil {
		return err
	}
	set["updated_at"] = now()

	var updated models.Profile
	err = s.collection.FindOneAndUpdate(ctx,
		bson.M{"user": profile.AccountID},
		bson.M{"$set": bson.M(set)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return translateError(err)
	}
	*profile = updated
	return nil
}

func (s *MongoProfileStore) Delete(ctx context.Context, accountID string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"user": accountID})
	if err != nil {
		return translateError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddRelation matches only when targetID is absent from the set, so the check
// and the $addToSet happen in one server-side operation.
func (s *MongoProfileStore) AddRelation(ctx context.Context, accountID string, field models.RelationField, targetID string) (bool, error) {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"user": accountID, string(field): bson.M{"$ne": targetID}},
		bson.M{
			"$addToSet": bson.M{string(field): targetID},
			"$set":      bson.M{"updated_at": now()},
		},
	)
	if err != nil {
		return false, translateError(err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	return false, s.exists(ctx, accountID)
}

func (s *MongoProfileStore) RemoveRelation(ctx context.Context, accountID string, field models.RelationField, targetID string) (bool, error) {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"user": accountID, string(field): targetID},
		bson.M{
			"$pull": bson.M{string(field): targetID},
			"$set":  bson.M{"updated_at": now()},
		},
	)
	if err != nil {
		return false, translateError(err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	return false, s.exists(ctx, accountID)
}

func (s *MongoProfileStore) RemoveFromAll(ctx context.Context, field models.RelationField, targetID string) (int64, error) {
	res, err := s.collection.UpdateMany(ctx,
		bson.M{string(field): targetID},
		bson.M{"$pull": bson.M{string(field): targetID}},
	)
	if err != nil {
		return 0, translateError(err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoProfileStore) FollowersOf(ctx context.Context, accountID string) ([]string, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{string(models.FieldFollowing): accountID},
		options.Find().SetProjection(bson.M{"user": 1}).SetSort(bson.D{{Key: "user", Value: 1}}),
	)
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AccountID string `bson:"user"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, translateError(err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.AccountID)
	}
	return ids, nil
}

func (s *MongoProfileStore) SetNotifications(ctx context.Context, accountID string, enabled bool) error {
	res, err := s.collection.UpdateOne(ctx,
		bson.M{"user": accountID},
		bson.M{"$set": bson.M{"notifications_enabled": enabled, "updated_at": now()}},
	)
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoProfileStore) SetPicture(ctx context.Context, accountID, ref string) (*models.Profile, string, error) {
	updatedAt := now()
	var profile models.Profile
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"user": accountID},
		bson.M{"$set": bson.M{"profile_picture": ref, "updated_at": updatedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&profile)
	if err != nil {
		return nil, "", translateError(err)
	}
	previous := profile.ProfilePicture
	profile.ProfilePicture, profile.UpdatedAt = ref, updatedAt
	return &profile, previous, nil
}

// exists distinguishes "profile missing" from "set already in that state"
// after a conditional update matched nothing.
func (s *MongoProfileStore) exists(ctx context.Context, accountID string) error {
	n, err := s.collection.CountDocuments(ctx, bson.M{"user": accountID}, options.Count().SetLimit(1))
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
