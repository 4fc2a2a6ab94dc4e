package repositories

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tandem-server/models"
)

type MongoMemberStore struct {
	collection *mongo.Collection
}

func NewMongoMemberStore(db *mongo.Database) *MongoMemberStore {
	return &MongoMemberStore{collection: db.Collection(membersCollection)}
}

func (s *MongoMemberStore) Create(ctx context.Context, member *models.Member) error {
	member.CreatedAt, member.UpdatedAt = now(), now()
	_, err := s.collection.InsertOne(ctx, member)
	return translateError(err)
}

func (s *MongoMemberStore) FindByID(ctx context.Context, id string) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoMemberStore) FindByAccount(ctx context.Context, accountID string) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"user": accountID})
}

func (s *MongoMemberStore) findOne(ctx context.Context, filter bson.M) (*models.Member, error) {
	var member models.Member
	if err := s.collection.FindOne(ctx, filter).Decode(&member); err != nil {
		return nil, translateError(err)
	}
	return &member, nil
}

func (s *MongoMemberStore) List(ctx context.Context, filter MemberFilter) ([]models.Member, error) {
	query := bson.M{}
	if filter.ExcludeAccountID != "" {
		query["user"] = bson.M{"$ne": filter.ExcludeAccountID}
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	members := []models.Member{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *MongoMemberStore) SetStatus(ctx context.Context, accountID string, status models.PresenceStatus) (*models.Member, error) {
	var member models.Member
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"user": accountID},
		bson.M{"$set": bson.M{"status": status, "updated_at": now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&member)
	if err != nil {
		return nil, translateError(err)
	}
	return &member, nil
}

func (s *MongoMemberStore) ResetStatus(ctx context.Context, status models.PresenceStatus) (int64, error) {
	res, err := s.collection.UpdateMany(ctx,
		bson.M{"status": bson.M{"$ne": status}},
		bson.M{"$set": bson.M{"status": status, "updated_at": now()}},
	)
	if err != nil {
		return 0, translateError(err)
	}
	return res.ModifiedCount, nil
}
