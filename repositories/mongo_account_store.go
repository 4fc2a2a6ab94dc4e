package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tandem-server/models"
)

type MongoAccountStore struct {
	collection *mongo.Collection
}

func NewMongoAccountStore(db *mongo.Database) *MongoAccountStore {
	return &MongoAccountStore{collection: db.Collection(accountsCollection)}
}

func (s *MongoAccountStore) Create(ctx context.Context, account *models.Account) error {
	account.CreatedAt, account.UpdatedAt = now(), now()
	_, err := s.collection.InsertOne(ctx, account)
	return translateError(err)
}

func (s *MongoAccountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account); err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (s *MongoAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&account); err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (s *MongoAccountStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
