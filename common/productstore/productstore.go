// Package productstore reads catalog entries. Products are seeded out of
// band; the workflow only ever reads them.
package productstore

import (
	"context"
	"errors"

	"github.com/orderflow/pipeline/common/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	collection *mongo.Collection
}

func NewStore(client *mongo.Client, database, collection string) *Store {
	return &Store{collection: client.Database(database).Collection(collection)}
}

// Get returns the product, or domain.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (domain.Product, error) {
	var product domain.Product
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}
