// Package orderstore persists the Order aggregate: created PENDING by
// ORDER-WORKER, mutated only by UPDATE-WORKER thereafter.
package orderstore

import (
	"context"
	"errors"
	"time"

	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/mongostore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	collection *mongo.Collection
}

func NewStore(client *mongo.Client, database, collection string) *Store {
	return &Store{collection: client.Database(database).Collection(collection)}
}

// Create inserts an Order under the precondition that no Order with this
// id exists. Duplicate delivery of the same orderId surfaces as
// domain.ErrConflict, which ORDER-WORKER's Phase D treats as success.
func (s *Store) Create(ctx context.Context, order domain.Order) error {
	_, err := s.collection.InsertOne(ctx, order)
	return mongostore.TranslateInsertErr(err)
}

// Get returns the order, or domain.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Exists reports whether an Order with this id has been created, used by
// the stock reaper to tell an orphaned DECREASE (Order never created) from
// a pending one (Order exists, reaper must leave it alone).
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Transition applies a validated status change plus optional reason and
// transactionId. The caller (UPDATE-WORKER) is responsible for checking
// domain.AllowedTransitions before calling this.
func (s *Store) Transition(ctx context.Context, id string, to domain.OrderStatus, reason, transactionID string) error {
	update := bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}
	if reason != "" {
		update["reason"] = reason
	}
	if transactionID != "" {
		update["transactionId"] = transactionID
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
