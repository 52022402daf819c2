// Package transactionstore persists Transaction, the authoritative payment
// record PAYMENT-WORKER writes once per order attempt.
package transactionstore

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/mongostore"
)

type Store struct {
	collection *mongo.Collection
}

func NewStore(client *mongo.Client, database, collection string) *Store {
	return &Store{collection: client.Database(database).Collection(collection)}
}

// Create inserts a Transaction under the precondition that no Transaction
// with this id exists. domain.TransactionID derives the id deterministically
// from orderId, so redelivery of the same PAYMENT message surfaces as
// domain.ErrConflict instead of a second row for the same order.
func (s *Store) Create(ctx context.Context, txn domain.Transaction) error {
	_, err := s.collection.InsertOne(ctx, txn)
	return mongostore.TranslateInsertErr(err)
}
