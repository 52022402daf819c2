// Package stockledger is the append-only stock ledger: ORDER-WORKER reads
// it for the Phase A precheck, STOCK-WORKER appends to it and re-reads it
// for its own advisory check, and the stock reaper scans it for
// uncompensated DECREASE entries. Current stock for a product is always
// Σ INCREASE.quantity − Σ DECREASE.quantity; entries are never updated or
// deleted.
package stockledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/pipeline/common/domain"
	"github.com/orderflow/pipeline/common/mongostore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Ledger struct {
	collection *mongo.Collection
}

func NewLedger(client *mongo.Client, database, collection string) *Ledger {
	return &Ledger{collection: client.Database(database).Collection(collection)}
}

// Sum computes current stock for productId as Σ INCREASE − Σ DECREASE by
// aggregating over every ledger entry. Correctness comes from the sum, not
// from the order entries were appended in.
func (l *Ledger) Sum(ctx context.Context, productID string) (int, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"productId": productID}},
		bson.M{"$group": bson.M{
			"_id": nil,
			"total": bson.M{"$sum": bson.M{
				"$cond": bson.A{
					bson.M{"$eq": bson.A{"$type", domain.StockIncrease}},
					"$quantity",
					bson.M{"$multiply": bson.A{"$quantity", -1}},
				},
			}},
		}},
	}

	cursor, err := l.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, err
		}
	}
	return result.Total, cursor.Err()
}

// Append inserts a new StockEntry with a fresh id. The insert is the
// commit point — the worker never updates an existing entry.
func (l *Ledger) Append(ctx context.Context, productID string, entryType domain.StockEntryType, quantity int, reason, orderID string) (domain.StockEntry, error) {
	entry := domain.StockEntry{
		ID:        uuid.New().String(),
		ProductID: productID,
		Type:      entryType,
		Quantity:  quantity,
		Reason:    reason,
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := l.collection.InsertOne(ctx, entry); err != nil {
		return domain.StockEntry{}, mongostore.TranslateInsertErr(err)
	}
	return entry, nil
}

// AppendCompensation inserts a compensating INCREASE entry referencing the
// DECREASE it reverses. The caller checks HasCompensation first so a rescan
// never compensates the same source entry twice; no unique index on
// compensatesEntryId is created, so two concurrent callers that both pass
// that check each append a compensation.
func (l *Ledger) AppendCompensation(ctx context.Context, sourceEntry domain.StockEntry) (domain.StockEntry, error) {
	entry := domain.StockEntry{
		ID:                 uuid.New().String(),
		ProductID:          sourceEntry.ProductID,
		Type:               domain.StockIncrease,
		Quantity:           sourceEntry.Quantity,
		Reason:             "Reaper compensation for orphaned reservation",
		OrderID:            sourceEntry.OrderID,
		CompensatesEntryID: sourceEntry.ID,
		CreatedAt:          time.Now().UTC(),
	}
	if _, err := l.collection.InsertOne(ctx, entry); err != nil {
		return domain.StockEntry{}, mongostore.TranslateInsertErr(err)
	}
	return entry, nil
}

// HasCompensation reports whether sourceEntryID already has a compensating
// INCREASE appended, so the reaper never double-compensates on rescan.
func (l *Ledger) HasCompensation(ctx context.Context, sourceEntryID string) (bool, error) {
	count, err := l.collection.CountDocuments(ctx, bson.M{"compensatesEntryId": sourceEntryID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UncompensatedDecreases returns DECREASE entries tied to an orderId,
// created before the cutoff, that are candidates for the reaper: the
// caller still needs to check the referenced Order actually exists and
// that HasCompensation is false.
func (l *Ledger) UncompensatedDecreases(ctx context.Context, olderThan time.Time) ([]domain.StockEntry, error) {
	filter := bson.M{
		"type":      domain.StockDecrease,
		"orderId":   bson.M{"$exists": true, "$ne": ""},
		"createdAt": bson.M{"$lt": olderThan},
	}
	cursor, err := l.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.StockEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
