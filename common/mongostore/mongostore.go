// Package mongostore provides the shared MongoDB bootstrap and the
// conditional-insert-as-idempotent-create helper every worker's store
// builds on: an insert keyed by a caller-chosen _id succeeds once and
// reports domain.ErrConflict on every subsequent attempt, which callers on
// a create path treat as success.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/orderflow/pipeline/common/domain"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials MongoDB and pings it with a bounded deadline.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// IsDuplicateKey reports whether err is a MongoDB duplicate-key error
// (E11000), the signal that an idempotent create lost the race to an
// earlier insert of the same _id.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if we, ok := err.(mongo.WriteException); ok {
		for _, werr := range we.WriteErrors {
			if werr.Code == 11000 {
				return true
			}
		}
	}
	if ce, ok := err.(mongo.CommandError); ok && ce.Code == 11000 {
		return true
	}
	return false
}

// TranslateInsertErr maps a raw InsertOne error to the shared taxonomy:
// duplicate key becomes domain.ErrConflict (idempotent create, no-op),
// anything else is wrapped as domain.ErrTransientStore so the caller
// surrenders the delivery for redrive.
func TranslateInsertErr(err error) error {
	if err == nil {
		return nil
	}
	if IsDuplicateKey(err) {
		return domain.ErrConflict
	}
	return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
}
