// Package leadstore implements Lead lookups and the find-or-create dedup
// operation shared by LEAD-WORKER and ORDER-WORKER's Phase C — both run the
// identical operation against the same collection and must converge on the
// same (email, cpf) semantics.
package leadstore

import (
	"context"
	"time"

	"github.com/google/uuid"
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

// FindByEmail returns every Lead with the given email; (email, cpf) is the
// unique pair, so callers match cpf among the results themselves.
func (s *Store) FindByEmail(ctx context.Context, email string) ([]domain.Lead, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var leads []domain.Lead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// Create inserts a Lead keyed by its generated id, translating a
// duplicate-key error to domain.ErrConflict.
func (s *Store) Create(ctx context.Context, lead domain.Lead) error {
	_, err := s.collection.InsertOne(ctx, lead)
	return mongostore.TranslateInsertErr(err)
}

// FindOrCreate looks up by email, matches cpf among the results, and
// inserts a fresh Lead on a miss. A narrow race between two concurrent
// callers for the same (email, cpf) can produce two Lead rows with that
// pair; this is accepted rather than introducing a distributed lock (see
// design notes on find-or-create races).
func (s *Store) FindOrCreate(ctx context.Context, customer domain.CustomerData) (domain.Lead, error) {
	existing, err := s.FindByEmail(ctx, customer.Email)
	if err != nil {
		return domain.Lead{}, err
	}
	for _, lead := range existing {
		if lead.CPF == customer.CPF {
			return lead, nil
		}
	}

	now := time.Now().UTC()
	lead := domain.Lead{
		ID:        uuid.New().String(),
		CPF:       customer.CPF,
		Email:     customer.Email,
		Name:      customer.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Create(ctx, lead); err != nil {
		if err == domain.ErrConflict {
			return lead, nil
		}
		return domain.Lead{}, err
	}
	return lead, nil
}
