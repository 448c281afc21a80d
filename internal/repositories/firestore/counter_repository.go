package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const countersCollection = "counters"

type counterDocument struct {
	CurrentValue int64     `firestore:"currentValue"`
	Step         int64     `firestore:"step"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// CounterRepository hands out monotonic sequence numbers backed by Firestore
// transactions. Reference code generation depends on these never repeating.
type CounterRepository struct {
	provider *pfirestore.Provider
	counters *pfirestore.Collection[counterDocument]
}

// NewCounterRepository constructs a Firestore-backed counter repository.
func NewCounterRepository(provider *pfirestore.Provider) (*CounterRepository, error) {
	if provider == nil {
		return nil, errors.New("counter repository requires firestore provider")
	}
	return &CounterRepository{
		provider: provider,
		counters: pfirestore.NewCollection[counterDocument](provider, countersCollection, nil),
	}, nil
}

// Next atomically increments the counter identified by counterID and returns
// the new value. When the context already carries a transaction the increment
// joins it; otherwise a dedicated transaction is opened.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, errors.New("counter id is required")
	}
	if step < 0 {
		return 0, fmt.Errorf("counter step must be positive, got %d", step)
	}

	var nextValue int64
	advance := func(ctx context.Context, tx *firestore.Transaction) error {
		value, err := r.advance(ctx, tx, id, step)
		if err != nil {
			return err
		}
		nextValue = value
		return nil
	}

	if tx, ok := pfirestore.TxFrom(ctx); ok {
		if err := advance(ctx, tx); err != nil {
			return 0, pfirestore.WrapError("counters.next", err)
		}
		return nextValue, nil
	}

	if err := r.provider.RunTransaction(ctx, advance); err != nil {
		return 0, err
	}
	return nextValue, nil
}

func (r *CounterRepository) advance(ctx context.Context, tx *firestore.Transaction, id string, step int64) (int64, error) {
	ref, err := r.counters.DocumentRef(ctx, id)
	if err != nil {
		return 0, err
	}

	snapshot, err := tx.Get(ref)
	switch status.Code(err) {
	case codes.NotFound:
		increment := step
		if increment <= 0 {
			increment = 1
		}
		doc := counterDocument{
			CurrentValue: increment,
			Step:         increment,
			UpdatedAt:    time.Now().UTC(),
		}
		if err := tx.Create(ref, doc); err != nil {
			return 0, err
		}
		return doc.CurrentValue, nil
	case codes.OK:
	default:
		return 0, err
	}

	var doc counterDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return 0, fmt.Errorf("firestore counters decode %s: %w", id, err)
	}

	increment := step
	if increment <= 0 {
		increment = doc.Step
		if increment <= 0 {
			increment = 1
		}
	}

	doc.CurrentValue += increment
	doc.Step = increment
	doc.UpdatedAt = time.Now().UTC()

	if err := tx.Set(ref, doc); err != nil {
		return 0, err
	}
	return doc.CurrentValue, nil
}
