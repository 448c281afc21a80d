package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/campusdocs/api/internal/domain"
	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const selectionsCollection = "documentSelections"

type selectionDocument struct {
	OrderID        string `firestore:"orderId"`
	UserRef        string `firestore:"userRef"`
	DocumentTypeID string `firestore:"documentTypeId"`
	Name           string `firestore:"name"`
	UnitPrice      int64  `firestore:"unitPrice"`
	LeadDays       int    `firestore:"leadDays"`
}

// SelectionRepository persists the document selections belonging to an order.
type SelectionRepository struct {
	selections *pfirestore.Collection[selectionDocument]
}

// NewSelectionRepository constructs a Firestore-backed selection repository.
func NewSelectionRepository(provider *pfirestore.Provider) (*SelectionRepository, error) {
	if provider == nil {
		return nil, errors.New("selection repository requires firestore provider")
	}
	return &SelectionRepository{
		selections: pfirestore.NewCollection[selectionDocument](provider, selectionsCollection, nil),
	}, nil
}

// Insert creates a selection document, failing on duplicate IDs.
func (r *SelectionRepository) Insert(ctx context.Context, selection domain.DocumentSelection) error {
	if strings.TrimSpace(selection.ID) == "" {
		return errors.New("selection id is required")
	}
	if strings.TrimSpace(selection.OrderID) == "" {
		return errors.New("selection order id is required")
	}
	return r.selections.Create(ctx, selection.ID, selectionDocument{
		OrderID:        strings.TrimSpace(selection.OrderID),
		UserRef:        strings.TrimSpace(selection.UserRef),
		DocumentTypeID: strings.TrimSpace(selection.DocumentTypeID),
		Name:           strings.TrimSpace(selection.Name),
		UnitPrice:      selection.UnitPrice,
		LeadDays:       selection.LeadDays,
	})
}

// DeleteByOrder removes every selection attached to the order. Used by
// submission compensation only.
func (r *SelectionRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order id is required")
	}
	docs, err := r.selections.Query(ctx, byOrder(orderID))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := r.selections.Delete(ctx, doc.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListByOrder returns the selections for the order ordered by name.
func (r *SelectionRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.DocumentSelection, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("order id is required")
	}
	docs, err := r.selections.Query(ctx, byOrder(orderID))
	if err != nil {
		return nil, err
	}

	selections := make([]domain.DocumentSelection, 0, len(docs))
	for _, doc := range docs {
		selections = append(selections, domain.DocumentSelection{
			ID:             doc.ID,
			OrderID:        doc.Data.OrderID,
			UserRef:        doc.Data.UserRef,
			DocumentTypeID: doc.Data.DocumentTypeID,
			Name:           doc.Data.Name,
			UnitPrice:      doc.Data.UnitPrice,
			LeadDays:       doc.Data.LeadDays,
		})
	}
	sort.Slice(selections, func(i, j int) bool { return selections[i].Name < selections[j].Name })
	return selections, nil
}

func byOrder(orderID string) pfirestore.QueryBuilder {
	return func(q firestore.Query) firestore.Query {
		return q.Where("orderId", "==", strings.TrimSpace(orderID))
	}
}
