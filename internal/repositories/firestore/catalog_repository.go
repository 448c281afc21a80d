package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/campusdocs/api/internal/domain"
	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const documentTypesCollection = "documentTypes"

type documentTypeDocument struct {
	Name        string `firestore:"name"`
	UnitPrice   int64  `firestore:"unitPrice"`
	LeadDays    int    `firestore:"leadDays"`
	Eligibility string `firestore:"eligibility,omitempty"`
}

// DocumentTypeRepository reads the registrar document catalog.
type DocumentTypeRepository struct {
	types *pfirestore.Collection[documentTypeDocument]
}

// NewDocumentTypeRepository constructs a Firestore-backed catalog repository.
func NewDocumentTypeRepository(provider *pfirestore.Provider) (*DocumentTypeRepository, error) {
	if provider == nil {
		return nil, errors.New("document type repository requires firestore provider")
	}
	return &DocumentTypeRepository{
		types: pfirestore.NewCollection[documentTypeDocument](provider, documentTypesCollection, nil),
	}, nil
}

// FindByIDs resolves the given catalog IDs, preserving input order. A missing
// ID surfaces as a not-found repository error naming the document.
func (r *DocumentTypeRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.DocumentType, error) {
	result := make([]domain.DocumentType, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			return nil, errors.New("document type id is required")
		}
		doc, err := r.types.Get(ctx, trimmed)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.DocumentType{
			ID:          doc.ID,
			Name:        doc.Data.Name,
			UnitPrice:   doc.Data.UnitPrice,
			LeadDays:    doc.Data.LeadDays,
			Eligibility: doc.Data.Eligibility,
		})
	}
	return result, nil
}
