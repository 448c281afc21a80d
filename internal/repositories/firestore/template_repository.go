package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/campusdocs/api/internal/domain"
	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const templatesCollection = "notificationTemplates"

type templateDocument struct {
	Status  string `firestore:"status"`
	Subject string `firestore:"subject"`
	Body    string `firestore:"body"`
	Enabled bool   `firestore:"enabled"`
}

// TemplateRepository reads notification templates keyed by target status.
type TemplateRepository struct {
	templates *pfirestore.Collection[templateDocument]
}

// NewTemplateRepository constructs a Firestore-backed template repository.
func NewTemplateRepository(provider *pfirestore.Provider) (*TemplateRepository, error) {
	if provider == nil {
		return nil, errors.New("template repository requires firestore provider")
	}
	return &TemplateRepository{
		templates: pfirestore.NewCollection[templateDocument](provider, templatesCollection, nil),
	}, nil
}

// FindByStatus returns the template configured for the given order status. A
// status with no template surfaces as a not-found repository error.
func (r *TemplateRepository) FindByStatus(ctx context.Context, orderStatus domain.OrderStatus) (domain.NotificationTemplate, error) {
	docs, err := r.templates.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("status", "==", string(orderStatus)).Limit(1)
	})
	if err != nil {
		return domain.NotificationTemplate{}, err
	}
	if len(docs) == 0 {
		return domain.NotificationTemplate{}, pfirestore.WrapError(
			fmt.Sprintf("%s.find", templatesCollection),
			status.Errorf(codes.NotFound, "no template for status %s", orderStatus),
		)
	}

	doc := docs[0]
	return domain.NotificationTemplate{
		ID:      doc.ID,
		Status:  domain.OrderStatus(doc.Data.Status),
		Subject: doc.Data.Subject,
		Body:    doc.Data.Body,
		Enabled: doc.Data.Enabled,
	}, nil
}
