package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const paymentsCollection = "payments"

type paymentDocument struct {
	ReferenceCode    string    `firestore:"referenceCode"`
	Method           string    `firestore:"method"`
	DocumentTotal    int64     `firestore:"documentTotal"`
	ShippingTotal    *int64    `firestore:"shippingTotal,omitempty"`
	Total            int64     `firestore:"total"`
	Status           string    `firestore:"status"`
	GatewayInvoiceID *string   `firestore:"gatewayInvoiceId,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

// PaymentRepository persists the payment record linked 1:1 to an order.
type PaymentRepository struct {
	payments *pfirestore.Collection[paymentDocument]
}

// NewPaymentRepository constructs a Firestore-backed payment repository.
func NewPaymentRepository(provider *pfirestore.Provider) (*PaymentRepository, error) {
	if provider == nil {
		return nil, errors.New("payment repository requires firestore provider")
	}
	return &PaymentRepository{
		payments: pfirestore.NewCollection[paymentDocument](provider, paymentsCollection, nil),
	}, nil
}

// Insert creates the payment document, failing on duplicate IDs.
func (r *PaymentRepository) Insert(ctx context.Context, payment domain.PaymentRecord) error {
	if strings.TrimSpace(payment.ID) == "" {
		return errors.New("payment id is required")
	}
	return r.payments.Create(ctx, payment.ID, fromDomainPayment(payment))
}

// Update overwrites the payment document.
func (r *PaymentRepository) Update(ctx context.Context, payment domain.PaymentRecord) error {
	if strings.TrimSpace(payment.ID) == "" {
		return errors.New("payment id is required")
	}
	return r.payments.Set(ctx, payment.ID, fromDomainPayment(payment))
}

// Delete removes the payment document. Used by submission compensation only.
func (r *PaymentRepository) Delete(ctx context.Context, paymentID string) error {
	return r.payments.Delete(ctx, paymentID)
}

// FindByID loads a payment record by ID.
func (r *PaymentRepository) FindByID(ctx context.Context, paymentID string) (domain.PaymentRecord, error) {
	doc, err := r.payments.Get(ctx, paymentID)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	return toDomainPayment(doc.ID, doc.Data), nil
}

func fromDomainPayment(payment domain.PaymentRecord) paymentDocument {
	return paymentDocument{
		ReferenceCode:    strings.TrimSpace(payment.ReferenceCode),
		Method:           string(payment.Method),
		DocumentTotal:    payment.DocumentTotal,
		ShippingTotal:    payment.ShippingTotal,
		Total:            payment.Total,
		Status:           string(payment.Status),
		GatewayInvoiceID: payment.GatewayInvoiceID,
		CreatedAt:        payment.CreatedAt,
		UpdatedAt:        payment.UpdatedAt,
	}
}

func toDomainPayment(id string, doc paymentDocument) domain.PaymentRecord {
	return domain.PaymentRecord{
		ID:               id,
		ReferenceCode:    doc.ReferenceCode,
		Method:           domain.PaymentMethod(doc.Method),
		DocumentTotal:    doc.DocumentTotal,
		ShippingTotal:    doc.ShippingTotal,
		Total:            doc.Total,
		Status:           domain.PaymentStatus(doc.Status),
		GatewayInvoiceID: doc.GatewayInvoiceID,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}
