package payments

import (
	"context"
	"errors"
	"time"
)

// InvoiceStatus enumerates the normalised gateway invoice states.
type InvoiceStatus string

const (
	// InvoiceStatusOpen indicates the invoice awaits customer payment.
	InvoiceStatusOpen InvoiceStatus = "open"
	// InvoiceStatusPaid indicates the gateway reports the invoice as settled.
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusExpired indicates the invoice lapsed or was voided.
	InvoiceStatusExpired InvoiceStatus = "expired"
)

// ErrGatewayDisabled is returned by the noop gateway. Callers degrade to
// over-the-counter settlement when they see it.
var ErrGatewayDisabled = errors.New("payments: gateway disabled")

// InvoiceLineItem is a single billable document on the invoice.
type InvoiceLineItem struct {
	Name     string
	Quantity int64
	Amount   int64
}

// InvoiceRequest captures the payload required to open a gateway invoice.
type InvoiceRequest struct {
	ReferenceCode  string
	Amount         int64
	Currency       string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	Items          []InvoiceLineItem
	Metadata       map[string]string
}

// Invoice is the gateway-side record returned on creation.
type Invoice struct {
	ID          string
	Provider    string
	RedirectURL string
	Status      InvoiceStatus
	ExpiresAt   time.Time
}

// InvoiceDetails normalises gateway state for payment reconciliation.
type InvoiceDetails struct {
	ID       string
	Provider string
	Status   InvoiceStatus
	Amount   int64
	Currency string
	PaidAt   *time.Time
}

// Gateway is the contract payment gateway adapters implement. Invoice
// creation failures never block a submission; callers treat them as a
// degraded order without a gateway invoice.
type Gateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error)
	CancelInvoice(ctx context.Context, invoiceID string) error
	LookupInvoice(ctx context.Context, invoiceID string) (InvoiceDetails, error)
}
