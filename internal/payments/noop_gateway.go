package payments

import "context"

// NoopGateway stands in when the gateway integration is disabled. Every call
// reports ErrGatewayDisabled so orders fall back to over-the-counter settlement.
type NoopGateway struct{}

func (NoopGateway) CreateInvoice(context.Context, InvoiceRequest) (Invoice, error) {
	return Invoice{}, ErrGatewayDisabled
}

func (NoopGateway) CancelInvoice(context.Context, string) error {
	return ErrGatewayDisabled
}

func (NoopGateway) LookupInvoice(context.Context, string) (InvoiceDetails, error) {
	return InvoiceDetails{}, ErrGatewayDisabled
}

var _ Gateway = NoopGateway{}
