package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeLogger defines the logging contract for Stripe gateway operations.
type StripeLogger func(ctx context.Context, event string, fields map[string]any)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
}

// StripeGatewayConfig configures the StripeGateway.
type StripeGatewayConfig struct {
	APIKey   string
	Backends *stripe.Backends
	Logger   StripeLogger
	Clock    func() time.Time
	Sessions stripeSessionAPI
}

// StripeGateway implements Gateway on top of Stripe Checkout sessions.
type StripeGateway struct {
	sessions stripeSessionAPI
	clock    func() time.Time
	logger   StripeLogger
}

// NewStripeGateway constructs a Stripe Gateway using the given configuration.
func NewStripeGateway(cfg StripeGatewayConfig) (*StripeGateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Sessions == nil {
		return nil, errors.New("stripe: api key is required")
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sc := client.New(apiKey, cfg.Backends)
		sessions = sc.CheckoutSessions
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeGateway{
		sessions: sessions,
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

// CreateInvoice opens a Stripe Checkout session for the order total.
func (g *StripeGateway) CreateInvoice(ctx context.Context, req InvoiceRequest) (Invoice, error) {
	if g == nil {
		return Invoice{}, errors.New("stripe: gateway is nil")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	metadata := make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if ref := strings.TrimSpace(req.ReferenceCode); ref != "" {
		metadata["referenceCode"] = ref
	}
	if len(metadata) > 0 {
		params.Metadata = metadata
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	if len(lineItems) == 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Document request"),
				},
			},
		})
	}
	params.LineItems = lineItems

	session, err := g.sessions.New(params)
	if err != nil {
		return Invoice{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	g.logger(ctx, "payments.stripe.invoice.created", map[string]any{
		"sessionId":     session.ID,
		"referenceCode": req.ReferenceCode,
		"currency":      session.Currency,
	})

	expiresAt := g.clock().Add(30 * time.Minute)
	if session.ExpiresAt != 0 {
		expiresAt = time.Unix(session.ExpiresAt, 0).UTC()
	}

	return Invoice{
		ID:          session.ID,
		Provider:    "stripe",
		RedirectURL: session.URL,
		Status:      stripeInvoiceStatus(session),
		ExpiresAt:   expiresAt,
	}, nil
}

// CancelInvoice expires the Checkout session so the requester can no longer pay it.
func (g *StripeGateway) CancelInvoice(ctx context.Context, invoiceID string) error {
	if g == nil {
		return errors.New("stripe: gateway is nil")
	}
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.sessions.Expire(invoiceID, params); err != nil {
		return fmt.Errorf("stripe: expire checkout session: %w", err)
	}
	g.logger(ctx, "payments.stripe.invoice.cancelled", map[string]any{
		"sessionId": invoiceID,
	})
	return nil
}

// LookupInvoice retrieves the Checkout session state for reconciliation.
func (g *StripeGateway) LookupInvoice(ctx context.Context, invoiceID string) (InvoiceDetails, error) {
	if g == nil {
		return InvoiceDetails{}, errors.New("stripe: gateway is nil")
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	session, err := g.sessions.Get(invoiceID, params)
	if err != nil {
		return InvoiceDetails{}, fmt.Errorf("stripe: lookup checkout session: %w", err)
	}

	details := InvoiceDetails{
		ID:       session.ID,
		Provider: "stripe",
		Status:   stripeInvoiceStatus(session),
		Amount:   session.AmountTotal,
		Currency: strings.ToUpper(string(session.Currency)),
	}
	if details.Status == InvoiceStatusPaid {
		paidAt := time.Unix(session.Created, 0).UTC()
		if intent := session.PaymentIntent; intent != nil && intent.Created != 0 {
			paidAt = time.Unix(intent.Created, 0).UTC()
		}
		details.PaidAt = &paidAt
	}
	return details, nil
}

func stripeInvoiceStatus(session *stripe.CheckoutSession) InvoiceStatus {
	if session == nil {
		return InvoiceStatusOpen
	}
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return InvoiceStatusPaid
	}
	if session.Status == stripe.CheckoutSessionStatusExpired {
		return InvoiceStatusExpired
	}
	return InvoiceStatusOpen
}

var _ Gateway = (*StripeGateway)(nil)
