package logistics

import (
	"context"
	"errors"
	"time"
)

// DeliveryStatus enumerates the courier-side states of a dispatch.
type DeliveryStatus string

const (
	// DeliveryStatusAssigning indicates the aggregator is still matching a driver.
	DeliveryStatusAssigning DeliveryStatus = "ASSIGNING_DRIVER"
	// DeliveryStatusOngoing indicates a driver accepted and is en route.
	DeliveryStatusOngoing DeliveryStatus = "ON_GOING"
	// DeliveryStatusPickedUp indicates the parcel left the registrar window.
	DeliveryStatusPickedUp DeliveryStatus = "PICKED_UP"
	// DeliveryStatusCompleted indicates the parcel reached the requester.
	DeliveryStatusCompleted DeliveryStatus = "COMPLETED"
	// DeliveryStatusExpired indicates no driver accepted before the quote lapsed.
	DeliveryStatusExpired DeliveryStatus = "EXPIRED"
	// DeliveryStatusCancelled indicates the dispatch was cancelled.
	DeliveryStatusCancelled DeliveryStatus = "CANCELLED"
)

// ErrLogisticsDisabled is returned by the noop provider when courier dispatch
// is not configured. Unlike the payment gateway this is a hard failure:
// courier transitions must abort without it.
var ErrLogisticsDisabled = errors.New("logistics: provider disabled")

// Destination is the requester-side drop-off point.
type Destination struct {
	Address   string
	Note      string
	Latitude  float64
	Longitude float64
	Recipient string
	Phone     string
}

// QuoteRequest asks the aggregator to price a dispatch to the destination.
type QuoteRequest struct {
	ReferenceCode string
	Destination   Destination
}

// Quote is a priced, time-limited dispatch offer.
type Quote struct {
	ID        string
	Fee       int64
	Currency  string
	ExpiresAt time.Time
}

// BookingRequest turns a quote into a dispatch order.
type BookingRequest struct {
	QuoteID       string
	ReferenceCode string
	Destination   Destination
}

// Booking is the aggregator-side dispatch record.
type Booking struct {
	Ref      string
	Status   DeliveryStatus
	ShareURL string
}

// Provider is the contract courier aggregator adapters implement.
type Provider interface {
	Quote(ctx context.Context, req QuoteRequest) (Quote, error)
	CreateOrder(ctx context.Context, req BookingRequest) (Booking, error)
	GetOrder(ctx context.Context, ref string) (Booking, error)
}

// NoopProvider stands in when courier dispatch is disabled by configuration.
type NoopProvider struct{}

func (NoopProvider) Quote(context.Context, QuoteRequest) (Quote, error) {
	return Quote{}, ErrLogisticsDisabled
}

func (NoopProvider) CreateOrder(context.Context, BookingRequest) (Booking, error) {
	return Booking{}, ErrLogisticsDisabled
}

func (NoopProvider) GetOrder(context.Context, string) (Booking, error) {
	return Booking{}, ErrLogisticsDisabled
}

var _ Provider = NoopProvider{}
