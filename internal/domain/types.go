package domain

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryMethod enumerates how a finished document reaches the requester.
type DeliveryMethod string

const (
	// DeliveryMethodPickup indicates the requester collects the documents on a scheduled date.
	DeliveryMethodPickup DeliveryMethod = "PICKUP"
	// DeliveryMethodCourier indicates the documents are dispatched to a destination address.
	DeliveryMethodCourier DeliveryMethod = "COURIER"
)

// ParseDeliveryMethod validates a raw delivery method value.
func ParseDeliveryMethod(raw string) (DeliveryMethod, error) {
	switch DeliveryMethod(strings.ToUpper(strings.TrimSpace(raw))) {
	case DeliveryMethodPickup:
		return DeliveryMethodPickup, nil
	case DeliveryMethodCourier:
		return DeliveryMethodCourier, nil
	default:
		return "", fmt.Errorf("unknown delivery method %q", raw)
	}
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	// PaymentMethodCash is settled over the counter at pickup or delivery.
	PaymentMethodCash PaymentMethod = "CASH"
	// PaymentMethodCard is settled with a card terminal at the registrar window.
	PaymentMethodCard PaymentMethod = "CARD"
	// PaymentMethodOnline is settled through the external payment gateway.
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

// ParsePaymentMethod validates a raw payment method value.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(raw))) {
	case PaymentMethodCash:
		return PaymentMethodCash, nil
	case PaymentMethodCard:
		return PaymentMethodCard, nil
	case PaymentMethodOnline:
		return PaymentMethodOnline, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", raw)
	}
}

// OrderStatus enumerates the lifecycle states of a document request order.
// The string values are persisted and echoed to requesters; they must stay stable.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was created and awaits payment.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPaid indicates payment was confirmed.
	OrderStatusPaid OrderStatus = "PAID"
	// OrderStatusProcessing indicates the registrar is preparing the documents.
	OrderStatusProcessing OrderStatus = "PROCESSING"
	// OrderStatusReadyForPickup indicates the documents await collection (pickup orders only).
	OrderStatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	// OrderStatusOutForDelivery indicates a courier dispatch was booked (courier orders only).
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	// OrderStatusCompleted indicates the documents reached the requester.
	OrderStatusCompleted OrderStatus = "COMPLETED"
	// OrderStatusCancelled indicates the order was cancelled before processing finished.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates a raw status value.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusReadyForPickup, OrderStatusOutForDelivery,
		OrderStatusCompleted, OrderStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("unknown order status %q", raw)
	}
}

// Label returns the human-readable form used in notifications.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusPaid:
		return "Paid"
	case OrderStatusProcessing:
		return "Processing"
	case OrderStatusReadyForPickup:
		return "Ready for Pickup"
	case OrderStatusOutForDelivery:
		return "Out for Delivery"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// PaymentStatus mirrors the monetary subset of the order lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Order is the system of record for delivery and logistics state.
type Order struct {
	ID             string
	UserRef        string
	DeliveryMethod DeliveryMethod
	PaymentID      string
	Status         OrderStatus

	// ScheduleDate is set for pickup orders only (date-only, UTC midnight).
	ScheduleDate *time.Time

	// Courier destination fields; required for courier orders only.
	Address     string
	AddressNote string
	Latitude    float64
	Longitude   float64

	// LogisticsRef holds the external courier order identifier once a
	// dispatch was booked.
	LogisticsRef *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	// Populated on demand by read options; never persisted on the order document.
	Payment    *PaymentRecord
	Selections []DocumentSelection
}

// SlotConsuming reports whether the order still occupies a slot on its
// schedule date.
func (o Order) SlotConsuming() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusReadyForPickup:
		return true
	default:
		return false
	}
}

// PaymentRecord is the system of record for monetary state, linked 1:1 to an order.
type PaymentRecord struct {
	ID            string
	ReferenceCode string
	Method        PaymentMethod
	DocumentTotal int64
	ShippingTotal *int64
	Total         int64
	Status        PaymentStatus

	// GatewayInvoiceID is absent when the gateway integration is disabled or
	// degraded during submission.
	GatewayInvoiceID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentSelection is one requested document type within an order. Name,
// price and lead time are denormalized from the catalog at submission time.
type DocumentSelection struct {
	ID             string
	OrderID        string
	UserRef        string
	DocumentTypeID string
	Name           string
	UnitPrice      int64
	LeadDays       int
}

// DocumentType describes a requestable document in the registrar catalog.
type DocumentType struct {
	ID          string
	Name        string
	UnitPrice   int64
	LeadDays    int
	Eligibility string
}

// ScheduleConfig bounds appointment booking.
type ScheduleConfig struct {
	// MaxOrdersPerDate caps slot-consuming orders per calendar date.
	MaxOrdersPerDate int
	// MinLeadDays is the advance-notice floor applied when no selection
	// demands a stricter lead time.
	MinLeadDays int
}

// Holiday is a calendar date blocked for appointments.
type Holiday struct {
	Date time.Time
	Name string
}

// NotificationTemplate is a per-status outbound message definition.
// Placeholders: {{firstName}}, {{lastName}}, {{referenceCode}},
// {{statusLabel}}, {{documents}}.
type NotificationTemplate struct {
	ID      string
	Status  OrderStatus
	Subject string
	Body    string
	Enabled bool
}

// Requester carries the fields needed for notification rendering.
type Requester struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
