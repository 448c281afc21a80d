package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order             = domain.Order
	OrderStatus       = domain.OrderStatus
	PaymentRecord     = domain.PaymentRecord
	DocumentSelection = domain.DocumentSelection
	DocumentType      = domain.DocumentType
	DeliveryMethod    = domain.DeliveryMethod
	PaymentMethod     = domain.PaymentMethod
	Occupancy         = domain.Occupancy
	Requester         = domain.Requester
)

var (
	// ErrValidation signals the caller provided invalid submission data.
	ErrValidation = errors.New("orders: invalid input")
	// ErrCapacityExceeded indicates the requested schedule date is blocked,
	// too soon, or already full.
	ErrCapacityExceeded = errors.New("orders: schedule date unavailable")
	// ErrIllegalTransition indicates the target status is not reachable from
	// the order's current status and delivery method.
	ErrIllegalTransition = errors.New("orders: illegal status transition")
	// ErrNotFound indicates a referenced order or document type does not exist.
	ErrNotFound = errors.New("orders: not found")
	// ErrLogisticsFailed indicates courier dispatch failed; the transition is
	// aborted with no persisted change.
	ErrLogisticsFailed = errors.New("orders: logistics dispatch failed")
	// ErrSubmissionFailed surfaces a mid-creation failure after compensation
	// completed. The underlying cause is logged, never exposed.
	ErrSubmissionFailed = errors.New("orders: submission failed")
)

// SubmitOrderCommand carries a document request submission.
type SubmitOrderCommand struct {
	UserRef         string
	DocumentTypeIDs []string
	DeliveryMethod  string
	PaymentMethod   string

	// ScheduleDate is required for pickup orders.
	ScheduleDate *time.Time

	// Courier destination; required for courier orders.
	Address     string
	AddressNote string
	Latitude    *float64
	Longitude   *float64
}

// SubmitOrderResult is returned to the requester on success.
type SubmitOrderResult struct {
	OrderID       string
	ReferenceCode string
}

// SubmissionService orchestrates order creation with ordered compensation.
type SubmissionService interface {
	Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error)
}

// ChangeStatusCommand requests a guarded status transition.
type ChangeStatusCommand struct {
	OrderID      string
	TargetStatus string
}

// OrderReadOptions toggles eager loading of linked records.
type OrderReadOptions struct {
	IncludePayment    bool
	IncludeSelections bool
}

// OrderService encapsulates the status lifecycle of submitted orders.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string, opts OrderReadOptions) (Order, error)
	ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (Order, error)
	// ReconcileDelivery polls the courier dispatch linked to the order and
	// applies the passive corrections: EXPIRED moves the order back to
	// PROCESSING, COMPLETED completes it.
	ReconcileDelivery(ctx context.Context, orderID string) (Order, error)
}

// DateAvailability reports whether a candidate date can be booked.
type DateAvailability struct {
	Date      time.Time
	Occupancy Occupancy
	// BlockedReason is empty when the date passes the blackout and holiday checks.
	BlockedReason string
}

// ScheduleService answers schedule capacity questions.
type ScheduleService interface {
	Check(ctx context.Context, date time.Time) (DateAvailability, error)
}
