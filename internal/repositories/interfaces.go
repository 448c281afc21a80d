package repositories

import (
	"context"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Payments() PaymentRepository
	Selections() SelectionRepository
	DocumentTypes() DocumentTypeRepository
	Schedule() ScheduleRepository
	Templates() TemplateRepository
	Users() UserRepository
	Counters() CounterRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork groups repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order headers and the occupancy query behind
// schedule capacity checks.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// CountForDate counts orders booked on the given calendar date whose
	// status still consumes a slot.
	CountForDate(ctx context.Context, date time.Time) (int, error)
}

// PaymentRepository stores the payment record linked 1:1 to an order.
type PaymentRepository interface {
	Insert(ctx context.Context, payment domain.PaymentRecord) error
	Update(ctx context.Context, payment domain.PaymentRecord) error
	Delete(ctx context.Context, paymentID string) error
	FindByID(ctx context.Context, paymentID string) (domain.PaymentRecord, error)
}

// SelectionRepository stores the document selections belonging to an order.
type SelectionRepository interface {
	Insert(ctx context.Context, selection domain.DocumentSelection) error
	DeleteByOrder(ctx context.Context, orderID string) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.DocumentSelection, error)
}

// DocumentTypeRepository reads the registrar document catalog.
type DocumentTypeRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.DocumentType, error)
}

// ScheduleRepository reads booking configuration and the holiday calendar.
type ScheduleRepository interface {
	Config(ctx context.Context) (domain.ScheduleConfig, error)
	Holidays(ctx context.Context) ([]domain.Holiday, error)
}

// TemplateRepository reads notification templates keyed by target status.
type TemplateRepository interface {
	FindByStatus(ctx context.Context, status domain.OrderStatus) (domain.NotificationTemplate, error)
}

// UserRepository reads requester profiles for notification rendering.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.Requester, error)
}

// CounterRepository provides transaction-safe sequence numbers used for
// reference code generation.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}
