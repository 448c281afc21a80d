package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
	"github.com/campusdocs/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry interface and provides the transactional unit of work.
type Registry struct {
	provider *pfirestore.Provider

	orders        *OrderRepository
	payments      *PaymentRepository
	selections    *SelectionRepository
	documentTypes *DocumentTypeRepository
	schedule      *ScheduleRepository
	templates     *TemplateRepository
	users         *UserRepository
	counters      *CounterRepository
}

// NewRegistry wires every repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	reg := &Registry{provider: provider}
	var err error
	if reg.orders, err = NewOrderRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.payments, err = NewPaymentRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.selections, err = NewSelectionRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.documentTypes, err = NewDocumentTypeRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.schedule, err = NewScheduleRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.templates, err = NewTemplateRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.users, err = NewUserRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if reg.counters, err = NewCounterRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return reg, nil
}

// RunInTx executes fn inside a single Firestore transaction. Repository calls
// made with the supplied context participate in the transaction, which is what
// serialises the capacity check-and-insert on a schedule date.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction function is nil")
	}
	if _, ok := pfirestore.TxFrom(ctx); ok {
		// Already inside a transaction; just join it.
		return fn(ctx)
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

func (r *Registry) Orders() repositories.OrderRepository                 { return r.orders }
func (r *Registry) Payments() repositories.PaymentRepository             { return r.payments }
func (r *Registry) Selections() repositories.SelectionRepository         { return r.selections }
func (r *Registry) DocumentTypes() repositories.DocumentTypeRepository   { return r.documentTypes }
func (r *Registry) Schedule() repositories.ScheduleRepository            { return r.schedule }
func (r *Registry) Templates() repositories.TemplateRepository           { return r.templates }
func (r *Registry) Users() repositories.UserRepository                   { return r.users }
func (r *Registry) Counters() repositories.CounterRepository             { return r.counters }

var _ repositories.Registry = (*Registry)(nil)
