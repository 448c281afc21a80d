package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
	"github.com/campusdocs/api/internal/logistics"
	"github.com/campusdocs/api/internal/notifications"
	"github.com/campusdocs/api/internal/payments"
	"github.com/campusdocs/api/internal/repositories"
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders     repositories.OrderRepository
	Payments   repositories.PaymentRepository
	Selections repositories.SelectionRepository
	Users      repositories.UserRepository
	Templates  repositories.TemplateRepository
	UnitOfWork repositories.UnitOfWork
	Gateway    payments.Gateway
	Logistics  logistics.Provider
	Notifier   notifications.Sender
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	payments   repositories.PaymentRepository
	selections repositories.SelectionRepository
	users      repositories.UserRepository
	templates  repositories.TemplateRepository
	unitOfWork repositories.UnitOfWork
	gateway    payments.Gateway
	logistics  logistics.Provider
	notifier   notifications.Sender
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("order service: payment repository is required")
	}
	if deps.Selections == nil {
		return nil, errors.New("order service: selection repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	gateway := deps.Gateway
	if gateway == nil {
		gateway = payments.NoopGateway{}
	}
	courier := deps.Logistics
	if courier == nil {
		courier = logistics.NoopProvider{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NoopSender{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:     deps.Orders,
		payments:   deps.Payments,
		selections: deps.Selections,
		users:      deps.Users,
		templates:  deps.Templates,
		unitOfWork: unit,
		gateway:    gateway,
		logistics:  courier,
		notifier:   notifier,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string, opts OrderReadOptions) (Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, mapRepositoryError(err)
	}

	if opts.IncludePayment {
		payment, err := s.payments.FindByID(ctx, order.PaymentID)
		if err != nil {
			return Order{}, mapRepositoryError(err)
		}
		order.Payment = &payment
	}
	if opts.IncludeSelections {
		selections, err := s.selections.ListByOrder(ctx, order.ID)
		if err != nil {
			return Order{}, mapRepositoryError(err)
		}
		order.Selections = selections
	}
	return order, nil
}

func (s *orderService) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (Order, error) {
	target, err := domain.ParseOrderStatus(cmd.TargetStatus)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, mapRepositoryError(err)
	}
	payment, err := s.payments.FindByID(ctx, order.PaymentID)
	if err != nil {
		return Order{}, mapRepositoryError(err)
	}

	if err := checkTransition(order, target); err != nil {
		return Order{}, err
	}
	if order.Status == target {
		// Re-affirming PAID is idempotent.
		return order, nil
	}

	now := s.clock()
	paymentChanged := false

	switch target {
	case domain.OrderStatusPaid:
		order.PaidAt = &now
		payment.Status = domain.PaymentStatusPaid
		payment.UpdatedAt = now
		paymentChanged = true
	case domain.OrderStatusCancelled:
		order.CancelledAt = &now
		payment.Status = domain.PaymentStatusCancelled
		payment.UpdatedAt = now
		paymentChanged = true
	case domain.OrderStatusCompleted:
		order.CompletedAt = &now
	case domain.OrderStatusOutForDelivery:
		booking, fee, err := s.bookDispatch(ctx, order, payment.ReferenceCode)
		if err != nil {
			return Order{}, err
		}
		order.LogisticsRef = &booking.Ref
		payment.ShippingTotal = &fee
		payment.Total = payment.DocumentTotal + fee
		payment.UpdatedAt = now
		paymentChanged = true
	}

	previous := order.Status
	order.Status = target
	order.UpdatedAt = now

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, order); err != nil {
			return err
		}
		if paymentChanged {
			return s.payments.Update(txCtx, payment)
		}
		return nil
	})
	if err != nil {
		return Order{}, mapRepositoryError(err)
	}

	s.logger(ctx, "order.status.changed", map[string]any{
		"order": order.ID,
		"from":  string(previous),
		"to":    string(target),
	})

	if target == domain.OrderStatusCancelled && payment.GatewayInvoiceID != nil {
		if err := s.gateway.CancelInvoice(ctx, *payment.GatewayInvoiceID); err != nil {
			s.logger(ctx, "order.gateway.cancel.degraded", map[string]any{
				"order": order.ID,
				"error": err.Error(),
			})
		}
	}

	s.notifyStatus(ctx, order, payment.ReferenceCode, target)

	return order, nil
}

func (s *orderService) ReconcileDelivery(ctx context.Context, orderID string) (Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, mapRepositoryError(err)
	}
	if order.Status != domain.OrderStatusOutForDelivery || order.LogisticsRef == nil {
		return Order{}, fmt.Errorf("%w: order has no active courier dispatch", ErrValidation)
	}

	booking, err := s.logistics.GetOrder(ctx, *order.LogisticsRef)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrLogisticsFailed, err)
	}

	now := s.clock()
	switch booking.Status {
	case logistics.DeliveryStatusExpired:
		// No driver accepted; return the order to the registrar queue so it
		// can be dispatched again.
		order.Status = domain.OrderStatusProcessing
		order.LogisticsRef = nil
		order.UpdatedAt = now
		payment, err := s.payments.FindByID(ctx, order.PaymentID)
		if err != nil {
			return Order{}, mapRepositoryError(err)
		}
		payment.ShippingTotal = nil
		payment.Total = payment.DocumentTotal
		payment.UpdatedAt = now
		err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.orders.Update(txCtx, order); err != nil {
				return err
			}
			return s.payments.Update(txCtx, payment)
		})
		if err != nil {
			return Order{}, mapRepositoryError(err)
		}
		s.logger(ctx, "order.dispatch.expired", map[string]any{"order": order.ID, "dispatch": booking.Ref})
	case logistics.DeliveryStatusCompleted:
		order.Status = domain.OrderStatusCompleted
		order.CompletedAt = &now
		order.UpdatedAt = now
		if err := s.orders.Update(ctx, order); err != nil {
			return Order{}, mapRepositoryError(err)
		}
		s.logger(ctx, "order.dispatch.completed", map[string]any{"order": order.ID, "dispatch": booking.Ref})
	}

	return order, nil
}

// bookDispatch quotes and books the courier before any state is persisted, so
// a courier failure aborts the transition with no change.
func (s *orderService) bookDispatch(ctx context.Context, order domain.Order, referenceCode string) (logistics.Booking, int64, error) {
	destination := logistics.Destination{
		Address:   order.Address,
		Note:      order.AddressNote,
		Latitude:  order.Latitude,
		Longitude: order.Longitude,
	}

	quote, err := s.logistics.Quote(ctx, logistics.QuoteRequest{
		ReferenceCode: referenceCode,
		Destination:   destination,
	})
	if err != nil {
		return logistics.Booking{}, 0, fmt.Errorf("%w: %v", ErrLogisticsFailed, err)
	}

	booking, err := s.logistics.CreateOrder(ctx, logistics.BookingRequest{
		QuoteID:       quote.ID,
		ReferenceCode: referenceCode,
		Destination:   destination,
	})
	if err != nil {
		return logistics.Booking{}, 0, fmt.Errorf("%w: %v", ErrLogisticsFailed, err)
	}
	return booking, quote.Fee, nil
}

// notifyStatus is soft-degrade: the transition stands even when the
// notification cannot be rendered or dispatched.
func (s *orderService) notifyStatus(ctx context.Context, order domain.Order, referenceCode string, status domain.OrderStatus) {
	if s.templates == nil || s.users == nil {
		return
	}

	tpl, err := s.templates.FindByStatus(ctx, status)
	if err != nil || !tpl.Enabled {
		if err != nil {
			s.logger(ctx, "order.notification.degraded", map[string]any{
				"order": order.ID,
				"error": err.Error(),
			})
		}
		return
	}

	requester, err := s.users.FindByID(ctx, order.UserRef)
	if err != nil {
		s.logger(ctx, "order.notification.degraded", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
		return
	}

	selections, err := s.selections.ListByOrder(ctx, order.ID)
	if err != nil {
		selections = nil
	}

	msg := notifications.Render(tpl, notifications.RenderContext{
		Requester:     requester,
		ReferenceCode: referenceCode,
		Status:        status,
		Selections:    selections,
	})
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger(ctx, "order.notification.degraded", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
	}
}

// checkTransition enforces the status lifecycle. PENDING is never a target;
// terminal states admit nothing; PAID is reachable from any non-terminal
// state so late payment callbacks always land; the forward chain follows the
// order's delivery method.
func checkTransition(order domain.Order, target domain.OrderStatus) error {
	current := order.Status

	if target == domain.OrderStatusPending {
		return fmt.Errorf("%w: PENDING is not a reachable target", ErrIllegalTransition)
	}
	if current == domain.OrderStatusCompleted || current == domain.OrderStatusCancelled {
		return fmt.Errorf("%w: order is already %s", ErrIllegalTransition, current)
	}
	if current == target {
		if target == domain.OrderStatusPaid {
			return nil
		}
		return fmt.Errorf("%w: order is already %s", ErrIllegalTransition, current)
	}

	switch target {
	case domain.OrderStatusPaid:
		return nil
	case domain.OrderStatusCancelled:
		if current == domain.OrderStatusPending || current == domain.OrderStatusPaid {
			return nil
		}
	case domain.OrderStatusProcessing:
		if current == domain.OrderStatusPaid {
			return nil
		}
	case domain.OrderStatusReadyForPickup:
		if current == domain.OrderStatusProcessing && order.DeliveryMethod == domain.DeliveryMethodPickup {
			return nil
		}
	case domain.OrderStatusOutForDelivery:
		if current == domain.OrderStatusProcessing && order.DeliveryMethod == domain.DeliveryMethodCourier {
			return nil
		}
	case domain.OrderStatusCompleted:
		if current == domain.OrderStatusReadyForPickup || current == domain.OrderStatusOutForDelivery {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot move to %s", ErrIllegalTransition, current, target)
}

// mapRepositoryError translates persistence error categories into service sentinels.
func mapRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
