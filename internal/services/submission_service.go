package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/campusdocs/api/internal/domain"
	"github.com/campusdocs/api/internal/notifications"
	"github.com/campusdocs/api/internal/payments"
	"github.com/campusdocs/api/internal/repositories"
)

const (
	orderIDPrefix     = "ord_"
	paymentIDPrefix   = "pay_"
	selectionIDPrefix = "sel_"

	referenceCounterID = "orders"
	invoiceCurrency    = "PHP"
)

// SubmissionServiceDeps bundles collaborators required to construct the submission service.
type SubmissionServiceDeps struct {
	Orders        repositories.OrderRepository
	Payments      repositories.PaymentRepository
	Selections    repositories.SelectionRepository
	DocumentTypes repositories.DocumentTypeRepository
	Schedule      repositories.ScheduleRepository
	Users         repositories.UserRepository
	Templates     repositories.TemplateRepository
	Counters      repositories.CounterRepository
	UnitOfWork    repositories.UnitOfWork
	Gateway       payments.Gateway
	Notifier      notifications.Sender
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type submissionService struct {
	orders        repositories.OrderRepository
	payments      repositories.PaymentRepository
	selections    repositories.SelectionRepository
	documentTypes repositories.DocumentTypeRepository
	schedule      repositories.ScheduleRepository
	users         repositories.UserRepository
	templates     repositories.TemplateRepository
	counters      repositories.CounterRepository
	unitOfWork    repositories.UnitOfWork
	gateway       payments.Gateway
	notifier      notifications.Sender
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
}

// NewSubmissionService wires dependencies into a concrete SubmissionService implementation.
func NewSubmissionService(deps SubmissionServiceDeps) (SubmissionService, error) {
	if deps.Orders == nil {
		return nil, errors.New("submission service: order repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("submission service: payment repository is required")
	}
	if deps.Selections == nil {
		return nil, errors.New("submission service: selection repository is required")
	}
	if deps.DocumentTypes == nil {
		return nil, errors.New("submission service: document type repository is required")
	}
	if deps.Schedule == nil {
		return nil, errors.New("submission service: schedule repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("submission service: counter repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	gateway := deps.Gateway
	if gateway == nil {
		gateway = payments.NoopGateway{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NoopSender{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &submissionService{
		orders:        deps.Orders,
		payments:      deps.Payments,
		selections:    deps.Selections,
		documentTypes: deps.DocumentTypes,
		schedule:      deps.Schedule,
		users:         deps.Users,
		templates:     deps.Templates,
		counters:      deps.Counters,
		unitOfWork:    unit,
		gateway:       gateway,
		notifier:      notifier,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *submissionService) Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmitOrderResult, error) {
	userRef := strings.TrimSpace(cmd.UserRef)
	if userRef == "" {
		return SubmitOrderResult{}, fmt.Errorf("%w: user reference is required", ErrValidation)
	}

	paymentMethod, err := domain.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return SubmitOrderResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	deliveryMethod, err := domain.ParseDeliveryMethod(cmd.DeliveryMethod)
	if err != nil {
		return SubmitOrderResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	switch deliveryMethod {
	case domain.DeliveryMethodPickup:
		if cmd.ScheduleDate == nil {
			return SubmitOrderResult{}, fmt.Errorf("%w: schedule date is required for pickup", ErrValidation)
		}
	case domain.DeliveryMethodCourier:
		if strings.TrimSpace(cmd.Address) == "" {
			return SubmitOrderResult{}, fmt.Errorf("%w: address is required for courier delivery", ErrValidation)
		}
		if strings.TrimSpace(cmd.AddressNote) == "" {
			return SubmitOrderResult{}, fmt.Errorf("%w: supplemental address is required for courier delivery", ErrValidation)
		}
		if cmd.Latitude == nil || cmd.Longitude == nil {
			return SubmitOrderResult{}, fmt.Errorf("%w: coordinates are required for courier delivery", ErrValidation)
		}
	}

	if len(cmd.DocumentTypeIDs) == 0 {
		return SubmitOrderResult{}, fmt.Errorf("%w: at least one document type is required", ErrValidation)
	}
	documentTypes, err := s.documentTypes.FindByIDs(ctx, cmd.DocumentTypeIDs)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return SubmitOrderResult{}, fmt.Errorf("%w: unknown document type: %v", ErrValidation, err)
		}
		return SubmitOrderResult{}, err
	}
	if len(documentTypes) == 0 {
		return SubmitOrderResult{}, fmt.Errorf("%w: no document types resolved", ErrValidation)
	}

	now := s.clock()
	orderID := orderIDPrefix + s.newID()
	paymentID := paymentIDPrefix + s.newID()

	selections := make([]domain.DocumentSelection, 0, len(documentTypes))
	var documentTotal int64
	for _, dt := range documentTypes {
		selections = append(selections, domain.DocumentSelection{
			ID:             selectionIDPrefix + s.newID(),
			OrderID:        orderID,
			UserRef:        userRef,
			DocumentTypeID: dt.ID,
			Name:           dt.Name,
			UnitPrice:      dt.UnitPrice,
			LeadDays:       dt.LeadDays,
		})
		documentTotal += dt.UnitPrice
	}

	var capacity int
	if cmd.ScheduleDate != nil {
		capacity, err = s.checkScheduleDate(ctx, *cmd.ScheduleDate, selections, now)
		if err != nil {
			return SubmitOrderResult{}, err
		}
	}

	referenceCode, err := s.generateReferenceCode(ctx, now)
	if err != nil {
		return SubmitOrderResult{}, err
	}

	invoiceID := s.createGatewayInvoice(ctx, referenceCode, documentTotal, selections)

	payment := domain.PaymentRecord{
		ID:               paymentID,
		ReferenceCode:    referenceCode,
		Method:           paymentMethod,
		DocumentTotal:    documentTotal,
		Total:            documentTotal,
		Status:           domain.PaymentStatusPending,
		GatewayInvoiceID: invoiceID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	order := domain.Order{
		ID:             orderID,
		UserRef:        userRef,
		DeliveryMethod: deliveryMethod,
		PaymentID:      paymentID,
		Status:         domain.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if cmd.ScheduleDate != nil {
		day := domain.DateOnly(*cmd.ScheduleDate)
		order.ScheduleDate = &day
	}
	if deliveryMethod == domain.DeliveryMethodCourier {
		order.Address = strings.TrimSpace(cmd.Address)
		order.AddressNote = strings.TrimSpace(cmd.AddressNote)
		order.Latitude = *cmd.Latitude
		order.Longitude = *cmd.Longitude
	}

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if order.ScheduleDate != nil {
			count, err := s.orders.CountForDate(txCtx, *order.ScheduleDate)
			if err != nil {
				return err
			}
			occ := domain.Occupancy{Date: *order.ScheduleDate, Count: count, Capacity: capacity}
			if occ.IsFull() {
				return fmt.Errorf("%w: the requested date is fully booked", ErrCapacityExceeded)
			}
		}
		return runSaga(txCtx, s.logger, s.creationSteps(payment, order, selections))
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			return SubmitOrderResult{}, err
		}
		s.logger(ctx, "submission.failed", map[string]any{
			"order":         orderID,
			"referenceCode": referenceCode,
			"error":         err.Error(),
		})
		return SubmitOrderResult{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	s.sendConfirmation(ctx, order, referenceCode, selections)

	return SubmitOrderResult{OrderID: orderID, ReferenceCode: referenceCode}, nil
}

// checkScheduleDate runs the pre-write date checks and returns the configured
// capacity for the transactional occupancy check.
func (s *submissionService) checkScheduleDate(ctx context.Context, date time.Time, selections []domain.DocumentSelection, now time.Time) (int, error) {
	cfg, err := s.schedule.Config(ctx)
	if err != nil {
		return 0, err
	}
	holidays, err := s.schedule.Holidays(ctx)
	if err != nil {
		return 0, err
	}

	day := domain.DateOnly(date)
	if reason := domain.DateBlockReason(day, holidays); reason != "" {
		return 0, fmt.Errorf("%w: %s", ErrCapacityExceeded, reason)
	}

	earliest := domain.EarliestAllowedDate(selections, now, cfg.MinLeadDays)
	if day.Before(earliest) {
		return 0, fmt.Errorf("%w: the earliest available date is %s", ErrCapacityExceeded, earliest.Format("2006-01-02"))
	}
	return cfg.MaxOrdersPerDate, nil
}

func (s *submissionService) creationSteps(payment domain.PaymentRecord, order domain.Order, selections []domain.DocumentSelection) []sagaStep {
	return []sagaStep{
		{
			name: "payment",
			run: func(ctx context.Context) error {
				return s.payments.Insert(ctx, payment)
			},
			compensate: func(ctx context.Context) error {
				return s.payments.Delete(ctx, payment.ID)
			},
		},
		{
			name: "order",
			run: func(ctx context.Context) error {
				return s.orders.Insert(ctx, order)
			},
			compensate: func(ctx context.Context) error {
				return s.orders.Delete(ctx, order.ID)
			},
		},
		{
			name: "selections",
			run: func(ctx context.Context) error {
				for _, sel := range selections {
					if err := s.selections.Insert(ctx, sel); err != nil {
						// Partial inserts are cleaned up by the order-scoped delete.
						if delErr := s.selections.DeleteByOrder(ctx, order.ID); delErr != nil {
							s.logger(ctx, "submission.selection.cleanup.failed", map[string]any{
								"order": order.ID,
								"error": delErr.Error(),
							})
						}
						return err
					}
				}
				return nil
			},
		},
	}
}

// createGatewayInvoice is soft-degrade: a gateway failure is logged and the
// order proceeds without an external invoice reference.
func (s *submissionService) createGatewayInvoice(ctx context.Context, referenceCode string, total int64, selections []domain.DocumentSelection) *string {
	items := make([]payments.InvoiceLineItem, 0, len(selections))
	for _, sel := range selections {
		items = append(items, payments.InvoiceLineItem{
			Name:     sel.Name,
			Quantity: 1,
			Amount:   sel.UnitPrice,
		})
	}

	invoice, err := s.gateway.CreateInvoice(ctx, payments.InvoiceRequest{
		ReferenceCode: referenceCode,
		Amount:        total,
		Currency:      invoiceCurrency,
		Items:         items,
	})
	if err != nil {
		s.logger(ctx, "submission.gateway.degraded", map[string]any{
			"referenceCode": referenceCode,
			"error":         err.Error(),
		})
		return nil
	}
	return &invoice.ID
}

// sendConfirmation is soft-degrade: the order stands even when the
// notification cannot be rendered or dispatched.
func (s *submissionService) sendConfirmation(ctx context.Context, order domain.Order, referenceCode string, selections []domain.DocumentSelection) {
	if s.templates == nil || s.users == nil {
		return
	}

	tpl, err := s.templates.FindByStatus(ctx, domain.OrderStatusPending)
	if err != nil || !tpl.Enabled {
		if err != nil {
			s.logger(ctx, "submission.notification.degraded", map[string]any{
				"order": order.ID,
				"error": err.Error(),
			})
		}
		return
	}

	requester, err := s.users.FindByID(ctx, order.UserRef)
	if err != nil {
		s.logger(ctx, "submission.notification.degraded", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
		return
	}

	msg := notifications.Render(tpl, notifications.RenderContext{
		Requester:     requester,
		ReferenceCode: referenceCode,
		Status:        order.Status,
		Selections:    selections,
	})
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger(ctx, "submission.notification.degraded", map[string]any{
			"order": order.ID,
			"error": err.Error(),
		})
	}
}

func (s *submissionService) generateReferenceCode(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, referenceCounterID, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CD-%04d-%06d", now.Year(), seq), nil
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
