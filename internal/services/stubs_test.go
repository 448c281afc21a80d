package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
	"github.com/campusdocs/api/internal/logistics"
	"github.com/campusdocs/api/internal/notifications"
	"github.com/campusdocs/api/internal/payments"
)

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string       { return "stub repository error" }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

type stubOrderRepository struct {
	insert       func(ctx context.Context, order domain.Order) error
	update       func(ctx context.Context, order domain.Order) error
	delete       func(ctx context.Context, orderID string) error
	findByID     func(ctx context.Context, orderID string) (domain.Order, error)
	countForDate func(ctx context.Context, date time.Time) (int, error)
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if s.insert == nil {
		return nil
	}
	return s.insert(ctx, order)
}

func (s *stubOrderRepository) Update(ctx context.Context, order domain.Order) error {
	if s.update == nil {
		return nil
	}
	return s.update(ctx, order)
}

func (s *stubOrderRepository) Delete(ctx context.Context, orderID string) error {
	if s.delete == nil {
		return nil
	}
	return s.delete(ctx, orderID)
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findByID == nil {
		return domain.Order{}, stubRepoError{notFound: true}
	}
	return s.findByID(ctx, orderID)
}

func (s *stubOrderRepository) CountForDate(ctx context.Context, date time.Time) (int, error) {
	if s.countForDate == nil {
		return 0, nil
	}
	return s.countForDate(ctx, date)
}

type stubPaymentRepository struct {
	insert   func(ctx context.Context, payment domain.PaymentRecord) error
	update   func(ctx context.Context, payment domain.PaymentRecord) error
	delete   func(ctx context.Context, paymentID string) error
	findByID func(ctx context.Context, paymentID string) (domain.PaymentRecord, error)
}

func (s *stubPaymentRepository) Insert(ctx context.Context, payment domain.PaymentRecord) error {
	if s.insert == nil {
		return nil
	}
	return s.insert(ctx, payment)
}

func (s *stubPaymentRepository) Update(ctx context.Context, payment domain.PaymentRecord) error {
	if s.update == nil {
		return nil
	}
	return s.update(ctx, payment)
}

func (s *stubPaymentRepository) Delete(ctx context.Context, paymentID string) error {
	if s.delete == nil {
		return nil
	}
	return s.delete(ctx, paymentID)
}

func (s *stubPaymentRepository) FindByID(ctx context.Context, paymentID string) (domain.PaymentRecord, error) {
	if s.findByID == nil {
		return domain.PaymentRecord{}, stubRepoError{notFound: true}
	}
	return s.findByID(ctx, paymentID)
}

type stubSelectionRepository struct {
	insert        func(ctx context.Context, selection domain.DocumentSelection) error
	deleteByOrder func(ctx context.Context, orderID string) error
	listByOrder   func(ctx context.Context, orderID string) ([]domain.DocumentSelection, error)
}

func (s *stubSelectionRepository) Insert(ctx context.Context, selection domain.DocumentSelection) error {
	if s.insert == nil {
		return nil
	}
	return s.insert(ctx, selection)
}

func (s *stubSelectionRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	if s.deleteByOrder == nil {
		return nil
	}
	return s.deleteByOrder(ctx, orderID)
}

func (s *stubSelectionRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.DocumentSelection, error) {
	if s.listByOrder == nil {
		return nil, nil
	}
	return s.listByOrder(ctx, orderID)
}

type stubDocumentTypeRepository struct {
	findByIDs func(ctx context.Context, ids []string) ([]domain.DocumentType, error)
}

func (s *stubDocumentTypeRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.DocumentType, error) {
	if s.findByIDs == nil {
		return nil, stubRepoError{notFound: true}
	}
	return s.findByIDs(ctx, ids)
}

type stubScheduleRepository struct {
	config   func(ctx context.Context) (domain.ScheduleConfig, error)
	holidays func(ctx context.Context) ([]domain.Holiday, error)
}

func (s *stubScheduleRepository) Config(ctx context.Context) (domain.ScheduleConfig, error) {
	if s.config == nil {
		return domain.ScheduleConfig{
			MaxOrdersPerDate: domain.DefaultScheduleCapacity,
			MinLeadDays:      domain.DefaultLeadDays,
		}, nil
	}
	return s.config(ctx)
}

func (s *stubScheduleRepository) Holidays(ctx context.Context) ([]domain.Holiday, error) {
	if s.holidays == nil {
		return nil, nil
	}
	return s.holidays(ctx)
}

type stubTemplateRepository struct {
	findByStatus func(ctx context.Context, status domain.OrderStatus) (domain.NotificationTemplate, error)
}

func (s *stubTemplateRepository) FindByStatus(ctx context.Context, status domain.OrderStatus) (domain.NotificationTemplate, error) {
	if s.findByStatus == nil {
		return domain.NotificationTemplate{}, stubRepoError{notFound: true}
	}
	return s.findByStatus(ctx, status)
}

type stubUserRepository struct {
	findByID func(ctx context.Context, userID string) (domain.Requester, error)
}

func (s *stubUserRepository) FindByID(ctx context.Context, userID string) (domain.Requester, error) {
	if s.findByID == nil {
		return domain.Requester{}, stubRepoError{notFound: true}
	}
	return s.findByID(ctx, userID)
}

type stubCounterRepository struct {
	next func(ctx context.Context, counterID string, step int64) (int64, error)
}

func (s *stubCounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.next == nil {
		return 1, nil
	}
	return s.next(ctx, counterID, step)
}

type stubGateway struct {
	createInvoice func(ctx context.Context, req payments.InvoiceRequest) (payments.Invoice, error)
	cancelInvoice func(ctx context.Context, invoiceID string) error
	lookupInvoice func(ctx context.Context, invoiceID string) (payments.InvoiceDetails, error)
}

func (s *stubGateway) CreateInvoice(ctx context.Context, req payments.InvoiceRequest) (payments.Invoice, error) {
	if s.createInvoice == nil {
		return payments.Invoice{ID: "inv_stub", Status: payments.InvoiceStatusOpen}, nil
	}
	return s.createInvoice(ctx, req)
}

func (s *stubGateway) CancelInvoice(ctx context.Context, invoiceID string) error {
	if s.cancelInvoice == nil {
		return nil
	}
	return s.cancelInvoice(ctx, invoiceID)
}

func (s *stubGateway) LookupInvoice(ctx context.Context, invoiceID string) (payments.InvoiceDetails, error) {
	if s.lookupInvoice == nil {
		return payments.InvoiceDetails{}, errors.New("not configured")
	}
	return s.lookupInvoice(ctx, invoiceID)
}

type stubLogisticsProvider struct {
	quote       func(ctx context.Context, req logistics.QuoteRequest) (logistics.Quote, error)
	createOrder func(ctx context.Context, req logistics.BookingRequest) (logistics.Booking, error)
	getOrder    func(ctx context.Context, ref string) (logistics.Booking, error)
}

func (s *stubLogisticsProvider) Quote(ctx context.Context, req logistics.QuoteRequest) (logistics.Quote, error) {
	if s.quote == nil {
		return logistics.Quote{ID: "qt_stub", Fee: 9500, Currency: "PHP"}, nil
	}
	return s.quote(ctx, req)
}

func (s *stubLogisticsProvider) CreateOrder(ctx context.Context, req logistics.BookingRequest) (logistics.Booking, error) {
	if s.createOrder == nil {
		return logistics.Booking{Ref: "crr_stub", Status: logistics.DeliveryStatusAssigning}, nil
	}
	return s.createOrder(ctx, req)
}

func (s *stubLogisticsProvider) GetOrder(ctx context.Context, ref string) (logistics.Booking, error) {
	if s.getOrder == nil {
		return logistics.Booking{Ref: ref, Status: logistics.DeliveryStatusOngoing}, nil
	}
	return s.getOrder(ctx, ref)
}

type stubSender struct {
	send func(ctx context.Context, msg notifications.Message) error
}

func (s *stubSender) Send(ctx context.Context, msg notifications.Message) error {
	if s.send == nil {
		return nil
	}
	return s.send(ctx, msg)
}

type recordedTx struct {
	calls int
}

func (r *recordedTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
