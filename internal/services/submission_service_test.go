package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
	"github.com/campusdocs/api/internal/notifications"
	"github.com/campusdocs/api/internal/payments"
)

// Monday, so lead-time arithmetic never trips the Sunday blackout unless a
// test asks for it.
var submitNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func catalogWith(types ...domain.DocumentType) *stubDocumentTypeRepository {
	return &stubDocumentTypeRepository{
		findByIDs: func(_ context.Context, ids []string) ([]domain.DocumentType, error) {
			resolved := make([]domain.DocumentType, 0, len(ids))
			for _, id := range ids {
				found := false
				for _, dt := range types {
					if dt.ID == id {
						resolved = append(resolved, dt)
						found = true
						break
					}
				}
				if !found {
					return nil, stubRepoError{notFound: true}
				}
			}
			return resolved, nil
		},
	}
}

func defaultSubmissionDeps() SubmissionServiceDeps {
	return SubmissionServiceDeps{
		Orders:     &stubOrderRepository{},
		Payments:   &stubPaymentRepository{},
		Selections: &stubSelectionRepository{},
		DocumentTypes: catalogWith(
			domain.DocumentType{ID: "dt_tor", Name: "Transcript of Records", UnitPrice: 15000, LeadDays: 3},
			domain.DocumentType{ID: "dt_coe", Name: "Certificate of Enrollment", UnitPrice: 5000, LeadDays: 1},
		),
		Schedule: &stubScheduleRepository{
			config: func(context.Context) (domain.ScheduleConfig, error) {
				return domain.ScheduleConfig{MaxOrdersPerDate: 2, MinLeadDays: 3}, nil
			},
		},
		Users:     &stubUserRepository{},
		Templates: &stubTemplateRepository{},
		Counters:  &stubCounterRepository{},
		Clock:     fixedClock(submitNow),
	}
}

func pickupCommand(date time.Time) SubmitOrderCommand {
	return SubmitOrderCommand{
		UserRef:         "usr_001",
		DocumentTypeIDs: []string{"dt_tor", "dt_coe"},
		DeliveryMethod:  "PICKUP",
		PaymentMethod:   "ONLINE",
		ScheduleDate:    &date,
	}
}

func TestSubmitCreatesOrderPaymentAndSelections(t *testing.T) {
	deps := defaultSubmissionDeps()

	var insertedOrder *domain.Order
	deps.Orders.(*stubOrderRepository).insert = func(_ context.Context, order domain.Order) error {
		insertedOrder = &order
		return nil
	}
	var insertedPayment *domain.PaymentRecord
	deps.Payments.(*stubPaymentRepository).insert = func(_ context.Context, payment domain.PaymentRecord) error {
		insertedPayment = &payment
		return nil
	}
	var insertedSelections []domain.DocumentSelection
	deps.Selections.(*stubSelectionRepository).insert = func(_ context.Context, sel domain.DocumentSelection) error {
		insertedSelections = append(insertedSelections, sel)
		return nil
	}
	deps.Counters.(*stubCounterRepository).next = func(_ context.Context, counterID string, step int64) (int64, error) {
		if counterID != "orders" || step != 1 {
			t.Fatalf("unexpected counter call: %s step %d", counterID, step)
		}
		return 42, nil
	}
	deps.Gateway = &stubGateway{
		createInvoice: func(_ context.Context, req payments.InvoiceRequest) (payments.Invoice, error) {
			if req.Amount != 20000 {
				t.Fatalf("invoice amount = %d, want 20000", req.Amount)
			}
			if len(req.Items) != 2 {
				t.Fatalf("invoice items = %d, want 2", len(req.Items))
			}
			return payments.Invoice{ID: "cs_123", Status: payments.InvoiceStatusOpen}, nil
		},
	}
	tx := &recordedTx{}
	deps.UnitOfWork = tx

	svc, err := NewSubmissionService(deps)
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}

	date := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	result, err := svc.Submit(context.Background(), pickupCommand(date))
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if result.ReferenceCode != "CD-2026-000042" {
		t.Fatalf("reference code = %q, want CD-2026-000042", result.ReferenceCode)
	}
	if result.OrderID == "" || !strings.HasPrefix(result.OrderID, "ord_") {
		t.Fatalf("order ID = %q, want ord_ prefix", result.OrderID)
	}
	if tx.calls != 1 {
		t.Fatalf("transaction calls = %d, want 1", tx.calls)
	}

	if insertedOrder == nil {
		t.Fatal("order was not inserted")
	}
	if insertedOrder.Status != domain.OrderStatusPending {
		t.Fatalf("order status = %s, want PENDING", insertedOrder.Status)
	}
	if insertedOrder.ScheduleDate == nil || !insertedOrder.ScheduleDate.Equal(date) {
		t.Fatalf("order schedule date = %v, want %v", insertedOrder.ScheduleDate, date)
	}

	if insertedPayment == nil {
		t.Fatal("payment was not inserted")
	}
	if insertedPayment.Total != 20000 || insertedPayment.DocumentTotal != 20000 {
		t.Fatalf("payment totals = %d/%d, want 20000/20000", insertedPayment.DocumentTotal, insertedPayment.Total)
	}
	if insertedPayment.GatewayInvoiceID == nil || *insertedPayment.GatewayInvoiceID != "cs_123" {
		t.Fatalf("gateway invoice = %v, want cs_123", insertedPayment.GatewayInvoiceID)
	}
	if insertedPayment.Status != domain.PaymentStatusPending {
		t.Fatalf("payment status = %s, want PENDING", insertedPayment.Status)
	}
	if insertedOrder.PaymentID != insertedPayment.ID {
		t.Fatalf("order payment link = %q, payment ID = %q", insertedOrder.PaymentID, insertedPayment.ID)
	}

	if len(insertedSelections) != 2 {
		t.Fatalf("selections inserted = %d, want 2", len(insertedSelections))
	}
	for _, sel := range insertedSelections {
		if sel.OrderID != insertedOrder.ID {
			t.Fatalf("selection order link = %q, want %q", sel.OrderID, insertedOrder.ID)
		}
	}
	if insertedSelections[0].Name != "Transcript of Records" {
		t.Fatalf("selection name = %q", insertedSelections[0].Name)
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	date := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	lat, lng := 14.5995, 120.9842

	cases := []struct {
		name string
		cmd  SubmitOrderCommand
	}{
		{
			name: "missing user",
			cmd: SubmitOrderCommand{
				DocumentTypeIDs: []string{"dt_tor"},
				DeliveryMethod:  "PICKUP",
				PaymentMethod:   "CASH",
				ScheduleDate:    &date,
			},
		},
		{
			name: "unknown payment method",
			cmd: SubmitOrderCommand{
				UserRef:         "usr_001",
				DocumentTypeIDs: []string{"dt_tor"},
				DeliveryMethod:  "PICKUP",
				PaymentMethod:   "BARTER",
				ScheduleDate:    &date,
			},
		},
		{
			name: "unknown delivery method",
			cmd: SubmitOrderCommand{
				UserRef:         "usr_001",
				DocumentTypeIDs: []string{"dt_tor"},
				DeliveryMethod:  "TELEPORT",
				PaymentMethod:   "CASH",
			},
		},
		{
			name: "pickup without date",
			cmd: SubmitOrderCommand{
				UserRef:         "usr_001",
				DocumentTypeIDs: []string{"dt_tor"},
				DeliveryMethod:  "PICKUP",
				PaymentMethod:   "CASH",
			},
		},
		{
			name: "courier without address",
			cmd: SubmitOrderCommand{
				UserRef:         "usr_001",
				DocumentTypeIDs: []string{"dt_tor"},
				DeliveryMethod:  "COURIER",
				PaymentMethod:   "ONLINE",
				AddressNote:     "Gate 2",
				Latitude:        &lat,
				Longitude:       &lng,
			},
		},
		{
			name: "courier without supplemental address",
			cmd: SubmitOrderCommand{
				UserRef:         "usr_001",
				DocumentTypeIDs: []string{"dt_tor"},
				DeliveryMethod:  "COURIER",
				PaymentMethod:   "ONLINE",
				Address:         "123 Rizal Ave",
				Latitude:        &lat,
				Longitude:       &lng,
			},
		},
		{
			name: "courier without coordinates",
			cmd: SubmitOrderCommand{
				UserRef:         "usr_001",
				DocumentTypeIDs: []string{"dt_tor"},
				DeliveryMethod:  "COURIER",
				PaymentMethod:   "ONLINE",
				Address:         "123 Rizal Ave",
				AddressNote:     "Gate 2",
				Latitude:        &lat,
			},
		},
		{
			name: "no document types",
			cmd: SubmitOrderCommand{
				UserRef:        "usr_001",
				DeliveryMethod: "PICKUP",
				PaymentMethod:  "CASH",
				ScheduleDate:   &date,
			},
		},
		{
			name: "unknown document type",
			cmd: SubmitOrderCommand{
				UserRef:         "usr_001",
				DocumentTypeIDs: []string{"dt_missing"},
				DeliveryMethod:  "PICKUP",
				PaymentMethod:   "CASH",
				ScheduleDate:    &date,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewSubmissionService(defaultSubmissionDeps())
			if err != nil {
				t.Fatalf("NewSubmissionService: %v", err)
			}
			if _, err := svc.Submit(context.Background(), tc.cmd); !errors.Is(err, ErrValidation) {
				t.Fatalf("Submit error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubmitRejectsBlockedAndEarlyDates(t *testing.T) {
	holiday := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		date time.Time
	}{
		// 2026-03-08 is a Sunday.
		{name: "weekly blackout", date: time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)},
		{name: "holiday", date: holiday},
		// Earliest date from 2026-03-02 with a 3-day lead is 2026-03-05.
		{name: "before lead time", date: time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := defaultSubmissionDeps()
			deps.Schedule.(*stubScheduleRepository).holidays = func(context.Context) ([]domain.Holiday, error) {
				return []domain.Holiday{{Date: holiday, Name: "Foundation Day"}}, nil
			}
			svc, err := NewSubmissionService(deps)
			if err != nil {
				t.Fatalf("NewSubmissionService: %v", err)
			}
			if _, err := svc.Submit(context.Background(), pickupCommand(tc.date)); !errors.Is(err, ErrCapacityExceeded) {
				t.Fatalf("Submit error = %v, want ErrCapacityExceeded", err)
			}
		})
	}
}

func TestSubmitRejectsFullDate(t *testing.T) {
	deps := defaultSubmissionDeps()
	deps.Orders.(*stubOrderRepository).countForDate = func(context.Context, time.Time) (int, error) {
		return 2, nil
	}
	inserted := false
	deps.Orders.(*stubOrderRepository).insert = func(context.Context, domain.Order) error {
		inserted = true
		return nil
	}

	svc, err := NewSubmissionService(deps)
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}

	date := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Submit(context.Background(), pickupCommand(date)); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Submit error = %v, want ErrCapacityExceeded", err)
	}
	if inserted {
		t.Fatal("order must not be inserted when the date is full")
	}
}

func TestSubmitCompensatesInReverseOnFailure(t *testing.T) {
	deps := defaultSubmissionDeps()

	var deletedPayments, deletedOrders []string
	deps.Payments.(*stubPaymentRepository).delete = func(_ context.Context, id string) error {
		deletedPayments = append(deletedPayments, id)
		return nil
	}
	deps.Orders.(*stubOrderRepository).delete = func(_ context.Context, id string) error {
		deletedOrders = append(deletedOrders, id)
		return nil
	}
	var insertedPaymentID string
	deps.Payments.(*stubPaymentRepository).insert = func(_ context.Context, payment domain.PaymentRecord) error {
		insertedPaymentID = payment.ID
		return nil
	}
	deps.Selections.(*stubSelectionRepository).insert = func(context.Context, domain.DocumentSelection) error {
		return errors.New("selection write refused")
	}

	svc, err := NewSubmissionService(deps)
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}

	date := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	_, err = svc.Submit(context.Background(), pickupCommand(date))
	if !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("Submit error = %v, want ErrSubmissionFailed", err)
	}

	if len(deletedOrders) != 1 {
		t.Fatalf("order deletes = %d, want 1", len(deletedOrders))
	}
	if len(deletedPayments) != 1 || deletedPayments[0] != insertedPaymentID {
		t.Fatalf("payment deletes = %v, want [%s]", deletedPayments, insertedPaymentID)
	}
}

func TestSubmitProceedsWhenGatewayFails(t *testing.T) {
	deps := defaultSubmissionDeps()
	deps.Gateway = &stubGateway{
		createInvoice: func(context.Context, payments.InvoiceRequest) (payments.Invoice, error) {
			return payments.Invoice{}, errors.New("gateway unreachable")
		},
	}
	var insertedPayment *domain.PaymentRecord
	deps.Payments.(*stubPaymentRepository).insert = func(_ context.Context, payment domain.PaymentRecord) error {
		insertedPayment = &payment
		return nil
	}

	svc, err := NewSubmissionService(deps)
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}

	date := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Submit(context.Background(), pickupCommand(date)); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if insertedPayment == nil {
		t.Fatal("payment was not inserted")
	}
	if insertedPayment.GatewayInvoiceID != nil {
		t.Fatalf("gateway invoice = %v, want nil", insertedPayment.GatewayInvoiceID)
	}
}

func TestSubmitSendsConfirmation(t *testing.T) {
	deps := defaultSubmissionDeps()
	deps.Templates.(*stubTemplateRepository).findByStatus = func(_ context.Context, status domain.OrderStatus) (domain.NotificationTemplate, error) {
		if status != domain.OrderStatusPending {
			t.Fatalf("template lookup for %s, want PENDING", status)
		}
		return domain.NotificationTemplate{
			Status:  domain.OrderStatusPending,
			Subject: "Order {{referenceCode}} received",
			Body:    "Hi {{firstName}}, we received your request for {{documents}}.",
			Enabled: true,
		}, nil
	}
	deps.Users.(*stubUserRepository).findByID = func(context.Context, string) (domain.Requester, error) {
		return domain.Requester{ID: "usr_001", FirstName: "Maria", LastName: "Santos", Email: "maria@example.edu"}, nil
	}
	var sent *notifications.Message
	deps.Notifier = &stubSender{
		send: func(_ context.Context, msg notifications.Message) error {
			sent = &msg
			return nil
		},
	}
	deps.Counters.(*stubCounterRepository).next = func(context.Context, string, int64) (int64, error) {
		return 7, nil
	}

	svc, err := NewSubmissionService(deps)
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}

	date := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Submit(context.Background(), pickupCommand(date)); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if sent == nil {
		t.Fatal("no notification was sent")
	}
	if sent.Subject != "Order CD-2026-000007 received" {
		t.Fatalf("subject = %q", sent.Subject)
	}
	want := "Hi Maria, we received your request for Transcript of Records, Certificate of Enrollment."
	if sent.Body != want {
		t.Fatalf("body = %q, want %q", sent.Body, want)
	}
}

func TestSubmitIgnoresNotificationFailure(t *testing.T) {
	deps := defaultSubmissionDeps()
	deps.Templates.(*stubTemplateRepository).findByStatus = func(context.Context, domain.OrderStatus) (domain.NotificationTemplate, error) {
		return domain.NotificationTemplate{Subject: "s", Body: "b", Enabled: true}, nil
	}
	deps.Users.(*stubUserRepository).findByID = func(context.Context, string) (domain.Requester, error) {
		return domain.Requester{ID: "usr_001"}, nil
	}
	deps.Notifier = &stubSender{
		send: func(context.Context, notifications.Message) error {
			return errors.New("broker down")
		},
	}

	svc, err := NewSubmissionService(deps)
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}

	date := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Submit(context.Background(), pickupCommand(date)); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
}
