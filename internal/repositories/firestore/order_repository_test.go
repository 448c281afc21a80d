package firestore

import (
	"testing"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
)

func TestFromDomainOrderNormalisesScheduleDate(t *testing.T) {
	manila := time.FixedZone("PST", 8*60*60)
	scheduled := time.Date(2026, time.March, 6, 9, 30, 0, 0, manila)
	order := domain.Order{
		ID:             "ord_1",
		UserRef:        "  usr_001  ",
		DeliveryMethod: domain.DeliveryMethodPickup,
		PaymentID:      "pay_1",
		Status:         domain.OrderStatusPending,
		ScheduleDate:   &scheduled,
	}

	doc := fromDomainOrder(order)

	if doc.UserRef != "usr_001" {
		t.Fatalf("user ref = %q", doc.UserRef)
	}
	if doc.ScheduleDate == nil {
		t.Fatal("schedule date dropped")
	}
	want := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	if !doc.ScheduleDate.Equal(want) {
		t.Fatalf("schedule date = %v, want %v", doc.ScheduleDate, want)
	}
}

func TestOrderDocumentRoundTrip(t *testing.T) {
	ref := "crr_77"
	paidAt := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:             "ord_1",
		UserRef:        "usr_001",
		DeliveryMethod: domain.DeliveryMethodCourier,
		PaymentID:      "pay_1",
		Status:         domain.OrderStatusOutForDelivery,
		Address:        "123 Rizal Ave",
		AddressNote:    "Gate 2",
		Latitude:       14.5995,
		Longitude:      120.9842,
		LogisticsRef:   &ref,
		CreatedAt:      paidAt.Add(-time.Hour),
		UpdatedAt:      paidAt,
		PaidAt:         &paidAt,
	}

	got := toDomainOrder(order.ID, fromDomainOrder(order))

	if got.Status != order.Status || got.DeliveryMethod != order.DeliveryMethod {
		t.Fatalf("got %+v", got)
	}
	if got.LogisticsRef == nil || *got.LogisticsRef != ref {
		t.Fatalf("logistics ref = %v", got.LogisticsRef)
	}
	if got.PaidAt == nil || !got.PaidAt.Equal(paidAt) {
		t.Fatalf("paid at = %v", got.PaidAt)
	}
	if got.Latitude != order.Latitude || got.Longitude != order.Longitude {
		t.Fatalf("coordinates = %v,%v", got.Latitude, got.Longitude)
	}
}

func TestSlotConsumingStatusesMatchDomain(t *testing.T) {
	all := []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusPaid,
		domain.OrderStatusProcessing,
		domain.OrderStatusReadyForPickup,
		domain.OrderStatusOutForDelivery,
		domain.OrderStatusCompleted,
		domain.OrderStatusCancelled,
	}

	queried := make(map[string]bool, len(slotConsumingStatuses))
	for _, s := range slotConsumingStatuses {
		queried[s] = true
	}

	for _, status := range all {
		order := domain.Order{Status: status}
		if order.SlotConsuming() != queried[string(status)] {
			t.Fatalf("status %s: SlotConsuming() = %v but query filter has %v",
				status, order.SlotConsuming(), queried[string(status)])
		}
	}
}
