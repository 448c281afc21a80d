package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/campusdocs/api/internal/domain"
	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const ordersCollection = "orders"

// slotConsumingStatuses mirrors domain.Order.SlotConsuming for the occupancy query.
var slotConsumingStatuses = []string{
	string(domain.OrderStatusPending),
	string(domain.OrderStatusPaid),
	string(domain.OrderStatusProcessing),
	string(domain.OrderStatusReadyForPickup),
}

type orderDocument struct {
	UserRef        string     `firestore:"userRef"`
	DeliveryMethod string     `firestore:"deliveryMethod"`
	PaymentID      string     `firestore:"paymentId"`
	Status         string     `firestore:"status"`
	ScheduleDate   *time.Time `firestore:"scheduleDate,omitempty"`
	Address        string     `firestore:"address,omitempty"`
	AddressNote    string     `firestore:"addressNote,omitempty"`
	Latitude       float64    `firestore:"latitude,omitempty"`
	Longitude      float64    `firestore:"longitude,omitempty"`
	LogisticsRef   *string    `firestore:"logisticsRef,omitempty"`
	CreatedAt      time.Time  `firestore:"createdAt"`
	UpdatedAt      time.Time  `firestore:"updatedAt"`
	PaidAt         *time.Time `firestore:"paidAt,omitempty"`
	CompletedAt    *time.Time `firestore:"completedAt,omitempty"`
	CancelledAt    *time.Time `firestore:"cancelledAt,omitempty"`
}

// OrderRepository persists order headers and serves the schedule occupancy query.
type OrderRepository struct {
	orders *pfirestore.Collection[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		orders: pfirestore.NewCollection[orderDocument](provider, ordersCollection, nil),
	}, nil
}

// Insert creates a new order document, failing on duplicate IDs.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}
	return r.orders.Create(ctx, order.ID, fromDomainOrder(order))
}

// Update overwrites the order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}
	return r.orders.Set(ctx, order.ID, fromDomainOrder(order))
}

// Delete removes the order document. Used by submission compensation only.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	return r.orders.Delete(ctx, orderID)
}

// FindByID loads an order by ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc.ID, doc.Data), nil
}

// CountForDate counts orders booked on the given calendar date whose status
// still consumes a slot. Inside a unit of work the count is transactional.
func (r *OrderRepository) CountForDate(ctx context.Context, date time.Time) (int, error) {
	day := domain.DateOnly(date)
	return r.orders.Count(ctx, func(q firestore.Query) firestore.Query {
		return q.
			Where("scheduleDate", "==", day).
			Where("status", "in", slotConsumingStatuses)
	})
}

func fromDomainOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		UserRef:        strings.TrimSpace(order.UserRef),
		DeliveryMethod: string(order.DeliveryMethod),
		PaymentID:      strings.TrimSpace(order.PaymentID),
		Status:         string(order.Status),
		Address:        strings.TrimSpace(order.Address),
		AddressNote:    strings.TrimSpace(order.AddressNote),
		Latitude:       order.Latitude,
		Longitude:      order.Longitude,
		LogisticsRef:   order.LogisticsRef,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		PaidAt:         order.PaidAt,
		CompletedAt:    order.CompletedAt,
		CancelledAt:    order.CancelledAt,
	}
	if order.ScheduleDate != nil {
		day := domain.DateOnly(*order.ScheduleDate)
		doc.ScheduleDate = &day
	}
	return doc
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	return domain.Order{
		ID:             id,
		UserRef:        doc.UserRef,
		DeliveryMethod: domain.DeliveryMethod(doc.DeliveryMethod),
		PaymentID:      doc.PaymentID,
		Status:         domain.OrderStatus(doc.Status),
		ScheduleDate:   doc.ScheduleDate,
		Address:        doc.Address,
		AddressNote:    doc.AddressNote,
		Latitude:       doc.Latitude,
		Longitude:      doc.Longitude,
		LogisticsRef:   doc.LogisticsRef,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		PaidAt:         doc.PaidAt,
		CompletedAt:    doc.CompletedAt,
		CancelledAt:    doc.CancelledAt,
	}
}
