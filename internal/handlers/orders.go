package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/campusdocs/api/internal/domain"
	"github.com/campusdocs/api/internal/platform/httpx"
	"github.com/campusdocs/api/internal/services"
)

const (
	maxOrderBodySize = 64 * 1024
	dateParamLayout  = "2006-01-02"
)

type submitOrderRequest struct {
	UserRef         string   `json:"user_ref"`
	DocumentTypeIDs []string `json:"document_type_ids"`
	DeliveryMethod  string   `json:"delivery_method"`
	PaymentMethod   string   `json:"payment_method"`
	ScheduleDate    string   `json:"schedule_date"`
	Address         string   `json:"address"`
	AddressNote     string   `json:"address_note"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

type paymentResponse struct {
	ID               string  `json:"id"`
	ReferenceCode    string  `json:"reference_code"`
	Method           string  `json:"method"`
	DocumentTotal    int64   `json:"document_total"`
	ShippingTotal    *int64  `json:"shipping_total,omitempty"`
	Total            int64   `json:"total"`
	Status           string  `json:"status"`
	GatewayInvoiceID *string `json:"gateway_invoice_id,omitempty"`
}

type selectionResponse struct {
	ID             string `json:"id"`
	DocumentTypeID string `json:"document_type_id"`
	Name           string `json:"name"`
	UnitPrice      int64  `json:"unit_price"`
	LeadDays       int    `json:"lead_days"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	UserRef        string              `json:"user_ref"`
	DeliveryMethod string              `json:"delivery_method"`
	Status         string              `json:"status"`
	ScheduleDate   *string             `json:"schedule_date,omitempty"`
	Address        string              `json:"address,omitempty"`
	AddressNote    string              `json:"address_note,omitempty"`
	LogisticsRef   *string             `json:"logistics_ref,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
	Payment        *paymentResponse    `json:"payment,omitempty"`
	Selections     []selectionResponse `json:"selections,omitempty"`
}

type submitOrderResponse struct {
	OrderID       string `json:"order_id"`
	ReferenceCode string `json:"reference_code"`
}

// OrderHandlers exposes the order submission and lifecycle endpoints.
type OrderHandlers struct {
	submissions services.SubmissionService
	orders      services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(submissions services.SubmissionService, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{
		submissions: submissions,
		orders:      orders,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitOrder)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}:status", h.changeStatus)
	r.Post("/{orderID}:reconcile", h.reconcileDelivery)
}

func (h *OrderHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.submissions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req submitOrderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	cmd := services.SubmitOrderCommand{
		UserRef:         strings.TrimSpace(req.UserRef),
		DocumentTypeIDs: req.DocumentTypeIDs,
		DeliveryMethod:  req.DeliveryMethod,
		PaymentMethod:   req.PaymentMethod,
		Address:         req.Address,
		AddressNote:     req.AddressNote,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
	}
	if raw := strings.TrimSpace(req.ScheduleDate); raw != "" {
		date, err := time.ParseInLocation(dateParamLayout, raw, time.UTC)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "schedule_date must be formatted as YYYY-MM-DD", http.StatusBadRequest))
			return
		}
		cmd.ScheduleDate = &date
	}

	result, err := h.submissions.Submit(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(ctx, w, http.StatusCreated, submitOrderResponse{
		OrderID:       result.OrderID,
		ReferenceCode: result.ReferenceCode,
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var opts services.OrderReadOptions
	for _, part := range strings.Split(r.URL.Query().Get("include"), ",") {
		switch strings.TrimSpace(part) {
		case "payment":
			opts.IncludePayment = true
		case "selections":
			opts.IncludeSelections = true
		}
	}

	order, err := h.orders.GetOrder(ctx, orderID, opts)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandlers) changeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	var req changeStatusRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	order, err := h.orders.ChangeStatus(ctx, services.ChangeStatusCommand{
		OrderID:      orderID,
		TargetStatus: req.Status,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandlers) reconcileDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.ReconcileDelivery(ctx, orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(ctx, w, http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:             order.ID,
		UserRef:        order.UserRef,
		DeliveryMethod: string(order.DeliveryMethod),
		Status:         string(order.Status),
		Address:        order.Address,
		AddressNote:    order.AddressNote,
		LogisticsRef:   order.LogisticsRef,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		PaidAt:         order.PaidAt,
		CompletedAt:    order.CompletedAt,
		CancelledAt:    order.CancelledAt,
	}
	if order.ScheduleDate != nil {
		formatted := order.ScheduleDate.Format(dateParamLayout)
		resp.ScheduleDate = &formatted
	}
	if order.Payment != nil {
		resp.Payment = &paymentResponse{
			ID:               order.Payment.ID,
			ReferenceCode:    order.Payment.ReferenceCode,
			Method:           string(order.Payment.Method),
			DocumentTotal:    order.Payment.DocumentTotal,
			ShippingTotal:    order.Payment.ShippingTotal,
			Total:            order.Payment.Total,
			Status:           string(order.Payment.Status),
			GatewayInvoiceID: order.Payment.GatewayInvoiceID,
		}
	}
	for _, sel := range order.Selections {
		resp.Selections = append(resp.Selections, selectionResponse{
			ID:             sel.ID,
			DocumentTypeID: sel.DocumentTypeID,
			Name:           sel.Name,
			UnitPrice:      sel.UnitPrice,
			LeadDays:       sel.LeadDays,
		})
	}
	return resp
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, maxOrderBodySize)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrCapacityExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("schedule_unavailable", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrIllegalTransition):
		httpx.WriteError(ctx, w, httpx.NewError("illegal_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrLogisticsFailed):
		httpx.WriteError(ctx, w, httpx.NewError("logistics_failed", err.Error(), http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "an unexpected error occurred", http.StatusInternalServerError))
	}
}
