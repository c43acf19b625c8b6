package order

import (
	"context"
	"fmt"
	"time"

	"ms-orders/internal/apperr"
	"ms-orders/internal/config"
	"ms-orders/internal/logger"
	"ms-orders/internal/models"
	"ms-orders/internal/order/db"
	"ms-orders/internal/utils"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	InsertOrderItems(ctx context.Context, items []models.OrderItem) error
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error)
}

// AdmissionGuard is the Redis fast path in front of the database's unique
// idempotency-key constraint.
type AdmissionGuard interface {
	Admit(ctx context.Context, idempotencyKey, orderID string) (bool, string, error)
	Forget(ctx context.Context, idempotencyKey, orderID string) error
}

type CatalogGateway interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
}

type SeatingGateway interface {
	FetchAvailability(ctx context.Context, eventID string) ([]models.SeatSnapshot, error)
	Reserve(ctx context.Context, eventID string, seatIDs []string, userID string, ttl time.Duration) error
	Allocate(ctx context.Context, orderID, eventID string, seatIDs []string) error
	Release(ctx context.Context, orderID, eventID string, seatIDs []string) error
}

type PaymentGateway interface {
	Charge(ctx context.Context, idempotencyKey string, charge models.ChargeRequest) (*models.ChargeResponse, error)
}

// NotifyDispatcher is fire-and-forget: it logs delivery outcomes itself
// and never reports failure to the saga.
type NotifyDispatcher interface {
	Dispatch(ctx context.Context, notifyType, orderID string, seats []string)
}

type TicketIssuer interface {
	IssueForOrder(ctx context.Context, order *models.Order, items []models.OrderItem) ([]models.Ticket, error)
}

type EventPublisher interface {
	PublishOrderEvent(topic string, order models.Order) error
}

type OrderService struct {
	DB       DBLayer
	Guard    AdmissionGuard
	Catalog  CatalogGateway
	Seating  SeatingGateway
	Payment  PaymentGateway
	Notifier NotifyDispatcher
	Tickets  TicketIssuer
	Kafka    EventPublisher
	Logger   *logger.Logger

	Order  config.OrderConfig
	Topics config.TopicConfig
}

func NewOrderService(
	database DBLayer,
	guard AdmissionGuard,
	catalog CatalogGateway,
	seating SeatingGateway,
	payment PaymentGateway,
	notifier NotifyDispatcher,
	tickets TicketIssuer,
	kafka EventPublisher,
	log *logger.Logger,
	orderCfg config.OrderConfig,
	topics config.TopicConfig,
) *OrderService {
	return &OrderService{
		DB:       database,
		Guard:    guard,
		Catalog:  catalog,
		Seating:  seating,
		Payment:  payment,
		Notifier: notifier,
		Tickets:  tickets,
		Kafka:    kafka,
		Logger:   log,
		Order:    orderCfg,
		Topics:   topics,
	}
}

// CreateOrder runs the forward path of the fulfillment saga: admission,
// catalog check, seat snapshot, hold, PENDING order, charge. Every remote
// call before the hold is side-effect free and needs no compensation; from
// the hold onward any failure goes through the compensation engine.
func (s *OrderService) CreateOrder(ctx context.Context, idempotencyKey string, req models.OrderRequest) (*models.OrderResult, error) {
	if idempotencyKey == "" {
		return nil, apperr.New(apperr.Client, "missing Idempotency-Key header")
	}
	if req.UserID == "" || req.EventID == "" || len(req.SeatIDs) == 0 {
		return nil, apperr.New(apperr.Client, "user_id, event_id and seat_ids are required")
	}

	// Idempotency guard: a replayed key returns the stored order with no
	// side effects re-executed.
	if existing, err := s.DB.GetOrderByIdempotencyKey(ctx, idempotencyKey); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "idempotency lookup failed", err)
	} else if existing != nil {
		s.Logger.LogOrder("REPLAY", existing.OrderID, "idempotency key already admitted")
		return s.resultFor(ctx, existing)
	}

	orderID := utils.GenerateOrderID()

	// Redis admission is best-effort; the DB unique constraint stays
	// authoritative when Redis is down or both requests slip past SetNX.
	if s.Guard != nil {
		admitted, holder, err := s.Guard.Admit(ctx, idempotencyKey, orderID)
		if err != nil {
			s.Logger.Warn("ORDER", fmt.Sprintf("admission guard unavailable: %v", err))
		} else if !admitted {
			s.Logger.LogOrder("RACE", holder, "concurrent request holds this idempotency key")
			if existing, err := s.DB.GetOrderByIdempotencyKey(ctx, idempotencyKey); err == nil && existing != nil {
				return s.resultFor(ctx, existing)
			}
			// Holder has not persisted yet; continue and let the unique
			// constraint pick the winner.
		}
	}

	if _, err := s.Catalog.GetEvent(ctx, req.EventID); err != nil {
		s.forgetAdmission(ctx, idempotencyKey, orderID)
		return nil, err
	}

	items, subtotal, err := s.snapshotSeats(ctx, orderID, req)
	if err != nil {
		s.forgetAdmission(ctx, idempotencyKey, orderID)
		return nil, err
	}

	tax := utils.TaxCents(subtotal, s.Order.TaxPercent)
	total := subtotal + tax

	// The hold is the first mutation. Failure aborts with nothing
	// persisted, so no compensation yet.
	if err := s.Seating.Reserve(ctx, req.EventID, req.SeatIDs, req.UserID, s.Order.ReserveTTL); err != nil {
		s.forgetAdmission(ctx, idempotencyKey, orderID)
		return nil, err
	}
	s.Logger.LogSaga("RESERVE", orderID, fmt.Sprintf("held %d seats for %s", len(req.SeatIDs), req.EventID))

	now := time.Now()
	newOrder := models.Order{
		OrderID:        orderID,
		IdempotencyKey: idempotencyKey,
		UserID:         req.UserID,
		EventID:        req.EventID,
		SubtotalCents:  subtotal,
		TaxCents:       tax,
		TotalCents:     total,
		Status:         models.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.DB.CreateOrder(ctx, newOrder); err != nil {
		if db.IsUniqueViolation(err) {
			// Lost the admission race: the winner's order is the answer.
			s.Logger.LogOrder("RACE", orderID, "lost idempotency-key race, returning winner's order")
			s.releaseBestEffort(ctx, orderID, req.EventID, req.SeatIDs)
			existing, lookupErr := s.DB.GetOrderByIdempotencyKey(ctx, idempotencyKey)
			if lookupErr != nil || existing == nil {
				return nil, apperr.Wrap(apperr.Internal, "winner lookup after unique violation failed", lookupErr)
			}
			return s.resultFor(ctx, existing)
		}
		s.releaseBestEffort(ctx, orderID, req.EventID, req.SeatIDs)
		s.forgetAdmission(ctx, idempotencyKey, orderID)
		return nil, apperr.Wrap(apperr.Internal, "persist order failed", err)
	}

	if err := s.DB.InsertOrderItems(ctx, items); err != nil {
		s.compensate(ctx, &newOrder, req.SeatIDs, "persist order items failed", false)
		return nil, apperr.Wrap(apperr.Internal, "persist order items failed", err)
	}

	s.publishEvent(s.Topics.OrderCreated, newOrder)

	// Charge. A transport failure means no payment record can be assumed:
	// release the hold, fail the order, surface a gateway error.
	payKey := utils.DerivePaymentKey(idempotencyKey)
	payment, err := s.Payment.Charge(ctx, payKey, models.ChargeRequest{
		MerchantOrderID: orderID,
		AmountCents:     total,
		Currency:        s.Order.Currency,
	})
	if err != nil {
		s.compensate(ctx, &newOrder, req.SeatIDs, fmt.Sprintf("charge failed: %v", err), false)
		newOrder.Status = models.OrderStatusFailed
		return nil, apperr.Wrap(apperr.Upstream, "payment charge failed", err)
	}
	s.Logger.LogSaga("CHARGE", orderID, fmt.Sprintf("payment %s status %s", payment.PaymentID, payment.Status))

	if !payment.TerminalStatus() {
		// Async integration: the callback carries the decision later.
		return &models.OrderResult{Order: &newOrder, Items: items, Payment: payment}, nil
	}

	if payment.Status == models.PaymentStatusSuccess {
		ticketsIssued, err := s.finalizeSuccess(ctx, &newOrder, items)
		if err != nil {
			return nil, err
		}
		return &models.OrderResult{Order: &newOrder, Items: items, Tickets: ticketsIssued, Payment: payment}, nil
	}

	// Synchronous decline: compensate and report the failed order.
	s.compensate(ctx, &newOrder, req.SeatIDs, "payment declined: "+payment.Status, false)
	newOrder.Status = models.OrderStatusFailed
	return &models.OrderResult{Order: &newOrder, Items: items, Payment: payment}, nil
}

// snapshotSeats validates the requested seat set against the seating
// service's authoritative view and freezes prices. Strictly read-only.
func (s *OrderService) snapshotSeats(ctx context.Context, orderID string, req models.OrderRequest) ([]models.OrderItem, int64, error) {
	snapshot, err := s.Seating.FetchAvailability(ctx, req.EventID)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[string]models.SeatSnapshot, len(snapshot))
	for _, seat := range snapshot {
		byID[seat.SeatID] = seat
	}

	items := make([]models.OrderItem, 0, len(req.SeatIDs))
	var subtotal int64
	for _, seatID := range req.SeatIDs {
		seat, ok := byID[seatID]
		if !ok {
			return nil, 0, apperr.New(apperr.Client, fmt.Sprintf("seat %s not found for event %s", seatID, req.EventID))
		}
		if seat.Status != models.SeatStatusAvailable {
			return nil, 0, apperr.WithDetail(apperr.Client,
				fmt.Sprintf("seat %s is not available", seatID), seat.Status)
		}
		items = append(items, models.OrderItem{
			ItemID:         utils.GenerateItemID(),
			OrderID:        orderID,
			SeatID:         seat.SeatID,
			SeatCode:       seat.SeatCode,
			SeatPriceCents: seat.PriceCents,
		})
		subtotal += seat.PriceCents
	}

	return items, subtotal, nil
}

// finalizeSuccess runs the post-payment half of the saga: allocate, issue
// tickets, confirm, notify. Any failure here is a post-payment failure;
// money has moved, so compensation runs and the condition is logged as
// incident-worthy.
func (s *OrderService) finalizeSuccess(ctx context.Context, order *models.Order, items []models.OrderItem) ([]models.Ticket, error) {
	seatIDs := seatIDsOf(items)

	if err := s.Seating.Allocate(ctx, order.OrderID, order.EventID, seatIDs); err != nil {
		s.compensate(ctx, order, seatIDs, fmt.Sprintf("allocation failed after successful charge: %v", err), true)
		order.Status = models.OrderStatusFailed
		return nil, apperr.Wrap(apperr.PostPayment, "seat allocation failed after payment", err)
	}
	s.Logger.LogSaga("ALLOCATE", order.OrderID, fmt.Sprintf("allocated %d seats", len(seatIDs)))

	issued, err := s.Tickets.IssueForOrder(ctx, order, items)
	if err != nil {
		s.compensate(ctx, order, seatIDs, fmt.Sprintf("ticket issuance failed after successful charge: %v", err), true)
		order.Status = models.OrderStatusFailed
		return nil, apperr.Wrap(apperr.PostPayment, "ticket issuance failed after payment", err)
	}

	if err := s.DB.UpdateOrderStatus(ctx, order.OrderID, models.OrderStatusConfirmed); err != nil {
		// Tickets exist; releasing seats now would be worse. Left for
		// reconciliation.
		s.Logger.Error("ORDER", fmt.Sprintf("confirm write failed for order %s with tickets issued: %v", order.OrderID, err))
		return issued, apperr.Wrap(apperr.Internal, "confirm status write failed", err)
	}
	order.Status = models.OrderStatusConfirmed
	order.UpdatedAt = time.Now()

	s.Notifier.Dispatch(ctx, models.NotifyOrderConfirmed, order.OrderID, seatIDs)
	s.publishEvent(s.Topics.OrderConfirmed, *order)
	s.Logger.LogOrder("CONFIRMED", order.OrderID, "order confirmed and tickets issued")

	return issued, nil
}

// GetOrderWithDetails returns the order with its items and tickets.
func (s *OrderService) GetOrderWithDetails(ctx context.Context, orderID string) (*models.OrderWithDetails, error) {
	order, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "order lookup failed", err)
	}
	if order == nil {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("order %s not found", orderID))
	}

	items, err := s.DB.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "order items lookup failed", err)
	}

	tickets, err := s.DB.GetTicketsByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "tickets lookup failed", err)
	}

	return &models.OrderWithDetails{Order: order, Items: items, Tickets: tickets}, nil
}

func (s *OrderService) resultFor(ctx context.Context, order *models.Order) (*models.OrderResult, error) {
	items, err := s.DB.GetOrderItems(ctx, order.OrderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "order items lookup failed", err)
	}
	tickets, err := s.DB.GetTicketsByOrder(ctx, order.OrderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "tickets lookup failed", err)
	}
	return &models.OrderResult{Order: order, Items: items, Tickets: tickets}, nil
}

func (s *OrderService) forgetAdmission(ctx context.Context, idempotencyKey, orderID string) {
	if s.Guard == nil {
		return
	}
	if err := s.Guard.Forget(ctx, idempotencyKey, orderID); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("failed to drop admission claim for %s: %v", orderID, err))
	}
}

func (s *OrderService) publishEvent(topic string, order models.Order) {
	if s.Kafka == nil || topic == "" {
		return
	}
	if err := s.Kafka.PublishOrderEvent(topic, order); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("publish %s for order %s failed: %v", topic, order.OrderID, err))
	}
}

func seatIDsOf(items []models.OrderItem) []string {
	seatIDs := make([]string, len(items))
	for i, item := range items {
		seatIDs[i] = item.SeatID
	}
	return seatIDs
}
