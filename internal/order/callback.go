package order

import (
	"context"
	"fmt"

	"ms-orders/internal/apperr"
	"ms-orders/internal/models"
)

// HandlePaymentCallback is the asynchronous entry into the order state
// machine. The PENDING-only guard makes it safe against duplicate
// callbacks and against racing the synchronous charge response: only the
// first caller to observe PENDING performs side effects, everyone else
// gets the current order back.
func (s *OrderService) HandlePaymentCallback(ctx context.Context, cb models.PaymentCallback) (*models.OrderWithDetails, error) {
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Status == "" {
		return nil, apperr.New(apperr.Client, "order_id, payment_id and status are required")
	}

	order, err := s.DB.GetOrderByID(ctx, cb.OrderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "order lookup failed", err)
	}
	if order == nil {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("order %s not found", cb.OrderID))
	}

	if order.Status != models.OrderStatusPending {
		s.Logger.LogOrder("CALLBACK", order.OrderID,
			fmt.Sprintf("already processed (status %s), payment %s ignored", order.Status, cb.PaymentID))
		return s.GetOrderWithDetails(ctx, order.OrderID)
	}

	items, err := s.DB.GetOrderItems(ctx, order.OrderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "order items lookup failed", err)
	}
	seatIDs := seatIDsOf(items)

	if cb.Status == models.PaymentStatusSuccess {
		if _, err := s.finalizeSuccess(ctx, order, items); err != nil {
			return nil, err
		}
		return s.GetOrderWithDetails(ctx, order.OrderID)
	}

	// Declined, cancelled or anything unrecognized: the order fails and
	// the hold is given back.
	s.compensate(ctx, order, seatIDs, "payment callback status "+cb.Status, false)
	return s.GetOrderWithDetails(ctx, order.OrderID)
}
