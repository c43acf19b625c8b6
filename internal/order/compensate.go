package order

import (
	"context"
	"fmt"

	"ms-orders/internal/models"
)

// compensate unwinds an order that reached an unrecoverable point after a
// hold and/or a charge was attempted: release the seats, mark the order
// FAILED, notify. The three steps are independent; a release or notify
// failure is logged and never prevents the FAILED write, because an order
// must always reach a terminal status.
func (s *OrderService) compensate(ctx context.Context, order *models.Order, seatIDs []string, reason string, postPayment bool) {
	s.Logger.LogCompensation(order.OrderID, reason, postPayment)

	s.releaseBestEffort(ctx, order.OrderID, order.EventID, seatIDs)

	if err := s.DB.UpdateOrderStatus(ctx, order.OrderID, models.OrderStatusFailed); err != nil {
		// The order is stuck PENDING; the reconciliation sweep picks it
		// up from the seating service's hold expiry.
		s.Logger.Error("COMPENSATE", fmt.Sprintf("failed to mark order %s FAILED: %v", order.OrderID, err))
	} else {
		order.Status = models.OrderStatusFailed
	}

	s.Notifier.Dispatch(ctx, models.NotifyOrderFailed, order.OrderID, seatIDs)

	failed := *order
	failed.Status = models.OrderStatusFailed
	s.publishEvent(s.Topics.OrderFailed, failed)
}

func (s *OrderService) releaseBestEffort(ctx context.Context, orderID, eventID string, seatIDs []string) {
	if len(seatIDs) == 0 {
		return
	}
	if err := s.Seating.Release(ctx, orderID, eventID, seatIDs); err != nil {
		s.Logger.Warn("COMPENSATE", fmt.Sprintf("seat release failed for order %s (left for reconciliation): %v", orderID, err))
		return
	}
	s.Logger.LogSaga("RELEASE", orderID, fmt.Sprintf("released %d seats", len(seatIDs)))
}
