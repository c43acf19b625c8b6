package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-orders/internal/logger"
	"ms-orders/internal/models"
	"ms-orders/internal/order/db"
	"ms-orders/internal/tickets/qr"
	"ms-orders/internal/utils"
)

const codeRetryLimit = 3

type TicketDBLayer interface {
	InsertTicket(ctx context.Context, ticket models.Ticket) error
	GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error)
}

// TicketService issues one ticket per seat of a confirming order. It runs
// only behind the PENDING-only callback guard, so it never executes twice
// for the same order.
type TicketService struct {
	DB     TicketDBLayer
	QR     *qr.Generator
	Logger *logger.Logger
}

func NewTicketService(database TicketDBLayer, generator *qr.Generator, log *logger.Logger) *TicketService {
	return &TicketService{DB: database, QR: generator, Logger: log}
}

// IssueForOrder persists one ticket per order item. A ticket-code
// collision at the storage layer is retried with a fresh code.
func (s *TicketService) IssueForOrder(ctx context.Context, order *models.Order, items []models.OrderItem) ([]models.Ticket, error) {
	issued := make([]models.Ticket, 0, len(items))

	for _, item := range items {
		ticket, err := s.issueOne(ctx, order.OrderID, item.SeatID)
		if err != nil {
			return issued, fmt.Errorf("issue ticket for seat %s: %w", item.SeatID, err)
		}
		issued = append(issued, *ticket)
	}

	s.Logger.LogOrder("TICKETS", order.OrderID, fmt.Sprintf("issued %d tickets", len(issued)))
	return issued, nil
}

func (s *TicketService) issueOne(ctx context.Context, orderID, seatID string) (*models.Ticket, error) {
	var lastErr error

	for attempt := 0; attempt < codeRetryLimit; attempt++ {
		ticket := models.Ticket{
			TicketID:   uuid.NewString(),
			OrderID:    orderID,
			SeatID:     seatID,
			TicketCode: utils.GenerateTicketCode(),
			IssuedAt:   time.Now(),
		}

		if s.QR != nil {
			qrBytes, err := s.QR.GenerateEncryptedQR(ticket)
			if err != nil {
				return nil, fmt.Errorf("generate QR: %w", err)
			}
			ticket.QRCode = qrBytes
		}

		err := s.DB.InsertTicket(ctx, ticket)
		if err == nil {
			return &ticket, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, err
		}

		// Code collision: regenerate and try again.
		s.Logger.Warn("TICKETS", fmt.Sprintf("ticket code collision for order %s seat %s, regenerating", orderID, seatID))
		lastErr = err
	}

	return nil, fmt.Errorf("ticket code collisions exhausted retries: %w", lastErr)
}

func (s *TicketService) GetTicketsByOrder(ctx context.Context, orderID string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets for order %s: %w", orderID, err)
	}
	return tickets, nil
}
