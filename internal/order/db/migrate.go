package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-orders/internal/models"
)

// CreateTables creates the order schema with bun's model definitions.
// Production deployments run the SQL migrations instead; this path serves
// tests and local bootstrap.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Ticket)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
