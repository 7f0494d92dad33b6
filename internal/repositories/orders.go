package repositories

import (
	"context"
	"fmt"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// CreateOrder inserts a new order record.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	op := "Repository.CreateOrder"
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	query := `INSERT INTO orders (id, shop_id, product_id, shop_name, product_name,
			product_sku, customer_id, customer_name, unit_price, quantity,
			total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query,
		order.ID, order.ShopID, order.ProductID,
		order.ShopName, order.ProductName, order.ProductSKU,
		order.CustomerID, order.CustomerName,
		order.UnitPrice, order.Quantity, order.TotalAmount, order.Status).
		Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOrdersByCustomerID returns a customer's orders, newest first.
func (r *Repository) GetOrdersByCustomerID(ctx context.Context, customerID int64, limit int) ([]domain.Order, error) {
	op := "Repository.GetOrdersByCustomerID"
	query := `SELECT id, shop_id, product_id, shop_name, product_name, product_sku,
		customer_id, customer_name, unit_price, quantity, total_amount, status, created_at
		FROM orders WHERE customer_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.ShopID, &o.ProductID,
			&o.ShopName, &o.ProductName, &o.ProductSKU,
			&o.CustomerID, &o.CustomerName,
			&o.UnitPrice, &o.Quantity, &o.TotalAmount,
			&o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
