package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CreateProduct inserts a new product record.
func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	op := "Repository.CreateProduct"
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	query := `INSERT INTO products (id, shop_id, category_id, name, description, sku,
			price, stock, is_active, low_stock_threshold, images, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query,
		product.ID, product.ShopID, product.CategoryID,
		product.Name, product.Description, product.SKU,
		product.Price, product.Stock, product.IsActive,
		product.LowStockThreshold, pq.Array(product.Images), product.CreatedBy).
		Scan(&product.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetProductByID returns a product by ID.
func (r *Repository) GetProductByID(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	op := "Repository.GetProductByID"
	var p domain.Product
	query := `SELECT id, shop_id, category_id, name, description, sku,
		price, stock, is_active, low_stock_threshold, images, created_by, created_at
		FROM products WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, productID).
		Scan(&p.ID, &p.ShopID, &p.CategoryID, &p.Name, &p.Description, &p.SKU,
			&p.Price, &p.Stock, &p.IsActive, &p.LowStockThreshold,
			pq.Array(&p.Images), &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetProductsByCategoryID returns all products of a category within a
// shop, oldest first. Availability filtering is left to the presenter.
func (r *Repository) GetProductsByCategoryID(ctx context.Context, shopID, categoryID uuid.UUID) ([]domain.Product, error) {
	op := "Repository.GetProductsByCategoryID"
	query := `SELECT id, shop_id, category_id, name, description, sku,
		price, stock, is_active, low_stock_threshold, images, created_by, created_at
		FROM products WHERE shop_id = $1 AND category_id = $2
		ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, shopID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.CategoryID,
			&p.Name, &p.Description, &p.SKU,
			&p.Price, &p.Stock, &p.IsActive, &p.LowStockThreshold,
			pq.Array(&p.Images), &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		products = append(products, p)
	}
	return products, nil
}
