package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// CreateCategory inserts a new category, assigning it an ID and the
// next sort-order index within its shop.
func (r *Repository) CreateCategory(ctx context.Context, category *domain.Category) error {
	op := "Repository.CreateCategory"
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	query := `INSERT INTO categories (id, shop_id, name, description, icon, sort_order, created_by)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories WHERE shop_id = $2),
			$6)
		RETURNING sort_order, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		category.ID, category.ShopID, category.Name,
		category.Description, category.Icon, category.CreatedBy).
		Scan(&category.SortOrder, &category.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetCategoryByID returns a category by ID.
func (r *Repository) GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (*domain.Category, error) {
	op := "Repository.GetCategoryByID"
	var c domain.Category
	query := `SELECT id, shop_id, name, description, icon, sort_order, created_by, created_at
		FROM categories WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, categoryID).
		Scan(&c.ID, &c.ShopID, &c.Name, &c.Description,
			&c.Icon, &c.SortOrder, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// GetCategoriesByShopID returns a shop's categories ordered by sort
// order; ties keep their creation order.
func (r *Repository) GetCategoriesByShopID(ctx context.Context, shopID uuid.UUID) ([]domain.Category, error) {
	op := "Repository.GetCategoriesByShopID"
	query := `SELECT id, shop_id, name, description, icon, sort_order, created_by, created_at
		FROM categories WHERE shop_id = $1
		ORDER BY sort_order, created_at`
	rows, err := r.DB.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.ShopID, &c.Name, &c.Description,
			&c.Icon, &c.SortOrder, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}
