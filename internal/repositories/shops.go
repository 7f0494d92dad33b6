package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// GetShopByID returns a shop by ID.
func (r *Repository) GetShopByID(ctx context.Context, shopID uuid.UUID) (*domain.Shop, error) {
	op := "Repository.GetShopByID"
	var shop domain.Shop
	query := `SELECT id, name, description, owner_telegram_id, is_active,
		created_at, updated_at
		FROM shops WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, shopID).
		Scan(&shop.ID, &shop.Name, &shop.Description,
			&shop.OwnerTelegramID, &shop.IsActive,
			&shop.CreatedAt, &shop.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &shop, nil
}

// GetActiveShops returns all active shops, oldest first.
func (r *Repository) GetActiveShops(ctx context.Context) ([]domain.Shop, error) {
	op := "Repository.GetActiveShops"
	query := `SELECT id, name, description, owner_telegram_id, is_active,
		created_at, updated_at
		FROM shops WHERE is_active ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var shops []domain.Shop
	for rows.Next() {
		var s domain.Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Description,
			&s.OwnerTelegramID, &s.IsActive,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		shops = append(shops, s)
	}
	return shops, nil
}

// FindDepartmentByChatID returns the department bound to a Telegram group chat.
func (r *Repository) FindDepartmentByChatID(ctx context.Context, chatID int64) (*domain.Department, error) {
	op := "Repository.FindDepartmentByChatID"
	var dept domain.Department
	query := `SELECT id, shop_id, name, telegram_chat_id, created_at
		FROM departments WHERE telegram_chat_id = $1`
	err := r.DB.QueryRowContext(ctx, query, chatID).
		Scan(&dept.ID, &dept.ShopID, &dept.Name,
			&dept.TelegramChatID, &dept.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &dept, nil
}
