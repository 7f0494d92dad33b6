package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// FindStaffMember returns the staff record for a user in a shop.
func (r *Repository) FindStaffMember(ctx context.Context, shopID uuid.UUID, telegramID int64) (*domain.StaffMember, error) {
	op := "Repository.FindStaffMember"
	var m domain.StaffMember
	query := `SELECT id, shop_id, telegram_id, role, created_at
		FROM staff WHERE shop_id = $1 AND telegram_id = $2`
	err := r.DB.QueryRowContext(ctx, query, shopID, telegramID).
		Scan(&m.ID, &m.ShopID, &m.TelegramID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

// AddStaffMember grants a role in a shop. Ignores conflicts.
func (r *Repository) AddStaffMember(ctx context.Context, shopID uuid.UUID, telegramID int64, role domain.StaffRole) error {
	op := "Repository.AddStaffMember"
	query := `INSERT INTO staff (id, shop_id, telegram_id, role)
		VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query, uuid.New(), shopID, telegramID, role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
