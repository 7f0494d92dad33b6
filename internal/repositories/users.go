package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// CreateUser inserts a new user record.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	op := "Repository.CreateUser"
	query := `INSERT INTO users (telegram_id, username, first_name, last_name, last_shop_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		user.TelegramID, user.Username, user.FirstName, user.LastName, user.LastShopID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindUserByTelegramID returns a user by Telegram ID.
func (r *Repository) FindUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	op := "Repository.FindUserByTelegramID"
	var user domain.User
	query := `SELECT telegram_id, username, first_name, last_name, last_shop_id,
		created_at, updated_at
		FROM users WHERE telegram_id = $1`
	err := r.DB.QueryRowContext(ctx, query, telegramID).
		Scan(&user.TelegramID, &user.Username, &user.FirstName,
			&user.LastName, &user.LastShopID,
			&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// GetAllUsers returns every known user. Used for the startup cache warm.
func (r *Repository) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	op := "Repository.GetAllUsers"
	query := `SELECT telegram_id, username, first_name, last_name, last_shop_id,
		created_at, updated_at
		FROM users`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.TelegramID, &u.Username, &u.FirstName,
			&u.LastName, &u.LastShopID,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// UpdateUserShopInteraction records that a user interacted with a shop:
// sets the user's last shop and upserts the user_shops timestamp.
func (r *Repository) UpdateUserShopInteraction(ctx context.Context, telegramID int64, shopID uuid.UUID) error {
	op := "Repository.UpdateUserShopInteraction"
	query := `UPDATE users SET last_shop_id = $2, updated_at = now()
		WHERE telegram_id = $1`
	if _, err := r.DB.ExecContext(ctx, query, telegramID, shopID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query = `INSERT INTO user_shops (telegram_id, shop_id, last_interacted)
		VALUES ($1, $2, now())
		ON CONFLICT (telegram_id, shop_id)
		DO UPDATE SET last_interacted = now()`
	if _, err := r.DB.ExecContext(ctx, query, telegramID, shopID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
