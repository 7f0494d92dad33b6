package telegram

import (
	"context"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// Gateway is the persistence surface the bot depends on. It is
// implemented by repositories.Repository and, for tests, by the
// in-memory stub in repositories/stubs.
type Gateway interface {
	FindUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	UpdateUserShopInteraction(ctx context.Context, telegramID int64, shopID uuid.UUID) error

	GetShopByID(ctx context.Context, shopID uuid.UUID) (*domain.Shop, error)
	GetActiveShops(ctx context.Context) ([]domain.Shop, error)
	FindDepartmentByChatID(ctx context.Context, chatID int64) (*domain.Department, error)

	GetCategoriesByShopID(ctx context.Context, shopID uuid.UUID) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error

	GetProductsByCategoryID(ctx context.Context, shopID, categoryID uuid.UUID) ([]domain.Product, error)
	GetProductByID(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error

	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrdersByCustomerID(ctx context.Context, customerID int64, limit int) ([]domain.Order, error)

	FindStaffMember(ctx context.Context, shopID uuid.UUID, telegramID int64) (*domain.StaffMember, error)
	AddStaffMember(ctx context.Context, shopID uuid.UUID, telegramID int64, role domain.StaffRole) error
}
