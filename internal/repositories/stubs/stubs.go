// Package stubs provides an in-memory Gateway implementation for tests.
package stubs

import (
	"context"
	"sort"
	"sync"
	"time"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// Storage keeps every record in maps guarded by one mutex. Error
// fields let tests inject failures per operation.
type Storage struct {
	mu sync.Mutex

	Users      map[int64]domain.User
	Shops      map[uuid.UUID]domain.Shop
	Depts      map[int64]domain.Department // keyed by telegram chat ID
	Staff      map[uuid.UUID][]domain.StaffMember
	Categories map[uuid.UUID]domain.Category
	Products   map[uuid.UUID]domain.Product
	Orders     []domain.Order

	CreateCategoryErr error
	CreateProductErr  error
	CreateOrderErr    error
	CreateUserErr     error
}

func NewStorage() *Storage {
	return &Storage{
		Users:      make(map[int64]domain.User),
		Shops:      make(map[uuid.UUID]domain.Shop),
		Depts:      make(map[int64]domain.Department),
		Staff:      make(map[uuid.UUID][]domain.StaffMember),
		Categories: make(map[uuid.UUID]domain.Category),
		Products:   make(map[uuid.UUID]domain.Product),
	}
}

// AddShop is a test helper that stores an active shop and returns it.
func (s *Storage) AddShop(name string, ownerID int64) domain.Shop {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop := domain.Shop{
		ID:              uuid.New(),
		Name:            name,
		OwnerTelegramID: ownerID,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
	s.Shops[shop.ID] = shop
	return shop
}

func (s *Storage) FindUserByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[telegramID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *Storage) CreateUser(_ context.Context, user *domain.User) error {
	if s.CreateUserErr != nil {
		return s.CreateUserErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.Users[user.TelegramID] = *user
	return nil
}

func (s *Storage) UpdateUserShopInteraction(_ context.Context, telegramID int64, shopID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[telegramID]
	if !ok {
		return domain.ErrNotFound
	}
	id := shopID
	u.LastShopID = &id
	u.UpdatedAt = time.Now()
	s.Users[telegramID] = u
	return nil
}

func (s *Storage) GetAllUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, u)
	}
	return users, nil
}

func (s *Storage) GetShopByID(_ context.Context, shopID uuid.UUID) (*domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.Shops[shopID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &shop, nil
}

func (s *Storage) GetActiveShops(_ context.Context) ([]domain.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var shops []domain.Shop
	for _, shop := range s.Shops {
		if shop.IsActive {
			shops = append(shops, shop)
		}
	}
	sort.Slice(shops, func(i, j int) bool {
		return shops[i].CreatedAt.Before(shops[j].CreatedAt)
	})
	return shops, nil
}

func (s *Storage) FindDepartmentByChatID(_ context.Context, chatID int64) (*domain.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept, ok := s.Depts[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &dept, nil
}

func (s *Storage) GetCategoriesByShopID(_ context.Context, shopID uuid.UUID) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var categories []domain.Category
	for _, c := range s.Categories {
		if c.ShopID == shopID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].SortOrder < categories[j].SortOrder
	})
	return categories, nil
}

func (s *Storage) GetCategoryByID(_ context.Context, categoryID uuid.UUID) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Categories[categoryID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *Storage) CreateCategory(_ context.Context, category *domain.Category) error {
	if s.CreateCategoryErr != nil {
		return s.CreateCategoryErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	maxOrder := 0
	for _, c := range s.Categories {
		if c.ShopID == category.ShopID && c.SortOrder > maxOrder {
			maxOrder = c.SortOrder
		}
	}
	category.SortOrder = maxOrder + 1
	category.CreatedAt = time.Now()
	s.Categories[category.ID] = *category
	return nil
}

func (s *Storage) GetProductsByCategoryID(_ context.Context, shopID, categoryID uuid.UUID) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var products []domain.Product
	for _, p := range s.Products {
		if p.ShopID == shopID && p.CategoryID == categoryID {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	return products, nil
}

func (s *Storage) GetProductByID(_ context.Context, productID uuid.UUID) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *Storage) CreateProduct(_ context.Context, product *domain.Product) error {
	if s.CreateProductErr != nil {
		return s.CreateProductErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	s.Products[product.ID] = *product
	return nil
}

func (s *Storage) CreateOrder(_ context.Context, order *domain.Order) error {
	if s.CreateOrderErr != nil {
		return s.CreateOrderErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	s.Orders = append(s.Orders, *order)
	return nil
}

func (s *Storage) GetOrdersByCustomerID(_ context.Context, customerID int64, limit int) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []domain.Order
	for i := len(s.Orders) - 1; i >= 0 && len(orders) < limit; i-- {
		if s.Orders[i].CustomerID == customerID {
			orders = append(orders, s.Orders[i])
		}
	}
	return orders, nil
}

func (s *Storage) AddStaffMember(_ context.Context, shopID uuid.UUID, telegramID int64, role domain.StaffRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.Staff[shopID] {
		if m.TelegramID == telegramID {
			return nil
		}
	}
	s.Staff[shopID] = append(s.Staff[shopID], domain.StaffMember{
		ID:         uuid.New(),
		ShopID:     shopID,
		TelegramID: telegramID,
		Role:       role,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Storage) FindStaffMember(_ context.Context, shopID uuid.UUID, telegramID int64) (*domain.StaffMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.Staff[shopID] {
		if m.TelegramID == telegramID {
			member := m
			return &member, nil
		}
	}
	return nil, domain.ErrNotFound
}
