package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"MultiShopBot/internal/models/domain"

	"github.com/google/uuid"
)

// UserLoader supplies the initial bulk load for Warm.
type UserLoader func(ctx context.Context) ([]domain.User, error)

// UserCache keeps recently seen users and per-shop member sets in
// memory. Entries are populated lazily on lookup misses and overwritten
// on every corresponding write; Warm performs the explicit startup bulk
// load. It is safe for concurrent use.
type UserCache struct {
	mu          sync.RWMutex
	users       map[int64]domain.User
	shopMembers map[uuid.UUID]map[int64]struct{}
	log         *slog.Logger
}

// New creates an empty cache.
func New(logger *slog.Logger) *UserCache {
	return &UserCache{
		users:       make(map[int64]domain.User),
		shopMembers: make(map[uuid.UUID]map[int64]struct{}),
		log:         logger.With(slog.String("op", "cache.UserCache")),
	}
}

// Warm bulk-loads all known users. Must complete before the bot starts
// serving updates.
func (c *UserCache) Warm(ctx context.Context, load UserLoader) error {
	op := "UserCache.Warm"
	users, err := load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range users {
		c.users[u.TelegramID] = u
	}

	c.log.Info("user cache warmed", slog.Int("users", len(users)))
	return nil
}

// Get returns the cached user, if present.
func (c *UserCache) Get(telegramID int64) (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[telegramID]
	return u, ok
}

// Put overwrites the cached entry for a user.
func (c *UserCache) Put(user domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[user.TelegramID] = user
}

// SetLastShop updates the cached user's last interacted shop.
func (c *UserCache) SetLastShop(telegramID int64, shopID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[telegramID]
	if !ok {
		return
	}
	id := shopID
	u.LastShopID = &id
	c.users[telegramID] = u
}

// Invalidate drops a user from the cache.
func (c *UserCache) Invalidate(telegramID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, telegramID)
}

// AddShopMember records that a user belongs to a shop's audience.
func (c *UserCache) AddShopMember(shopID uuid.UUID, telegramID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	members, ok := c.shopMembers[shopID]
	if !ok {
		members = make(map[int64]struct{})
		c.shopMembers[shopID] = members
	}
	members[telegramID] = struct{}{}
}

// ShopMemberCount returns the number of known members of a shop.
func (c *UserCache) ShopMemberCount(shopID uuid.UUID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.shopMembers[shopID])
}
