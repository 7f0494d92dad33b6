package telegram

import (
	"context"
	"errors"
	"testing"

	"MultiShopBot/internal/models/domain"
	"MultiShopBot/internal/repositories/stubs"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callbackFrom(userID, chatID int64) *models.CallbackQuery {
	return &models.CallbackQuery{
		ID:   "cb-1",
		From: models.User{ID: userID, Username: "buyer", FirstName: "Bea"},
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 42, Chat: models.Chat{ID: chatID}},
		},
	}
}

func TestPlaceOrder_CreatesDenormalizedPendingOrder(t *testing.T) {
	storage := stubs.NewStorage()
	shop := storage.AddShop("Coffee Corner", 100)
	product := &domain.Product{
		ShopID: shop.ID, CategoryID: shop.ID, Name: "Espresso",
		Price: 3.5, Stock: 20, IsActive: true,
	}
	require.NoError(t, storage.CreateProduct(context.Background(), product))

	b := newTestBot(storage)
	ctx := context.Background()
	buyerID := int64(700)

	b.placeOrder(ctx, callbackFrom(buyerID, 500), 500, buyerID, product.ID)

	orders, err := storage.GetOrdersByCustomerID(ctx, buyerID, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "Espresso", o.ProductName)
	assert.Equal(t, "Coffee Corner", o.ShopName)
	assert.Equal(t, "Bea", o.CustomerName)
	assert.Equal(t, 1, o.Quantity)
	assert.InDelta(t, 3.5, o.TotalAmount, 0.001)
	assert.Equal(t, domain.OrderStatusPending, o.Status)

	// Ordering registered the buyer as a user.
	_, err = storage.FindUserByTelegramID(ctx, buyerID)
	assert.NoError(t, err)
}

func TestPlaceOrder_RejectsUnorderableProduct(t *testing.T) {
	storage := stubs.NewStorage()
	shop := storage.AddShop("Coffee Corner", 100)
	product := &domain.Product{
		ShopID: shop.ID, CategoryID: shop.ID, Name: "Mocha",
		Price: 4.5, Stock: 0, IsActive: true,
	}
	require.NoError(t, storage.CreateProduct(context.Background(), product))

	b := newTestBot(storage)
	buyerID := int64(700)

	b.placeOrder(context.Background(), callbackFrom(buyerID, 500), 500, buyerID, product.ID)

	orders, err := storage.GetOrdersByCustomerID(context.Background(), buyerID, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_PersistenceFailureWritesNothing(t *testing.T) {
	storage := stubs.NewStorage()
	shop := storage.AddShop("Coffee Corner", 100)
	product := &domain.Product{
		ShopID: shop.ID, CategoryID: shop.ID, Name: "Espresso",
		Price: 3.5, Stock: 20, IsActive: true,
	}
	require.NoError(t, storage.CreateProduct(context.Background(), product))
	storage.CreateOrderErr = errors.New("db down")

	b := newTestBot(storage)
	buyerID := int64(700)

	b.placeOrder(context.Background(), callbackFrom(buyerID, 500), 500, buyerID, product.ID)

	assert.Empty(t, storage.Orders)
}

func TestGetOrCreateUser_RegistersOnceAndCaches(t *testing.T) {
	storage := stubs.NewStorage()
	b := newTestBot(storage)
	ctx := context.Background()

	from := &models.User{ID: 700, Username: "buyer", FirstName: "Bea", LastName: "Jones"}

	u1, err := b.getOrCreateUser(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, "Bea Jones", u1.DisplayName())

	_, ok := b.users.Get(700)
	assert.True(t, ok, "resolved user must land in the cache")

	// Second resolve hits the cache, no duplicate write.
	u2, err := b.getOrCreateUser(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, u1.TelegramID, u2.TelegramID)

	all, err := storage.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestShowShopMenu_RecordsInteraction(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()
	buyer := &models.User{ID: 700, Username: "buyer", FirstName: "Bea"}

	_, err := b.getOrCreateUser(ctx, buyer)
	require.NoError(t, err)

	require.NoError(t, b.showShopMenu(ctx, 500, 0, buyer.ID, buyer.Username, shop.ID))

	stored, err := storage.FindUserByTelegramID(ctx, buyer.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastShopID)
	assert.Equal(t, shop.ID, *stored.LastShopID)

	cached, ok := b.users.Get(buyer.ID)
	require.True(t, ok)
	require.NotNil(t, cached.LastShopID)
	assert.Equal(t, shop.ID, *cached.LastShopID)

	assert.Equal(t, 1, b.users.ShopMemberCount(shop.ID))

	nav := b.sessions.navFor(buyer.ID)
	assert.Equal(t, ViewShopMenu, nav.View)
	assert.Equal(t, shop.ID, nav.ShopID)
}

func TestHandleNewChatMembers_TracksDepartmentJoins(t *testing.T) {
	storage := stubs.NewStorage()
	shop := storage.AddShop("Coffee Corner", 100)
	storage.Depts[-900] = domain.Department{
		ShopID: shop.ID, Name: "Baristas", TelegramChatID: -900,
	}

	b := newTestBot(storage)
	ctx := context.Background()

	msg := &models.Message{
		Chat: models.Chat{ID: -900},
		NewChatMembers: []models.User{
			{ID: 700, Username: "buyer", FirstName: "Bea"},
			{ID: 701, Username: "helper_bot", IsBot: true},
		},
	}
	b.handleNewChatMembers(ctx, msg)

	_, err := storage.FindUserByTelegramID(ctx, 700)
	assert.NoError(t, err)
	_, err = storage.FindUserByTelegramID(ctx, 701)
	assert.ErrorIs(t, err, domain.ErrNotFound, "bots are not tracked")

	assert.Equal(t, 1, b.users.ShopMemberCount(shop.ID))
}

func TestHandleAddStaff(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()
	b.sessions.setNav(ownerID, NavigationContext{ShopID: shop.ID, View: ViewShopMenu})

	msg := commandMessage(ownerID, 500, "/addstaff 700 admin")
	require.NoError(t, b.handleAddStaff(ctx, msg))

	member, err := storage.FindStaffMember(ctx, shop.ID, 700)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, member.Role)

	// Staff themselves cannot appoint staff.
	b.sessions.setNav(700, NavigationContext{ShopID: shop.ID, View: ViewShopMenu})
	msg = commandMessage(700, 500, "/addstaff 800")
	require.NoError(t, b.handleAddStaff(ctx, msg))
	_, err = storage.FindStaffMember(ctx, shop.ID, 800)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Bad role is rejected.
	msg = commandMessage(ownerID, 500, "/addstaff 800 janitor")
	require.NoError(t, b.handleAddStaff(ctx, msg))
	_, err = storage.FindStaffMember(ctx, shop.ID, 800)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleChatMemberUpdate_TracksDepartmentJoins(t *testing.T) {
	storage := stubs.NewStorage()
	shop := storage.AddShop("Coffee Corner", 100)
	storage.Depts[-900] = domain.Department{
		ShopID: shop.ID, Name: "Baristas", TelegramChatID: -900,
	}

	b := newTestBot(storage)
	ctx := context.Background()

	upd := &models.ChatMemberUpdated{
		Chat: models.Chat{ID: -900},
		NewChatMember: models.ChatMember{
			Member: &models.ChatMemberMember{
				User: &models.User{ID: 700, Username: "buyer", FirstName: "Bea"},
			},
		},
	}
	b.handleChatMemberUpdate(ctx, upd)

	stored, err := storage.FindUserByTelegramID(ctx, 700)
	require.NoError(t, err)
	require.NotNil(t, stored.LastShopID)
	assert.Equal(t, shop.ID, *stored.LastShopID)
	assert.Equal(t, 1, b.users.ShopMemberCount(shop.ID))

	// Bots and non-department chats are ignored.
	b.handleChatMemberUpdate(ctx, &models.ChatMemberUpdated{
		Chat: models.Chat{ID: -900},
		NewChatMember: models.ChatMember{
			Member: &models.ChatMemberMember{
				User: &models.User{ID: 701, Username: "helper_bot", IsBot: true},
			},
		},
	})
	b.handleChatMemberUpdate(ctx, &models.ChatMemberUpdated{
		Chat: models.Chat{ID: -123},
		NewChatMember: models.ChatMember{
			Member: &models.ChatMemberMember{
				User: &models.User{ID: 702, Username: "passerby"},
			},
		},
	})
	assert.Equal(t, 1, b.users.ShopMemberCount(shop.ID))
	_, err = storage.FindUserByTelegramID(ctx, 702)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleNewChatMembers_IgnoresUnknownChats(t *testing.T) {
	storage := stubs.NewStorage()
	b := newTestBot(storage)

	msg := &models.Message{
		Chat:           models.Chat{ID: -123},
		NewChatMembers: []models.User{{ID: 700, Username: "buyer"}},
	}
	b.handleNewChatMembers(context.Background(), msg)

	all, err := storage.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
