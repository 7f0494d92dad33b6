package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"MultiShopBot/internal/cache"
	"MultiShopBot/internal/config"
	"MultiShopBot/internal/models/domain"
	"MultiShopBot/internal/repositories/stubs"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests drive the handlers directly against in-memory storage; the
// Telegram API client stays nil, so nothing is sent anywhere.

func newTestBot(storage *stubs.Storage) *Bot {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		cfg: &config.Config{
			BotConfig: config.BotConfig{SuperAdmins: []string{"root_admin"}},
		},
		gw:       storage,
		users:    cache.New(log),
		sessions: newSessionStore(),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}
}

func textMessage(userID, chatID int64, text string) *models.Message {
	return &models.Message{
		From: &models.User{ID: userID, Username: "someone", FirstName: "Some"},
		Chat: models.Chat{ID: chatID},
		Text: text,
	}
}

func commandMessage(userID, chatID int64, text string) *models.Message {
	msg := textMessage(userID, chatID, text)
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	msg.Entities = []models.MessageEntity{{
		Type:   models.MessageEntityTypeBotCommand,
		Offset: 0,
		Length: cmdLen,
	}}
	return msg
}

func photoMessage(userID, chatID int64, fileID string) *models.Message {
	msg := textMessage(userID, chatID, "")
	msg.Photo = []models.PhotoSize{
		{FileID: fileID + "-small"},
		{FileID: fileID},
	}
	return msg
}

func TestCategoryWizard_HappyPath(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()
	chatID := int64(500)

	require.NoError(t, b.startCategoryWizard(ctx, chatID, ownerID, &shop))

	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "Drinks"))
	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "Hot and cold drinks"))
	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "☕"))

	categories, err := storage.GetCategoriesByShopID(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Drinks", categories[0].Name)
	assert.Equal(t, "Hot and cold drinks", categories[0].Description)
	assert.Equal(t, "☕", categories[0].Icon)
	assert.Equal(t, 1, categories[0].SortOrder)
	assert.Equal(t, ownerID, categories[0].CreatedBy)

	_, active := b.sessions.wizard(ownerID)
	assert.False(t, active, "session must end after completion")
}

func TestCategoryWizard_SkipOptionalFields(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startCategoryWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Snacks"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "skip"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "-"))

	categories, err := storage.GetCategoriesByShopID(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Empty(t, categories[0].Description)
	assert.Equal(t, domain.DefaultCategoryIcon, categories[0].Icon)
}

func TestCategoryWizard_RejectsShortName(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startCategoryWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "x"))

	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok)
	assert.Equal(t, StepCategoryName, sess.Step, "invalid input must not advance the step")

	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Tea"))
	sess, _ = b.sessions.wizard(ownerID)
	assert.Equal(t, StepCategoryDescription, sess.Step)
}

func TestCategoryWizard_PersistenceFailureKeepsSession(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startCategoryWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Drinks"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "skip"))

	storage.CreateCategoryErr = errors.New("db down")
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "☕"))

	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok, "failed write must keep the session for a retry")
	assert.Equal(t, StepCategoryIcon, sess.Step)

	storage.CreateCategoryErr = nil
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "☕"))

	categories, err := storage.GetCategoriesByShopID(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 1, "retry must not create duplicates")
	_, active := b.sessions.wizard(ownerID)
	assert.False(t, active)
}

func TestProductWizard_EndToEnd(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)
	category := &domain.Category{ShopID: shop.ID, Name: "Drinks", Icon: "☕", CreatedBy: ownerID}
	require.NoError(t, storage.CreateCategory(context.Background(), category))

	b := newTestBot(storage)
	ctx := context.Background()
	chatID := int64(500)

	require.NoError(t, b.startProductWizard(ctx, chatID, ownerID, &shop))

	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "Espresso"))
	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "Strong and short"))
	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "$3.50"))
	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "20"))

	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok)
	require.Equal(t, StepProductCategory, sess.Step)

	b.handleWizardCategoryChoice(ctx, chatID, ownerID, category.ID)

	b.handleWizardPhoto(ctx, photoMessage(ownerID, chatID, "photo-1"))
	b.handleWizardPhoto(ctx, photoMessage(ownerID, chatID, "photo-2"))
	b.handleWizardInput(ctx, textMessage(ownerID, chatID, "done"))

	products, err := storage.GetProductsByCategoryID(ctx, shop.ID, category.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "Espresso", p.Name)
	assert.Equal(t, "Strong and short", p.Description)
	assert.InDelta(t, 3.50, p.Price, 0.001)
	assert.Equal(t, 20, p.Stock)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{"photo-1", "photo-2"}, p.Images, "largest photo size wins")
	assert.Equal(t, domain.DefaultLowStockThreshold, p.LowStockThreshold)

	_, active := b.sessions.wizard(ownerID)
	assert.False(t, active)
}

func TestProductWizard_InvalidPriceAndStockReprompt(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startProductWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Espresso"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "skip"))

	for _, bad := range []string{"abc", "0", "-2"} {
		b.handleWizardInput(ctx, textMessage(ownerID, 500, bad))
		sess, ok := b.sessions.wizard(ownerID)
		require.True(t, ok)
		assert.Equal(t, StepProductPrice, sess.Step, "price %q must be rejected", bad)
	}

	b.handleWizardInput(ctx, textMessage(ownerID, 500, "4.20"))

	for _, bad := range []string{"lots", "-1", "2.5"} {
		b.handleWizardInput(ctx, textMessage(ownerID, 500, bad))
		sess, ok := b.sessions.wizard(ownerID)
		require.True(t, ok)
		assert.Equal(t, StepProductStock, sess.Step, "stock %q must be rejected", bad)
	}

	b.handleWizardInput(ctx, textMessage(ownerID, 500, "0"))
	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok)
	assert.Equal(t, StepProductCategory, sess.Step, "zero stock is a valid value")
}

func TestProductWizard_NestedCategoryCreatedBeforeImages(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startProductWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Latte"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "skip"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "4.00"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "10"))

	b.handleWizardNewCategoryChoice(ctx, 500, ownerID)
	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok)
	require.Equal(t, StepProductNewCategoryName, sess.Step)

	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Drinks"))

	// The category must exist before the product flow moves on.
	categories, err := storage.GetCategoriesByShopID(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Drinks", categories[0].Name)

	sess, ok = b.sessions.wizard(ownerID)
	require.True(t, ok)
	assert.Equal(t, StepProductImages, sess.Step)
	assert.Equal(t, categories[0].ID.String(), sess.Fields["categoryID"])

	b.handleWizardInput(ctx, textMessage(ownerID, 500, "skip"))

	products, err := storage.GetProductsByCategoryID(ctx, shop.ID, categories[0].ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Empty(t, products[0].Images)
}

func TestProductWizard_RejectsForeignCategory(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)
	otherShop := storage.AddShop("Book Nook", 200)
	foreign := &domain.Category{ShopID: otherShop.ID, Name: "Fiction", Icon: "📚", CreatedBy: 200}
	require.NoError(t, storage.CreateCategory(context.Background(), foreign))

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startProductWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Latte"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "skip"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "4.00"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "10"))

	b.handleWizardCategoryChoice(ctx, 500, ownerID, foreign.ID)

	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok)
	assert.Equal(t, StepProductCategory, sess.Step, "a foreign category must not be accepted")
}

func TestProductWizard_PersistenceFailureRetriesWithDone(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)
	category := &domain.Category{ShopID: shop.ID, Name: "Drinks", Icon: "☕", CreatedBy: ownerID}
	require.NoError(t, storage.CreateCategory(context.Background(), category))

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startProductWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Espresso"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "skip"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "3.50"))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "20"))
	b.handleWizardCategoryChoice(ctx, 500, ownerID, category.ID)

	storage.CreateProductErr = errors.New("db down")
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "done"))

	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok, "failed write must keep the session")
	assert.Equal(t, StepProductImages, sess.Step)

	storage.CreateProductErr = nil
	b.handleWizardDone(ctx, 500, ownerID)

	products, err := storage.GetProductsByCategoryID(ctx, shop.ID, category.ID)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestWizard_CancelWritesNothing(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startCategoryWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Drinks"))
	b.cancelWizard(ctx, 500, ownerID)

	categories, err := storage.GetCategoriesByShopID(ctx, shop.ID)
	require.NoError(t, err)
	assert.Empty(t, categories)
	_, active := b.sessions.wizard(ownerID)
	assert.False(t, active)
}

func TestWizard_AnyCommandAborts(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startCategoryWizard(ctx, 500, ownerID, &shop))

	update := &models.Update{Message: commandMessage(ownerID, 500, "/help")}
	require.NoError(t, b.commandHandler(ctx, update))

	_, active := b.sessions.wizard(ownerID)
	assert.False(t, active, "any command must abort the wizard")
}

func TestWizard_UnauthorizedUserGetsNoSession(t *testing.T) {
	storage := stubs.NewStorage()
	shop := storage.AddShop("Coffee Corner", 100)

	b := newTestBot(storage)
	ctx := context.Background()
	strangerID := int64(999)

	b.sessions.setNav(strangerID, NavigationContext{ShopID: shop.ID, View: ViewShopMenu})

	update := &models.Update{Message: commandMessage(strangerID, 500, "/newcategory")}
	require.NoError(t, b.commandHandler(ctx, update))

	_, active := b.sessions.wizard(strangerID)
	assert.False(t, active, "permission check must precede session creation")
}

func TestWizard_SecondFlowReplacesFirst(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startCategoryWizard(ctx, 500, ownerID, &shop))
	b.handleWizardInput(ctx, textMessage(ownerID, 500, "Drinks"))

	require.NoError(t, b.startProductWizard(ctx, 500, ownerID, &shop))

	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok)
	assert.Equal(t, FlowNewProduct, sess.Flow)
	assert.Equal(t, StepProductName, sess.Step)
	assert.Empty(t, sess.Fields, "replaced session must not leak fields")
}

func TestWizard_PhotoOutsideImagesStepDoesNotAdvance(t *testing.T) {
	storage := stubs.NewStorage()
	ownerID := int64(100)
	shop := storage.AddShop("Coffee Corner", ownerID)

	b := newTestBot(storage)
	ctx := context.Background()

	require.NoError(t, b.startProductWizard(ctx, 500, ownerID, &shop))
	b.handleWizardPhoto(ctx, photoMessage(ownerID, 500, "too-early"))

	sess, ok := b.sessions.wizard(ownerID)
	require.True(t, ok)
	assert.Equal(t, StepProductName, sess.Step)
	assert.Empty(t, sess.Images)
}

func TestValidators(t *testing.T) {
	t.Run("price", func(t *testing.T) {
		for in, want := range map[string]float64{"3.50": 3.5, "$7": 7, " 0.01 ": 0.01} {
			got, err := parsePrice(in)
			require.NoError(t, err, in)
			assert.InDelta(t, want, got, 0.0001)
		}
		for _, in := range []string{"0", "-1", "abc", "", "NaN", "Inf"} {
			_, err := parsePrice(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("stock", func(t *testing.T) {
		got, err := parseStock(" 12 ")
		require.NoError(t, err)
		assert.Equal(t, 12, got)
		for _, in := range []string{"-1", "1.5", "many", ""} {
			_, err := parseStock(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("icon", func(t *testing.T) {
		got, err := validateIcon(" ☕ ")
		require.NoError(t, err)
		assert.Equal(t, "☕", got)
		for _, in := range []string{"two words", "averyverylongtoken", "abc", "x", "42"} {
			_, err := validateIcon(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("tokens", func(t *testing.T) {
		assert.True(t, isSkipToken("Skip"))
		assert.True(t, isSkipToken(" - "))
		assert.False(t, isSkipToken("done"))
		assert.True(t, isDoneToken("DONE"))
		assert.True(t, isDoneToken("skip"))
		assert.False(t, isDoneToken("more"))
	})
}
