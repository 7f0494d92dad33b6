package telegram

import (
	"context"
	"errors"
	"log/slog"

	"MultiShopBot/internal/models/domain"
	"MultiShopBot/internal/utils/logger/sl"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// callbackOrigin extracts the chat and message the pressed button lives
// on. Inaccessible messages still carry the chat, so navigation can
// fall back to sending a fresh message (messageID 0).
func callbackOrigin(q *models.CallbackQuery) (chatID int64, messageID int, ok bool) {
	switch {
	case q.Message.Message != nil:
		return q.Message.Message.Chat.ID, q.Message.Message.ID, true
	case q.Message.InaccessibleMessage != nil:
		return q.Message.InaccessibleMessage.Chat.ID, 0, true
	default:
		return 0, 0, false
	}
}

// handleCallbackQuery acknowledges the press, decodes the action once
// and dispatches on the typed value.
func (shopBot *Bot) handleCallbackQuery(ctx context.Context, update *models.Update) {
	op := "telegram.handleCallbackQuery()"
	log := shopBot.log.With(slog.String("op", op))

	q := update.CallbackQuery
	action, err := parseAction(q.Data)
	if err != nil {
		log.Warn("undecodable callback", slog.String("data", q.Data), sl.Err(err))
		shopBot.answerCallback(ctx, q.ID, "This button has expired.", false)
		return
	}
	shopBot.answerCallback(ctx, q.ID, "", false)

	chatID, messageID, ok := callbackOrigin(q)
	if !ok {
		log.Warn("callback without origin", slog.String("data", q.Data))
		return
	}
	userID := q.From.ID
	username := q.From.Username

	switch action.Kind {
	case ActionShopList:
		shopBot.showShopList(ctx, chatID, messageID, userID)
	case ActionShop:
		shopBot.showShopMenu(ctx, chatID, messageID, userID, username, action.ID)
	case ActionCategory:
		shopBot.showCategoryProducts(ctx, chatID, messageID, userID, action.ID)
	case ActionProduct:
		shopBot.showProductDetails(ctx, chatID, messageID, userID, action.ID)
	case ActionOrder:
		shopBot.placeOrder(ctx, q, chatID, userID, action.ID)

	case ActionAddCategory:
		shopBot.startWizardFromButton(ctx, chatID, userID, username, action.ID, FlowNewCategory)
	case ActionAddProduct:
		shopBot.startWizardFromButton(ctx, chatID, userID, username, action.ID, FlowNewProduct)

	case ActionWizardCategory:
		shopBot.handleWizardCategoryChoice(ctx, chatID, userID, action.ID)
	case ActionWizardNewCategory:
		shopBot.handleWizardNewCategoryChoice(ctx, chatID, userID)
	case ActionWizardDone:
		shopBot.handleWizardDone(ctx, chatID, userID)
	case ActionCancel:
		shopBot.cancelWizard(ctx, chatID, userID)
	}
}

// startWizardFromButton is the inline-keyboard entry into the creation
// flows. Same permission rule as the commands.
func (shopBot *Bot) startWizardFromButton(ctx context.Context, chatID, userID int64, username string, shopID uuid.UUID, flow FlowKind) {
	op := "telegram.startWizardFromButton()"
	log := shopBot.log.With(slog.String("op", op))

	shop, err := shopBot.gw.GetShopByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			shopBot.sendReply(ctx, chatID, "❌ That shop no longer exists.")
			return
		}
		log.Error("failed to load shop", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to load the shop. Please try again.")
		return
	}
	if !shopBot.isAuthorized(ctx, userID, username, shop.ID) {
		shopBot.sendReply(ctx, chatID, "🚫 You don't have permission to manage this shop.")
		return
	}

	if flow == FlowNewCategory {
		shopBot.startCategoryWizard(ctx, chatID, userID, shop)
		return
	}
	shopBot.startProductWizard(ctx, chatID, userID, shop)
}

// showScreen edits the origin message when there is one, otherwise
// sends a new message.
func (shopBot *Bot) showScreen(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboardMarkup) {
	var err error
	if messageID != 0 {
		err = shopBot.editMarkdown(ctx, chatID, messageID, text, kb)
	} else {
		err = shopBot.sendMarkdown(ctx, chatID, text, kb)
	}
	if err != nil {
		shopBot.log.Error("failed to render screen", sl.Err(err))
	}
}

func (shopBot *Bot) showShopList(ctx context.Context, chatID int64, messageID int, userID int64) {
	op := "telegram.showShopList()"
	log := shopBot.log.With(slog.String("op", op))

	shops, err := shopBot.gw.GetActiveShops(ctx)
	if err != nil {
		log.Error("failed to list shops", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to load shops. Please try again.")
		return
	}

	shopBot.sessions.setNav(userID, NavigationContext{})
	text, kb := renderShopList(shops)
	shopBot.showScreen(ctx, chatID, messageID, text, kb)
}

// showShopMenu renders a shop's category menu and records the
// interaction, so /start can bring the user straight back here.
func (shopBot *Bot) showShopMenu(ctx context.Context, chatID int64, messageID int, userID int64, username string, shopID uuid.UUID) error {
	op := "telegram.showShopMenu()"
	log := shopBot.log.With(slog.String("op", op))

	shop, err := shopBot.gw.GetShopByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return shopBot.sendReply(ctx, chatID, "❌ That shop no longer exists. Try /shops.")
		}
		log.Error("failed to load shop", sl.Err(err))
		return shopBot.sendReply(ctx, chatID, "❌ Failed to load the shop. Please try again.")
	}

	categories, err := shopBot.gw.GetCategoriesByShopID(ctx, shop.ID)
	if err != nil {
		log.Error("failed to list categories", sl.Err(err))
		return shopBot.sendReply(ctx, chatID, "❌ Failed to load the shop. Please try again.")
	}

	// Best effort: the menu renders even if recording fails.
	if err := shopBot.gw.UpdateUserShopInteraction(ctx, userID, shop.ID); err != nil {
		log.Warn("failed to record shop interaction", sl.Err(err))
	} else {
		shopBot.users.SetLastShop(userID, shop.ID)
	}
	shopBot.users.AddShopMember(shop.ID, userID)

	shopBot.sessions.setNav(userID, NavigationContext{ShopID: shop.ID, View: ViewShopMenu})

	canManage := shopBot.isAuthorized(ctx, userID, username, shop.ID)
	text, kb := renderShopMenu(shop, categories, canManage)
	shopBot.showScreen(ctx, chatID, messageID, text, kb)
	return nil
}

func (shopBot *Bot) showCategoryProducts(ctx context.Context, chatID int64, messageID int, userID int64, categoryID uuid.UUID) {
	op := "telegram.showCategoryProducts()"
	log := shopBot.log.With(slog.String("op", op))

	category, err := shopBot.gw.GetCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			shopBot.sendReply(ctx, chatID, "❌ That category no longer exists.")
			return
		}
		log.Error("failed to load category", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to load the category. Please try again.")
		return
	}

	products, err := shopBot.gw.GetProductsByCategoryID(ctx, category.ShopID, category.ID)
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to load products. Please try again.")
		return
	}

	shopBot.sessions.setNav(userID, NavigationContext{
		ShopID:     category.ShopID,
		View:       ViewCategory,
		CategoryID: category.ID,
	})

	text, kb := renderCategoryProducts(category, products)
	shopBot.showScreen(ctx, chatID, messageID, text, kb)
}

// showProductDetails renders one product. Products with images are
// shown as a photo with a caption; since a text message cannot be
// edited into a photo, the menu message is replaced.
func (shopBot *Bot) showProductDetails(ctx context.Context, chatID int64, messageID int, userID int64, productID uuid.UUID) {
	op := "telegram.showProductDetails()"
	log := shopBot.log.With(slog.String("op", op))

	product, err := shopBot.gw.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			shopBot.sendReply(ctx, chatID, "❌ That product no longer exists.")
			return
		}
		log.Error("failed to load product", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to load the product. Please try again.")
		return
	}

	shopBot.sessions.setNav(userID, NavigationContext{
		ShopID:     product.ShopID,
		View:       ViewProduct,
		CategoryID: product.CategoryID,
		ProductID:  product.ID,
	})

	text, kb := renderProductDetails(product)
	if len(product.Images) > 0 {
		shopBot.deleteMessage(ctx, chatID, messageID)
		if err := shopBot.sendPhoto(ctx, chatID, product.Images[0], text, kb); err != nil {
			log.Error("failed to send product photo", sl.Err(err))
			shopBot.sendMarkdown(ctx, chatID, text, kb)
		}
		return
	}
	shopBot.showScreen(ctx, chatID, messageID, text, kb)
}

// placeOrder creates a quantity-one pending order for the product. The
// availability check is advisory; the write is the source of truth.
func (shopBot *Bot) placeOrder(ctx context.Context, q *models.CallbackQuery, chatID, userID int64, productID uuid.UUID) {
	op := "telegram.placeOrder()"
	log := shopBot.log.With(slog.String("op", op), slog.Int64("user_id", userID))

	product, err := shopBot.gw.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			shopBot.answerCallback(ctx, q.ID, "This product no longer exists.", true)
			return
		}
		log.Error("failed to load product", sl.Err(err))
		shopBot.answerCallback(ctx, q.ID, "Failed to load the product. Try again.", true)
		return
	}
	if !product.Orderable() {
		shopBot.answerCallback(ctx, q.ID, "Sorry, this product is out of stock.", true)
		return
	}

	shop, err := shopBot.gw.GetShopByID(ctx, product.ShopID)
	if err != nil {
		log.Error("failed to load shop for order", sl.Err(err))
		shopBot.answerCallback(ctx, q.ID, "Failed to place the order. Try again.", true)
		return
	}

	customer, err := shopBot.getOrCreateUser(ctx, &q.From)
	if err != nil {
		log.Error("failed to resolve customer", sl.Err(err))
		shopBot.answerCallback(ctx, q.ID, "Failed to place the order. Try again.", true)
		return
	}

	order := &domain.Order{
		ShopID:       shop.ID,
		ProductID:    product.ID,
		ShopName:     shop.Name,
		ProductName:  product.Name,
		ProductSKU:   product.SKU,
		CustomerID:   customer.TelegramID,
		CustomerName: customer.DisplayName(),
		UnitPrice:    product.Price,
		Quantity:     1,
		TotalAmount:  product.Price,
		Status:       domain.OrderStatusPending,
	}
	if err := shopBot.gw.CreateOrder(ctx, order); err != nil {
		log.Error("failed to create order", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to place the order. Tap Order to try again.")
		return
	}

	log.Info("order placed",
		slog.String("order_id", order.ID.String()),
		slog.String("product", product.Name))
	text, kb := renderOrderConfirmation(order)
	shopBot.sendMarkdown(ctx, chatID, text, kb)
}
