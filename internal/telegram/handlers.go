package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"MultiShopBot/internal/models/domain"
	"MultiShopBot/internal/utils/logger/sl"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

const helpText = `🤖 *Multi-shop bot commands*

/start — open your last shop, or list all shops
/shops — list all available shops
/myorders — show your recent orders
/newcategory — create a category (shop staff)
/newproduct — add a product (shop staff)
/addstaff — grant a user a staff role (shop owner)
/cancel — abort the current creation flow
/help — show this message`

// commandHandler routes /commands. Any command aborts an in-progress
// wizard first, so a stuck flow can always be escaped.
func (shopBot *Bot) commandHandler(ctx context.Context, update *models.Update) error {
	op := "telegram.commandHandler()"
	log := shopBot.log.With(slog.String("op", op))

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID
	cmd := commandText(msg)

	if cmd != "cancel" {
		shopBot.sessions.endWizard(userID)
	}

	switch cmd {
	case "start":
		return shopBot.handleStart(ctx, msg)
	case "shops":
		return shopBot.handleShops(ctx, msg)
	case "myorders":
		return shopBot.handleMyOrders(ctx, msg)
	case "newcategory":
		return shopBot.handleNewCategory(ctx, msg)
	case "newproduct":
		return shopBot.handleNewProduct(ctx, msg)
	case "cancel":
		shopBot.cancelWizard(ctx, chatID, userID)
		return nil
	case "help":
		return shopBot.sendMarkdown(ctx, chatID, helpText, nil)
	case "addstaff":
		return shopBot.handleAddStaff(ctx, msg)
	case "addsuperadmin":
		return shopBot.handleAddSuperAdmin(ctx, msg)
	case "removesuperadmin":
		return shopBot.handleRemoveSuperAdmin(ctx, msg)
	default:
		log.Info("unknown command", slog.String("command", cmd))
		return shopBot.sendReply(ctx, chatID, "🤷 Unknown command. Try /help.")
	}
}

// handleStart greets the user and lands them in their last shop when
// one is known, otherwise shows the shop list.
func (shopBot *Bot) handleStart(ctx context.Context, msg *models.Message) error {
	op := "telegram.handleStart()"
	log := shopBot.log.With(slog.String("op", op))

	chatID := msg.Chat.ID
	user, err := shopBot.getOrCreateUser(ctx, msg.From)
	if err != nil {
		log.Error("failed to resolve user", sl.Err(err))
		return shopBot.sendReply(ctx, chatID, "❌ Something went wrong. Please try again.")
	}

	if user.LastShopID != nil {
		shop, err := shopBot.gw.GetShopByID(ctx, *user.LastShopID)
		if err == nil && shop.IsActive {
			if err := shopBot.sendReply(ctx, chatID,
				fmt.Sprintf("👋 Welcome back, %s!", user.DisplayName())); err != nil {
				return err
			}
			return shopBot.showShopMenu(ctx, chatID, 0, user.TelegramID, msg.From.Username, shop.ID)
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to load last shop", sl.Err(err))
		}
	}

	if err := shopBot.sendReply(ctx, chatID,
		fmt.Sprintf("👋 Welcome, %s!", user.DisplayName())); err != nil {
		return err
	}
	return shopBot.handleShops(ctx, msg)
}

// handleShops lists all active shops.
func (shopBot *Bot) handleShops(ctx context.Context, msg *models.Message) error {
	op := "telegram.handleShops()"
	log := shopBot.log.With(slog.String("op", op))

	shops, err := shopBot.gw.GetActiveShops(ctx)
	if err != nil {
		log.Error("failed to list shops", sl.Err(err))
		return shopBot.sendReply(ctx, msg.Chat.ID, "❌ Failed to load shops. Please try again.")
	}
	text, kb := renderShopList(shops)
	return shopBot.sendMarkdown(ctx, msg.Chat.ID, text, kb)
}

// handleMyOrders shows the user's most recent orders.
func (shopBot *Bot) handleMyOrders(ctx context.Context, msg *models.Message) error {
	op := "telegram.handleMyOrders()"
	log := shopBot.log.With(slog.String("op", op))

	orders, err := shopBot.gw.GetOrdersByCustomerID(ctx, msg.From.ID, 10)
	if err != nil {
		log.Error("failed to load orders", sl.Err(err))
		return shopBot.sendReply(ctx, msg.Chat.ID, "❌ Failed to load your orders. Please try again.")
	}
	return shopBot.sendMarkdown(ctx, msg.Chat.ID, renderOrderHistory(orders), nil)
}

// handleNewCategory starts the category wizard for the user's current
// shop, after the permission check. No session is created for an
// unauthorized user.
func (shopBot *Bot) handleNewCategory(ctx context.Context, msg *models.Message) error {
	shop, err := shopBot.resolveWizardShop(ctx, msg)
	if err != nil || shop == nil {
		return err
	}
	return shopBot.startCategoryWizard(ctx, msg.Chat.ID, msg.From.ID, shop)
}

// handleNewProduct starts the product wizard, same rules as above.
func (shopBot *Bot) handleNewProduct(ctx context.Context, msg *models.Message) error {
	shop, err := shopBot.resolveWizardShop(ctx, msg)
	if err != nil || shop == nil {
		return err
	}
	return shopBot.startProductWizard(ctx, msg.Chat.ID, msg.From.ID, shop)
}

// resolveWizardShop determines which shop a creation command targets
// (current navigation context, falling back to the user's last shop)
// and enforces the permission check. Returns (nil, nil) after replying
// when the command cannot proceed.
func (shopBot *Bot) resolveWizardShop(ctx context.Context, msg *models.Message) (*domain.Shop, error) {
	op := "telegram.resolveWizardShop()"
	log := shopBot.log.With(slog.String("op", op))

	chatID := msg.Chat.ID
	userID := msg.From.ID

	shopID := shopBot.sessions.navFor(userID).ShopID
	if shopID == uuid.Nil {
		user, err := shopBot.getOrCreateUser(ctx, msg.From)
		if err != nil {
			log.Error("failed to resolve user", sl.Err(err))
			return nil, shopBot.sendReply(ctx, chatID, "❌ Something went wrong. Please try again.")
		}
		if user.LastShopID != nil {
			shopID = *user.LastShopID
		}
	}
	if shopID == uuid.Nil {
		return nil, shopBot.sendReply(ctx, chatID,
			"🏪 Open a shop first (/shops), then run the command again.")
	}

	shop, err := shopBot.gw.GetShopByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, shopBot.sendReply(ctx, chatID, "❌ That shop no longer exists. Try /shops.")
		}
		log.Error("failed to load shop", sl.Err(err))
		return nil, shopBot.sendReply(ctx, chatID, "❌ Failed to load the shop. Please try again.")
	}

	if !shopBot.isAuthorized(ctx, userID, msg.From.Username, shop.ID) {
		return nil, shopBot.sendReply(ctx, chatID,
			fmt.Sprintf("🚫 You don't have permission to manage %s.", shop.Name))
	}
	return shop, nil
}

// handleAddStaff grants a user a role in the caller's current shop.
// Owner and super-admins only; staff cannot appoint staff. The target
// is given by Telegram ID, or by replying to one of their messages.
func (shopBot *Bot) handleAddStaff(ctx context.Context, msg *models.Message) error {
	op := "telegram.handleAddStaff()"
	log := shopBot.log.With(slog.String("op", op))

	chatID := msg.Chat.ID
	userID := msg.From.ID

	shopID := shopBot.sessions.navFor(userID).ShopID
	if shopID == uuid.Nil {
		user, err := shopBot.getOrCreateUser(ctx, msg.From)
		if err != nil {
			log.Error("failed to resolve user", sl.Err(err))
			return shopBot.sendReply(ctx, chatID, "❌ Something went wrong. Please try again.")
		}
		if user.LastShopID != nil {
			shopID = *user.LastShopID
		}
	}
	if shopID == uuid.Nil {
		return shopBot.sendReply(ctx, chatID,
			"🏪 Open a shop first (/shops), then run the command again.")
	}

	shop, err := shopBot.gw.GetShopByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return shopBot.sendReply(ctx, chatID, "❌ That shop no longer exists. Try /shops.")
		}
		log.Error("failed to load shop", sl.Err(err))
		return shopBot.sendReply(ctx, chatID, "❌ Failed to load the shop. Please try again.")
	}
	if shop.OwnerTelegramID != userID && !shopBot.isSuperAdmin(msg.From.Username) {
		return shopBot.sendReply(ctx, chatID,
			fmt.Sprintf("🚫 Only the owner of %s can appoint staff.", shop.Name))
	}

	args := strings.Fields(commandArguments(msg))
	role := domain.RoleCashier
	var targetID int64

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		targetID = msg.ReplyToMessage.From.ID
		if len(args) > 0 {
			role = domain.StaffRole(strings.ToLower(args[0]))
		}
	} else {
		if len(args) == 0 {
			return shopBot.sendReply(ctx, chatID,
				"Usage: /addstaff <telegram_id> [admin|cashier], or reply to the user's message.")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return shopBot.sendReply(ctx, chatID, "❌ The first argument must be a numeric Telegram ID.")
		}
		targetID = id
		if len(args) > 1 {
			role = domain.StaffRole(strings.ToLower(args[1]))
		}
	}

	if role != domain.RoleAdmin && role != domain.RoleCashier {
		return shopBot.sendReply(ctx, chatID, "❌ The role must be admin or cashier.")
	}

	if err := shopBot.gw.AddStaffMember(ctx, shop.ID, targetID, role); err != nil {
		log.Error("failed to add staff member", sl.Err(err))
		return shopBot.sendReply(ctx, chatID, "❌ Failed to save the staff record.")
	}

	log.Info("staff member added",
		slog.Int64("telegram_id", targetID),
		slog.String("role", string(role)),
		slog.String("shop_id", shop.ID.String()))
	return shopBot.sendReply(ctx, chatID,
		fmt.Sprintf("✅ User %d is now a %s of %s.", targetID, role, shop.Name))
}

// handleAddSuperAdmin appends a username to the super-admin list and
// persists the config. Super-admins only.
func (shopBot *Bot) handleAddSuperAdmin(ctx context.Context, msg *models.Message) error {
	op := "telegram.handleAddSuperAdmin()"
	log := shopBot.log.With(slog.String("op", op))

	chatID := msg.Chat.ID
	if !shopBot.isSuperAdmin(msg.From.Username) {
		return shopBot.sendReply(ctx, chatID, "🚫 Super-admins only.")
	}

	username := strings.TrimPrefix(strings.TrimSpace(commandArguments(msg)), "@")
	if username == "" {
		return shopBot.sendReply(ctx, chatID, "Usage: /addsuperadmin <username>")
	}
	if shopBot.isSuperAdmin(username) {
		return shopBot.sendReply(ctx, chatID, fmt.Sprintf("@%s is already a super-admin.", username))
	}

	shopBot.cfg.BotConfig.SuperAdmins = append(shopBot.cfg.BotConfig.SuperAdmins, username)
	if err := shopBot.cfg.Write(); err != nil {
		log.Error("failed to persist config", sl.Err(err))
		return shopBot.sendReply(ctx, chatID, "❌ Failed to save the config.")
	}

	log.Info("super-admin added", slog.String("username", username))
	return shopBot.sendReply(ctx, chatID, fmt.Sprintf("✅ @%s is now a super-admin.", username))
}

// handleRemoveSuperAdmin removes a username from the super-admin list
// and persists the config. Super-admins only.
func (shopBot *Bot) handleRemoveSuperAdmin(ctx context.Context, msg *models.Message) error {
	op := "telegram.handleRemoveSuperAdmin()"
	log := shopBot.log.With(slog.String("op", op))

	chatID := msg.Chat.ID
	if !shopBot.isSuperAdmin(msg.From.Username) {
		return shopBot.sendReply(ctx, chatID, "🚫 Super-admins only.")
	}

	username := strings.TrimPrefix(strings.TrimSpace(commandArguments(msg)), "@")
	if username == "" {
		return shopBot.sendReply(ctx, chatID, "Usage: /removesuperadmin <username>")
	}

	admins := shopBot.cfg.BotConfig.SuperAdmins
	idx := slices.IndexFunc(admins, func(a string) bool {
		return strings.EqualFold(a, username)
	})
	if idx < 0 {
		return shopBot.sendReply(ctx, chatID, fmt.Sprintf("@%s is not a super-admin.", username))
	}

	shopBot.cfg.BotConfig.SuperAdmins = slices.Delete(admins, idx, idx+1)
	if err := shopBot.cfg.Write(); err != nil {
		log.Error("failed to persist config", sl.Err(err))
		return shopBot.sendReply(ctx, chatID, "❌ Failed to save the config.")
	}

	log.Info("super-admin removed", slog.String("username", username))
	return shopBot.sendReply(ctx, chatID, fmt.Sprintf("✅ @%s is no longer a super-admin.", username))
}

// getOrCreateUser resolves a Telegram user through the cache, loading
// from storage on a miss and registering first-time users.
func (shopBot *Bot) getOrCreateUser(ctx context.Context, from *models.User) (*domain.User, error) {
	op := "telegram.getOrCreateUser"

	if cached, ok := shopBot.users.Get(from.ID); ok {
		return &cached, nil
	}

	user, err := shopBot.gw.FindUserByTelegramID(ctx, from.ID)
	if err == nil {
		shopBot.users.Put(*user)
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user = &domain.User{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}
	if err := shopBot.gw.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	shopBot.users.Put(*user)
	shopBot.log.Info("new user registered",
		slog.Int64("telegram_id", user.TelegramID),
		slog.String("username", user.Username))
	return user, nil
}
