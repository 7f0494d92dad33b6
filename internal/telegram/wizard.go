package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"MultiShopBot/internal/models/domain"
	"MultiShopBot/internal/utils/logger/sl"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// ─── Field validators ──────────────────────────────────────────────────────

// validateName trims the input and requires at least two characters.
func validateName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if utf8.RuneCountInString(name) < 2 {
		return "", fmt.Errorf("name must be at least 2 characters long")
	}
	return name, nil
}

// parsePrice accepts a positive decimal number, with or without a
// leading currency sign.
func parsePrice(s string) (float64, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("price must be a number greater than zero")
	}
	return price, nil
}

// parseStock accepts a non-negative integer.
func parseStock(s string) (int, error) {
	stock, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || stock < 0 {
		return 0, fmt.Errorf("stock must be a whole number of 0 or more")
	}
	return stock, nil
}

// validateIcon accepts a single short symbol (an emoji, possibly with
// modifiers) with no surrounding text. Plain ASCII is not an icon.
func validateIcon(s string) (string, error) {
	parts := strings.Fields(s)
	if len(parts) != 1 || utf8.RuneCountInString(parts[0]) > 8 {
		return "", fmt.Errorf("send a single emoji")
	}
	first, _ := utf8.DecodeRuneInString(parts[0])
	if first < utf8.RuneSelf {
		return "", fmt.Errorf("send a single emoji")
	}
	return parts[0], nil
}

// isSkipToken reports whether the input is the sentinel for an
// optional field.
func isSkipToken(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	return t == "skip" || t == "-"
}

// isDoneToken reports whether the input terminates image collection.
func isDoneToken(s string) bool {
	return isSkipToken(s) || strings.ToLower(strings.TrimSpace(s)) == "done"
}

// ─── Wizard starts ─────────────────────────────────────────────────────────

// startCategoryWizard begins the new-category flow. The caller has
// already verified the user's permissions for the shop.
func (shopBot *Bot) startCategoryWizard(ctx context.Context, chatID, userID int64, shop *domain.Shop) error {
	shopBot.sessions.startWizard(userID, FlowNewCategory, shop.ID, StepCategoryName)
	return shopBot.sendMarkdown(ctx, chatID,
		fmt.Sprintf("📂 Creating a new category for *%s*.\n\n📝 Enter the category name (/cancel to stop):", shop.Name),
		nil)
}

// startProductWizard begins the new-product flow. The caller has
// already verified the user's permissions for the shop.
func (shopBot *Bot) startProductWizard(ctx context.Context, chatID, userID int64, shop *domain.Shop) error {
	shopBot.sessions.startWizard(userID, FlowNewProduct, shop.ID, StepProductName)
	return shopBot.sendMarkdown(ctx, chatID,
		fmt.Sprintf("🛍️ Adding a new product to *%s*.\n\n📝 Enter the product name (/cancel to stop):", shop.Name),
		nil)
}

// cancelWizard removes the session without writing anything.
func (shopBot *Bot) cancelWizard(ctx context.Context, chatID, userID int64) {
	if _, ok := shopBot.sessions.wizard(userID); !ok {
		shopBot.sendReply(ctx, chatID, "Nothing to cancel.")
		return
	}
	shopBot.sessions.endWizard(userID)
	shopBot.sendReply(ctx, chatID, "❌ Cancelled. Nothing was saved.")
}

// ─── Free-text input ───────────────────────────────────────────────────────

// handleWizardInput routes plain-text messages into the active wizard.
// A failed validation re-prompts and leaves the step unchanged; there
// is no other self-loop in the machine.
func (shopBot *Bot) handleWizardInput(ctx context.Context, msg *models.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	sess, ok := shopBot.sessions.wizard(userID)
	if !ok {
		// No active wizard — ignore silently
		return
	}

	switch sess.Step {

	// ── new-category flow ───────────────────────────────────────────────

	case StepCategoryName:
		name, err := validateName(text)
		if err != nil {
			shopBot.sendReply(ctx, chatID, "❌ "+err.Error()+". Enter the category name:")
			return
		}
		sess.Fields["name"] = name
		sess.Step = StepCategoryDescription
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.sendReply(ctx, chatID, "📝 Enter a description (or send “skip”):")

	case StepCategoryDescription:
		desc := strings.TrimSpace(text)
		if isSkipToken(desc) {
			desc = ""
		}
		sess.Fields["description"] = desc
		sess.Step = StepCategoryIcon
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.sendReply(ctx, chatID,
			fmt.Sprintf("🎨 Send an emoji to use as the icon (or “skip” for %s):", domain.DefaultCategoryIcon))

	case StepCategoryIcon:
		icon := domain.DefaultCategoryIcon
		if !isSkipToken(text) {
			var err error
			icon, err = validateIcon(text)
			if err != nil {
				shopBot.sendReply(ctx, chatID, "❌ "+err.Error()+", or “skip” for the default:")
				return
			}
		}
		sess.Fields["icon"] = icon
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.finishCategoryWizard(ctx, chatID, userID, sess)

	// ── new-product flow ────────────────────────────────────────────────

	case StepProductName:
		name, err := validateName(text)
		if err != nil {
			shopBot.sendReply(ctx, chatID, "❌ "+err.Error()+". Enter the product name:")
			return
		}
		sess.Fields["name"] = name
		sess.Step = StepProductDescription
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.sendReply(ctx, chatID, "📝 Enter a description (or send “skip”):")

	case StepProductDescription:
		desc := strings.TrimSpace(text)
		if isSkipToken(desc) {
			desc = ""
		}
		sess.Fields["description"] = desc
		sess.Step = StepProductPrice
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.sendReply(ctx, chatID, "💰 Enter the price (e.g. 3.50):")

	case StepProductPrice:
		price, err := parsePrice(text)
		if err != nil {
			shopBot.sendReply(ctx, chatID, "❌ Invalid price. Enter a number greater than zero:")
			return
		}
		sess.Fields["price"] = strconv.FormatFloat(price, 'f', -1, 64)
		sess.Step = StepProductStock
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.sendReply(ctx, chatID, "📦 Enter the stock quantity:")

	case StepProductStock:
		stock, err := parseStock(text)
		if err != nil {
			shopBot.sendReply(ctx, chatID, "❌ Invalid stock. Enter a whole number of 0 or more:")
			return
		}
		sess.Fields["stock"] = strconv.Itoa(stock)
		sess.Step = StepProductCategory
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.promptProductCategory(ctx, chatID, sess)

	case StepProductCategory:
		// This step is driven by the inline keyboard.
		shopBot.sendReply(ctx, chatID, "👆 Pick a category with the buttons above, or press ➕ New category.")

	case StepProductNewCategoryName:
		name, err := validateName(text)
		if err != nil {
			shopBot.sendReply(ctx, chatID, "❌ "+err.Error()+". Enter the new category name:")
			return
		}
		category := &domain.Category{
			ShopID:    sess.ShopID,
			Name:      name,
			Icon:      domain.DefaultCategoryIcon,
			CreatedBy: userID,
		}
		if err := shopBot.gw.CreateCategory(ctx, category); err != nil {
			shopBot.log.Error("failed to create nested category", sl.Err(err))
			shopBot.sendReply(ctx, chatID, "❌ Failed to save the category. Send the name again to retry.")
			return
		}
		sess.Fields["categoryID"] = category.ID.String()
		sess.Step = StepProductImages
		shopBot.sessions.saveWizard(userID, sess)
		shopBot.promptProductImages(ctx, chatID,
			fmt.Sprintf("✅ Category «%s» created.", category.Name))

	case StepProductImages:
		if isDoneToken(text) {
			shopBot.finishProductWizard(ctx, chatID, userID, sess)
			return
		}
		shopBot.sendReply(ctx, chatID, "🖼️ Send a photo, or send “done” when finished.")

	default:
		shopBot.sessions.endWizard(userID)
	}
}

// ─── Keyboard-driven steps ─────────────────────────────────────────────────

// promptProductCategory shows the category picker for the product flow.
func (shopBot *Bot) promptProductCategory(ctx context.Context, chatID int64, sess *WizardSession) {
	categories, err := shopBot.gw.GetCategoriesByShopID(ctx, sess.ShopID)
	if err != nil {
		shopBot.log.Error("failed to list categories", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to load categories. Please try again.")
		return
	}

	var rows [][]models.InlineKeyboardButton
	for _, c := range categories {
		rows = append(rows, inlineRow(
			actionBtn(c.Icon+" "+c.Name, Action{Kind: ActionWizardCategory, ID: c.ID})))
	}
	rows = append(rows, inlineRow(
		actionBtn("➕ New category", Action{Kind: ActionWizardNewCategory})))
	rows = append(rows, inlineRow(
		actionBtn("❌ Cancel", Action{Kind: ActionCancel})))

	shopBot.sendMarkdown(ctx, chatID, "📂 Choose a category for the product:", inlineKeyboard(rows...))
}

// handleWizardCategoryChoice records the picked category and moves the
// product flow to image collection.
func (shopBot *Bot) handleWizardCategoryChoice(ctx context.Context, chatID, userID int64, categoryID uuid.UUID) {
	sess, ok := shopBot.sessions.wizard(userID)
	if !ok || sess.Step != StepProductCategory {
		return
	}

	category, err := shopBot.gw.GetCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			shopBot.sendReply(ctx, chatID, "❌ That category no longer exists. Pick another one.")
			return
		}
		shopBot.log.Error("failed to load category", sl.Err(err))
		shopBot.sendReply(ctx, chatID, "❌ Failed to load the category. Please try again.")
		return
	}
	if category.ShopID != sess.ShopID {
		shopBot.sendReply(ctx, chatID, "❌ That category belongs to another shop. Pick another one.")
		return
	}

	sess.Fields["categoryID"] = category.ID.String()
	sess.Step = StepProductImages
	shopBot.sessions.saveWizard(userID, sess)
	shopBot.promptProductImages(ctx, chatID,
		fmt.Sprintf("✅ Category: %s %s.", category.Icon, category.Name))
}

// handleWizardNewCategoryChoice enters the nested name-only sub-flow.
func (shopBot *Bot) handleWizardNewCategoryChoice(ctx context.Context, chatID, userID int64) {
	sess, ok := shopBot.sessions.wizard(userID)
	if !ok || sess.Step != StepProductCategory {
		return
	}
	sess.Step = StepProductNewCategoryName
	shopBot.sessions.saveWizard(userID, sess)
	shopBot.sendReply(ctx, chatID, "📝 Enter the new category name:")
}

// promptProductImages asks for product photos.
func (shopBot *Bot) promptProductImages(ctx context.Context, chatID int64, prefix string) {
	kb := inlineKeyboard(
		inlineRow(actionBtn("✅ Done", Action{Kind: ActionWizardDone})),
		inlineRow(actionBtn("❌ Cancel", Action{Kind: ActionCancel})),
	)
	text := prefix + "\n\n🖼️ Send product photos one at a time. Press Done (or send “skip”) when finished:"
	shopBot.sendMarkdown(ctx, chatID, text, kb)
}

// handleWizardPhoto appends a photo to the product wizard's image list.
// Accepting an image does not advance the step; bad attachments are
// logged and re-prompted without losing prior images.
func (shopBot *Bot) handleWizardPhoto(ctx context.Context, msg *models.Message) {
	op := "telegram.handleWizardPhoto"
	log := shopBot.log.With(slog.String("op", op))

	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	sess, ok := shopBot.sessions.wizard(userID)
	if !ok {
		return
	}
	if sess.Step != StepProductImages {
		shopBot.sendReply(ctx, chatID, "🖼️ Photos come later — finish the current step first.")
		return
	}

	if len(msg.Photo) == 0 {
		log.Warn("photo message without sizes", slog.Int64("user_id", userID))
		shopBot.sendReply(ctx, chatID, "❌ Couldn't read that photo. Send it again, or “done” to finish.")
		return
	}

	// Telegram lists sizes smallest first; keep the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	sess.Images = append(sess.Images, fileID)
	shopBot.sessions.saveWizard(userID, sess)

	shopBot.sendReply(ctx, chatID,
		fmt.Sprintf("✅ Image %d added. Send another, or “done” to finish.", len(sess.Images)))
}

// handleWizardDone terminates image collection via the Done button.
func (shopBot *Bot) handleWizardDone(ctx context.Context, chatID, userID int64) {
	sess, ok := shopBot.sessions.wizard(userID)
	if !ok || sess.Step != StepProductImages {
		return
	}
	shopBot.finishProductWizard(ctx, chatID, userID, sess)
}

// ─── Completion ────────────────────────────────────────────────────────────

// finishCategoryWizard writes the category exactly once and ends the
// session. On a failed write the session is kept so the user can retry
// by re-sending the icon; no partial record exists.
func (shopBot *Bot) finishCategoryWizard(ctx context.Context, chatID, userID int64, sess *WizardSession) {
	category := &domain.Category{
		ShopID:      sess.ShopID,
		Name:        sess.Fields["name"],
		Description: sess.Fields["description"],
		Icon:        sess.Fields["icon"],
		CreatedBy:   userID,
	}

	if err := shopBot.gw.CreateCategory(ctx, category); err != nil {
		shopBot.log.Error("failed to create category", sl.Err(err))
		shopBot.sendReply(ctx, chatID,
			"❌ Failed to save the category. Send the icon again (or “skip”) to retry.")
		return
	}

	shopBot.sessions.endWizard(userID)

	desc := category.Description
	if desc == "" {
		desc = "—"
	}
	shopBot.sendMarkdown(ctx, chatID, fmt.Sprintf(
		"✅ *Category created!*\n\n"+
			"%s *%s*\n"+
			"📝 %s\n"+
			"🔢 Position: %d",
		category.Icon, category.Name, desc, category.SortOrder), nil)
}

// finishProductWizard writes the product exactly once and ends the
// session. On a failed write the session stays at the images step so
// the user can retry with “done”.
func (shopBot *Bot) finishProductWizard(ctx context.Context, chatID, userID int64, sess *WizardSession) {
	op := "telegram.finishProductWizard"
	log := shopBot.log.With(slog.String("op", op), slog.Int64("user_id", userID))

	price, err := parsePrice(sess.Fields["price"])
	if err != nil {
		log.Error("corrupt price in session", sl.Err(err))
		shopBot.sessions.endWizard(userID)
		shopBot.sendReply(ctx, chatID, "❌ Something went wrong with this flow. Please start over.")
		return
	}
	stock, err := parseStock(sess.Fields["stock"])
	if err != nil {
		log.Error("corrupt stock in session", sl.Err(err))
		shopBot.sessions.endWizard(userID)
		shopBot.sendReply(ctx, chatID, "❌ Something went wrong with this flow. Please start over.")
		return
	}
	categoryID, err := uuid.Parse(sess.Fields["categoryID"])
	if err != nil {
		log.Error("corrupt category id in session", sl.Err(err))
		shopBot.sessions.endWizard(userID)
		shopBot.sendReply(ctx, chatID, "❌ Something went wrong with this flow. Please start over.")
		return
	}

	product := &domain.Product{
		ShopID:            sess.ShopID,
		CategoryID:        categoryID,
		Name:              sess.Fields["name"],
		Description:       sess.Fields["description"],
		Price:             price,
		Stock:             stock,
		IsActive:          true,
		LowStockThreshold: domain.DefaultLowStockThreshold,
		Images:            sess.Images,
		CreatedBy:         userID,
	}

	if err := shopBot.gw.CreateProduct(ctx, product); err != nil {
		log.Error("failed to create product", sl.Err(err))
		shopBot.sendReply(ctx, chatID,
			"❌ Failed to save the product. Send “done” to retry — your answers are kept.")
		return
	}

	shopBot.sessions.endWizard(userID)

	categoryName := sess.Fields["categoryID"]
	if category, err := shopBot.gw.GetCategoryByID(ctx, categoryID); err == nil {
		categoryName = category.Name
	}
	desc := product.Description
	if desc == "" {
		desc = "—"
	}
	shopBot.sendMarkdown(ctx, chatID, fmt.Sprintf(
		"✅ *Product created!*\n\n"+
			"🛍️ *%s*\n"+
			"📝 %s\n"+
			"💰 Price: $%.2f\n"+
			"📦 Stock: %d\n"+
			"📂 Category: %s\n"+
			"🖼️ Images: %d",
		product.Name, desc, product.Price, product.Stock,
		categoryName, len(product.Images)), nil)
}
