package telegram

import (
	"fmt"
	"strings"

	"MultiShopBot/internal/models/domain"

	"github.com/go-telegram/bot/models"
)

// The presenter builds message text and keyboards from domain records.
// It performs no I/O; handlers fetch data and pass it in.

func renderShopList(shops []domain.Shop) (string, *models.InlineKeyboardMarkup) {
	if len(shops) == 0 {
		return "😔 No shops are open right now. Check back later!", nil
	}

	var rows [][]models.InlineKeyboardButton
	for _, s := range shops {
		rows = append(rows, inlineRow(
			actionBtn("🏪 "+s.Name, Action{Kind: ActionShop, ID: s.ID})))
	}
	return "🏪 *Available shops*\n\nPick a shop to browse:", inlineKeyboard(rows...)
}

func renderShopMenu(shop *domain.Shop, categories []domain.Category, canManage bool) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏪 *%s*\n", shop.Name)
	if shop.Description != "" {
		fmt.Fprintf(&sb, "_%s_\n", shop.Description)
	}
	sb.WriteString("\n")

	var rows [][]models.InlineKeyboardButton
	if len(categories) == 0 {
		sb.WriteString("😔 No categories yet.")
	} else {
		sb.WriteString("📂 Choose a category:")
		for _, c := range categories {
			rows = append(rows, inlineRow(
				actionBtn(c.Icon+" "+c.Name, Action{Kind: ActionCategory, ID: c.ID})))
		}
	}

	if canManage {
		rows = append(rows, inlineRow(
			actionBtn("➕ Category", Action{Kind: ActionAddCategory, ID: shop.ID}),
			actionBtn("➕ Product", Action{Kind: ActionAddProduct, ID: shop.ID}),
		))
	}
	rows = append(rows, inlineRow(
		actionBtn("⬅️ All shops", Action{Kind: ActionShopList})))

	return sb.String(), inlineKeyboard(rows...)
}

// renderCategoryProducts lists only orderable products. Low stock is
// annotated so buyers know to hurry.
func renderCategoryProducts(category *domain.Category, products []domain.Product) (string, *models.InlineKeyboardMarkup) {
	var orderable []domain.Product
	for _, p := range products {
		if p.Orderable() {
			orderable = append(orderable, p)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s*\n", category.Icon, category.Name)
	if category.Description != "" {
		fmt.Fprintf(&sb, "_%s_\n", category.Description)
	}
	sb.WriteString("\n")

	var rows [][]models.InlineKeyboardButton
	if len(orderable) == 0 {
		sb.WriteString("😔 Nothing in stock here right now.")
	} else {
		sb.WriteString("🛍️ Pick a product:")
		for _, p := range orderable {
			label := fmt.Sprintf("%s — $%.2f", p.Name, p.Price)
			if p.Stock <= p.LowStockThreshold {
				label += fmt.Sprintf(" (%d left)", p.Stock)
			}
			rows = append(rows, inlineRow(
				actionBtn(label, Action{Kind: ActionProduct, ID: p.ID})))
		}
	}
	rows = append(rows, inlineRow(
		actionBtn("⬅️ Back", Action{Kind: ActionShop, ID: category.ShopID})))

	return sb.String(), inlineKeyboard(rows...)
}

func renderProductDetails(product *domain.Product) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛍️ *%s*\n", product.Name)
	if product.Description != "" {
		fmt.Fprintf(&sb, "_%s_\n", product.Description)
	}
	fmt.Fprintf(&sb, "\n💰 Price: $%.2f\n", product.Price)
	if product.Orderable() {
		fmt.Fprintf(&sb, "📦 In stock: %d", product.Stock)
		if product.Stock <= product.LowStockThreshold {
			sb.WriteString(" — almost gone!")
		}
	} else {
		sb.WriteString("😔 Out of stock")
	}

	var rows [][]models.InlineKeyboardButton
	if product.Orderable() {
		rows = append(rows, inlineRow(
			actionBtn("🛒 Order", Action{Kind: ActionOrder, ID: product.ID})))
	}
	rows = append(rows, inlineRow(
		actionBtn("⬅️ Back", Action{Kind: ActionCategory, ID: product.CategoryID})))

	return sb.String(), inlineKeyboard(rows...)
}

func renderOrderConfirmation(order *domain.Order) (string, *models.InlineKeyboardMarkup) {
	text := fmt.Sprintf(
		"✅ *Order placed!*\n\n"+
			"🧾 Order `%s`\n"+
			"🛍️ %s\n"+
			"🏪 %s\n"+
			"💰 Total: $%.2f\n\n"+
			"The shop will contact you shortly.",
		order.ID, order.ProductName, order.ShopName, order.TotalAmount)
	kb := inlineKeyboard(inlineRow(
		actionBtn("⬅️ Back to shop", Action{Kind: ActionShop, ID: order.ShopID})))
	return text, kb
}

func renderOrderHistory(orders []domain.Order) string {
	if len(orders) == 0 {
		return "📭 You have no orders yet."
	}
	var sb strings.Builder
	sb.WriteString("🧾 *Your recent orders*\n")
	for _, o := range orders {
		fmt.Fprintf(&sb, "\n• %s ×%d — $%.2f (%s, %s)",
			o.ProductName, o.Quantity, o.TotalAmount, o.ShopName, o.Status)
	}
	return sb.String()
}
