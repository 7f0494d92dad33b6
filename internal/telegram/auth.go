package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"MultiShopBot/internal/models/domain"
	"MultiShopBot/internal/utils/logger/sl"

	"github.com/google/uuid"
)

// isAuthorized reports whether a user may perform administrative
// actions on a shop: the shop owner, a staff member (admin or cashier),
// or a configured super-admin. Results are recomputed on every check;
// a missing record means "no", never an error.
func (shopBot *Bot) isAuthorized(ctx context.Context, telegramID int64, username string, shopID uuid.UUID) bool {
	op := "telegram.isAuthorized"
	log := shopBot.log.With(slog.String("op", op))

	if shopBot.isSuperAdmin(username) {
		return true
	}

	shop, err := shopBot.gw.GetShopByID(ctx, shopID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to load shop", sl.Err(err))
		}
		return false
	}
	if shop.OwnerTelegramID == telegramID {
		return true
	}

	member, err := shopBot.gw.FindStaffMember(ctx, shopID, telegramID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to load staff record", sl.Err(err))
		}
		return false
	}
	return member.Role == domain.RoleAdmin || member.Role == domain.RoleCashier
}

// isSuperAdmin checks if the username is in the configured super-admin list.
func (shopBot *Bot) isSuperAdmin(username string) bool {
	if username == "" {
		return false
	}
	for _, admin := range shopBot.cfg.BotConfig.SuperAdmins {
		if strings.EqualFold(username, admin) {
			return true
		}
	}
	return false
}
