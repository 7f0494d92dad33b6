package telegram

import (
	"context"
	"errors"
	"log/slog"

	"MultiShopBot/internal/models/domain"
	"MultiShopBot/internal/utils/logger/sl"

	"github.com/go-telegram/bot/models"
)

// handleNewChatMembers registers users who join a department group
// chat and associates them with the department's shop.
func (shopBot *Bot) handleNewChatMembers(ctx context.Context, msg *models.Message) {
	op := "telegram.handleNewChatMembers()"
	log := shopBot.log.With(slog.String("op", op), slog.Int64("chat_id", msg.Chat.ID))

	dept, err := shopBot.gw.FindDepartmentByChatID(ctx, msg.Chat.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to look up department", sl.Err(err))
		}
		// Not a department chat, nothing to track.
		return
	}

	for i := range msg.NewChatMembers {
		member := &msg.NewChatMembers[i]
		if member.IsBot {
			continue
		}
		shopBot.trackShopMember(ctx, log, dept, member)
	}
}

// handleChatMemberUpdate covers joins that arrive as chat_member
// updates rather than new_chat_members service messages.
func (shopBot *Bot) handleChatMemberUpdate(ctx context.Context, upd *models.ChatMemberUpdated) {
	op := "telegram.handleChatMemberUpdate()"
	log := shopBot.log.With(slog.String("op", op), slog.Int64("chat_id", upd.Chat.ID))

	member := chatMemberUser(&upd.NewChatMember)
	if member == nil || member.IsBot {
		return
	}

	dept, err := shopBot.gw.FindDepartmentByChatID(ctx, upd.Chat.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error("failed to look up department", sl.Err(err))
		}
		return
	}

	shopBot.trackShopMember(ctx, log, dept, member)
}

// trackShopMember registers the user, records their interaction with
// the department's shop and updates the in-memory member set.
func (shopBot *Bot) trackShopMember(ctx context.Context, log *slog.Logger, dept *domain.Department, member *models.User) {
	user, err := shopBot.getOrCreateUser(ctx, member)
	if err != nil {
		log.Error("failed to register chat member", sl.Err(err))
		return
	}

	if err := shopBot.gw.UpdateUserShopInteraction(ctx, user.TelegramID, dept.ShopID); err != nil {
		log.Warn("failed to record shop interaction", sl.Err(err))
	} else {
		shopBot.users.SetLastShop(user.TelegramID, dept.ShopID)
	}
	shopBot.users.AddShopMember(dept.ShopID, user.TelegramID)

	log.Info("department member tracked",
		slog.Int64("telegram_id", user.TelegramID),
		slog.String("shop_id", dept.ShopID.String()),
		slog.Int("shop_members", shopBot.users.ShopMemberCount(dept.ShopID)))
}

// chatMemberUser extracts the subject user from whichever membership
// state is set.
func chatMemberUser(m *models.ChatMember) *models.User {
	switch {
	case m.Owner != nil:
		return m.Owner.User
	case m.Administrator != nil:
		return &m.Administrator.User
	case m.Member != nil:
		return m.Member.User
	case m.Restricted != nil:
		return m.Restricted.User
	default:
		return nil
	}
}
