package telegram

import (
	"context"
	"log/slog"
	"strconv"

	"MultiShopBot/internal/cache"
	"MultiShopBot/internal/config"
	"MultiShopBot/internal/utils/logger/sl"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Bot is the Telegram bot for the multi-shop storefront.
type Bot struct {
	b        *bot.Bot
	cfg      *config.Config
	gw       Gateway
	users    *cache.UserCache
	sessions *sessionStore
	ctx      context.Context
	cancel   context.CancelFunc
	log      *slog.Logger
}

// New creates a new Bot instance.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	gw Gateway,
	users *cache.UserCache,
) *Bot {
	op := "telegram.New()"
	log := logger.With(slog.String("op", op))

	ctx, cancel := context.WithCancel(context.Background())

	shopBot := &Bot{
		cfg:      cfg,
		gw:       gw,
		users:    users,
		sessions: newSessionStore(),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	// chat_member updates are excluded from getUpdates by default and
	// must be requested explicitly.
	b, err := bot.New(cfg.BotConfig.TgbotApiToken,
		bot.WithDefaultHandler(shopBot.defaultHandler),
		bot.WithAllowedUpdates(bot.AllowedUpdates{"message", "callback_query", "chat_member"}),
	)
	if err != nil {
		log.Error("error auth telegram bot", sl.Err(err))
		cancel()
		return nil
	}

	shopBot.b = b

	log.Info("telegram bot created")
	return shopBot
}

// defaultHandler is the single entry point for all updates from go-telegram/bot.
func (shopBot *Bot) defaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	op := "telegram.defaultHandler()"
	log := shopBot.log.With(slog.String("op", op))

	if update.Message != nil && update.Message.From != nil {
		log.Info("input message",
			slog.String("user_id", strconv.FormatInt(update.Message.From.ID, 10)),
			slog.String("user_name", update.Message.From.Username),
			slog.String("text", update.Message.Text),
		)
	}
	if update.CallbackQuery != nil {
		log.Info("input callback",
			slog.String("user_id", strconv.FormatInt(update.CallbackQuery.From.ID, 10)),
			slog.String("user_name", update.CallbackQuery.From.Username),
			slog.String("data", update.CallbackQuery.Data),
		)
	}

	switch {
	case update.Message != nil && isCommand(update.Message):
		if err := shopBot.commandHandler(ctx, update); err != nil {
			log.Error("command handler error", sl.Err(err))
		}
	case update.CallbackQuery != nil:
		shopBot.handleCallbackQuery(ctx, update)
	case update.Message != nil && len(update.Message.NewChatMembers) > 0:
		shopBot.handleNewChatMembers(ctx, update.Message)
	case update.Message != nil && len(update.Message.Photo) > 0:
		shopBot.handleWizardPhoto(ctx, update.Message)
	case update.Message != nil:
		shopBot.handleWizardInput(ctx, update.Message)
	case update.ChatMember != nil:
		shopBot.handleChatMemberUpdate(ctx, update.ChatMember)
	}
}

// isCommand reports whether msg is a bot command.
func isCommand(msg *models.Message) bool {
	if msg == nil || len(msg.Entities) == 0 {
		return false
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}

// commandText extracts /command from a message (without @botname suffix).
func commandText(msg *models.Message) string {
	if msg == nil || len(msg.Entities) == 0 {
		return ""
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			raw := []rune(msg.Text)[e.Offset : e.Offset+e.Length]
			cmd := string(raw)
			// strip leading slash
			if len(cmd) > 0 && cmd[0] == '/' {
				cmd = cmd[1:]
			}
			// strip @botname if present
			for i, c := range cmd {
				if c == '@' {
					cmd = cmd[:i]
					break
				}
			}
			return cmd
		}
	}
	return ""
}

// commandArguments returns the text that follows the first /command entity.
func commandArguments(msg *models.Message) string {
	if msg == nil || len(msg.Entities) == 0 {
		return ""
	}
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			end := e.Offset + e.Length
			runes := []rune(msg.Text)
			if end >= len(runes) {
				return ""
			}
			// skip one space after command
			rest := string(runes[end:])
			if len(rest) > 0 && rest[0] == ' ' {
				rest = rest[1:]
			}
			return rest
		}
	}
	return ""
}

// Start begins polling for Telegram updates.
func (shopBot *Bot) Start() {
	shopBot.log.Info("starting telegram bot polling")
	shopBot.b.Start(shopBot.ctx)
	shopBot.log.Info("telegram bot polling stopped")
}

// sendReply sends a plain-text reply to the given chat.
func (shopBot *Bot) sendReply(ctx context.Context, chatID int64, text string) error {
	if shopBot.b == nil {
		return nil // not connected (tests)
	}
	_, err := shopBot.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// sendMarkdown sends a Markdown-formatted reply, optionally with an
// inline keyboard.
func (shopBot *Bot) sendMarkdown(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) error {
	if shopBot.b == nil {
		return nil // not connected (tests)
	}
	p := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	}
	if kb != nil {
		p.ReplyMarkup = kb
	}
	_, err := shopBot.b.SendMessage(ctx, p)
	return err
}

// editMarkdown edits a previously sent message in place. Falls back to
// delete-and-resend when editing fails (e.g. the message is a photo).
func (shopBot *Bot) editMarkdown(ctx context.Context, chatID int64, messageID int, text string, kb *models.InlineKeyboardMarkup) error {
	if shopBot.b == nil {
		return nil // not connected (tests)
	}
	p := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	}
	if kb != nil {
		p.ReplyMarkup = kb
	}
	if _, err := shopBot.b.EditMessageText(ctx, p); err != nil {
		shopBot.deleteMessage(ctx, chatID, messageID)
		return shopBot.sendMarkdown(ctx, chatID, text, kb)
	}
	return nil
}

// sendPhoto sends a photo by file ID with a Markdown caption.
func (shopBot *Bot) sendPhoto(ctx context.Context, chatID int64, fileID, caption string, kb *models.InlineKeyboardMarkup) error {
	if shopBot.b == nil {
		return nil // not connected (tests)
	}
	p := &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileString{Data: fileID},
		Caption:   caption,
		ParseMode: models.ParseModeMarkdown,
	}
	if kb != nil {
		p.ReplyMarkup = kb
	}
	_, err := shopBot.b.SendPhoto(ctx, p)
	return err
}

// deleteMessage removes a message best-effort: failures are logged and
// never abort the main flow.
func (shopBot *Bot) deleteMessage(ctx context.Context, chatID int64, messageID int) {
	if shopBot.b == nil || messageID == 0 {
		return
	}
	if _, err := shopBot.b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	}); err != nil {
		shopBot.log.Debug("failed to delete message",
			slog.Int64("chat_id", chatID),
			slog.Int("message_id", messageID),
			sl.Err(err))
	}
}

// answerCallback acknowledges a callback query to stop the client spinner.
func (shopBot *Bot) answerCallback(ctx context.Context, callbackID, text string, alert bool) {
	if shopBot.b == nil {
		return
	}
	if _, err := shopBot.b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	}); err != nil {
		shopBot.log.Error("failed to ack callback", sl.Err(err))
	}
}

// inlineKeyboard builds an InlineKeyboardMarkup from rows of buttons.
func inlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// inlineRow builds a single row of inline keyboard buttons.
func inlineRow(btns ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return btns
}

// actionBtn creates an inline keyboard button for a typed action.
func actionBtn(text string, a Action) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: a.encode()}
}

// Shutdown gracefully stops the bot.
func (shopBot *Bot) Shutdown(_ context.Context) error {
	shopBot.cancel()
	return nil
}
