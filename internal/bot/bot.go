package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/club-assistant/internal/models"
	"github.com/xaenox/club-assistant/internal/router"
	"go.uber.org/zap"
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api            telegramAPI
	router         *router.Router
	operatorChatID int64
	logger         *zap.Logger
	now            func() time.Time

	idleTimeout time.Duration

	mu      sync.Mutex
	workers map[int64]*chatWorker
	wg      sync.WaitGroup
}

// New connects to Telegram with token. operatorChatID receives escalation
// notices; 0 disables them.
func New(token string, r *router.Router, operatorChatID int64, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return newBot(api, r, operatorChatID, logger), nil
}

func newBot(api telegramAPI, r *router.Router, operatorChatID int64, logger *zap.Logger) *Bot {
	return &Bot{
		api:            api,
		router:         r,
		operatorChatID: operatorChatID,
		logger:         logger,
		now:            time.Now,
		idleTimeout:    defaultIdleTimeout,
		workers:        make(map[int64]*chatWorker),
	}
}

// Start long-polls updates until ctx is cancelled, then waits for the updates
// already received to be handled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.enqueue(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Only private conversations with people are answered.
	if message.Chat == nil || !message.Chat.IsPrivate() {
		return
	}
	if message.From != nil && message.From.IsBot {
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}
	if text == "" {
		if hasMedia(message) {
			b.logger.Debug("Ignoring media without caption",
				zap.Int64("chat_id", message.Chat.ID))
			return
		}
		text = string(models.IntentMenu)
	}

	b.process(ctx, message.Chat.ID, message.From, text)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback query",
			zap.Error(err),
			zap.String("callback_id", query.ID))
	}

	if query.Message == nil || query.Message.Chat == nil || !query.Message.Chat.IsPrivate() {
		return
	}
	b.process(ctx, query.Message.Chat.ID, query.From, query.Data)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "menu":
		b.process(ctx, message.Chat.ID, message.From, string(models.IntentMenu))
	case "help":
		b.sendMessage(message.Chat.ID, "Envie uma mensagem com sua dúvida ou digite *MENU* para ver as opções.")
	case "contato", "atendente":
		b.process(ctx, message.Chat.ID, message.From, string(models.IntentHumanHandoff))
	default:
		b.process(ctx, message.Chat.ID, message.From, message.Text)
	}
}

// process routes one message and sends the reply.
func (b *Bot) process(ctx context.Context, chatID int64, from *tgbotapi.User, text string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic while handling message",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID))
			b.sendErrorMessage(chatID, router.ErrorReply)
		}
	}()

	id := models.ConversationID(fmt.Sprintf("telegram:%d", chatID))
	out := b.router.Dispatch(ctx, text, id, b.now())

	b.logger.Info("Routed message",
		zap.Int64("chat_id", chatID),
		zap.String("kind", string(out.Decision.Kind)),
		zap.String("intent", string(out.Decision.Intent)),
		zap.Bool("must_escalate", out.Decision.MustEscalate),
		zap.Bool("notify_operator", out.NotifyOperator))

	msg := tgbotapi.NewMessage(chatID, out.Reply)
	if out.Decision.Kind == models.KindMenu {
		msg.ReplyMarkup = b.menuKeyboard()
	}
	b.send(msg)

	if out.NotifyOperator {
		b.notifyOperator(contactReference(chatID, from), text)
	}
}

func (b *Bot) notifyOperator(contact, text string) {
	if b.operatorChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.operatorChatID, router.OperatorNotice(contact, text))
	b.send(msg)
}

func (b *Bot) menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	options := b.router.Options()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for i, opt := range options {
		label := fmt.Sprintf("%d. %s", i+1, opt.Label)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, string(opt.Intent)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// send delivers msg with Markdown and retries as plain text when Telegram
// rejects the markup.
func (b *Bot) send(msg tgbotapi.MessageConfig) {
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	if err == nil {
		return
	}
	b.logger.Warn("Failed to send Markdown message, retrying as plain text",
		zap.Error(err),
		zap.Int64("chat_id", msg.ChatID))

	msg.ParseMode = ""
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", msg.ChatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func contactReference(chatID int64, from *tgbotapi.User) string {
	if from == nil {
		return fmt.Sprintf("chat %d", chatID)
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if from.UserName != "" {
		return fmt.Sprintf("%s (@%s, id %d)", name, from.UserName, from.ID)
	}
	return fmt.Sprintf("%s (id %d)", name, from.ID)
}

func hasMedia(m *tgbotapi.Message) bool {
	return len(m.Photo) > 0 || m.Document != nil || m.Video != nil ||
		m.Voice != nil || m.Audio != nil || m.Sticker != nil || m.VideoNote != nil
}
