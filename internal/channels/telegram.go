package channels

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/brainstem-ai/brainstem/internal/logging"
	"github.com/brainstem-ai/brainstem/internal/runtime"
)

const telegramDispatchQueue = 20

var _ runtime.Listener = (*TelegramListener)(nil)

// TelegramListener receives Telegram updates for one allowed chat and
// dispatches them through the turn dispatcher. When an external dispatcher is
// provided, other producers (the nudge scheduler) share the same turn
// sequence; otherwise the listener owns its own.
type TelegramListener struct {
	token      string
	chatID     int64
	dispatcher *runtime.Dispatcher
	ownsQueue  bool

	sendMessage    func(context.Context, *bot.SendMessageParams) (*models.Message, error)
	sendChatAction func(context.Context, *bot.SendChatActionParams) (bool, error)
}

// NewTelegram creates a Telegram listener restricted to chatID. A zero
// chatID accepts the first chat that messages the bot and locks onto it.
// A nil dispatcher makes the listener manage its own.
func NewTelegram(token string, chatID int64, dispatcher *runtime.Dispatcher) (*TelegramListener, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is required")
	}
	return &TelegramListener{
		token:      token,
		chatID:     chatID,
		dispatcher: dispatcher,
	}, nil
}

type telegramWriter struct {
	listener *TelegramListener
}

// WriteMessage sends one assistant message to the paired chat. Output with no
// paired chat yet is dropped with a warning.
func (w *telegramWriter) WriteMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if w.listener.chatID == 0 || w.listener.sendMessage == nil {
		logging.Logger().Warn("dropping outbound message: no telegram chat paired")
		return nil
	}
	_, err := w.listener.sendMessage(ctx, &bot.SendMessageParams{
		ChatID: w.listener.chatID,
		Text:   text,
	})
	return err
}

// Writer returns a ResponseWriter bound to the paired chat, usable by
// producers outside the update loop.
func (l *TelegramListener) Writer() runtime.ResponseWriter {
	return &telegramWriter{listener: l}
}

// Listen starts long polling until the context is cancelled.
func (l *TelegramListener) Listen(ctx context.Context, handler runtime.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	if l.dispatcher == nil {
		l.dispatcher = runtime.NewDispatcher(handler, telegramDispatchQueue)
		if err := l.dispatcher.Start(ctx); err != nil {
			return err
		}
		l.ownsQueue = true
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			l.handleUpdate(ctx, update)
		}),
	}
	b, err := bot.New(l.token, opts...)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	l.sendMessage = b.SendMessage
	l.sendChatAction = b.SendChatAction

	logging.Logger().Info("telegram channel listening", "chat_id", l.chatID)
	b.Start(ctx)

	if l.ownsQueue {
		l.dispatcher.Stop()
		l.dispatcher.Wait()
	}
	return nil
}

func (l *TelegramListener) handleUpdate(ctx context.Context, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}
	msg := update.Message
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if l.chatID == 0 {
		l.chatID = msg.Chat.ID
		logging.Logger().Info("telegram chat paired", "chat_id", l.chatID)
	}
	if msg.Chat.ID != l.chatID {
		logging.Logger().Warn("ignoring message from unknown chat", "chat_id", strconv.FormatInt(msg.Chat.ID, 10))
		return
	}

	go l.typeWhileBusy(ctx, msg.Chat.ID)

	if err := l.dispatcher.Enqueue(ctx, &runtime.Message{Text: text}, l.Writer()); err != nil {
		logging.Logger().Warn("failed to enqueue telegram message", "err", err)
	}
}

// typeWhileBusy keeps the typing indicator alive while the dispatcher works.
func (l *TelegramListener) typeWhileBusy(ctx context.Context, chatID int64) {
	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()

	for {
		if _, err := l.sendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		}); err != nil {
			return
		}
		idleCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		err := l.dispatcher.WaitUntilIdle(idleCtx)
		cancel()
		if err == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
