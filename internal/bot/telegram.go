package bot

import (
	"context"
	"fmt"

	"gastos/internal/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pollTimeout = 30

// API is the subset of *tgbotapi.BotAPI the transport calls.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram long-polls updates and feeds them to the dispatcher one at a time.
type Telegram struct {
	api        API
	dispatcher *Dispatcher
	logger     *log.Logger
}

// NewTelegram authenticates with token and returns a ready transport.
func NewTelegram(token string, debug bool, d *Dispatcher, logger *log.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = debug
	t := newTelegram(api, d, logger)
	t.logger.Info("Authorized on Telegram", "username", api.Self.UserName)
	return t, nil
}

func newTelegram(api API, d *Dispatcher, logger *log.Logger) *Telegram {
	if logger == nil {
		logger = log.Default(log.ComponentBot)
	}
	return &Telegram{api: api, dispatcher: d, logger: logger}
}

// Run processes updates until ctx is done.
func (t *Telegram) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := t.api.GetUpdatesChan(u)

	t.logger.InfoContext(ctx, "Bot listening for updates")
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.logger.InfoContext(ctx, "Bot stopped")
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			t.handle(ctx, upd)
		}
	}
}

func (t *Telegram) handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			t.logger.WarnContext(ctx, "Failed to answer callback", log.FieldError, err)
		}
		if cq.Message == nil || cq.From == nil {
			return
		}
		reply := t.dispatcher.HandleSelection(ctx, cq.From.ID, cq.Data)
		t.send(ctx, cq.Message.Chat.ID, reply)

	case upd.Message != nil && upd.Message.Text != "":
		msg := upd.Message
		userID := msg.Chat.ID
		if msg.From != nil {
			userID = msg.From.ID
		}

		var reply Reply
		switch {
		case msg.IsCommand() && msg.Command() == "start":
			reply = t.dispatcher.HandleStart(ctx, userID)
		case msg.IsCommand():
			// "/info", "/ajuda" and friends behave like the bare words
			reply = t.dispatcher.HandleText(ctx, userID, msg.Command())
		default:
			reply = t.dispatcher.HandleText(ctx, userID, msg.Text)
		}
		t.send(ctx, msg.Chat.ID, reply)
	}
}

func (t *Telegram) send(ctx context.Context, chatID int64, reply Reply) {
	var c tgbotapi.Chattable
	if reply.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  reply.Document.Name,
			Bytes: reply.Document.Data,
		})
		doc.Caption = reply.Text
		c = doc
	} else {
		msg := tgbotapi.NewMessage(chatID, reply.Text)
		if reply.Markdown {
			msg.ParseMode = tgbotapi.ModeMarkdown
		}
		if len(reply.Options) > 0 {
			msg.ReplyMarkup = keyboard(reply.Options)
		}
		c = msg
	}

	if _, err := t.api.Send(c); err != nil {
		t.logger.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, log.FieldError, err)
		return
	}
	for _, next := range reply.More {
		t.send(ctx, chatID, next)
	}
}

func keyboard(options [][]Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, row := range options {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, o := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(o.Label, o.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
