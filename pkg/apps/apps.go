package apps

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ContextUser string
type ContextChatID string

const (
	UserContextKey ContextUser   = "user"
	ChatContextKey ContextChatID = "chat"
)

type Accepter interface {
	AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error)
	AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error)
	AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error)
}

// WithUpdate stores the sender and the chat of update in ctx.
func WithUpdate(ctx context.Context, update tgbotapi.Update) context.Context {
	if user := update.SentFrom(); user != nil {
		ctx = context.WithValue(ctx, UserContextKey, user)
	}
	if chat := update.FromChat(); chat != nil {
		ctx = context.WithValue(ctx, ChatContextKey, chat)
	}
	return ctx
}

// HandleUpdate routes a message or a callback query to the accepter.
func HandleUpdate(ctx context.Context, a Accepter, update tgbotapi.Update) error {
	ctx = WithUpdate(ctx, update)
	switch {
	case update.Message != nil:
		chatId := update.Message.Chat.ID
		if update.Message.IsCommand() {
			command := "/" + update.Message.Command()
			if args := update.Message.CommandArguments(); args != "" {
				command += " " + args
			}
			if accept, handler := a.AcceptCommand(command); accept {
				return handler(ctx, chatId)
			}
			return nil
		}
		if accept, handler := a.AcceptButton(update.Message.Text); accept {
			return handler(ctx, chatId)
		}
	case update.CallbackQuery != nil:
		if accept, handler := a.AcceptCallback(update.CallbackQuery); accept {
			return handler(ctx, update.CallbackQuery)
		}
	}
	return nil
}
