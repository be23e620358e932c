package handlers

import (
	"context"
	"errors"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser loads the registered sender, replying with a hint when the
// user has not run /start yet.
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Something went wrong. Please try again later.")
		return nil, false
	}

	if user == nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ You are not registered yet. Send /start first.")
		return nil, false
	}

	return user, true
}

func actorOf(user *model.User) model.Actor {
	return model.Actor{UserID: user.ID, Role: user.Role}
}

// sendMessage sends text and logs delivery failures
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// replyError turns a core error into a user-facing message
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	h.sendMessage(ctx, b, chatID, errorText(err))
}

func errorText(err error) string {
	switch {
	case errors.Is(err, model.ErrParse):
		return "❌ I could not understand that date or time.\n" + usageAutoBook
	case errors.Is(err, model.ErrNotFound):
		return "❌ Not found: " + err.Error()
	case errors.Is(err, model.ErrConflict):
		return "⛔ That time is no longer available. Try /slots to see open times."
	case errors.Is(err, model.ErrPermission):
		return "⛔ You are not allowed to do that."
	case errors.Is(err, model.ErrInvalidState):
		return "⚠️ This appointment can no longer be changed."
	case errors.Is(err, model.ErrValidation):
		return "❌ " + err.Error()
	default:
		return "❌ Something went wrong. Please try again later."
	}
}
