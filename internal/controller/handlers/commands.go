package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Commands:\n\n" +
	"/slots <expert>; <date> - open times of an expert on a date\n" +
	"/autobook <expert>; <date>; <time>[; <minutes>; <mode>] - book a session\n" +
	"/mybookings - your appointments\n" +
	"/cancel <id> <reason> - cancel an appointment\n" +
	"/help - this message\n\n" +
	"Dates: 2025-03-10 or 10/03/2025. Times: 14:00 or 2 PM."

// HandleStart registers the sender
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	user, err := h.userService.RegisterTelegramUser(ctx, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Int64("telegram_id", from.ID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Registration failed. Please try again later.")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Hello, %s!\n\nThis bot books counseling sessions.\n\n%s", user.DisplayName, helpText))
}

// HandleHelp lists the commands
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleSlots shows an expert's open slots on one date
func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args, err := parseSlotsArgs(update.Message.Text)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	expert, err := h.autoBooking.ResolveExpert(ctx, args.expert)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	date, err := parseDate(args.date, h.slotService.Location())
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	slots, err := h.slotService.OpenSlots(ctx, expert.ID, date, 0)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatSlots(expert.DisplayName, date, slots))
}

// HandleAutoBook books the requested time for the sender
func (h *Handlers) HandleAutoBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args, err := parseAutoBookArgs(update.Message.Text)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	appointment, err := h.autoBooking.AutoBook(ctx, actorOf(user), autoBookRequest(user.ID, args))
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Booked!\n\n"+formatAppointment(appointment, h.slotService.Location())+
		"\n\nThe expert will confirm it soon.")
}

// HandleMyBookings lists the sender's appointments
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	list := h.bookingService.ListForStudent
	if user.IsExpert() {
		list = h.bookingService.ListForExpert
	}
	appointments, err := list(ctx, actorOf(user), user.ID, "")
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatAppointmentList(appointments, h.slotService.Location()))
}

// HandleCancel cancels one of the sender's appointments
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args, err := parseCancelArgs(update.Message.Text)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	appointment, err := h.bookingService.Cancel(ctx, actorOf(user), args.appointmentID, args.reason)
	if err != nil {
		h.replyError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Appointment #%d cancelled.", appointment.ID))
}
