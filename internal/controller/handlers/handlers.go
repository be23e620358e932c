// Package handlers implements the Telegram command handlers.
package handlers

import (
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"go.uber.org/zap"
)

// Handlers holds the services the bot commands call into.
type Handlers struct {
	userService    *service.UserService
	slotService    *service.SlotService
	bookingService *service.BookingService
	autoBooking    *service.AutoBookingService
	logger         *zap.Logger
}

func NewHandlers(
	userService *service.UserService,
	slotService *service.SlotService,
	bookingService *service.BookingService,
	autoBooking *service.AutoBookingService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:    userService,
		slotService:    slotService,
		bookingService: bookingService,
		autoBooking:    autoBooking,
		logger:         logger,
	}
}
