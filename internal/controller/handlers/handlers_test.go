package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// telegramStub records sendMessage texts.
type telegramStub struct {
	mu    sync.Mutex
	texts []string
}

func (s *telegramStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/sendMessage") {
		_ = r.ParseMultipartForm(1 << 20)
		s.mu.Lock()
		s.texts = append(s.texts, r.FormValue("text"))
		s.mu.Unlock()
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`))
}

func (s *telegramStub) last(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.texts)
	return s.texts[len(s.texts)-1]
}

type botFixture struct {
	handlers *Handlers
	bot      *bot.Bot
	stub     *telegramStub
	users    *service.UserService
	store    *memory.Store
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	stub := &telegramStub{}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	b, err := bot.New("123:test", bot.WithServerURL(server.URL), bot.WithSkipGetMe())
	require.NoError(t, err)

	logger := zap.NewNop()
	store := memory.NewStore()
	slots := service.NewSlotService(store.Templates, store.Breaks, store.Appointments, nil, time.UTC, logger)
	bookings := service.NewBookingService(store, store.Stores, nil, nil, nil, time.UTC, logger)
	bookings.SetClock(func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) })
	users := service.NewUserService(store.Users, logger)

	return &botFixture{
		handlers: NewHandlers(users, slots, bookings, service.NewAutoBookingService(store.Users, slots, bookings, nil, logger), logger),
		bot:      b,
		stub:     stub,
		users:    users,
		store:    store,
	}
}

func message(telegramID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Text: text,
		Chat: models.Chat{ID: telegramID},
		From: &models.User{ID: telegramID, FirstName: "Minh", LastName: "Le", Username: "minh"},
	}}
}

func (f *botFixture) seedExpert(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	u, err := f.users.RegisterTelegramUser(ctx, 900, "anna", "Anna", "Tran")
	require.NoError(t, err)
	expert, err := f.users.MakeExpert(ctx, u.ID, "Dr. Anna Tran")
	require.NoError(t, err)

	require.NoError(t, f.store.Templates.Upsert(ctx, &model.AvailabilityTemplate{
		ExpertID: expert.ID, Weekday: time.Monday,
		StartTime: model.NewClock(13, 0), EndTime: model.NewClock(17, 0),
		IsAvailable: true, MaxAppointmentsPerDay: 4, AppointmentDuration: 50, BreakDuration: 10,
	}))
}

func TestBotBookingConversation(t *testing.T) {
	f := newBotFixture(t)
	f.seedExpert(t)
	ctx := context.Background()

	f.handlers.HandleAutoBook(ctx, f.bot, message(100, "/autobook Dr. Anna Tran; 2025-03-10; 14:00"))
	assert.Contains(t, f.stub.last(t), "Send /start first")

	f.handlers.HandleStart(ctx, f.bot, message(100, "/start"))
	assert.Contains(t, f.stub.last(t), "Hello, Minh Le")

	f.handlers.HandleSlots(ctx, f.bot, message(100, "/slots dr. anna tran; 2025-03-10"))
	assert.Contains(t, f.stub.last(t), "14:00 - 14:50")

	f.handlers.HandleAutoBook(ctx, f.bot, message(100, "/autobook Dr. Anna Tran; 2025-03-10; 14:00"))
	reply := f.stub.last(t)
	assert.Contains(t, reply, "Booked")
	assert.Contains(t, reply, "PENDING")

	f.handlers.HandleAutoBook(ctx, f.bot, message(100, "/autobook Dr. Anna Tran; 2025-03-10; 14:00"))
	assert.Contains(t, f.stub.last(t), "no longer available")

	f.handlers.HandleMyBookings(ctx, f.bot, message(100, "/mybookings"))
	assert.Contains(t, f.stub.last(t), "Mon 10 Mar 2025, 14:00 - 14:50")

	appointments := f.store.AllAppointments()
	require.Len(t, appointments, 1)

	f.handlers.HandleCancel(ctx, f.bot, message(100, "/cancel "+itoa(appointments[0].ID)+" schedule conflict"))
	assert.Contains(t, f.stub.last(t), "cancelled")

	f.handlers.HandleCancel(ctx, f.bot, message(100, "/cancel "+itoa(appointments[0].ID)+" again"))
	assert.Contains(t, f.stub.last(t), "can no longer be changed")
}

func TestBotSlotsUnknownExpert(t *testing.T) {
	f := newBotFixture(t)

	f.handlers.HandleSlots(context.Background(), f.bot, message(100, "/slots Dr. Nobody; 2025-03-10"))
	assert.Contains(t, f.stub.last(t), "Not found")

	f.handlers.HandleSlots(context.Background(), f.bot, message(100, "/slots"))
	assert.Contains(t, f.stub.last(t), "Usage: /slots")
}
