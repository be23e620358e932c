package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2025-03-10 is a Monday.
var (
	monday   = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	fixedNow = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AppointmentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt model.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type stubMeetings struct{ link string }

func (m stubMeetings) MeetingLink(context.Context, *model.Appointment) (string, error) {
	if m.link == "" {
		return "", errors.New("no link")
	}
	return m.link, nil
}

type fixture struct {
	store        *memory.Store
	publisher    *recordingPublisher
	availability *AvailabilityService
	slots        *SlotService
	bookings     *BookingService
	autobook     *AutoBookingService
	history      *HistoryService

	expert  model.Actor
	student model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zap.NewNop()
	store := memory.NewStore()
	publisher := &recordingPublisher{}

	f := &fixture{
		store:        store,
		publisher:    publisher,
		availability: NewAvailabilityService(store.Templates, store.Breaks, time.UTC, logger),
		slots:        NewSlotService(store.Templates, store.Breaks, store.Appointments, nil, time.UTC, logger),
		bookings:     NewBookingService(store, store.Stores, publisher, stubMeetings{link: "https://meet.example/room"}, nil, time.UTC, logger),
		history:      NewHistoryService(store.History, store.Appointments),
	}
	f.bookings.SetClock(func() time.Time { return fixedNow })
	f.autobook = NewAutoBookingService(store.Users, f.slots, f.bookings, nil, logger)

	f.expert = f.addUser(t, "Dr. Anna Tran", model.RoleExpert)
	f.student = f.addUser(t, "Minh Le", model.RoleStudent)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role model.Role) model.Actor {
	t.Helper()
	u := &model.User{DisplayName: name, Role: role}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return model.Actor{UserID: u.ID, Role: role}
}

// mondayTemplate stores 09:00-12:00, 60 minute slots and a 15 minute gap.
func (f *fixture) mondayTemplate(t *testing.T) *model.AvailabilityTemplate {
	t.Helper()
	return f.template(t, f.expert, TemplateInput{
		Weekday:               time.Monday,
		StartTime:             model.NewClock(9, 0),
		EndTime:               model.NewClock(12, 0),
		IsAvailable:           true,
		MaxAppointmentsPerDay: 8,
		AppointmentDuration:   60,
		BreakDuration:         15,
	})
}

func (f *fixture) template(t *testing.T, expert model.Actor, in TemplateInput) *model.AvailabilityTemplate {
	t.Helper()
	tpl, err := f.availability.UpsertTemplate(context.Background(), expert, in)
	require.NoError(t, err)
	return tpl
}

func (f *fixture) book(t *testing.T, hour, minute int) *model.Appointment {
	t.Helper()
	a, err := f.bookings.Create(context.Background(), f.student, CreateAppointmentInput{
		StudentID: f.student.UserID,
		ExpertID:  f.expert.UserID,
		StartAt:   at(monday, hour, minute),
	})
	require.NoError(t, err)
	return a
}

func at(day time.Time, hour, minute int) time.Time {
	return model.NewClock(hour, minute).On(day)
}

func slotStarts(slots []model.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartAt.Format("15:04")+"-"+s.EndAt.Format("15:04"))
	}
	return out
}
