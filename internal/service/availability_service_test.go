package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertTemplateReplacesWeekday(t *testing.T) {
	f := newFixture(t)
	first := f.mondayTemplate(t)

	second := f.template(t, f.expert, TemplateInput{
		Weekday: time.Monday, StartTime: model.NewClock(10, 0), EndTime: model.NewClock(16, 0),
		IsAvailable: true, MaxAppointmentsPerDay: 4, AppointmentDuration: 45, BreakDuration: 15,
	})
	assert.Equal(t, first.ID, second.ID)

	templates, err := f.availability.ListTemplates(context.Background(), f.expert.UserID)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, model.NewClock(10, 0), templates[0].StartTime)
}

func TestUpsertTemplateValidation(t *testing.T) {
	valid := TemplateInput{
		Weekday: time.Monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(12, 0),
		IsAvailable: true, MaxAppointmentsPerDay: 3, AppointmentDuration: 60, BreakDuration: 15,
	}

	tests := []struct {
		name   string
		mutate func(in *TemplateInput)
	}{
		{"start after end", func(in *TemplateInput) { in.StartTime, in.EndTime = in.EndTime, in.StartTime }},
		{"empty window", func(in *TemplateInput) { in.EndTime = in.StartTime }},
		{"zero duration", func(in *TemplateInput) { in.AppointmentDuration = 0 }},
		{"zero break", func(in *TemplateInput) { in.BreakDuration = 0 }},
		{"zero daily max", func(in *TemplateInput) { in.MaxAppointmentsPerDay = 0 }},
		{"weekday out of range", func(in *TemplateInput) { in.Weekday = 7 }},
		{"time past midnight", func(in *TemplateInput) { in.EndTime = model.NewClock(25, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := valid
			tt.mutate(&in)

			_, err := f.availability.UpsertTemplate(context.Background(), f.expert, in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestAvailabilityRequiresExpert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.availability.UpsertTemplate(ctx, f.student, TemplateInput{
		Weekday: time.Monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(12, 0),
		IsAvailable: true, MaxAppointmentsPerDay: 3, AppointmentDuration: 60, BreakDuration: 15,
	})
	assert.ErrorIs(t, err, model.ErrPermission)

	_, err = f.availability.CreateBreak(ctx, f.student, BreakInput{
		Date: monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0),
	})
	assert.ErrorIs(t, err, model.ErrPermission)

	assert.ErrorIs(t, f.availability.DeleteTemplate(ctx, f.student, time.Monday), model.ErrPermission)
}

func TestDeleteTemplate(t *testing.T) {
	f := newFixture(t)
	f.mondayTemplate(t)
	ctx := context.Background()

	require.NoError(t, f.availability.DeleteTemplate(ctx, f.expert, time.Monday))
	assert.ErrorIs(t, f.availability.DeleteTemplate(ctx, f.expert, time.Monday), model.ErrNotFound)

	slots, err := f.slots.OpenSlots(ctx, f.expert.UserID, monday, 0)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestBreakLifecycle(t *testing.T) {
	f := newFixture(t)
	f.mondayTemplate(t)
	ctx := context.Background()

	b, err := f.availability.CreateBreak(ctx, f.expert, BreakInput{
		Date: monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(9, 30), Reason: "supervision",
	})
	require.NoError(t, err)

	overlapping, err := f.availability.CreateBreak(ctx, f.expert, BreakInput{
		Date: monday, StartTime: model.NewClock(9, 15), EndTime: model.NewClock(10, 30),
	})
	require.NoError(t, err, "overlapping breaks coexist")

	slots, err := f.slots.OpenSlots(ctx, f.expert.UserID, monday, 0)
	require.NoError(t, err)
	assert.Empty(t, slots)

	require.NoError(t, f.availability.DeleteBreak(ctx, f.expert, overlapping.ID))

	updated, err := f.availability.UpdateBreak(ctx, f.expert, b.ID, BreakInput{
		Date: monday, StartTime: model.NewClock(11, 0), EndTime: model.NewClock(12, 0), Reason: "moved",
	})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ID)

	slots, err = f.slots.OpenSlots(ctx, f.expert.UserID, monday, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00"}, slotStarts(slots))

	breaks, err := f.availability.ListBreaks(ctx, f.expert.UserID, monday, monday)
	require.NoError(t, err)
	require.Len(t, breaks, 1)
	assert.Equal(t, "moved", breaks[0].Reason)
}

func TestBreakOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.addUser(t, "Dr. Bao Pham", model.RoleExpert)

	b, err := f.availability.CreateBreak(ctx, f.expert, BreakInput{
		Date: monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.availability.DeleteBreak(ctx, other, b.ID), model.ErrPermission)
	_, err = f.availability.UpdateBreak(ctx, other, b.ID, BreakInput{
		Date: monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0),
	})
	assert.ErrorIs(t, err, model.ErrPermission)
	assert.ErrorIs(t, f.availability.DeleteBreak(ctx, f.expert, b.ID+100), model.ErrNotFound)
}

func TestBreakValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   BreakInput
	}{
		{"missing date", BreakInput{StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0)}},
		{"inverted times", BreakInput{Date: monday, StartTime: model.NewClock(10, 0), EndTime: model.NewClock(9, 0)}},
		{"pattern on one-off", BreakInput{Date: monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0), RecurringPattern: model.RecurringWeekly}},
		{"recurring without pattern", BreakInput{Date: monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0), IsRecurring: true}},
		{"unknown pattern", BreakInput{Date: monday, StartTime: model.NewClock(9, 0), EndTime: model.NewClock(10, 0), IsRecurring: true, RecurringPattern: "DAILY"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.availability.CreateBreak(ctx, f.expert, tt.in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	_, err := f.availability.ListBreaks(ctx, f.expert.UserID, monday, monday.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, model.ErrValidation)
}
