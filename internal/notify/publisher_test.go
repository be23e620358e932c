package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

func newTestPublisher(t *testing.T) (*RedisPublisher, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPublisher(client, zap.NewNop()), client, mr
}

func TestPublishDeliversJSONToChannel(t *testing.T) {
	publisher, client, _ := newTestPublisher(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	appointment := &model.Appointment{
		ID:        42,
		StudentID: 7,
		ExpertID:  3,
		StartAt:   time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		Status:    model.AppointmentStatusPending,
	}
	evt := model.NewAppointmentEvent(model.EventAppointmentCreated, appointment, time.Now())
	require.NoError(t, publisher.Publish(ctx, evt))

	select {
	case msg := <-sub.Channel():
		var got model.AppointmentEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, evt.ID, got.ID)
		assert.Equal(t, model.EventAppointmentCreated, got.Type)
		assert.Equal(t, int64(42), got.AppointmentID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected event on channel")
	}
}

func TestPublishSuppressesDuplicates(t *testing.T) {
	publisher, _, mr := newTestPublisher(t)
	ctx := context.Background()

	appointment := &model.Appointment{ID: 5, Status: model.AppointmentStatusConfirmed}
	first := model.NewAppointmentEvent(model.EventReminderDue, appointment, time.Now())
	second := model.NewAppointmentEvent(model.EventReminderDue, appointment, time.Now())

	require.NoError(t, publisher.Publish(ctx, first))
	require.NoError(t, publisher.Publish(ctx, second))

	stored, err := mr.Get(dedupeKey(first))
	require.NoError(t, err)
	assert.Equal(t, first.ID.String(), stored, "second event must not replace the first")
	assert.True(t, mr.TTL(dedupeKey(first)) > 0)
}

func TestPublishDistinctTypesAreIndependent(t *testing.T) {
	publisher, _, mr := newTestPublisher(t)
	ctx := context.Background()

	appointment := &model.Appointment{ID: 9}
	require.NoError(t, publisher.Publish(ctx, model.NewAppointmentEvent(model.EventAppointmentCreated, appointment, time.Now())))
	require.NoError(t, publisher.Publish(ctx, model.NewAppointmentEvent(model.EventAppointmentConfirmed, appointment, time.Now())))

	assert.True(t, mr.Exists("appointments:event:9:appointment.created"))
	assert.True(t, mr.Exists("appointments:event:9:appointment.confirmed"))
}
