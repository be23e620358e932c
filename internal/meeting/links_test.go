package meeting

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

func TestMeetingLinkIsUniquePerCall(t *testing.T) {
	p := NewLinkProvider("https://meet.example.org/")
	a := &model.Appointment{ID: 12}

	first, err := p.MeetingLink(context.Background(), a)
	require.NoError(t, err)
	second, err := p.MeetingLink(context.Background(), a)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "https://meet.example.org/session-12-"))
	assert.NotEqual(t, first, second)
}

func TestMeetingLinkRequiresBaseURL(t *testing.T) {
	_, err := NewLinkProvider("").MeetingLink(context.Background(), &model.Appointment{ID: 1})
	assert.Error(t, err)
}
