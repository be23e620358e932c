package handlers

import (
	"errors"
	"strconv"
	"testing"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotsArgs(t *testing.T) {
	args, err := parseSlotsArgs("/slots Dr. Anna Tran; 2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, slotsArgs{expert: "Dr. Anna Tran", date: "2025-03-10"}, args)

	args, err = parseSlotsArgs("/slots@counsel_bot  Dr. Anna Tran ;10/03/2025 ")
	require.NoError(t, err)
	assert.Equal(t, slotsArgs{expert: "Dr. Anna Tran", date: "10/03/2025"}, args)

	for _, text := range []string{"/slots", "/slots Dr. Anna Tran", "/slots ; 2025-03-10", "/slots a; b; c"} {
		_, err := parseSlotsArgs(text)
		assert.ErrorIs(t, err, model.ErrValidation, text)
	}
}

func TestParseAutoBookArgs(t *testing.T) {
	tests := []struct {
		text    string
		want    autoBookArgs
		wantErr bool
	}{
		{
			text: "/autobook Dr. Anna Tran; 2025-03-10; 14:00",
			want: autoBookArgs{expert: "Dr. Anna Tran", date: "2025-03-10", time: "14:00"},
		},
		{
			text: "/autobook Dr. Anna Tran; 2025-03-10; 2 PM; 30; in-person",
			want: autoBookArgs{expert: "Dr. Anna Tran", date: "2025-03-10", time: "2 PM", duration: 30, mode: model.ConsultationInPerson},
		},
		{
			text: "/autobook Dr. Anna Tran; 2025-03-10; 14:00; ; phone",
			want: autoBookArgs{expert: "Dr. Anna Tran", date: "2025-03-10", time: "14:00", mode: model.ConsultationPhone},
		},
		{text: "/autobook Dr. Anna Tran; 2025-03-10", wantErr: true},
		{text: "/autobook Dr. Anna Tran; 2025-03-10; 14:00; forty", wantErr: true},
		{text: "/autobook Dr. Anna Tran; 2025-03-10; 14:00; -5", wantErr: true},
		{text: "/autobook Dr. Anna Tran; 2025-03-10; 14:00; 30; smoke signals", wantErr: true},
		{text: "/autobook a; b; c; 1; ONLINE; extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := parseAutoBookArgs(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCancelArgs(t *testing.T) {
	args, err := parseCancelArgs("/cancel 42 schedule conflict")
	require.NoError(t, err)
	assert.Equal(t, cancelArgs{appointmentID: 42, reason: "schedule conflict"}, args)

	args, err = parseCancelArgs("/cancel #7   feeling unwell ")
	require.NoError(t, err)
	assert.Equal(t, cancelArgs{appointmentID: 7, reason: "feeling unwell"}, args)

	for _, text := range []string{"/cancel", "/cancel 42", "/cancel abc reason", "/cancel 0 reason"} {
		_, err := parseCancelArgs(text)
		assert.ErrorIs(t, err, model.ErrValidation, text)
	}
}

func TestErrorText(t *testing.T) {
	assert.Contains(t, errorText(model.ErrConflict), "no longer available")
	assert.Contains(t, errorText(model.ErrParse), "Usage: /autobook")
	assert.Contains(t, errorText(errors.New("db down")), "Something went wrong")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
