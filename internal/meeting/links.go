package meeting

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/google/uuid"
)

// LinkProvider builds unguessable room links under a video-conferencing base URL.
type LinkProvider struct {
	baseURL string
}

func NewLinkProvider(baseURL string) *LinkProvider {
	return &LinkProvider{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *LinkProvider) MeetingLink(_ context.Context, a *model.Appointment) (string, error) {
	if p.baseURL == "" {
		return "", fmt.Errorf("meeting: base url not configured")
	}
	return fmt.Sprintf("%s/session-%d-%s", p.baseURL, a.ID, uuid.NewString()), nil
}
