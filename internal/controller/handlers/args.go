package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

const (
	usageSlots    = "Usage: /slots <expert name>; <date>"
	usageAutoBook = "Usage: /autobook <expert name>; <date>; <time>[; <minutes>; <ONLINE|PHONE|IN_PERSON>]"
	usageCancel   = "Usage: /cancel <appointment id> <reason>"
)

type slotsArgs struct {
	expert string
	date   string
}

type autoBookArgs struct {
	expert   string
	date     string
	time     string
	duration int
	mode     model.ConsultationMode
}

type cancelArgs struct {
	appointmentID int64
	reason        string
}

// commandPayload strips the leading "/command" (and an optional @botname).
func commandPayload(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if i := strings.IndexAny(text, " \n\t"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return ""
}

// splitArgs splits a payload on semicolons and trims every part.
func splitArgs(payload string) []string {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	parts := strings.Split(payload, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseSlotsArgs(text string) (slotsArgs, error) {
	parts := splitArgs(commandPayload(text))
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return slotsArgs{}, fmt.Errorf("%w: %s", model.ErrValidation, usageSlots)
	}
	return slotsArgs{expert: parts[0], date: parts[1]}, nil
}

func parseAutoBookArgs(text string) (autoBookArgs, error) {
	parts := splitArgs(commandPayload(text))
	if len(parts) < 3 || len(parts) > 5 || parts[0] == "" {
		return autoBookArgs{}, fmt.Errorf("%w: %s", model.ErrValidation, usageAutoBook)
	}

	args := autoBookArgs{expert: parts[0], date: parts[1], time: parts[2]}
	if len(parts) >= 4 && parts[3] != "" {
		d, err := strconv.Atoi(parts[3])
		if err != nil || d <= 0 {
			return autoBookArgs{}, fmt.Errorf("%w: duration must be a positive number of minutes", model.ErrValidation)
		}
		args.duration = d
	}
	if len(parts) == 5 && parts[4] != "" {
		mode := model.ConsultationMode(strings.ToUpper(strings.ReplaceAll(parts[4], "-", "_")))
		if !mode.Valid() {
			return autoBookArgs{}, fmt.Errorf("%w: unknown consultation mode %q", model.ErrValidation, parts[4])
		}
		args.mode = mode
	}
	return args, nil
}

func parseCancelArgs(text string) (cancelArgs, error) {
	payload := commandPayload(text)
	idText, reason, _ := strings.Cut(payload, " ")
	id, err := strconv.ParseInt(strings.TrimPrefix(idText, "#"), 10, 64)
	if err != nil || id <= 0 {
		return cancelArgs{}, fmt.Errorf("%w: %s", model.ErrValidation, usageCancel)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return cancelArgs{}, fmt.Errorf("%w: a reason is required. %s", model.ErrValidation, usageCancel)
	}
	return cancelArgs{appointmentID: id, reason: reason}, nil
}
