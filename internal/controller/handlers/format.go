package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
)

func parseDate(text string, loc *time.Location) (time.Time, error) {
	return service.ParseAutoBookDate(text, loc)
}

func autoBookRequest(studentID int64, args autoBookArgs) service.AutoBookRequest {
	return service.AutoBookRequest{
		StudentID:        studentID,
		ExpertName:       args.expert,
		Date:             args.date,
		Time:             args.time,
		DurationMinutes:  args.duration,
		ConsultationMode: args.mode,
	}
}

var statusEmoji = map[model.AppointmentStatus]string{
	model.AppointmentStatusPending:   "⏳",
	model.AppointmentStatusConfirmed: "✅",
	model.AppointmentStatusCancelled: "❌",
	model.AppointmentStatusCompleted: "🏁",
	model.AppointmentStatusNoShow:    "🚫",
}

func formatSlots(expertName string, date time.Time, slots []model.Slot) string {
	header := fmt.Sprintf("🗓 %s, %s", expertName, date.Format("Mon 02 Jan 2006"))
	if len(slots) == 0 {
		return header + "\n\nNo open slots on this date."
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, s := range slots {
		fmt.Fprintf(&sb, "\n• %s - %s", s.StartAt.Format("15:04"), s.EndAt.Format("15:04"))
	}
	return sb.String()
}

func formatAppointment(a *model.Appointment, loc *time.Location) string {
	start := a.StartAt.In(loc)
	lines := []string{
		fmt.Sprintf("%s #%d %s", statusEmoji[a.Status], a.ID, a.Status),
		fmt.Sprintf("📅 %s, %s - %s", start.Format("Mon 02 Jan 2006"), start.Format("15:04"), a.EndAt().In(loc).Format("15:04")),
		fmt.Sprintf("💬 %s", a.ConsultationMode),
	}
	if a.MeetingLink != "" {
		lines = append(lines, "🔗 "+a.MeetingLink)
	}
	if a.CancellationReason != "" {
		lines = append(lines, "📝 "+a.CancellationReason)
	}
	return strings.Join(lines, "\n")
}

func formatAppointmentList(appointments []*model.Appointment, loc *time.Location) string {
	if len(appointments) == 0 {
		return "📭 You have no appointments."
	}
	parts := make([]string, 0, len(appointments))
	for _, a := range appointments {
		parts = append(parts, formatAppointment(a, loc))
	}
	return "📋 Your appointments:\n\n" + strings.Join(parts, "\n\n")
}
