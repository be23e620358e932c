package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
)

type createAppointmentRequest struct {
	ExpertID         int64                  `json:"expert_id"`
	StartAt          time.Time              `json:"start_at"`
	DurationMinutes  int                    `json:"duration_minutes"`
	ConsultationMode model.ConsultationMode `json:"consultation_mode"`
	Location         string                 `json:"location"`
	Notes            string                 `json:"notes"`
}

type autoBookRequest struct {
	ExpertName       string                 `json:"expert_name"`
	Date             string                 `json:"date"`
	Time             string                 `json:"time"`
	DurationMinutes  int                    `json:"duration_minutes"`
	ConsultationMode model.ConsultationMode `json:"consultation_mode"`
	Notes            string                 `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	actor := actorOf(r)
	appointment, err := h.svc.Bookings.Create(r.Context(), actor, service.CreateAppointmentInput{
		StudentID:        actor.UserID,
		ExpertID:         req.ExpertID,
		StartAt:          req.StartAt,
		DurationMinutes:  req.DurationMinutes,
		ConsultationMode: req.ConsultationMode,
		Location:         req.Location,
		Notes:            req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

func (h *handler) autoBook(w http.ResponseWriter, r *http.Request) {
	var req autoBookRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	actor := actorOf(r)
	appointment, err := h.svc.AutoBook.AutoBook(r.Context(), actor, service.AutoBookRequest{
		StudentID:        actor.UserID,
		ExpertName:       req.ExpertName,
		Date:             req.Date,
		Time:             req.Time,
		DurationMinutes:  req.DurationMinutes,
		ConsultationMode: req.ConsultationMode,
		Notes:            req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

// listAppointments lists the caller's own appointments. Admins pass
// student_id or expert_id.
func (h *handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	q := r.URL.Query()

	var status model.AppointmentStatus
	if raw := q.Get("status"); raw != "" {
		parsed, ok := model.ParseAppointmentStatus(strings.ToUpper(raw))
		if !ok {
			writeMessage(w, http.StatusBadRequest, "validation", "unknown status "+strconv.Quote(raw))
			return
		}
		status = parsed
	}

	var (
		appointments []*model.Appointment
		err          error
	)
	switch {
	case q.Get("student_id") != "":
		var id int64
		if id, err = strconv.ParseInt(q.Get("student_id"), 10, 64); err != nil {
			writeMessage(w, http.StatusBadRequest, "validation", "student_id must be an integer")
			return
		}
		appointments, err = h.svc.Bookings.ListForStudent(r.Context(), actor, id, status)
	case q.Get("expert_id") != "":
		var id int64
		if id, err = strconv.ParseInt(q.Get("expert_id"), 10, 64); err != nil {
			writeMessage(w, http.StatusBadRequest, "validation", "expert_id must be an integer")
			return
		}
		appointments, err = h.svc.Bookings.ListForExpert(r.Context(), actor, id, status)
	case actor.Role == model.RoleExpert:
		appointments, err = h.svc.Bookings.ListForExpert(r.Context(), actor, actor.UserID, status)
	default:
		appointments, err = h.svc.Bookings.ListForStudent(r.Context(), actor, actor.UserID, status)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appointments)
}

func (h *handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "appointmentID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.svc.Bookings.GetAppointment(r.Context(), actorOf(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}

type transitionFunc func(ctx context.Context, actor model.Actor, id int64, reason string) (*model.Appointment, error)

func (h *handler) transition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	id, err := pathID(r, "appointmentID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req reasonRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	appointment, err := apply(r.Context(), actorOf(r), id, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}

func (h *handler) confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, actor model.Actor, id int64, _ string) (*model.Appointment, error) {
		return h.svc.Bookings.Confirm(ctx, actor, id)
	})
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Bookings.Cancel)
}

func (h *handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Bookings.Complete)
}

func (h *handler) noShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Bookings.MarkNoShow)
}

func (h *handler) appointmentHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "appointmentID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.svc.History.ByAppointment(r.Context(), actorOf(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*model.AppointmentHistory{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// actorHistory defaults to the caller's own transitions.
func (h *handler) actorHistory(w http.ResponseWriter, r *http.Request) {
	actor := actorOf(r)
	actorID := actor.UserID
	if raw := r.URL.Query().Get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "validation", "actor_id must be an integer")
			return
		}
		actorID = id
	}

	entries, err := h.svc.History.ByActor(r.Context(), actor, actorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*model.AppointmentHistory{}
	}
	writeJSON(w, http.StatusOK, entries)
}
