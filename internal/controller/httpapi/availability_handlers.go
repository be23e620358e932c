package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"github.com/go-chi/chi/v5"
)

type templateRequest struct {
	StartTime             model.Clock `json:"start_time"`
	EndTime               model.Clock `json:"end_time"`
	IsAvailable           *bool       `json:"is_available"`
	MaxAppointmentsPerDay int         `json:"max_appointments_per_day"`
	AppointmentDuration   int         `json:"appointment_duration"`
	BreakDuration         int         `json:"break_duration"`
}

type breakRequest struct {
	Date             string                 `json:"date"`
	StartTime        model.Clock            `json:"start_time"`
	EndTime          model.Clock            `json:"end_time"`
	Reason           string                 `json:"reason"`
	IsRecurring      bool                   `json:"is_recurring"`
	RecurringPattern model.RecurringPattern `json:"recurring_pattern"`
}

func (h *handler) upsertTemplate(w http.ResponseWriter, r *http.Request) {
	weekday, err := parseWeekday(chi.URLParam(r, "weekday"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	template, err := h.svc.Availability.UpsertTemplate(r.Context(), actorOf(r), service.TemplateInput{
		Weekday:               weekday,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		IsAvailable:           available,
		MaxAppointmentsPerDay: req.MaxAppointmentsPerDay,
		AppointmentDuration:   req.AppointmentDuration,
		BreakDuration:         req.BreakDuration,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	weekday, err := parseWeekday(chi.URLParam(r, "weekday"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Availability.DeleteTemplate(r.Context(), actorOf(r), weekday); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	expertID, err := pathID(r, "expertID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	templates, err := h.svc.Availability.ListTemplates(r.Context(), expertID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if templates == nil {
		templates = []*model.AvailabilityTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *handler) breakInput(r *http.Request) (service.BreakInput, error) {
	var req breakRequest
	if err := decodeJSON(r, &req); err != nil {
		return service.BreakInput{}, err
	}
	date, err := parseDate(req.Date, h.svc.Slots.Location())
	if err != nil {
		return service.BreakInput{}, err
	}
	return service.BreakInput{
		Date:             date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Reason:           req.Reason,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
	}, nil
}

func (h *handler) createBreak(w http.ResponseWriter, r *http.Request) {
	in, err := h.breakInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.Availability.CreateBreak(r.Context(), actorOf(r), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *handler) updateBreak(w http.ResponseWriter, r *http.Request) {
	breakID, err := pathID(r, "breakID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := h.breakInput(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.Availability.UpdateBreak(r.Context(), actorOf(r), breakID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) deleteBreak(w http.ResponseWriter, r *http.Request) {
	breakID, err := pathID(r, "breakID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Availability.DeleteBreak(r.Context(), actorOf(r), breakID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listBreaks(w http.ResponseWriter, r *http.Request) {
	expertID, err := pathID(r, "expertID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	loc := h.svc.Slots.Location()
	from, err := parseDate(r.URL.Query().Get("from"), loc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"), loc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	breaks, err := h.svc.Availability.ListBreaks(r.Context(), expertID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if breaks == nil {
		breaks = []*model.BreakException{}
	}
	writeJSON(w, http.StatusOK, breaks)
}

// openSlots serves a single date (?date=) or an inclusive range (?from=&to=).
func (h *handler) openSlots(w http.ResponseWriter, r *http.Request) {
	expertID, err := pathID(r, "expertID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	duration, err := queryInt(r, "duration")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	loc := h.svc.Slots.Location()

	if q.Get("date") != "" {
		date, err := parseDate(q.Get("date"), loc)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		slots, err := h.svc.Slots.OpenSlots(r.Context(), expertID, date, duration)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, model.DaySlots{Date: q.Get("date"), Slots: slots})
		return
	}

	from, err := parseDate(q.Get("from"), loc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := parseDate(q.Get("to"), loc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if from.IsZero() || to.IsZero() {
		writeMessage(w, http.StatusBadRequest, "validation", "either date or from and to are required")
		return
	}

	days, err := h.svc.Slots.OpenSlotsInRange(r.Context(), expertID, from, to, duration)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}
