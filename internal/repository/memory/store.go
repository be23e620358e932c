// Package memory is an in-process implementation of the repository
// interfaces. Transactions are serialised by one mutex and rolled back by
// restoring a snapshot, which mirrors the per-expert advisory lock closely
// enough for tests and local demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
)

type templateKey struct {
	expertID int64
	weekday  time.Weekday
}

type state struct {
	users        map[int64]model.User
	templates    map[templateKey]model.AvailabilityTemplate
	breaks       map[int64]model.BreakException
	appointments map[int64]model.Appointment
	history      []model.AppointmentHistory
	nextID       int64
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[int64]model.User, len(s.users)),
		templates:    make(map[templateKey]model.AvailabilityTemplate, len(s.templates)),
		breaks:       make(map[int64]model.BreakException, len(s.breaks)),
		appointments: make(map[int64]model.Appointment, len(s.appointments)),
		history:      append([]model.AppointmentHistory(nil), s.history...),
		nextID:       s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.templates {
		c.templates[k] = v
	}
	for k, v := range s.breaks {
		c.breaks[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	return c
}

// Store implements repository.TxRunner and exposes non-transactional Stores.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time

	repository.Stores
}

func NewStore() *Store {
	s := &Store{
		st: &state{
			users:        map[int64]model.User{},
			templates:    map[templateKey]model.AvailabilityTemplate{},
			breaks:       map[int64]model.BreakException{},
			appointments: map[int64]model.Appointment{},
		},
		now: time.Now,
	}
	s.Stores = s.bind(false)
	return s
}

// SetClock replaces the timestamp source for created/updated columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// WithinTx runs fn holding the store lock and restores the prior state when
// fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st repository.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, s.bind(true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// AllHistory returns every ledger row, for assertions.
func (s *Store) AllHistory() []model.AppointmentHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AppointmentHistory(nil), s.st.history...)
}

// AllAppointments returns every appointment ordered by id, for assertions.
func (s *Store) AllAppointments() []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Appointment, 0, len(s.st.appointments))
	for _, a := range s.st.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) bind(inTx bool) repository.Stores {
	v := &view{s: s, inTx: inTx}
	return repository.Stores{
		Templates:    templateRepo{v},
		Breaks:       breakRepo{v},
		Appointments: appointmentRepo{v},
		History:      historyRepo{v},
		Users:        userRepo{v},
	}
}

type view struct {
	s    *Store
	inTx bool
}

func (v *view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func (v *view) id() int64 {
	v.s.st.nextID++
	return v.s.st.nextID
}

type userRepo struct{ *view }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	defer r.lock()()
	user.ID = r.id()
	user.CreatedAt = r.s.now()
	r.s.st.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	defer r.lock()()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	defer r.lock()()
	for _, u := range r.s.st.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) Update(_ context.Context, user *model.User) error {
	defer r.lock()()
	if _, ok := r.s.st.users[user.ID]; !ok {
		return model.ErrNotFound
	}
	r.s.st.users[user.ID] = *user
	return nil
}

func (r userRepo) FindBookableExpertsByName(_ context.Context, name string) ([]*model.User, error) {
	defer r.lock()()
	want := strings.ToLower(strings.Join(strings.Fields(name), " "))
	var out []*model.User
	for _, u := range r.s.st.users {
		if u.Role != model.RoleExpert || strings.ToLower(strings.Join(strings.Fields(u.DisplayName), " ")) != want {
			continue
		}
		if !r.hasTemplate(u.ID) {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) hasTemplate(expertID int64) bool {
	for k := range r.s.st.templates {
		if k.expertID == expertID {
			return true
		}
	}
	return false
}

type templateRepo struct{ *view }

func (r templateRepo) Upsert(_ context.Context, t *model.AvailabilityTemplate) error {
	defer r.lock()()
	key := templateKey{t.ExpertID, t.Weekday}
	now := r.s.now()
	if existing, ok := r.s.st.templates[key]; ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else {
		t.ID = r.id()
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.s.st.templates[key] = *t
	return nil
}

func (r templateRepo) GetByWeekday(_ context.Context, expertID int64, weekday time.Weekday) (*model.AvailabilityTemplate, error) {
	defer r.lock()()
	t, ok := r.s.st.templates[templateKey{expertID, weekday}]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r templateRepo) ListByExpert(_ context.Context, expertID int64) ([]*model.AvailabilityTemplate, error) {
	defer r.lock()()
	var out []*model.AvailabilityTemplate
	for k, t := range r.s.st.templates {
		if k.expertID == expertID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (r templateRepo) DeleteByWeekday(_ context.Context, expertID int64, weekday time.Weekday) (bool, error) {
	defer r.lock()()
	key := templateKey{expertID, weekday}
	if _, ok := r.s.st.templates[key]; !ok {
		return false, nil
	}
	delete(r.s.st.templates, key)
	return true, nil
}

type breakRepo struct{ *view }

func (r breakRepo) Create(_ context.Context, b *model.BreakException) error {
	defer r.lock()()
	b.ID = r.id()
	b.CreatedAt = r.s.now()
	b.UpdatedAt = b.CreatedAt
	r.s.st.breaks[b.ID] = *b
	return nil
}

func (r breakRepo) Update(_ context.Context, b *model.BreakException) error {
	defer r.lock()()
	if _, ok := r.s.st.breaks[b.ID]; !ok {
		return model.ErrNotFound
	}
	b.UpdatedAt = r.s.now()
	r.s.st.breaks[b.ID] = *b
	return nil
}

func (r breakRepo) GetByID(_ context.Context, id int64) (*model.BreakException, error) {
	defer r.lock()()
	b, ok := r.s.st.breaks[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r breakRepo) ListByExpert(_ context.Context, expertID int64, from, to time.Time) ([]*model.BreakException, error) {
	defer r.lock()()
	var out []*model.BreakException
	for _, b := range r.s.st.breaks {
		if b.ExpertID != expertID {
			continue
		}
		if !to.IsZero() && dateAfter(b.Date, to) {
			continue
		}
		if !b.IsRecurring && !from.IsZero() && dateAfter(from, b.Date) {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !model.SameDate(out[i].Date, out[j].Date) {
			return dateAfter(out[j].Date, out[i].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r breakRepo) Delete(_ context.Context, id int64) (bool, error) {
	defer r.lock()()
	if _, ok := r.s.st.breaks[id]; !ok {
		return false, nil
	}
	delete(r.s.st.breaks, id)
	return true, nil
}

// dateAfter compares calendar dates regardless of location.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC).After(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC))
}

type appointmentRepo struct{ *view }

func (r appointmentRepo) LockExpert(context.Context, int64) error {
	return nil
}

func (r appointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	defer r.lock()()
	if a.Status.IsActive() {
		for _, other := range r.s.st.appointments {
			if other.ExpertID == a.ExpertID && other.Status.IsActive() &&
				model.Overlaps(a.StartAt, a.EndAt(), other.StartAt, other.EndAt()) {
				return model.ErrConflict
			}
		}
	}
	a.ID = r.id()
	a.CreatedAt = r.s.now()
	a.UpdatedAt = a.CreatedAt
	r.s.st.appointments[a.ID] = *a
	return nil
}

func (r appointmentRepo) GetByID(_ context.Context, id int64) (*model.Appointment, error) {
	defer r.lock()()
	a, ok := r.s.st.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r appointmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r appointmentRepo) UpdateStatus(_ context.Context, a *model.Appointment) error {
	defer r.lock()()
	stored, ok := r.s.st.appointments[a.ID]
	if !ok {
		return model.ErrNotFound
	}
	stored.Status = a.Status
	stored.MeetingLink = a.MeetingLink
	stored.ExpertNotes = a.ExpertNotes
	stored.CancellationReason = a.CancellationReason
	stored.CancelledBy = a.CancelledBy
	stored.UpdatedAt = r.s.now()
	a.UpdatedAt = stored.UpdatedAt
	r.s.st.appointments[a.ID] = stored
	return nil
}

func (r appointmentRepo) ListActiveOverlapping(_ context.Context, expertID int64, from, to time.Time) ([]*model.Appointment, error) {
	return r.filter(func(a model.Appointment) bool {
		return a.ExpertID == expertID && a.Status.IsActive() && model.Overlaps(a.StartAt, a.EndAt(), from, to)
	}, false), nil
}

func (r appointmentRepo) ListByStudent(_ context.Context, studentID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	return r.filter(func(a model.Appointment) bool {
		return a.StudentID == studentID && (status == "" || a.Status == status)
	}, true), nil
}

func (r appointmentRepo) ListByExpert(_ context.Context, expertID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	return r.filter(func(a model.Appointment) bool {
		return a.ExpertID == expertID && (status == "" || a.Status == status)
	}, true), nil
}

func (r appointmentRepo) ListConfirmedStartingBetween(_ context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return r.filter(func(a model.Appointment) bool {
		return a.Status == model.AppointmentStatusConfirmed && !a.StartAt.Before(from) && a.StartAt.Before(to)
	}, false), nil
}

func (r appointmentRepo) filter(keep func(model.Appointment) bool, newestFirst bool) []*model.Appointment {
	defer r.lock()()
	var out []*model.Appointment
	for _, a := range r.s.st.appointments {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].StartAt.After(out[j].StartAt)
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

type historyRepo struct{ *view }

func (r historyRepo) Append(_ context.Context, h *model.AppointmentHistory) error {
	defer r.lock()()
	for _, existing := range r.s.st.history {
		if existing.AppointmentID != h.AppointmentID {
			continue
		}
		if (h.Action == model.HistoryActionCreated && existing.Action == model.HistoryActionCreated) ||
			(h.OldStatus != "" && existing.OldStatus == h.OldStatus) {
			return model.ErrConflict
		}
	}
	h.ID = r.id()
	h.CreatedAt = r.s.now()
	r.s.st.history = append(r.s.st.history, *h)
	return nil
}

func (r historyRepo) ListByAppointment(_ context.Context, appointmentID int64) ([]*model.AppointmentHistory, error) {
	return r.filter(func(h model.AppointmentHistory) bool { return h.AppointmentID == appointmentID }), nil
}

func (r historyRepo) ListByActor(_ context.Context, actorID int64) ([]*model.AppointmentHistory, error) {
	return r.filter(func(h model.AppointmentHistory) bool { return h.ActorID != nil && *h.ActorID == actorID }), nil
}

func (r historyRepo) filter(keep func(model.AppointmentHistory) bool) []*model.AppointmentHistory {
	defer r.lock()()
	var out []*model.AppointmentHistory
	for _, h := range r.s.st.history {
		if keep(h) {
			h := h
			out = append(out, &h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
