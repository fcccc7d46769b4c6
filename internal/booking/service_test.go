package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"mediconnect-server/internal/models"
)

// -- In-memory stores --

type memDirectory struct {
	users map[string]*models.User
}

func (d *memDirectory) LookupUser(_ context.Context, id string) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

type memAvailability struct {
	windows []models.AvailabilityWindow
}

func (a *memAvailability) ListWindows(_ context.Context, doctorID string, dayOfWeek int) ([]models.AvailabilityWindow, error) {
	var out []models.AvailabilityWindow
	for _, w := range a.windows {
		if w.DoctorID == doctorID && w.DayOfWeek == dayOfWeek {
			out = append(out, w)
		}
	}
	return out, nil
}

// memAppointments mimics the database's unique index over active slot keys:
// Insert fails with ErrSlotTaken when the key is already held, atomically
// under the mutex, the way the real store fails on a duplicated key.
type memAppointments struct {
	mu    sync.Mutex
	seq   int
	byID  map[string]*models.Appointment
	slots map[string]string // slot key -> appointment id
}

func newMemAppointments() *memAppointments {
	return &memAppointments{
		byID:  make(map[string]*models.Appointment),
		slots: make(map[string]string),
	}
}

func (m *memAppointments) FindActive(_ context.Context, doctorID, date, timeOfDay string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeOfDay && a.Status != models.StatusCancelled {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memAppointments) Insert(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if appt.SlotKey != nil {
		if _, taken := m.slots[*appt.SlotKey]; taken {
			return ErrSlotTaken
		}
	}
	m.seq++
	appt.ID = fmt.Sprintf("appt-%d", m.seq)
	cp := *appt
	m.byID[appt.ID] = &cp
	if appt.SlotKey != nil {
		m.slots[*appt.SlotKey] = appt.ID
	}
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) Update(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.byID[appt.ID]
	if !ok {
		return errors.New("not found")
	}
	if prev.SlotKey != nil && appt.SlotKey == nil {
		delete(m.slots, *prev.SlotKey)
	}
	cp := *appt
	m.byID[appt.ID] = &cp
	return nil
}

// -- Fixtures --

const (
	monday = "2026-08-31" // day_of_week 1
	sunday = "2026-08-30" // day_of_week 0
)

func newTestService() (*Service, *memDirectory, *memAvailability, *memAppointments) {
	dir := &memDirectory{users: map[string]*models.User{
		"doc-1": {
			BaseModel:  models.BaseModel{ID: "doc-1"},
			Role:       models.RoleDoctor,
			IsActive:   true,
			IsVerified: true,
		},
		"doc-2": {
			BaseModel:  models.BaseModel{ID: "doc-2"},
			Role:       models.RoleDoctor,
			IsActive:   true,
			IsVerified: true,
		},
		"doc-inactive": {
			BaseModel:  models.BaseModel{ID: "doc-inactive"},
			Role:       models.RoleDoctor,
			IsActive:   false,
			IsVerified: true,
		},
		"doc-unverified": {
			BaseModel:  models.BaseModel{ID: "doc-unverified"},
			Role:       models.RoleDoctor,
			IsActive:   true,
			IsVerified: false,
		},
		"pat-1": {
			BaseModel: models.BaseModel{ID: "pat-1"},
			Role:      models.RolePatient,
			IsActive:  true,
		},
	}}
	avail := &memAvailability{windows: []models.AvailabilityWindow{
		{DoctorID: "doc-1", DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{DoctorID: "doc-2", DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{DoctorID: "doc-unverified", DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
	}}
	appts := newMemAppointments()
	svc := NewService(dir, avail, appts, zap.NewNop())
	return svc, dir, avail, appts
}

func patientRequest(doctorID, date, timeOfDay string) Request {
	return Request{
		PatientID:       "pat-1",
		DoctorID:        doctorID,
		Date:            date,
		Time:            timeOfDay,
		RequireVerified: true,
	}
}

// -- Booking --

func TestBook_Success(t *testing.T) {
	svc, _, _, _ := newTestService()

	appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != models.StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
	if appt.SlotKey == nil || *appt.SlotKey != models.ComposeSlotKey("doc-1", monday, "10:00") {
		t.Errorf("slot key not held: %v", appt.SlotKey)
	}
}

func TestBook_WindowBounds(t *testing.T) {
	svc, _, _, _ := newTestService()

	// Bounds are inclusive on both ends.
	for _, tod := range []string{"09:00", "12:00"} {
		if _, err := svc.Book(context.Background(), patientRequest("doc-1", monday, tod)); err != nil {
			t.Errorf("booking at %s: unexpected error: %v", tod, err)
		}
	}
}

func TestBook_DoctorUnavailable(t *testing.T) {
	svc, _, _, _ := newTestService()

	cases := []struct {
		name     string
		doctorID string
	}{
		{"missing doctor", "nobody"},
		{"not a doctor", "pat-1"},
		{"inactive doctor", "doc-inactive"},
		{"unverified doctor in patient flow", "doc-unverified"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), patientRequest(tc.doctorID, monday, "10:00"))
			if !errors.Is(err, ErrDoctorUnavailable) {
				t.Errorf("expected ErrDoctorUnavailable, got %v", err)
			}
		})
	}
}

func TestBook_UnverifiedDoctorAllowedWhenNotRequired(t *testing.T) {
	svc, _, _, _ := newTestService()

	req := patientRequest("doc-unverified", monday, "10:00")
	req.RequireVerified = false
	if _, err := svc.Book(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBook_OutsideAvailability(t *testing.T) {
	svc, _, _, appts := newTestService()

	cases := []struct {
		name string
		date string
		time string
	}{
		{"wrong day", sunday, "10:00"},
		{"before window", monday, "08:59"},
		{"after window", monday, "12:01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), patientRequest("doc-1", tc.date, tc.time))
			if !errors.Is(err, ErrOutsideAvailability) {
				t.Errorf("expected ErrOutsideAvailability, got %v", err)
			}
		})
	}
	if len(appts.byID) != 0 {
		t.Errorf("no appointment should have been stored, got %d", len(appts.byID))
	}
}

func TestBook_InvalidSlot(t *testing.T) {
	svc, _, _, _ := newTestService()

	for _, tc := range []struct{ date, time string }{
		{"31-08-2026", "10:00"},
		{monday, "10am"},
		{monday, "9:00"}, // not zero-padded
	} {
		_, err := svc.Book(context.Background(), patientRequest("doc-1", tc.date, tc.time))
		if !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("date=%q time=%q: expected ErrInvalidSlot, got %v", tc.date, tc.time, err)
		}
	}
}

func TestBook_SlotTaken(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00")); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	_, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// A different doctor's identical slot is unaffected.
	if _, err := svc.Book(context.Background(), patientRequest("doc-2", monday, "10:00")); err != nil {
		t.Errorf("other doctor's slot should be free: %v", err)
	}
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	svc, _, _, appts := newTestService()

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != racers-1 {
		t.Errorf("expected %d conflicts, got %d", racers-1, conflicts)
	}

	var active int
	for _, a := range appts.byID {
		if a.Status != models.StatusCancelled {
			active++
		}
	}
	if active != 1 {
		t.Errorf("expected 1 active appointment, got %d", active)
	}
}

func TestBook_CancelledSlotCanBeRebooked(t *testing.T) {
	svc, _, _, _ := newTestService()

	appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := svc.CancelByPatient(context.Background(), "pat-1", appt.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00")); err != nil {
		t.Fatalf("re-booking a cancelled slot failed: %v", err)
	}
}

// -- Status transitions --

func TestAdvanceStatus_Ownership(t *testing.T) {
	svc, _, _, _ := newTestService()

	appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	_, err = svc.AdvanceStatus(context.Background(), "doc-2", appt.ID, models.StatusConfirmed)
	if !errors.Is(err, ErrNotFoundOrUnauthorized) {
		t.Errorf("other doctor: expected ErrNotFoundOrUnauthorized, got %v", err)
	}
	_, err = svc.AdvanceStatus(context.Background(), "doc-1", "missing", models.StatusConfirmed)
	if !errors.Is(err, ErrNotFoundOrUnauthorized) {
		t.Errorf("missing appointment: expected ErrNotFoundOrUnauthorized, got %v", err)
	}
}

func TestAdvanceStatus_TransitionTable(t *testing.T) {
	cases := []struct {
		from models.AppointmentStatus
		to   models.AppointmentStatus
		ok   bool
	}{
		{models.StatusPending, models.StatusConfirmed, true},
		{models.StatusPending, models.StatusCancelled, true},
		{models.StatusPending, models.StatusCompleted, false},
		{models.StatusConfirmed, models.StatusCompleted, true},
		{models.StatusConfirmed, models.StatusCancelled, true},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusConfirmed, false},
		{models.StatusCancelled, models.StatusCompleted, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			svc, _, _, appts := newTestService()
			appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
			if err != nil {
				t.Fatalf("booking failed: %v", err)
			}
			// Force the source status directly in the store.
			stored := appts.byID[appt.ID]
			stored.Status = tc.from
			if tc.from == models.StatusCancelled {
				delete(appts.slots, *stored.SlotKey)
				stored.SlotKey = nil
			}

			updated, err := svc.AdvanceStatus(context.Background(), "doc-1", appt.ID, tc.to)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected transition to succeed, got %v", err)
				}
				if updated.Status != tc.to {
					t.Errorf("expected status %s, got %s", tc.to, updated.Status)
				}
			} else if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestAdvanceStatus_RejectsPending(t *testing.T) {
	svc, _, _, _ := newTestService()

	appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	_, err = svc.AdvanceStatus(context.Background(), "doc-1", appt.ID, models.StatusPending)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for pending target, got %v", err)
	}
}

func TestAdvanceStatus_CancelFreesSlot(t *testing.T) {
	svc, _, _, _ := newTestService()

	appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := svc.AdvanceStatus(context.Background(), "doc-1", appt.ID, models.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00")); err != nil {
		t.Fatalf("slot should be free after doctor cancellation: %v", err)
	}
}

// -- Patient cancellation --

func TestCancelByPatient_Once(t *testing.T) {
	svc, _, _, _ := newTestService()

	appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	cancelled, err := svc.CancelByPatient(context.Background(), "pat-1", appt.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}

	// No longer pending, so a second cancel must fail.
	_, err = svc.CancelByPatient(context.Background(), "pat-1", appt.ID)
	if !errors.Is(err, ErrNotFoundOrNotCancellable) {
		t.Errorf("expected ErrNotFoundOrNotCancellable, got %v", err)
	}
}

func TestCancelByPatient_Ownership(t *testing.T) {
	svc, _, _, _ := newTestService()

	appt, err := svc.Book(context.Background(), patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	_, err = svc.CancelByPatient(context.Background(), "pat-2", appt.ID)
	if !errors.Is(err, ErrNotFoundOrNotCancellable) {
		t.Errorf("expected ErrNotFoundOrNotCancellable, got %v", err)
	}
}

// -- End-to-end scenario --

func TestBookingLifecycleScenario(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	// Doctor has a Monday 09:00-12:00 window. Booking at 10:00 succeeds.
	appt, err := svc.Book(ctx, patientRequest("doc-1", monday, "10:00"))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if appt.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", appt.Status)
	}

	// Same slot again fails with a conflict.
	if _, err := svc.Book(ctx, patientRequest("doc-1", monday, "10:00")); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// 13:00 is outside the window.
	if _, err := svc.Book(ctx, patientRequest("doc-1", monday, "13:00")); !errors.Is(err, ErrOutsideAvailability) {
		t.Fatalf("expected ErrOutsideAvailability, got %v", err)
	}

	// Doctor confirms.
	confirmed, err := svc.AdvanceStatus(ctx, "doc-1", appt.ID, models.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != models.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}

	// Patient can no longer cancel a confirmed appointment.
	if _, err := svc.CancelByPatient(ctx, "pat-1", appt.ID); !errors.Is(err, ErrNotFoundOrNotCancellable) {
		t.Fatalf("expected ErrNotFoundOrNotCancellable, got %v", err)
	}
}

func TestDayOfWeek(t *testing.T) {
	if d, err := DayOfWeek(sunday); err != nil || d != 0 {
		t.Errorf("expected Sunday=0, got %d err=%v", d, err)
	}
	if d, err := DayOfWeek(monday); err != nil || d != 1 {
		t.Errorf("expected Monday=1, got %d err=%v", d, err)
	}
	if _, err := DayOfWeek("not-a-date"); err == nil {
		t.Error("expected error for malformed date")
	}
}
