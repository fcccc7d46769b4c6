package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mediconnect-server/internal/booking"
	"mediconnect-server/internal/models"
	"mediconnect-server/internal/realtime"
)

type memDirectory struct {
	users map[string]*models.User
}

func (d *memDirectory) LookupUser(_ context.Context, id string) (*models.User, error) {
	return d.users[id], nil
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

type memAppointments struct {
	mu    sync.Mutex
	byID  map[string]*models.Appointment
	slots map[string]string // slot key -> appointment ID
}

func newMemAppointments() *memAppointments {
	return &memAppointments{
		byID:  make(map[string]*models.Appointment),
		slots: make(map[string]string),
	}
}

func (s *memAppointments) FindActive(_ context.Context, doctorID, date, timeOfDay string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.slots[models.ComposeSlotKey(doctorID, date, timeOfDay)]; ok {
		copy := *s.byID[id]
		return &copy, nil
	}
	return nil, nil
}

func (s *memAppointments) Insert(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appt.SlotKey != nil {
		if _, taken := s.slots[*appt.SlotKey]; taken {
			return booking.ErrSlotTaken
		}
	}
	appt.ID = uuid.New().String()
	stored := *appt
	s.byID[appt.ID] = &stored
	if appt.SlotKey != nil {
		s.slots[*appt.SlotKey] = appt.ID
	}
	return nil
}

func (s *memAppointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copy := *appt
	return &copy, nil
}

func (s *memAppointments) Update(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[appt.ID]
	if !ok {
		return fmt.Errorf("appointment %s not found", appt.ID)
	}
	if prev.SlotKey != nil && appt.SlotKey == nil {
		delete(s.slots, *prev.SlotKey)
	}
	stored := *appt
	s.byID[appt.ID] = &stored
	return nil
}

type appointmentFixture struct {
	handler      *AppointmentHandler
	appointments *memAppointments
	patientID    string
	doctorID     string
}

func newAppointmentFixture() *appointmentFixture {
	patientID := uuid.New().String()
	doctorID := uuid.New().String()

	directory := &memDirectory{users: map[string]*models.User{
		doctorID: {
			BaseModel:  models.BaseModel{ID: doctorID},
			Role:       models.RoleDoctor,
			IsActive:   true,
			IsVerified: true,
		},
		patientID: {
			BaseModel: models.BaseModel{ID: patientID},
			Role:      models.RolePatient,
			IsActive:  true,
		},
	}}
	availability := &memAvailability{windows: []models.AvailabilityWindow{
		{DoctorID: doctorID, DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
	}}
	appointments := newMemAppointments()

	svc := booking.NewService(directory, availability, appointments, zap.NewNop())
	handler := NewAppointmentHandler(nil, svc, realtime.NewHub(zap.NewNop()), zap.NewNop())

	return &appointmentFixture{
		handler:      handler,
		appointments: appointments,
		patientID:    patientID,
		doctorID:     doctorID,
	}
}

// asUser injects the auth context the middleware normally sets.
func asUser(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
	}
}

func (f *appointmentFixture) router(userID string, role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(asUser(userID, role))
	router.POST("/appointments", f.handler.CreateAppointment)
	router.PUT("/appointments/:id/status", f.handler.UpdateAppointmentStatus)
	router.PUT("/appointments/:id/cancel", f.handler.CancelAppointment)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

const mondayDate = "2026-08-31"

func TestCreateAppointmentSuccess(t *testing.T) {
	f := newAppointmentFixture()
	router := f.router(f.patientID, models.RolePatient)

	w := doJSON(t, router, http.MethodPost, "/appointments", gin.H{
		"doctorId": f.doctorID,
		"date":     mondayDate,
		"time":     "09:30",
		"notes":    "first visit",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Status != "success" {
		t.Fatalf("envelope status = %q", env.Status)
	}

	var appt models.Appointment
	if err := json.Unmarshal(env.Data, &appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	if appt.Status != models.StatusPending {
		t.Fatalf("appointment status = %q, want pending", appt.Status)
	}
	if appt.ID == "" {
		t.Fatal("appointment ID not assigned")
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newAppointmentFixture()
	router := f.router(f.patientID, models.RolePatient)

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing doctor", gin.H{"date": mondayDate, "time": "09:30"}},
		{"bad doctor id", gin.H{"doctorId": "not-a-uuid", "date": mondayDate, "time": "09:30"}},
		{"bad date", gin.H{"doctorId": f.doctorID, "date": "31-08-2026", "time": "09:30"}},
		{"bad time", gin.H{"doctorId": f.doctorID, "date": mondayDate, "time": "9am"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/appointments", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateAppointmentErrorMapping(t *testing.T) {
	f := newAppointmentFixture()
	router := f.router(f.patientID, models.RolePatient)

	// Unknown doctor -> 404.
	w := doJSON(t, router, http.MethodPost, "/appointments", gin.H{
		"doctorId": uuid.New().String(),
		"date":     mondayDate,
		"time":     "09:30",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown doctor: status = %d, body %s", w.Code, w.Body.String())
	}

	// Outside the doctor's availability window -> 400.
	w = doJSON(t, router, http.MethodPost, "/appointments", gin.H{
		"doctorId": f.doctorID,
		"date":     mondayDate,
		"time":     "15:00",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("outside availability: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestCreateAppointmentSlotConflict(t *testing.T) {
	f := newAppointmentFixture()
	router := f.router(f.patientID, models.RolePatient)

	body := gin.H{"doctorId": f.doctorID, "date": mondayDate, "time": "10:00"}
	if w := doJSON(t, router, http.MethodPost, "/appointments", body); w.Code != http.StatusCreated {
		t.Fatalf("first booking: status = %d, body %s", w.Code, w.Body.String())
	}

	w := doJSON(t, router, http.MethodPost, "/appointments", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("second booking: status = %d, body %s", w.Code, w.Body.String())
	}
	if env := decodeEnvelope(t, w); env.Status != "error" {
		t.Fatalf("envelope status = %q, want error", env.Status)
	}
}

func (f *appointmentFixture) book(t *testing.T, timeOfDay string) models.Appointment {
	t.Helper()
	router := f.router(f.patientID, models.RolePatient)
	w := doJSON(t, router, http.MethodPost, "/appointments", gin.H{
		"doctorId": f.doctorID,
		"date":     mondayDate,
		"time":     timeOfDay,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("booking: status = %d, body %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	var appt models.Appointment
	if err := json.Unmarshal(env.Data, &appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	return appt
}

func TestUpdateAppointmentStatus(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.book(t, "09:00")
	router := f.router(f.doctorID, models.RoleDoctor)

	w := doJSON(t, router, http.MethodPut, "/appointments/"+appt.ID+"/status", gin.H{"status": "confirmed"})
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: status = %d, body %s", w.Code, w.Body.String())
	}

	// completed -> confirmed is not in the transition table.
	w = doJSON(t, router, http.MethodPut, "/appointments/"+appt.ID+"/status", gin.H{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, http.MethodPut, "/appointments/"+appt.ID+"/status", gin.H{"status": "confirmed"})
	if w.Code != http.StatusConflict {
		t.Fatalf("illegal transition: status = %d, body %s", w.Code, w.Body.String())
	}

	// pending is not a valid target at all.
	other := f.book(t, "09:30")
	w = doJSON(t, router, http.MethodPut, "/appointments/"+other.ID+"/status", gin.H{"status": "pending"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("pending target: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestUpdateAppointmentStatusOwnership(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.book(t, "09:00")

	intruder := f.router(uuid.New().String(), models.RoleDoctor)
	w := doJSON(t, intruder, http.MethodPut, "/appointments/"+appt.ID+"/status", gin.H{"status": "confirmed"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestCancelAppointment(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.book(t, "11:00")
	router := f.router(f.patientID, models.RolePatient)

	w := doJSON(t, router, http.MethodPut, "/appointments/"+appt.ID+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: status = %d, body %s", w.Code, w.Body.String())
	}

	// Cancelling again must fail: the appointment is no longer pending.
	w = doJSON(t, router, http.MethodPut, "/appointments/"+appt.ID+"/cancel", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second cancel: status = %d, body %s", w.Code, w.Body.String())
	}

	// The freed slot is bookable again.
	f.book(t, "11:00")
}

func TestCancelAppointmentOwnership(t *testing.T) {
	f := newAppointmentFixture()
	appt := f.book(t, "11:30")

	intruder := f.router(uuid.New().String(), models.RolePatient)
	w := doJSON(t, intruder, http.MethodPut, "/appointments/"+appt.ID+"/cancel", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}
