package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praxis/internal/calendar"
	"praxis/internal/database"
	"praxis/internal/events"
	"praxis/internal/finance"
	"praxis/internal/model"
	"praxis/internal/service"
)

func newTestServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	sessions := service.NewSessionService(db, db, events.NewBus(), &logger)
	views := calendar.NewAssembler(db, nil, nil)
	fin := finance.NewService(db)

	srv := httptest.NewServer(NewServer(sessions, views, fin, db, db, &logger).Handler())
	t.Cleanup(srv.Close)
	return srv, db
}

func seedClient(t *testing.T, db *database.DB) *model.Client {
	t.Helper()
	c := &model.Client{Name: "Ana Souza", Phone: "5511999990000", SessionValue: 150}
	require.NoError(t, db.CreateClient(t.Context(), c))
	return c
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateSessionEndpoint(t *testing.T) {
	srv, db := newTestServer(t)
	client := seedClient(t, db)

	resp := postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id":    client.ID,
		"scheduled_at": time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		"billable":     true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	session := decode[model.Session](t, resp)
	assert.NotZero(t, session.ID)
	assert.Equal(t, model.StatusScheduled, session.Status)
	assert.Equal(t, 50, session.DurationMinutes)
	assert.Equal(t, 150.0, session.Value)
}

func TestCreateSessionConflictResponse(t *testing.T) {
	srv, db := newTestServer(t)
	client := seedClient(t, db)
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	first := postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": client.ID, "scheduled_at": at,
	})
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": client.ID, "scheduled_at": at.Add(30 * time.Minute),
	})
	require.Equal(t, http.StatusConflict, second.StatusCode)

	body := decode[map[string]any](t, second)
	assert.NotEmpty(t, body["conflicts"], "conflict response lists blocking sessions")
}

func TestCancelWithoutReasonRejected(t *testing.T) {
	srv, db := newTestServer(t)
	client := seedClient(t, db)

	created := decode[model.Session](t, postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": client.ID, "scheduled_at": time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}))

	resp := postJSON(t, fmt.Sprintf("%s/api/v1/sessions/%d/cancel", srv.URL, created.ID), map[string]any{
		"status": model.StatusCancelledByClient,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRescheduleEndpoint(t *testing.T) {
	srv, db := newTestServer(t)
	client := seedClient(t, db)

	created := decode[model.Session](t, postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": client.ID, "scheduled_at": time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}))

	resp := postJSON(t, fmt.Sprintf("%s/api/v1/sessions/%d/reschedule", srv.URL, created.ID), map[string]any{
		"new_time": time.Date(2024, 1, 16, 11, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	replacement := decode[model.Session](t, resp)
	require.NotNil(t, replacement.OriginalSessionID)
	assert.Equal(t, created.ID, *replacement.OriginalSessionID)

	getResp, err := http.Get(fmt.Sprintf("%s/api/v1/sessions/%d", srv.URL, created.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	original := decode[model.Session](t, getResp)
	assert.Equal(t, model.StatusRescheduled, original.Status)
}

func TestDayViewEndpoint(t *testing.T) {
	srv, db := newTestServer(t)
	client := seedClient(t, db)

	postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": client.ID, "scheduled_at": time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})

	resp, err := http.Get(srv.URL + "/api/v1/calendar/day?date=2024-01-15")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	view := decode[calendar.DayView](t, resp)
	assert.Equal(t, "2024-01-15", view.Date)
	require.Len(t, view.Sessions, 1)
	assert.Equal(t, "10:00", view.Sessions[0].StartTime)
	assert.Equal(t, "#3498db", view.Sessions[0].Color)
}

func TestFreeSlotsEndpoint(t *testing.T) {
	srv, db := newTestServer(t)
	client := seedClient(t, db)
	require.NoError(t, db.EnsureDefaultWorkingHours(t.Context()))

	postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": client.ID, "scheduled_at": time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
	})

	resp, err := http.Get(srv.URL + "/api/v1/slots?date=2024-01-15&duration=50")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Slots []model.FreeSlot `json:"slots"`
	}](t, resp)
	require.NotEmpty(t, body.Slots)
	for _, slot := range body.Slots {
		assert.NotEqual(t, "08:00", slot.StartTime, "occupied slot offered")
	}
}

func TestClientDirectoryEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[model.Client](t, postJSON(t, srv.URL+"/api/v1/clients", map[string]any{
		"name": "Bruno Lima", "phone": "5511988887777", "session_value": 180,
	}))
	require.NotZero(t, created.ID)
	assert.True(t, created.Active)

	postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": created.ID, "scheduled_at": time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})

	listResp, err := http.Get(srv.URL + "/api/v1/clients")
	require.NoError(t, err)
	defer listResp.Body.Close()
	clients := decode[[]model.Client](t, listResp)
	require.Len(t, clients, 1)
	assert.Equal(t, "Bruno Lima", clients[0].Name)

	sessResp, err := http.Get(fmt.Sprintf("%s/api/v1/clients/%d/sessions", srv.URL, created.ID))
	require.NoError(t, err)
	defer sessResp.Body.Close()
	sessions := decode[[]model.Session](t, sessResp)
	require.Len(t, sessions, 1)
	assert.Equal(t, 180.0, sessions[0].Value)

	emptyResp, err := http.Get(fmt.Sprintf(
		"%s/api/v1/clients/%d/sessions?from=2024-02-01&to=2024-03-01", srv.URL, created.ID))
	require.NoError(t, err)
	defer emptyResp.Body.Close()
	require.Equal(t, http.StatusOK, emptyResp.StatusCode)
	outside := decode[[]model.Session](t, emptyResp)
	assert.Empty(t, outside, "range filter excludes the January session")

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/clients/%d", srv.URL, created.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)

	getResp, err := http.Get(fmt.Sprintf("%s/api/v1/clients/%d", srv.URL, created.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestWorkingHoursEndpoints(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.EnsureDefaultWorkingHours(t.Context()))

	listResp, err := http.Get(srv.URL + "/api/v1/working-hours")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	days := decode[[]model.WorkingHoursDay](t, listResp)
	require.Len(t, days, 7)

	body, err := json.Marshal([]map[string]any{{
		"weekday": 1, "working": true,
		"start_time": "07:00", "end_time": "13:00",
		"session_duration_minutes": 45, "gap_minutes": 15,
	}})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/working-hours", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer putResp.Body.Close()
	require.Equal(t, http.StatusOK, putResp.StatusCode)

	monday, err := db.WorkingHoursFor(t.Context(), time.Monday)
	require.NoError(t, err)
	require.NotNil(t, monday)
	assert.Equal(t, "07:00", monday.StartTime)
	assert.Equal(t, "13:00", monday.EndTime)
	assert.Equal(t, 45, monday.SessionDurationMinutes)

	// The new template drives slot generation.
	slotsResp, err := http.Get(srv.URL + "/api/v1/slots?date=2024-01-15")
	require.NoError(t, err)
	defer slotsResp.Body.Close()
	slots := decode[struct {
		Slots []model.FreeSlot `json:"slots"`
	}](t, slotsResp)
	require.NotEmpty(t, slots.Slots)
	assert.Equal(t, "07:00", slots.Slots[0].StartTime)
}

func TestWorkingHoursValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := json.Marshal([]map[string]any{{
		"weekday": 1, "working": true,
		"start_time": "18:00", "end_time": "08:00",
	}})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/working-hours", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateClientValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/clients", map[string]any{
		"phone": "5511988887777",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMonthlyReportEndpoint(t *testing.T) {
	srv, db := newTestServer(t)
	client := seedClient(t, db)

	created := decode[model.Session](t, postJSON(t, srv.URL+"/api/v1/sessions", map[string]any{
		"client_id": client.ID, "scheduled_at": time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		"billable": true,
	}))
	completeResp := postJSON(t, fmt.Sprintf("%s/api/v1/sessions/%d/complete", srv.URL, created.ID), map[string]any{})
	require.Equal(t, http.StatusOK, completeResp.StatusCode)

	resp, err := http.Get(srv.URL + "/api/v1/finance/monthly?year=2024&month=3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decode[finance.MonthlyReport](t, resp)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 150.0, report.BilledValue)
}
