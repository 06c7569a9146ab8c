package timecard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	timecarderrors "github.com/julikubo/timesupa/internal/timecard/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	current    *TimeRecordResponse
	clockInRes TimeRecordResponse
	clockInErr error
	clockOut   TimeRecordResponse
	clockOutIn *ClockOutRequest
	manual     ManualRecordResponse
	manualErr  error
	records    []TimeRecordResponse
	stats      StatisticsResponse
	deleteErr  error
}

func (f *fakeService) CurrentRecord(ctx context.Context, userID string) (*TimeRecordResponse, error) {
	return f.current, nil
}

func (f *fakeService) ClockIn(ctx context.Context, userID string) (TimeRecordResponse, error) {
	return f.clockInRes, f.clockInErr
}

func (f *fakeService) ClockOut(ctx context.Context, userID string, req ClockOutRequest) (TimeRecordResponse, error) {
	f.clockOutIn = &req
	return f.clockOut, nil
}

func (f *fakeService) SaveManual(ctx context.Context, userID string, req ManualRecordRequest) (ManualRecordResponse, error) {
	return f.manual, f.manualErr
}

func (f *fakeService) UpdateRecord(ctx context.Context, userID, id string, req UpdateRecordRequest) (TimeRecordResponse, error) {
	return TimeRecordResponse{ID: id}, nil
}

func (f *fakeService) DeleteRecord(ctx context.Context, userID, id string) error {
	return f.deleteErr
}

func (f *fakeService) Records(ctx context.Context, userID string, from, to *time.Time) ([]TimeRecordResponse, error) {
	return f.records, nil
}

func (f *fakeService) Statistics(ctx context.Context, userID string, from, to *time.Time) (StatisticsResponse, error) {
	return f.stats, nil
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, nil)

	// Auth is exercised separately; tests inject the validated user directly.
	grp := r.Group("/api/v1/timecards")
	grp.Use(func(c *gin.Context) {
		c.Set("user_id_validated", "2b6d9f3e-7f34-4a2b-9a01-0d6c8e5a1f00")
	})
	grp.GET("/current", h.Current)
	grp.GET("", h.List)
	grp.GET("/statistics", h.Statistics)
	grp.POST("", h.SaveManual)
	grp.POST("/clock-in", h.ClockIn)
	grp.POST("/clock-out", h.ClockOut)
	grp.PATCH("/:id", h.Update)
	grp.DELETE("/:id", h.Delete)
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandlerClockIn_Created(t *testing.T) {
	svc := &fakeService{clockInRes: TimeRecordResponse{ID: "abc", Status: StatusWorking, ClockIn: "08:00:00"}}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timecards/clock-in", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["ok"])
	data := body["data"].(map[string]any)
	assert.Equal(t, StatusWorking, data["status"])
}

func TestHandlerClockIn_AlreadyWorkingConflict(t *testing.T) {
	svc := &fakeService{clockInErr: timecarderrors.ErrAlreadyWorking}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timecards/clock-in", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["ok"])
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_STATE", errObj["code"])
}

func TestHandlerClockOut_EmptyBodyAccepted(t *testing.T) {
	svc := &fakeService{clockOut: TimeRecordResponse{Status: StatusCompleted}}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timecards/clock-out", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.clockOutIn)
	assert.Nil(t, svc.clockOutIn.Notes)
}

func TestHandlerClockOut_NotesForwarded(t *testing.T) {
	svc := &fakeService{clockOut: TimeRecordResponse{Status: StatusCompleted}}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timecards/clock-out",
		bytes.NewBufferString(`{"notes":"left early"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.clockOutIn)
	require.NotNil(t, svc.clockOutIn.Notes)
	assert.Equal(t, "left early", *svc.clockOutIn.Notes)
}

func TestHandlerSaveManual_ValidationError(t *testing.T) {
	r := setupRouter(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timecards",
		bytes.NewBufferString(`{"date":"junk","clock_in":"08:00","clock_out":"17:00"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["ok"])
}

func TestHandlerDelete_NotFound(t *testing.T) {
	svc := &fakeService{deleteErr: timecarderrors.ErrRecordNotFound}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/timecards/some-id", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerList_Paginates(t *testing.T) {
	rows := make([]TimeRecordResponse, 5)
	for i := range rows {
		rows[i] = TimeRecordResponse{ID: string(rune('a' + i))}
	}
	svc := &fakeService{records: rows}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timecards?page=2&limit=2", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	data := body["data"].([]any)
	assert.Len(t, data, 2)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 5, meta["total"])
	assert.EqualValues(t, 3, meta["totalPages"])
}

func TestHandlerStatistics(t *testing.T) {
	svc := &fakeService{stats: StatisticsResponse{
		TotalHours:     27,
		OvertimeHours:  3,
		RecordCount:    3,
		HoursFormatted: "27:00",
	}}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timecards/statistics", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 27, data["total_hours"])
	assert.EqualValues(t, 3, data["record_count"])
}

func TestHandlerCurrent_NoRecordReturnsNullData(t *testing.T) {
	r := setupRouter(&fakeService{current: nil})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timecards/current", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Nil(t, body["data"])
}
