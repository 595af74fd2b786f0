package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-workflow/internal/config"
	"github.com/jwalitptl/clinic-workflow/internal/handler/appointment"
	"github.com/jwalitptl/clinic-workflow/internal/handler/consultation"
	"github.com/jwalitptl/clinic-workflow/internal/handler/health"
	"github.com/jwalitptl/clinic-workflow/internal/handler/patient"
	"github.com/jwalitptl/clinic-workflow/internal/repository/sqlstore"
	appointmentService "github.com/jwalitptl/clinic-workflow/internal/service/appointment"
	consultationService "github.com/jwalitptl/clinic-workflow/internal/service/consultation"
	patientService "github.com/jwalitptl/clinic-workflow/internal/service/patient"
	"github.com/jwalitptl/clinic-workflow/internal/workflow"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
)

// TestResponse wraps the API response for testing
type TestResponse struct {
	Code    int             `json:"-"`
	Status  string          `json:"status"`
	ErrCode string          `json:"code"`
	Message string          `json:"message"`
	RawData json.RawMessage `json:"data"`
	Data    map[string]interface{} `json:"-"`
}

func (r TestResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r TestResponse) GetString(key string) string {
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

type testAPI struct {
	t      *testing.T
	router *Router
}

func newTestAPI(t *testing.T, config RouterConfig) *testAPI {
	t.Helper()
	dbConfig := sqliteConfig()
	db, err := sqlstore.NewDB(dbConfig)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(dbConfig, db))

	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	appMetrics := metrics.NewMetrics("clinic", config.Registry)

	store := sqlstore.NewStore(db)
	patientRepo := sqlstore.NewPatientRepository(db)
	appointmentRepo := sqlstore.NewAppointmentRepository(db)
	consultationRepo := sqlstore.NewConsultationRepository(db)
	executor := workflow.NewExecutor(store, logger.Nop(), appMetrics)

	patientSvc := patientService.NewService(patientRepo, executor, logger.Nop(), appMetrics)
	appointmentSvc := appointmentService.NewService(patientRepo, appointmentRepo, consultationRepo, executor, time.UTC, logger.Nop(), appMetrics)
	consultationSvc := consultationService.NewService(patientRepo, appointmentRepo, consultationRepo, executor, logger.Nop(), appMetrics)

	r := NewRouter(config,
		health.NewHandler(store),
		patient.NewHandler(patientSvc, appointmentSvc, consultationSvc),
		appointment.NewHandler(appointmentSvc, consultationSvc),
		consultation.NewHandler(consultationSvc),
	)
	return &testAPI{t: t, router: r}
}

func sqliteConfig() config.DatabaseConfig {
	return config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}
}

func (a *testAPI) makeRequest(method, path string, body interface{}) TestResponse {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.Engine().ServeHTTP(w, req)

	resp := TestResponse{Code: w.Code}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if len(resp.RawData) > 0 && resp.RawData[0] == '{' {
		require.NoError(a.t, json.Unmarshal(resp.RawData, &resp.Data))
	}
	return resp
}

func TestClinicFlow(t *testing.T) {
	api := newTestAPI(t, RouterConfig{})

	// Register patient
	createResp := api.makeRequest(http.MethodPost, "/patients", map[string]interface{}{
		"name": "John Doe", "gender": "Male", "age": 30, "phone": "9876543210",
	})
	require.True(t, createResp.IsSuccess(), createResp.Message)
	assert.Equal(t, http.StatusCreated, createResp.Code)
	assert.Equal(t, "Active", createResp.GetString("status"))
	patientID := createResp.GetString("id")

	// Book appointment
	bookResp := api.makeRequest(http.MethodPost, "/appointments", map[string]interface{}{
		"patient_id":   patientID,
		"doctor_name":  "Dr. Smith",
		"scheduled_at": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.True(t, bookResp.IsSuccess(), bookResp.Message)
	assert.Equal(t, "Scheduled", bookResp.GetString("status"))
	appointmentID := bookResp.GetString("id")

	// Record consultation
	recordResp := api.makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/consultation", appointmentID), map[string]string{
		"vitals": "BP 120/80, Temp 98.6F", "notes": "Patient reports mild headache",
	})
	require.True(t, recordResp.IsSuccess(), recordResp.Message)
	assert.Equal(t, "Draft", recordResp.GetString("status"))
	consultationID := recordResp.GetString("id")

	// A second recording is rejected
	againResp := api.makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/consultation", appointmentID), map[string]string{
		"vitals": "BP 125/85",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, againResp.Code)
	assert.Equal(t, "consultation_already_exists", againResp.ErrCode)

	// Edit while draft
	editResp := api.makeRequest(http.MethodPut, "/consultations/"+consultationID, map[string]string{
		"vitals": "BP 118/76, Temp 98.4F", "notes": "Headache resolved",
	})
	require.True(t, editResp.IsSuccess(), editResp.Message)
	assert.Equal(t, "BP 118/76, Temp 98.4F", editResp.GetString("vitals"))

	// History is empty until completion
	historyResp := api.makeRequest(http.MethodGet, fmt.Sprintf("/patients/%s/history", patientID), nil)
	require.True(t, historyResp.IsSuccess())
	assert.JSONEq(t, `[]`, string(historyResp.RawData))

	// Complete
	completeResp := api.makeRequest(http.MethodPost, fmt.Sprintf("/consultations/%s/complete", consultationID), nil)
	require.True(t, completeResp.IsSuccess(), completeResp.Message)
	assert.Equal(t, "Completed", completeResp.Data["consultation"].(map[string]interface{})["status"])
	assert.Equal(t, "Completed", completeResp.Data["appointment"].(map[string]interface{})["status"])

	// Locked after completion
	lockedResp := api.makeRequest(http.MethodPut, "/consultations/"+consultationID, map[string]string{"vitals": "BP 130/90"})
	assert.Equal(t, http.StatusUnprocessableEntity, lockedResp.Code)
	assert.Equal(t, "consultation_locked", lockedResp.ErrCode)

	// Completed appointments cannot be cancelled
	cancelResp := api.makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", appointmentID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, cancelResp.Code)
	assert.Equal(t, "invalid_state_for_cancel", cancelResp.ErrCode)

	// Deactivate, then history is still readable and booking is refused
	statusResp := api.makeRequest(http.MethodPut, fmt.Sprintf("/patients/%s/status", patientID), map[string]string{"status": "Inactive"})
	require.True(t, statusResp.IsSuccess(), statusResp.Message)

	historyResp = api.makeRequest(http.MethodGet, fmt.Sprintf("/patients/%s/history", patientID), nil)
	require.True(t, historyResp.IsSuccess())
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(historyResp.RawData, &history))
	require.Len(t, history, 1)
	assert.Equal(t, consultationID, history[0]["id"])
	assert.Equal(t, "Headache resolved", history[0]["notes"])

	refusedResp := api.makeRequest(http.MethodPost, "/appointments", map[string]interface{}{
		"patient_id":   patientID,
		"doctor_name":  "Dr. Smith",
		"scheduled_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, refusedResp.Code)
	assert.Equal(t, "inactive_patient", refusedResp.ErrCode)
}

func TestNotFoundAndValidation(t *testing.T) {
	api := newTestAPI(t, RouterConfig{})

	resp := api.makeRequest(http.MethodGet, "/patients/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not_found", resp.ErrCode)

	resp = api.makeRequest(http.MethodPut, "/consultations/not-an-id", map[string]string{"vitals": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = api.makeRequest(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, RouterConfig{RateLimitEnabled: true, RateLimit: 0.001, RateBurst: 2})

	assert.Equal(t, http.StatusOK, api.makeRequest(http.MethodGet, "/patients", nil).Code)
	assert.Equal(t, http.StatusOK, api.makeRequest(http.MethodGet, "/patients", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, api.makeRequest(http.MethodGet, "/patients", nil).Code)

	// health checks are not limited
	assert.Equal(t, http.StatusOK, api.makeRequest(http.MethodGet, "/health/live", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, RouterConfig{MetricsPrefix: "clinic_http"})

	api.makeRequest(http.MethodGet, "/patients", nil)
	api.makeRequest(http.MethodGet, "/patients/00000000-0000-0000-0000-000000000001", nil)

	w := httptest.NewRecorder()
	api.router.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `clinic_http_requests_total{method="GET",path="/api/v1/patients",status="200"} 1`)
	assert.Contains(t, body, `clinic_http_errors_total{method="GET",path="/api/v1/patients/:id",type="client"} 1`)
}

func TestRequestIDHeader(t *testing.T) {
	api := newTestAPI(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	api.router.Engine().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
}
