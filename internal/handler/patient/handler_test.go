package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
)

type fakeService struct {
	register  func(in model.PatientInput) (*model.Patient, error)
	setStatus func(id uuid.UUID, status string) (*model.Patient, error)
	get       func(id uuid.UUID) (*model.Patient, error)
	list      func(filters model.PatientFilters) ([]*model.Patient, error)
}

func (f *fakeService) RegisterPatient(_ context.Context, in model.PatientInput) (*model.Patient, error) {
	return f.register(in)
}

func (f *fakeService) SetPatientStatus(_ context.Context, id uuid.UUID, status string) (*model.Patient, error) {
	return f.setStatus(id, status)
}

func (f *fakeService) GetPatient(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	return f.get(id)
}

func (f *fakeService) ListPatients(_ context.Context, filters model.PatientFilters) ([]*model.Patient, error) {
	return f.list(filters)
}

type fakeAppointments func(patientID uuid.UUID) ([]*model.Appointment, error)

func (f fakeAppointments) ListPatientAppointments(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return f(patientID)
}

type fakeHistory func(patientID uuid.UUID) ([]*model.Consultation, error)

func (f fakeHistory) GetPatientHistory(_ context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	return f(patientID)
}

type response struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *Handler, method, path string, body interface{}) (int, response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestRegisterPatient(t *testing.T) {
	var got model.PatientInput
	svc := &fakeService{register: func(in model.PatientInput) (*model.Patient, error) {
		got = in
		return &model.Patient{Base: model.Base{ID: uuid.New()}, Name: in.Name, Status: model.PatientStatusActive}, nil
	}}
	h := NewHandler(svc, nil, nil)

	code, resp := serve(t, h, http.MethodPost, "/patients", map[string]interface{}{
		"name": "John Doe", "gender": "Male", "age": 30, "phone": "9876543210",
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.PatientInput{Name: "John Doe", Gender: model.GenderMale, Age: 30, Phone: "9876543210"}, got)

	var p model.Patient
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Equal(t, model.PatientStatusActive, p.Status)
}

func TestRegisterPatientRejectsMissingFields(t *testing.T) {
	svc := &fakeService{register: func(model.PatientInput) (*model.Patient, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	h := NewHandler(svc, nil, nil)

	code, resp := serve(t, h, http.MethodPost, "/patients", map[string]interface{}{"name": "John Doe"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apperrors.CodeInvalidInput), resp.Code)
}

func TestSetPatientStatus(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{setStatus: func(gotID uuid.UUID, status string) (*model.Patient, error) {
		assert.Equal(t, id, gotID)
		if status != "Inactive" {
			return nil, apperrors.ErrInvalidStatusValue
		}
		return &model.Patient{Base: model.Base{ID: id}, Status: model.PatientStatusInactive}, nil
	}}
	h := NewHandler(svc, nil, nil)

	code, resp := serve(t, h, http.MethodPut, "/patients/"+id.String()+"/status", map[string]string{"status": "Inactive"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)

	code, resp = serve(t, h, http.MethodPut, "/patients/"+id.String()+"/status", map[string]string{"status": "Gone"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apperrors.CodeInvalidStatusValue), resp.Code)
}

func TestGetPatient(t *testing.T) {
	svc := &fakeService{get: func(uuid.UUID) (*model.Patient, error) {
		return nil, apperrors.NotFound("patient", nil)
	}}
	h := NewHandler(svc, nil, nil)

	code, resp := serve(t, h, http.MethodGet, "/patients/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(apperrors.CodeNotFound), resp.Code)

	code, resp = serve(t, h, http.MethodGet, "/patients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp.Status)
}

func TestListPatientsPassesStatusFilter(t *testing.T) {
	var got model.PatientFilters
	svc := &fakeService{list: func(filters model.PatientFilters) ([]*model.Patient, error) {
		got = filters
		return []*model.Patient{}, nil
	}}
	h := NewHandler(svc, nil, nil)

	code, _ := serve(t, h, http.MethodGet, "/patients?status=Active", nil)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, got.Status)
	assert.Equal(t, model.PatientStatusActive, *got.Status)

	code, _ = serve(t, h, http.MethodGet, "/patients", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, got.Status)
}

func TestPatientAppointmentsAndHistory(t *testing.T) {
	id := uuid.New()
	appointments := fakeAppointments(func(patientID uuid.UUID) ([]*model.Appointment, error) {
		return []*model.Appointment{{PatientID: patientID, Status: model.AppointmentStatusScheduled}}, nil
	})
	history := fakeHistory(func(patientID uuid.UUID) ([]*model.Consultation, error) {
		return nil, apperrors.NotFound("patient", nil)
	})
	h := NewHandler(&fakeService{}, appointments, history)

	code, resp := serve(t, h, http.MethodGet, "/patients/"+id.String()+"/appointments", nil)
	assert.Equal(t, http.StatusOK, code)
	var list []model.Appointment
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].PatientID)

	code, _ = serve(t, h, http.MethodGet, "/patients/"+id.String()+"/history", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
