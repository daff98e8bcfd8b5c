package update_reservation_status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type mockService struct {
	mock.Mock
}

func (m *mockService) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (*models.ReservationResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.ReservationResponse)
	return resp, args.Error(1)
}

func serve(svc *mockService, path, body string, staff bool) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Use(middleware.Identity)
	r.HandleFunc("/merchant/reservations/{reservationId}/update-status", NewHandler(svc, nopLogger{}).Handle).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if staff {
		req.Header.Set(middleware.HeaderStaffID, "3")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ConfirmsReservation(t *testing.T) {
	svc := &mockService{}
	svc.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(req *models.UpdateStatusRequest) bool {
		return req.ReservationID == 9 && req.StaffID == 3 && req.Status == "confirmed"
	})).Return(&models.ReservationResponse{ID: 9, Status: "confirmed"}, nil)

	rec := serve(svc, "/merchant/reservations/9/update-status", `{"status":"confirmed"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "confirmed", body.Status)
	svc.AssertExpectations(t)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		noStaff    bool
		err        error
		wantStatus int
	}{
		{name: "bad id", path: "/merchant/reservations/abc/update-status", body: `{"status":"confirmed"}`, wantStatus: http.StatusBadRequest},
		{name: "no staff", body: `{"status":"confirmed"}`, noStaff: true, wantStatus: http.StatusUnauthorized},
		{name: "malformed body", body: `{"status":`, wantStatus: http.StatusBadRequest},
		{name: "unknown status", body: `{"status":"seated"}`, err: fmt.Errorf("%w: unknown status", reservations.ErrInvalidInput), wantStatus: http.StatusBadRequest},
		{name: "not found", body: `{"status":"confirmed"}`, err: reservations.ErrReservationNotFound, wantStatus: http.StatusNotFound},
		{name: "store not found", body: `{"status":"confirmed"}`, err: reservations.ErrStoreNotFound, wantStatus: http.StatusNotFound},
		{name: "foreign store", body: `{"status":"confirmed"}`, err: reservations.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "terminal status", body: `{"status":"confirmed"}`, err: reservations.ErrInvalidState, wantStatus: http.StatusConflict},
		{name: "retries exhausted", body: `{"status":"confirmed"}`, err: txmanager.ErrRetriesExhausted, wantStatus: http.StatusServiceUnavailable},
		{name: "internal", body: `{"status":"confirmed"}`, err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			if tt.err != nil {
				svc.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil, tt.err)
			}
			path := tt.path
			if path == "" {
				path = "/merchant/reservations/9/update-status"
			}

			rec := serve(svc, path, tt.body, !tt.noStaff)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err == nil {
				svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandler_InvalidStatusDetail(t *testing.T) {
	svc := &mockService{}
	svc.On("UpdateStatus", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: unknown status \"seated\"", reservations.ErrInvalidInput))

	rec := serve(svc, "/merchant/reservations/9/update-status", `{"status":"seated"}`, true)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, `unknown status "seated"`, body.Detail)
}
