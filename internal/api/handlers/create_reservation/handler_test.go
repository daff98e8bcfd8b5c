package create_reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/capacity"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) Execute(ctx context.Context, req *createReservation.Request) (*models.ReservationResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.ReservationResponse)
	return resp, args.Error(1)
}

func serve(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	middleware.Identity(http.HandlerFunc(h.Handle)).ServeHTTP(rec, req)
	return rec
}

const guestBody = `{"storeId":1,"reservationDate":"2026-10-16","timeWindow":"18:00-20:00","adults":6,"children":0,"contactName":"Lin Mei","contactPhone":"0911222333"}`

func TestHandler_CreatesGuestReservation(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *createReservation.Request) bool {
		return req.MemberID == nil &&
			req.StoreID == 1 &&
			req.Date.Equal(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)) &&
			req.TimeWindow == "18:00-20:00" &&
			req.Adults == 6 &&
			*req.ContactPhone == "0911222333"
	})).Return(&models.ReservationResponse{ID: 1, Reference: "R20261016-ABCDEA", StoreID: 1, Status: "pending"}, nil)

	rec := serve(NewHandler(uc, nopLogger{}), guestBody, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body models.ReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "R20261016-ABCDEA", body.Reference)
	uc.AssertExpectations(t)
}

func TestHandler_MemberFromHeader(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.MatchedBy(func(req *createReservation.Request) bool {
		return req.MemberID != nil && *req.MemberID == 7
	})).Return(&models.ReservationResponse{ID: 2}, nil)

	rec := serve(NewHandler(uc, nopLogger{}), guestBody, map[string]string{middleware.HeaderMemberID: "7"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	uc.AssertExpectations(t)
}

func TestHandler_InvalidInputCarriesFieldDetail(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("Execute", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: adults must be at least 1", createReservation.ErrInvalidInput))

	rec := serve(NewHandler(uc, nopLogger{}), guestBody, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, msgInvalidInput, body.Error)
	assert.Equal(t, "adults must be at least 1", body.Detail)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "malformed json", body: `{"storeId":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"storeId":1,"seats":3}`, wantStatus: http.StatusBadRequest},
		{name: "bad date", body: `{"storeId":1,"reservationDate":"16.10.2026","timeWindow":"18:00","adults":2}`, wantStatus: http.StatusBadRequest},
		{name: "capacity", body: guestBody, err: &capacity.ExceededError{Bound: capacity.BoundAggregate, Limit: 20, CurrentLoad: 14, Requested: 7, Remaining: 6}, wantStatus: http.StatusConflict},
		{name: "invalid input", body: guestBody, err: createReservation.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "past date", body: guestBody, err: createReservation.ErrInvalidDate, wantStatus: http.StatusBadRequest},
		{name: "store not found", body: guestBody, err: createReservation.ErrStoreNotFound, wantStatus: http.StatusNotFound},
		{name: "window not found", body: guestBody, err: createReservation.ErrWindowNotFound, wantStatus: http.StatusNotFound},
		{name: "store inactive", body: guestBody, err: createReservation.ErrStoreInactive, wantStatus: http.StatusConflict},
		{name: "reference exhausted", body: guestBody, err: createReservation.ErrReferenceExhausted, wantStatus: http.StatusServiceUnavailable},
		{name: "internal", body: guestBody, err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			if tt.err != nil {
				uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			rec := serve(NewHandler(uc, nopLogger{}), tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err == nil {
				uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
			}
		})
	}
}
