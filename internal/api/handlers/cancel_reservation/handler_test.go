package cancel_reservation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type mockService struct {
	mock.Mock
}

func (m *mockService) Cancel(ctx context.Context, req *models.CancelRequest) (*models.ReservationResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.ReservationResponse)
	return resp, args.Error(1)
}

func newRouter(svc *mockService) *mux.Router {
	h := NewHandler(svc, nopLogger{})
	r := mux.NewRouter()
	r.Use(middleware.Identity)
	r.HandleFunc("/reservations/{reservationId}/cancel", h.Handle).Methods(http.MethodPost)
	r.Handle("/merchant/reservations/{reservationId}/cancel",
		middleware.RequireStaff(http.HandlerFunc(h.Handle))).Methods(http.MethodPost)
	return r
}

func post(r http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_GuestCancelsWithPhone(t *testing.T) {
	svc := &mockService{}
	svc.On("Cancel", mock.Anything, mock.MatchedBy(func(req *models.CancelRequest) bool {
		return req.ReservationID == 5 &&
			req.Requester.StaffID == nil &&
			req.Requester.MemberID == nil &&
			req.Phone != nil && *req.Phone == "0911222333" &&
			req.Reason != nil && *req.Reason == "plans changed"
	})).Return(&models.ReservationResponse{ID: 5, Status: "cancelled"}, nil)

	rec := post(newRouter(svc), "/reservations/5/cancel", `{"phone":"0911222333","reason":"plans changed"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	svc.AssertExpectations(t)
}

func TestHandler_MerchantCancelWithoutBody(t *testing.T) {
	svc := &mockService{}
	svc.On("Cancel", mock.Anything, mock.MatchedBy(func(req *models.CancelRequest) bool {
		return req.Requester.StaffID != nil && *req.Requester.StaffID == 100 && req.Reason == nil
	})).Return(&models.ReservationResponse{ID: 5, Status: "cancelled"}, nil)

	router := newRouter(svc)

	rec := post(router, "/merchant/reservations/5/cancel", "", map[string]string{middleware.HeaderStaffID: "100"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// без заголовка сотрудника merchant-маршрут закрыт
	rec = post(router, "/merchant/reservations/5/cancel", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc.AssertNumberOfCalls(t, "Cancel", 1)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{name: "bad id", path: "/reservations/abc/cancel", wantStatus: http.StatusBadRequest},
		{name: "zero id", path: "/reservations/0/cancel", wantStatus: http.StatusBadRequest},
		{name: "not found", path: "/reservations/5/cancel", err: reservations.ErrReservationNotFound, wantStatus: http.StatusNotFound},
		{name: "wrong phone", path: "/reservations/5/cancel", err: reservations.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "no identity", path: "/reservations/5/cancel", err: reservations.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "already completed", path: "/reservations/5/cancel", err: reservations.ErrInvalidState, wantStatus: http.StatusConflict},
		{name: "reason too long", path: "/reservations/5/cancel", err: reservations.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "internal", path: "/reservations/5/cancel", err: reservations.ErrInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			if tt.err != nil {
				svc.On("Cancel", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			rec := post(newRouter(svc), tt.path, `{"phone":"0911222333"}`, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
