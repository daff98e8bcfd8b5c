package verify_guest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type stubGuests struct {
	result *guests.VerifyResult
	err    error
	phone  string
}

func (s *stubGuests) Verify(_ context.Context, phone string) (*guests.VerifyResult, error) {
	s.phone = phone
	return s.result, s.err
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reservations/verify-guest", strings.NewReader(body)))
	return rec
}

func TestHandler_Verify(t *testing.T) {
	expires := time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC)
	svc := &stubGuests{result: &guests.VerifyResult{
		LookupToken: "4f1c2d9e-0000-4000-8000-000000000001",
		ExpiresAt:   expires,
		Reservations: []*domain.Reservation{{
			ID:              1,
			Reference:       "R20261016-ABCDEA",
			StoreID:         1,
			ContactPhone:    "0911222333",
			ReservationDate: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
			TimeWindow:      "18:00-20:00",
			Adults:          6,
			Status:          domain.StatusPending,
		}},
	}}

	rec := post(NewHandler(svc, nopLogger{}), `{"phone":"0911-222-333"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0911-222-333", svc.phone)

	var body VerifyGuestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, svc.result.LookupToken, body.LookupToken)
	assert.True(t, expires.Equal(body.ExpiresAt))
	require.Len(t, body.Reservations, 1)
	assert.Equal(t, "R20261016-ABCDEA", body.Reservations[0].Reference)
	assert.True(t, body.Reservations[0].IsGuest)
}

func TestHandler_Errors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, post(NewHandler(&stubGuests{}, nopLogger{}), `phone`).Code)
	assert.Equal(t, http.StatusBadRequest, post(NewHandler(&stubGuests{err: guests.ErrInvalidPhone}, nopLogger{}), `{"phone":"12"}`).Code)
	assert.Equal(t, http.StatusNotFound, post(NewHandler(&stubGuests{err: guests.ErrNoGuestReservations}, nopLogger{}), `{"phone":"0911222333"}`).Code)
	assert.Equal(t, http.StatusInternalServerError, post(NewHandler(&stubGuests{err: guests.ErrInternal}, nopLogger{}), `{"phone":"0911222333"}`).Code)
}
