package verify_guest

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// VerifyGuestRequest HTTP request model
type VerifyGuestRequest struct {
	Phone string `json:"phone"`
}

// VerifyGuestResponse HTTP response model
type VerifyGuestResponse struct {
	LookupToken  string                       `json:"lookupToken"`
	ExpiresAt    time.Time                    `json:"expiresAt"`
	Reservations []models.ReservationResponse `json:"reservations"`
}

// FromServiceResult конвертирует результат проверки гостя
func FromServiceResult(result *guests.VerifyResult) *VerifyGuestResponse {
	return &VerifyGuestResponse{
		LookupToken:  result.LookupToken,
		ExpiresAt:    result.ExpiresAt,
		Reservations: models.FromDomainReservationList(result.Reservations).Reservations,
	}
}
