package get_store_reservations

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// ToServiceRequest формирует запрос к сервису из query параметров
// Даты и статус проверяет сервис, здесь разбираются только числа
func ToServiceRequest(storeID, staffID int64, query url.Values) (*models.ListStoreReservationsRequest, error) {
	req := &models.ListStoreReservationsRequest{
		StaffID:    staffID,
		StoreID:    storeID,
		StartDate:  optional(query, "startDate"),
		EndDate:    optional(query, "endDate"),
		TimeWindow: optional(query, "timeWindow"),
		Status:     optional(query, "status"),
		Limit:      defaultLimit,
	}

	// date=YYYY-MM-DD короткая запись для одного дня
	if date := optional(query, "date"); date != nil && req.StartDate == nil && req.EndDate == nil {
		req.StartDate = date
		req.EndDate = date
	}

	if s := query.Get("limit"); s != "" {
		limit, err := strconv.ParseUint(s, 10, 64)
		if err != nil || limit == 0 || limit > maxLimit {
			return nil, fmt.Errorf("invalid limit %q, expected 1..%d", s, maxLimit)
		}
		req.Limit = limit
	}

	if s := query.Get("offset"); s != "" {
		offset, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q: %w", s, err)
		}
		req.Offset = offset
	}

	return req, nil
}

func optional(query url.Values, name string) *string {
	if v := query.Get(name); v != "" {
		return &v
	}
	return nil
}
