package create_reservation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.StoreID <= 0 {
		return fmt.Errorf("%w: storeId must be positive", ErrInvalidInput)
	}

	if req.MemberID != nil && *req.MemberID <= 0 {
		return fmt.Errorf("%w: memberId must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if _, err := domain.ParseWindowSpec(req.TimeWindow); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if req.Adults < domain.MinAdults {
		return fmt.Errorf("%w: adults must be at least %d", ErrInvalidInput, domain.MinAdults)
	}

	if req.Children < domain.MinChildren {
		return fmt.Errorf("%w: children must not be negative", ErrInvalidInput)
	}

	if req.SpecialRequest != nil && utf8.RuneCountInString(*req.SpecialRequest) > domain.MaxSpecialRequestLength {
		return fmt.Errorf("%w: specialRequest must be at most %d characters", ErrInvalidInput, domain.MaxSpecialRequestLength)
	}

	// Гость обязан указать имя и телефон; участнику они подставятся из профиля
	if req.MemberID == nil {
		if isBlank(req.ContactName) {
			return fmt.Errorf("%w: contactName is required for guests", ErrInvalidInput)
		}
		if isBlank(req.ContactPhone) {
			return fmt.Errorf("%w: contactPhone is required for guests", ErrInvalidInput)
		}
	}

	return nil
}

// validateContacts проверяет итоговые контакты
func validateContacts(c *contacts) error {
	if c.name == "" {
		return fmt.Errorf("%w: contactName is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(c.name) > domain.MaxContactNameLength {
		return fmt.Errorf("%w: contactName must be at most %d characters", ErrInvalidInput, domain.MaxContactNameLength)
	}
	if c.phone == "" {
		return fmt.Errorf("%w: contactPhone is required", ErrInvalidInput)
	}
	if c.email != nil {
		if len(*c.email) > domain.MaxContactEmailLength || !strings.Contains(*c.email, "@") {
			return fmt.Errorf("%w: invalid contactEmail", ErrInvalidInput)
		}
	}
	return nil
}

// validateDate дата не в прошлом и не дальше горизонта maxAdvanceDays (0 = без ограничения)
func validateDate(date, now time.Time, maxAdvanceDays int) error {
	today := dateOnly(now)
	day := dateOnly(date)

	if day.Before(today) {
		return ErrInvalidDate
	}

	if maxAdvanceDays == 0 {
		return nil
	}

	if day.After(today.AddDate(0, 0, maxAdvanceDays)) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, maxAdvanceDays)
	}

	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// trimmed возвращает nil для пустой строки
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
