package guests

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Config параметры проверки гостей
type Config struct {
	PhonePattern       string
	LookupDays         int
	LookupTokenMinutes int
}

// Service проверяет личность гостя по номеру телефона
type Service struct {
	repo         ReservationRepository
	pattern      *regexp.Regexp
	lookupDays   int
	tokenTTL     time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса гостей
// Нулевые значения Config заменяются значениями по умолчанию
func NewService(repo ReservationRepository, cfg Config, logger Logger) (*Service, error) {
	if cfg.PhonePattern == "" {
		cfg.PhonePattern = domain.DefaultPhonePattern
	}
	if cfg.LookupDays <= 0 {
		cfg.LookupDays = domain.DefaultGuestLookupDays
	}
	if cfg.LookupTokenMinutes <= 0 {
		cfg.LookupTokenMinutes = domain.DefaultLookupTokenMinutes
	}

	pattern, err := regexp.Compile(cfg.PhonePattern)
	if err != nil {
		return nil, fmt.Errorf("guests: invalid phone pattern %q: %w", cfg.PhonePattern, err)
	}

	return &Service{
		repo:         repo,
		pattern:      pattern,
		lookupDays:   cfg.LookupDays,
		tokenTTL:     time.Duration(cfg.LookupTokenMinutes) * time.Minute,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}, nil
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// ValidatePhone нормализует номер и проверяет его по шаблону
func (s *Service) ValidatePhone(phone string) (string, error) {
	normalized := NormalizePhone(phone)
	if !s.pattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return normalized, nil
}

// TokenFor проверяет номер и возвращает его токен
func (s *Service) TokenFor(phone string) (string, error) {
	normalized, err := s.ValidatePhone(phone)
	if err != nil {
		return "", err
	}
	return DeriveToken(normalized), nil
}

// Verify находит гостевые бронирования по номеру за последние lookupDays дней, новые первыми
// Пустой результат возвращается как ErrNoGuestReservations
// LookupToken в результате информационный: права на изменение проверяются телефоном в каждой операции
func (s *Service) Verify(ctx context.Context, phone string) (*VerifyResult, error) {
	token, err := s.TokenFor(phone)
	if err != nil {
		s.logger.Warn("Verify: %v", err)
		return nil, err
	}

	now := s.timeProvider.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -s.lookupDays)

	reservations, err := s.repo.ListGuestByToken(ctx, token, since)
	if err != nil {
		s.logger.Error("Verify: repository error: %v", err)
		return nil, fmt.Errorf("%w: Verify - repository error: %w", ErrInternal, err)
	}

	if len(reservations) == 0 {
		s.logger.Info("Verify: no guest reservations since %s", since.Format(domain.DateFormat))
		return nil, ErrNoGuestReservations
	}

	s.logger.Info("Verify: found %d guest reservations", len(reservations))
	return &VerifyResult{
		LookupToken:  uuid.NewString(),
		ExpiresAt:    now.Add(s.tokenTTL),
		Reservations: reservations,
	}, nil
}

// Authorize проверяет, что гость знает номер, на который оформлено бронирование
func (s *Service) Authorize(res *domain.Reservation, phone string) error {
	if !res.IsGuest() || res.PhoneToken == nil {
		return ErrForbidden
	}

	token, err := s.TokenFor(phone)
	if err != nil {
		return err
	}

	if !tokensEqual(token, *res.PhoneToken) {
		return ErrForbidden
	}
	return nil
}

// VerifyResult результат проверки гостя
type VerifyResult struct {
	LookupToken  string
	ExpiresAt    time.Time
	Reservations []*domain.Reservation
}
