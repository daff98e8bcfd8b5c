package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	memberClient "github.com/m04kA/SMC-ReservationService/internal/integrations/memberservice"
	storeClient "github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/internal/service/timewindows"
)

const operation = "create"

// UseCase use case для создания бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	changeLogRepo   ChangeLogRepository
	windows         WindowResolver
	capacity        CapacityChecker
	phones          PhoneVerifier
	storeClient     StoreServiceClient
	memberClient    MemberServiceClient
	txManager       TransactionManager
	recorder        OperationRecorder
	newReference    ReferenceGenerator
	cfg             Config
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	changeLogRepo ChangeLogRepository,
	windows WindowResolver,
	capacity CapacityChecker,
	phones PhoneVerifier,
	storeClient StoreServiceClient,
	memberClient MemberServiceClient,
	txManager TransactionManager,
	recorder OperationRecorder,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.ReferenceAttempts <= 0 {
		cfg.ReferenceAttempts = domain.DefaultReferenceAttempts
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		changeLogRepo:   changeLogRepo,
		windows:         windows,
		capacity:        capacity,
		phones:          phones,
		storeClient:     storeClient,
		memberClient:    memberClient,
		txManager:       txManager,
		recorder:        recorder,
		newReference:    NewReference,
		cfg:             cfg,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// WithReferenceGenerator подменяет генератор номеров
func (uc *UseCase) WithReferenceGenerator(gen ReferenceGenerator) *UseCase {
	uc.newReference = gen
	return uc
}

// Execute выполняет use case создания бронирования
// Блокировка слота, проверка вместимости, вставка и запись журнала идут в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (resp *models.ReservationResponse, err error) {
	defer func() {
		if uc.recorder != nil {
			uc.recorder.IncReservationOperation(operation, outcome(err))
		}
	}()

	uc.logger.Info("CreateReservation: store=%d, member=%v, date=%s, window=%s, adults=%d, children=%d",
		req.StoreID, req.MemberID, req.Date.Format(domain.DateFormat), req.TimeWindow, req.Adults, req.Children)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем дату
	now := uc.timeProvider.Now()
	if err := validateDate(req.Date, now, uc.cfg.MaxAdvanceDays); err != nil {
		uc.logger.Warn("CreateReservation: date validation failed: %v", err)
		return nil, err
	}

	// 3. Магазин должен существовать и принимать бронирования
	if err := uc.checkStore(ctx, req.StoreID); err != nil {
		return nil, err
	}

	// 4. Контакты: автозаполнение участника или проверка телефона гостя
	contact, phoneToken, err := uc.resolveContacts(ctx, req)
	if err != nil {
		return nil, err
	}

	// Нормализованная строка окна, под ней бронирование попадает в ключ слота
	spec, _ := domain.ParseWindowSpec(req.TimeWindow)
	key := domain.NewSlotKey(req.StoreID, req.Date, spec.Label())

	reservation := &domain.Reservation{
		StoreID:         req.StoreID,
		MemberID:        req.MemberID,
		ContactName:     contact.name,
		ContactPhone:    contact.phone,
		ContactEmail:    contact.email,
		ContactGender:   contact.gender,
		ReservationDate: key.Date,
		TimeWindow:      key.TimeWindow,
		Adults:          req.Adults,
		Children:        req.Children,
		SpecialRequest:  trimmed(req.SpecialRequest),
		Status:          domain.StatusPending,
		PhoneToken:      phoneToken,
	}

	actor := domain.GuestActor()
	if req.MemberID != nil {
		actor = domain.CustomerActor(*req.MemberID)
	}

	var result *domain.Reservation

	// 5. Номер мог быть занят параллельной вставкой: тогда транзакция повторяется с новым номером
	for attempt := 1; ; attempt++ {
		err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
			created, err := uc.createInTx(txCtx, reservation.Clone(), key, actor)
			if err != nil {
				return err
			}
			result = created
			return nil
		})
		if !errors.Is(err, errReferenceRace) || attempt >= uc.cfg.ReferenceAttempts {
			break
		}
		uc.logger.Warn("CreateReservation: reference collision on insert, retrying (attempt %d)", attempt)
	}
	if errors.Is(err, errReferenceRace) {
		return nil, ErrReferenceExhausted
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateReservation: successfully created reservation id=%d, reference=%s", result.ID, result.Reference)
	return models.FromDomainReservation(result), nil
}

// createInTx шаги внутри транзакции
func (uc *UseCase) createInTx(ctx context.Context, res *domain.Reservation, key domain.SlotKey, actor domain.Actor) (*domain.Reservation, error) {
	// 5.1. Блокируем (магазин, дата, окно) до конца транзакции
	if err := uc.reservationRepo.LockSlot(ctx, key); err != nil {
		uc.logger.Error("CreateReservation: failed to lock slot %s: %v", key, err)
		return nil, fmt.Errorf("%w: failed to lock slot: %w", ErrInternal, err)
	}

	// 5.2. Находим активное окно в БД
	window, err := uc.windows.Resolve(ctx, key.StoreID, key.Date, key.TimeWindow)
	if err != nil {
		switch {
		case errors.Is(err, timewindows.ErrWindowNotFound):
			uc.logger.Warn("CreateReservation: no active window %s on %s", key.TimeWindow, key.Date.Format(domain.DateFormat))
			return nil, fmt.Errorf("%w: %s on %s", ErrWindowNotFound, key.TimeWindow, key.Date.Format(domain.DateFormat))
		case errors.Is(err, timewindows.ErrInvalidInput):
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		uc.logger.Error("CreateReservation: failed to resolve window: %v", err)
		return nil, fmt.Errorf("%w: failed to resolve window: %w", ErrInternal, err)
	}

	// 5.3. Считаем загрузку и проверяем вместимость
	load, err := uc.capacity.Reserve(ctx, window, key, res.Headcount(), 0)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateReservation: window %s has %d/%d guests, requested %d",
		window.Label(), load, window.MaxAggregate, res.Headcount())

	// 5.4. Подбираем свободный номер бронирования
	reference, err := uc.allocateReference(ctx, key)
	if err != nil {
		return nil, err
	}
	res.Reference = reference

	// 5.5. Сохраняем бронирование
	created, err := uc.reservationRepo.Create(ctx, res)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReferenceTaken) {
			return nil, errReferenceRace
		}
		uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
		return nil, fmt.Errorf("%w: failed to create reservation: %w", ErrInternal, err)
	}

	// 5.6. Журнал изменений в той же транзакции
	entry := domain.NewChangeLogEntry(created, domain.ChangeCreated, actor, nil, created.Snapshot(), nil)
	if err := uc.changeLogRepo.Append(ctx, entry); err != nil {
		uc.logger.Error("CreateReservation: failed to append change log: %v", err)
		return nil, fmt.Errorf("%w: failed to append change log: %w", ErrInternal, err)
	}

	return created, nil
}

// allocateReference генерирует номер и проверяет, что он свободен
func (uc *UseCase) allocateReference(ctx context.Context, key domain.SlotKey) (string, error) {
	for attempt := 1; attempt <= uc.cfg.ReferenceAttempts; attempt++ {
		reference, err := uc.newReference(key.Date)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to generate reference: %v", err)
			return "", fmt.Errorf("%w: failed to generate reference: %w", ErrInternal, err)
		}

		exists, err := uc.reservationRepo.ReferenceExists(ctx, reference)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to check reference: %v", err)
			return "", fmt.Errorf("%w: failed to check reference: %w", ErrInternal, err)
		}
		if !exists {
			return reference, nil
		}

		uc.logger.Warn("CreateReservation: reference %s already taken (attempt %d)", reference, attempt)
	}
	return "", ErrReferenceExhausted
}

// checkStore магазин существует и активен
func (uc *UseCase) checkStore(ctx context.Context, storeID int64) error {
	store, err := uc.storeClient.GetStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, storeClient.ErrStoreNotFound) {
			uc.logger.Warn("CreateReservation: store id=%d not found", storeID)
			return ErrStoreNotFound
		}
		uc.logger.Error("CreateReservation: failed to get store id=%d: %v", storeID, err)
		return fmt.Errorf("%w: failed to get store: %v", ErrInternal, err)
	}

	if !store.IsActive {
		uc.logger.Warn("CreateReservation: store id=%d is not active", storeID)
		return ErrStoreInactive
	}
	return nil
}

// resolveContacts итоговые контакты и токен телефона (только для гостя)
// Для участника недостающие поля берутся из профиля, переданные никогда не перезаписываются
func (uc *UseCase) resolveContacts(ctx context.Context, req *Request) (*contacts, *string, error) {
	c := &contacts{
		email:  trimmed(req.ContactEmail),
		gender: trimmed(req.ContactGender),
	}
	if v := trimmed(req.ContactName); v != nil {
		c.name = *v
	}
	if v := trimmed(req.ContactPhone); v != nil {
		c.phone = *v
	}

	if req.MemberID == nil {
		normalized, err := uc.phones.ValidatePhone(c.phone)
		if err != nil {
			uc.logger.Warn("CreateReservation: invalid guest phone: %v", err)
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		c.phone = normalized

		if err := validateContacts(c); err != nil {
			return nil, nil, err
		}

		token, err := uc.phones.TokenFor(normalized)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return c, &token, nil
	}

	if c.name == "" || c.phone == "" || c.email == nil || c.gender == nil {
		uc.autofill(ctx, *req.MemberID, c)
	}

	if err := validateContacts(c); err != nil {
		uc.logger.Warn("CreateReservation: contacts incomplete for member=%d: %v", *req.MemberID, err)
		return nil, nil, err
	}
	return c, nil, nil
}

// autofill заполняет пустые поля из профиля участника
// Недоступность MemberService не прерывает бронирование
func (uc *UseCase) autofill(ctx context.Context, memberID int64, c *contacts) {
	profile, err := uc.memberClient.GetProfileWithGracefulDegradation(ctx, memberID)
	if err != nil {
		if errors.Is(err, memberClient.ErrMemberNotFound) {
			uc.logger.Warn("CreateReservation: profile for member=%d not found", memberID)
		} else {
			uc.logger.Warn("CreateReservation: profile for member=%d unavailable: %v", memberID, err)
		}
		return
	}

	if c.name == "" {
		c.name = strings.TrimSpace(profile.Name)
	}
	if c.phone == "" {
		c.phone = strings.TrimSpace(profile.Phone)
	}
	if c.email == nil {
		c.email = trimmed(profile.Email)
	}
	if c.gender == nil {
		c.gender = trimmed(profile.Gender)
	}
}

// outcome метка результата для метрик
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInternal):
		return "error"
	default:
		return "rejected"
	}
}
