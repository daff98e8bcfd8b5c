package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/service/access"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// Названия операций для метрик
const (
	opCancel       = "cancel"
	opUpdateStatus = "update_status"
	opDelete       = "delete"
)

// Service жизненный цикл бронирования после создания
type Service struct {
	reservationRepo ReservationRepository
	changeLogRepo   ChangeLogRepository
	access          AccessChecker
	txManager       TransactionManager
	recorder        OperationRecorder
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований
// recorder может быть nil
func NewService(
	reservationRepo ReservationRepository,
	changeLogRepo ChangeLogRepository,
	access AccessChecker,
	txManager TransactionManager,
	recorder OperationRecorder,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		changeLogRepo:   changeLogRepo,
		access:          access,
		txManager:       txManager,
		recorder:        recorder,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Get получает бронирование
// Видеть бронирование может владелец, сотрудник магазина или гость с телефоном брони
func (s *Service) Get(ctx context.Context, id int64, who domain.Requester) (*models.ReservationResponse, error) {
	s.logger.Info("Get: fetching reservation id=%d", id)

	res, err := s.getReservation(ctx, "Get", id)
	if err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, "Get", res, who); err != nil {
		return nil, err
	}

	return models.FromDomainReservation(res), nil
}

// Cancel отменяет бронирование
// Гость подтверждает себя телефоном, участник должен быть владельцем, сотрудник работать в магазине
func (s *Service) Cancel(ctx context.Context, req *models.CancelRequest) (resp *models.ReservationResponse, err error) {
	defer func() { s.record(opCancel, err) }()

	s.logger.Info("Cancel: cancelling reservation id=%d", req.ReservationID)

	// 1. Валидация
	if req.Reason != nil && utf8.RuneCountInString(*req.Reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason must be at most %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	who := req.Requester
	if req.Phone != nil && !who.IsStaff() && !who.IsMember() {
		who.Phone = req.Phone
	}

	// 2. Проверяем права (вне транзакции: проверка сотрудника идёт по сети)
	res, err := s.getReservation(ctx, "Cancel", req.ReservationID)
	if err != nil {
		return nil, err
	}

	actor, err := s.authorize(ctx, "Cancel", res, who)
	if err != nil {
		return nil, err
	}

	var result *domain.Reservation

	// 3. Отменяем и пишем журнал в одной транзакции
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		current, err := s.getForUpdate(txCtx, "Cancel", req.ReservationID)
		if err != nil {
			return err
		}

		if !current.CanBeCancelled() {
			s.logger.Warn("Cancel: reservation id=%d cannot be cancelled, status=%s", current.ID, current.Status)
			return fmt.Errorf("%w: cannot cancel reservation in status %s", ErrInvalidState, current.Status)
		}

		at := s.timeProvider.Now().UTC()
		if err := s.reservationRepo.Cancel(txCtx, current.ID, actor.Kind, req.Reason, at); err != nil {
			return s.repositoryError("Cancel", current.ID, err)
		}

		updated := current.Clone()
		updated.Status = domain.StatusCancelled
		updated.CancelledBy = &actor.Kind
		updated.CancellationReason = req.Reason
		updated.CancelledAt = &at
		updated.UpdatedAt = at

		entry := domain.NewChangeLogEntry(updated, domain.ChangeCancelled, actor, current.Snapshot(), updated.Snapshot(), req.Reason)
		if err := s.appendLog(txCtx, "Cancel", entry); err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: successfully cancelled reservation id=%d by %s", result.ID, actor.Kind)
	return models.FromDomainReservation(result), nil
}

// UpdateStatus смена статуса сотрудником: confirmed, completed, no_show или cancelled
func (s *Service) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (*models.ReservationResponse, error) {
	status, err := models.ToDomainStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for reservation id=%d", req.Status, req.ReservationID)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if status == domain.StatusCancelled {
		return s.Cancel(ctx, &models.CancelRequest{
			ReservationID: req.ReservationID,
			Requester:     domain.Requester{StaffID: &req.StaffID},
			Reason:        req.Note,
		})
	}

	return s.transition(ctx, req.ReservationID, req.StaffID, status, req.Note)
}

// Confirm подтверждение бронирования сотрудником
func (s *Service) Confirm(ctx context.Context, id, staffID int64) (*models.ReservationResponse, error) {
	return s.transition(ctx, id, staffID, domain.StatusConfirmed, nil)
}

// Complete гости пришли и обслужены
func (s *Service) Complete(ctx context.Context, id, staffID int64) (*models.ReservationResponse, error) {
	return s.transition(ctx, id, staffID, domain.StatusCompleted, nil)
}

// MarkNoShow гости не пришли
func (s *Service) MarkNoShow(ctx context.Context, id, staffID int64) (*models.ReservationResponse, error) {
	return s.transition(ctx, id, staffID, domain.StatusNoShow, nil)
}

// Delete удаляет бронирование; запись deleted пишется в журнал в той же транзакции до удаления строки
func (s *Service) Delete(ctx context.Context, req *models.DeleteRequest) (err error) {
	defer func() { s.record(opDelete, err) }()

	s.logger.Info("Delete: deleting reservation id=%d by staff=%d", req.ReservationID, req.StaffID)

	if req.Note != nil && utf8.RuneCountInString(*req.Note) > domain.MaxChangeNoteLength {
		return fmt.Errorf("%w: note must be at most %d characters", ErrInvalidInput, domain.MaxChangeNoteLength)
	}

	res, err := s.getReservation(ctx, "Delete", req.ReservationID)
	if err != nil {
		return err
	}

	if err := s.checkStaff(ctx, "Delete", res.StoreID, req.StaffID); err != nil {
		return err
	}

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		current, err := s.getForUpdate(txCtx, "Delete", req.ReservationID)
		if err != nil {
			return err
		}

		entry := domain.NewChangeLogEntry(current, domain.ChangeDeleted, domain.MerchantActor(req.StaffID), current.Snapshot(), nil, req.Note)
		if err := s.appendLog(txCtx, "Delete", entry); err != nil {
			return err
		}

		if err := s.reservationRepo.Delete(txCtx, current.ID); err != nil {
			return s.repositoryError("Delete", current.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Delete: successfully deleted reservation id=%d", req.ReservationID)
	return nil
}

// History журнал изменений бронирования для сотрудника магазина
// Журнал доступен и после удаления бронирования
func (s *Service) History(ctx context.Context, id, staffID int64) (*models.HistoryResponse, error) {
	s.logger.Info("History: fetching change log for reservation id=%d by staff=%d", id, staffID)

	entries, err := s.changeLogRepo.ListByReservation(ctx, id)
	if err != nil {
		s.logger.Error("History: repository error for reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: History - repository error: %w", ErrInternal, err)
	}

	if len(entries) == 0 {
		s.logger.Warn("History: no change log for reservation id=%d", id)
		return nil, ErrReservationNotFound
	}

	if err := s.checkStaff(ctx, "History", entries[0].StoreID, staffID); err != nil {
		return nil, err
	}

	s.logger.Info("History: fetched %d entries for reservation id=%d", len(entries), id)
	return models.FromDomainHistory(id, entries), nil
}

// ListByStore бронирования магазина с фильтрами
func (s *Service) ListByStore(ctx context.Context, req *models.ListStoreReservationsRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("ListByStore: store=%d, start=%v, end=%v, window=%v, status=%v by staff=%d",
		req.StoreID, req.StartDate, req.EndDate, req.TimeWindow, req.Status, req.StaffID)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListByStore: invalid filter for store=%d: %v", req.StoreID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.checkStaff(ctx, "ListByStore", req.StoreID, req.StaffID); err != nil {
		return nil, err
	}

	list, err := s.reservationRepo.ListByStore(ctx, filter)
	if err != nil {
		s.logger.Error("ListByStore: repository error for store=%d: %v", req.StoreID, err)
		return nil, fmt.Errorf("%w: ListByStore - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("ListByStore: fetched %d reservations for store=%d", len(list), req.StoreID)
	return models.FromDomainReservationList(list), nil
}

// ListByMember бронирования участника, опционально по статусу
func (s *Service) ListByMember(ctx context.Context, memberID int64, status *string) (*models.ReservationListResponse, error) {
	s.logger.Info("ListByMember: member=%d, status=%v", memberID, status)

	var domainStatus *domain.ReservationStatus
	if status != nil {
		st, err := models.ToDomainStatus(*status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		domainStatus = &st
	}

	list, err := s.reservationRepo.ListByMember(ctx, memberID, domainStatus)
	if err != nil {
		s.logger.Error("ListByMember: repository error for member=%d: %v", memberID, err)
		return nil, fmt.Errorf("%w: ListByMember - repository error: %w", ErrInternal, err)
	}

	return models.FromDomainReservationList(list), nil
}

// Stats количество бронирований магазина по статусам за период
func (s *Service) Stats(ctx context.Context, req *models.StatsRequest) (*models.StatsResponse, error) {
	s.logger.Info("Stats: store=%d, start=%v, end=%v by staff=%d", req.StoreID, req.StartDate, req.EndDate, req.StaffID)

	from, err := models.ParseOptionalDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	to, err := models.ParseOptionalDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	}

	if err := s.checkStaff(ctx, "Stats", req.StoreID, req.StaffID); err != nil {
		return nil, err
	}

	counts, err := s.reservationRepo.CountByStatus(ctx, req.StoreID, from, to)
	if err != nil {
		s.logger.Error("Stats: repository error for store=%d: %v", req.StoreID, err)
		return nil, fmt.Errorf("%w: Stats - repository error: %w", ErrInternal, err)
	}

	stats := &domain.StatusStats{StoreID: req.StoreID, Counts: counts}
	for _, c := range counts {
		stats.Total += c
	}

	return models.FromDomainStats(stats, req.StartDate, req.EndDate), nil
}

// Вспомогательные методы

// transition переход в confirmed, completed или no_show
func (s *Service) transition(ctx context.Context, id, staffID int64, status domain.ReservationStatus, note *string) (resp *models.ReservationResponse, err error) {
	defer func() { s.record(opUpdateStatus, err) }()

	s.logger.Info("UpdateStatus: reservation id=%d to status=%s by staff=%d", id, status, staffID)

	if note != nil && utf8.RuneCountInString(*note) > domain.MaxChangeNoteLength {
		return nil, fmt.Errorf("%w: note must be at most %d characters", ErrInvalidInput, domain.MaxChangeNoteLength)
	}

	res, err := s.getReservation(ctx, "UpdateStatus", id)
	if err != nil {
		return nil, err
	}

	if err := s.checkStaff(ctx, "UpdateStatus", res.StoreID, staffID); err != nil {
		return nil, err
	}

	var result *domain.Reservation

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		current, err := s.getForUpdate(txCtx, "UpdateStatus", id)
		if err != nil {
			return err
		}

		if !current.Status.CanTransitionTo(status) {
			s.logger.Warn("UpdateStatus: transition %s -> %s not allowed for reservation id=%d", current.Status, status, id)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, current.Status, status)
		}

		now := s.timeProvider.Now().UTC()
		var confirmedAt *time.Time
		if status == domain.StatusConfirmed {
			confirmedAt = &now
		}

		if err := s.reservationRepo.UpdateStatus(txCtx, id, status, confirmedAt); err != nil {
			return s.repositoryError("UpdateStatus", id, err)
		}

		updated := current.Clone()
		updated.Status = status
		if confirmedAt != nil {
			updated.ConfirmedAt = confirmedAt
		}
		updated.UpdatedAt = now

		entry := domain.NewChangeLogEntry(updated, domain.ChangeUpdated, domain.MerchantActor(staffID), current.Snapshot(), updated.Snapshot(), note)
		if err := s.appendLog(txCtx, "UpdateStatus", entry); err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("UpdateStatus: reservation id=%d is now %s", id, status)
	return models.FromDomainReservation(result), nil
}

func (s *Service) getReservation(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("%s: reservation id=%d not found", op, id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
	}
	return res, nil
}

func (s *Service) getForUpdate(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, s.repositoryError(op, id, err)
	}
	return res, nil
}

func (s *Service) appendLog(ctx context.Context, op string, entry *domain.ChangeLogEntry) error {
	if err := s.changeLogRepo.Append(ctx, entry); err != nil {
		s.logger.Error("%s: failed to append change log for reservation id=%d: %v", op, entry.ReservationID, err)
		return fmt.Errorf("%w: %s - change log error: %w", ErrInternal, op, err)
	}
	return nil
}

func (s *Service) repositoryError(op string, id int64, err error) error {
	if errors.Is(err, reservationRepo.ErrReservationNotFound) {
		s.logger.Warn("%s: reservation id=%d not found", op, id)
		return ErrReservationNotFound
	}
	s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}

func (s *Service) authorize(ctx context.Context, op string, res *domain.Reservation, who domain.Requester) (domain.Actor, error) {
	actor, err := s.access.Authorize(ctx, res, who)
	if err != nil {
		s.logger.Warn("%s: access check failed for reservation id=%d: %v", op, res.ID, err)
		return domain.Actor{}, mapAccessError(err)
	}
	return actor, nil
}

func (s *Service) checkStaff(ctx context.Context, op string, storeID, staffID int64) error {
	if err := s.access.CheckStaff(ctx, storeID, staffID); err != nil {
		s.logger.Warn("%s: staff=%d has no access to store=%d: %v", op, staffID, storeID, err)
		return mapAccessError(err)
	}
	return nil
}

func (s *Service) record(op string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.IncReservationOperation(op, Outcome(err))
}

// Outcome метка результата операции для метрик
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInternal):
		return "error"
	default:
		return "rejected"
	}
}

func mapAccessError(err error) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, access.ErrNoIdentity):
		return ErrUnauthorized
	case errors.Is(err, access.ErrInvalidPhone):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, access.ErrStoreNotFound):
		return ErrStoreNotFound
	default:
		return fmt.Errorf("%w: access check: %v", ErrInternal, err)
	}
}
