package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/storeservice"
	"github.com/m04kA/SMC-ReservationService/internal/service/guests"
)

// Checker определяет, кто действует над бронированием и имеет ли право
type Checker struct {
	storeClient StoreServiceClient
	guests      GuestAuthorizer
	logger      Logger
}

// NewChecker создает новый экземпляр проверки доступа
func NewChecker(storeClient StoreServiceClient, guests GuestAuthorizer, logger Logger) *Checker {
	return &Checker{
		storeClient: storeClient,
		guests:      guests,
		logger:      logger,
	}
}

// CheckStaff проверяет, что сотрудник работает в магазине
func (c *Checker) CheckStaff(ctx context.Context, storeID, staffID int64) error {
	store, err := c.storeClient.GetStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, storeservice.ErrStoreNotFound) {
			c.logger.Warn("CheckStaff: store id=%d not found", storeID)
			return ErrStoreNotFound
		}
		c.logger.Error("CheckStaff: failed to get store id=%d: %v", storeID, err)
		return fmt.Errorf("%w: CheckStaff - failed to get store: %v", ErrInternal, err)
	}

	if !store.HasStaff(staffID) {
		c.logger.Warn("CheckStaff: staff=%d does not belong to store=%d", staffID, storeID)
		return ErrForbidden
	}
	return nil
}

// Authorize возвращает актора для журнала, если запрос вправе менять бронирование
// Сотрудник должен работать в магазине брони, участник должен быть владельцем,
// гость должен назвать телефон гостевой брони
func (c *Checker) Authorize(ctx context.Context, res *domain.Reservation, who domain.Requester) (domain.Actor, error) {
	switch {
	case who.IsStaff():
		if err := c.CheckStaff(ctx, res.StoreID, *who.StaffID); err != nil {
			return domain.Actor{}, err
		}
		return domain.MerchantActor(*who.StaffID), nil

	case who.IsMember():
		if !res.BelongsToMember(*who.MemberID) {
			c.logger.Warn("Authorize: member=%d is not owner of reservation id=%d", *who.MemberID, res.ID)
			return domain.Actor{}, ErrForbidden
		}
		return domain.CustomerActor(*who.MemberID), nil

	case who.IsGuest():
		if err := c.guests.Authorize(res, *who.Phone); err != nil {
			if errors.Is(err, guests.ErrInvalidPhone) {
				return domain.Actor{}, fmt.Errorf("%w: %v", ErrInvalidPhone, err)
			}
			c.logger.Warn("Authorize: guest phone does not match reservation id=%d", res.ID)
			return domain.Actor{}, ErrForbidden
		}
		return domain.GuestActor(), nil
	}

	return domain.Actor{}, ErrNoIdentity
}
