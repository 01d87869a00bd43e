package fingerprint

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("fingerprint mapping not found")
	ErrWrongRole      = errors.New("fingerprint does not belong to the expected role")
	ErrSlotTaken      = errors.New("slot is already assigned")
	ErrUserHasSlot    = errors.New("user already has a fingerprint slot")
	ErrSlotsExhausted = errors.New("no fingerprint slots available")
	ErrSlotOutOfRange = errors.New("slot id is out of the sensor's range")
)

type (
	Repository interface {
		// CreateMapping returns ErrSlotTaken or ErrUserHasSlot when the
		// corresponding uniqueness constraint is violated. The constraint is
		// the authoritative guard against concurrent assignment.
		CreateMapping(ctx context.Context, m Mapping) (Mapping, error)
		GetMappingByUserID(ctx context.Context, userID string) (Mapping, error)
		GetMappingBySlotID(ctx context.Context, slotID int) (Mapping, error)
		QueryAssignedSlots(ctx context.Context) ([]int, error)
		DeleteMappingByUserID(ctx context.Context, userID string) error
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
		conf   *core.Config
	}
)

func NewService(repo Repository, usrSvc *user.Service, conf *core.Config) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, conf: conf}
}

func (svc *Service) slotRange() (base, max int) {
	return svc.conf.Fingerprint.BaseSlot, svc.conf.Fingerprint.MaxSlots
}

// NextFreeSlot returns the lowest unassigned slot id in the sensor's range.
// This is read-then-decide with no reservation: callers must be prepared for
// Assign to fail with ErrSlotTaken and retry with a fresh slot.
func (svc *Service) NextFreeSlot(ctx context.Context) (int, error) {
	assigned, err := svc.repo.QueryAssignedSlots(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying assigned slots")
	}
	taken := make(map[int]struct{}, len(assigned))
	for _, s := range assigned {
		taken[s] = struct{}{}
	}

	base, max := svc.slotRange()
	for slot := base; slot < base+max; slot++ {
		if _, ok := taken[slot]; !ok {
			return slot, nil
		}
	}
	return 0, ErrSlotsExhausted
}

// Assign creates the one-to-one user/slot mapping.
func (svc *Service) Assign(ctx context.Context, userID string, slotID int) (Mapping, error) {
	base, max := svc.slotRange()
	if slotID < base || slotID >= base+max {
		return Mapping{}, ErrSlotOutOfRange
	}
	if _, err := svc.usrSvc.GetByID(ctx, userID); err != nil {
		return Mapping{}, err
	}
	return svc.repo.CreateMapping(ctx, Mapping{
		UserID:    userID,
		SlotID:    slotID,
		CreatedAt: time.Now().UTC(),
	})
}

// Enroll assigns the next free slot to the user, retrying with a freshly
// computed slot when a concurrent caller wins the race for the same one.
func (svc *Service) Enroll(ctx context.Context, userID string) (Mapping, error) {
	var err error
	for attempt := 0; attempt < svc.conf.Fingerprint.MaxAssignAttempts; attempt++ {
		var slot int
		if slot, err = svc.NextFreeSlot(ctx); err != nil {
			return Mapping{}, err
		}

		var m Mapping
		if m, err = svc.Assign(ctx, userID, slot); err == nil {
			return m, nil
		}
		if errors.Cause(err) != ErrSlotTaken {
			return Mapping{}, err
		}
	}
	return Mapping{}, errors.Wrap(err, "slot assignment attempts exhausted")
}

// LookupUser is the scan entry point: it resolves a sensor-reported slot id
// to the user it belongs to and checks the expected role. No secret is
// involved; the fingerprint itself is the authentication.
func (svc *Service) LookupUser(ctx context.Context, slotID int, role user.Role) (user.User, error) {
	m, err := svc.repo.GetMappingBySlotID(ctx, slotID)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.usrSvc.GetByID(ctx, m.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding mapped user")
	}
	if usr.Role != role {
		return user.User{}, ErrWrongRole
	}
	if !usr.IsActive {
		return user.User{}, user.ErrAccountDeactivated
	}
	return usr, nil
}

// Enrolled reports whether the user already has a fingerprint slot.
func (svc *Service) Enrolled(ctx context.Context, userID string) (bool, error) {
	if _, err := svc.repo.GetMappingByUserID(ctx, userID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Unenroll releases the user's slot so it can be reassigned. The sensor-side
// template must be wiped separately.
func (svc *Service) Unenroll(ctx context.Context, userID string) error {
	return svc.repo.DeleteMappingByUserID(ctx, userID)
}
