package inmem

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core/fingerprint"
)

type fingerprintRepository struct {
	db *DB
}

var _ fingerprint.Repository = (*fingerprintRepository)(nil) // interface compliance check

func NewFingerprintRepository(db *DB) *fingerprintRepository {
	return &fingerprintRepository{db: db}
}

func (repo *fingerprintRepository) CreateMapping(_ context.Context, m fingerprint.Mapping) (fingerprint.Mapping, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.mappings {
		if existing.SlotID == m.SlotID {
			return fingerprint.Mapping{}, fingerprint.ErrSlotTaken
		}
		if existing.UserID == m.UserID {
			return fingerprint.Mapping{}, fingerprint.ErrUserHasSlot
		}
	}

	m.ID = uuid.New().String()
	repo.db.mappings[m.ID] = &m
	return m, nil
}

func (repo *fingerprintRepository) GetMappingByUserID(_ context.Context, userID string) (fingerprint.Mapping, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, m := range repo.db.mappings {
		if m.UserID == userID {
			return *m, nil
		}
	}
	return fingerprint.Mapping{}, fingerprint.ErrNotFound
}

func (repo *fingerprintRepository) GetMappingBySlotID(_ context.Context, slotID int) (fingerprint.Mapping, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, m := range repo.db.mappings {
		if m.SlotID == slotID {
			return *m, nil
		}
	}
	return fingerprint.Mapping{}, fingerprint.ErrNotFound
}

func (repo *fingerprintRepository) QueryAssignedSlots(_ context.Context) ([]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	slots := make([]int, 0, len(repo.db.mappings))
	for _, m := range repo.db.mappings {
		slots = append(slots, m.SlotID)
	}
	sort.Ints(slots)
	return slots, nil
}

func (repo *fingerprintRepository) DeleteMappingByUserID(_ context.Context, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, m := range repo.db.mappings {
		if m.UserID == userID {
			delete(repo.db.mappings, id)
			return nil
		}
	}
	return fingerprint.ErrNotFound
}
