package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/fingerprint"
)

type fingerprintRepository struct {
	db *sqlx.DB
}

var _ fingerprint.Repository = (*fingerprintRepository)(nil) // interface compliance check

func NewFingerprintRepository(db *sqlx.DB) *fingerprintRepository {
	return &fingerprintRepository{db: db}
}

func (repo fingerprintRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return fingerprint.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo fingerprintRepository) CreateMapping(ctx context.Context, m fingerprint.Mapping) (fingerprint.Mapping, error) {
	m.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO fingerprint_mapping (id, user_id, slot_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		m.ID, m.UserID, m.SlotID, m.CreatedAt.UTC(),
	)
	if err != nil {
		// the constraints are the source of truth for slot allocation; a
		// losing concurrent caller surfaces as a Conflict, not a crash
		if isUniqueViolation(err, "fingerprint_mapping_slot_key") {
			return fingerprint.Mapping{}, fingerprint.ErrSlotTaken
		}
		if isUniqueViolation(err, "fingerprint_mapping_user_key") {
			return fingerprint.Mapping{}, fingerprint.ErrUserHasSlot
		}
		return fingerprint.Mapping{}, errors.Wrap(err, "creating fingerprint mapping")
	}
	return m, nil
}

func (repo fingerprintRepository) GetMappingByUserID(ctx context.Context, userID string) (fingerprint.Mapping, error) {
	var m fingerprint.Mapping
	err := repo.db.QueryRowxContext(ctx,
		`SELECT id, user_id, slot_id, created_at FROM fingerprint_mapping WHERE user_id = $1`, userID,
	).Scan(&m.ID, &m.UserID, &m.SlotID, &m.CreatedAt)
	if err != nil {
		return fingerprint.Mapping{}, repo.trapNoRowsErr(err, "finding mapping by user")
	}
	return m, nil
}

func (repo fingerprintRepository) GetMappingBySlotID(ctx context.Context, slotID int) (fingerprint.Mapping, error) {
	var m fingerprint.Mapping
	err := repo.db.QueryRowxContext(ctx,
		`SELECT id, user_id, slot_id, created_at FROM fingerprint_mapping WHERE slot_id = $1`, slotID,
	).Scan(&m.ID, &m.UserID, &m.SlotID, &m.CreatedAt)
	if err != nil {
		return fingerprint.Mapping{}, repo.trapNoRowsErr(err, "finding mapping by slot")
	}
	return m, nil
}

func (repo fingerprintRepository) QueryAssignedSlots(ctx context.Context) ([]int, error) {
	var slots []int
	if err := repo.db.SelectContext(ctx, &slots, `SELECT slot_id FROM fingerprint_mapping ORDER BY slot_id`); err != nil {
		return nil, errors.Wrap(err, "querying assigned slots")
	}
	return slots, nil
}

func (repo fingerprintRepository) DeleteMappingByUserID(ctx context.Context, userID string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM fingerprint_mapping WHERE user_id = $1`, userID)
	if err != nil {
		return errors.Wrap(err, "deleting mapping")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fingerprint.ErrNotFound
	}
	return nil
}
