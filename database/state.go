package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"signal-desk/models"
)

// CurationState is the persisted snapshot row: the full entity store
// serialized as one JSON blob under a fixed storage key. No schema
// migration exists beyond the config version stamp carried on the row
// and on each entity.
type CurationState struct {
	StorageKey    string    `gorm:"primaryKey;size:64" json:"storage_key"`
	State         []byte    `gorm:"type:jsonb;not null" json:"state"`
	ConfigVersion string    `gorm:"size:16;not null" json:"config_version"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for CurationState
func (CurationState) TableName() string {
	return "curation_states"
}

// StateRepository loads and saves curation state snapshots.
type StateRepository struct {
	db *Database
}

// NewStateRepository creates a new state repository
func NewStateRepository(db *Database) *StateRepository {
	return &StateRepository{db: db}
}

// InitSchema performs auto-migration for snapshot and webhook tables
func (r *StateRepository) InitSchema() error {
	err := r.db.db.AutoMigrate(
		&CurationState{},
		&PublishWebhook{},
		&WebhookDelivery{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// LoadState returns the previously saved state for the fixed storage key,
// or (nil, nil) when no snapshot exists so the caller falls back to the
// seed state.
func (r *StateRepository) LoadState() (*models.AppState, error) {
	var row CurationState
	err := r.db.db.First(&row, "storage_key = ?", models.StorageKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapDBError("LoadState", err)
	}

	var state models.AppState
	if err := json.Unmarshal(row.State, &state); err != nil {
		return nil, WrapDBError("LoadState", fmt.Errorf("corrupt snapshot: %w", err))
	}
	return &state, nil
}

// SaveState upserts the state blob under the fixed storage key.
// Callers fire-and-forget this on every state change.
func (r *StateRepository) SaveState(raw []byte) error {
	row := CurationState{
		StorageKey:    models.StorageKey,
		State:         raw,
		ConfigVersion: models.ConfigVersion,
		UpdatedAt:     time.Now(),
	}

	err := r.db.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "config_version", "updated_at"}),
	}).Create(&row).Error

	return WrapDBError("SaveState", err)
}
