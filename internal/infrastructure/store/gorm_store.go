package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/propman/backend/internal/domain/syndication"
)

// kvRecord is the single table the SQL-backed store owns. The core's
// persistence boundary is a schemaless document store, so every record is
// one JSON value at one key.
type kvRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:255"`
	Value     []byte    `gorm:"column:value;type:jsonb"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler interface
func (kvRecord) TableName() string {
	return "kv_records"
}

// GormStore implements syndication.Store over a single key/value table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates the store and migrates its table
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrate kv table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Get reads the value at key into dest
func (s *GormStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	var rec kvRecord
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("store: sql get %s: %w", key, err)
	}
	if err := json.Unmarshal(rec.Value, dest); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

// Set writes value at key using an upsert
func (s *GormStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	rec := kvRecord{Key: key, Value: raw, UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store: sql set %s: %w", key, err)
	}
	return nil
}

// Delete removes the key
func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&kvRecord{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("store: sql del %s: %w", key, err)
	}
	return nil
}

var _ syndication.Store = (*GormStore)(nil)
