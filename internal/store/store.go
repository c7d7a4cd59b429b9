package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pmms-backend/internal/model"
)

// Store defines the interface for all database operations: the machine
// registry and the append-only reading store.
type Store interface {
	DB() *gorm.DB

	CreateMachine(ctx context.Context, m *model.Machine) error
	FindMachine(ctx context.Context, machineID string) (*model.Machine, error)
	ListMachines(ctx context.Context, machineType string) ([]model.Machine, error)
	SaveMachine(ctx context.Context, m *model.Machine) error
	DeleteMachine(ctx context.Context, machineID string) (*model.Machine, error)

	SaveReading(ctx context.Context, r *model.Reading) error
	// FindReadings returns machine readings with timestamp in
	// [start, end), ascending. Order is load-bearing for every
	// downstream computation.
	FindReadings(ctx context.Context, machineID string, start, end time.Time) ([]model.Reading, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create machine %s: %w", m.MachineID, err)
	}
	return nil
}

func (s *gormStore) FindMachine(ctx context.Context, machineID string) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).First(&m, "machine_id = ?", machineID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) ListMachines(ctx context.Context, machineType string) ([]model.Machine, error) {
	var machines []model.Machine
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if machineType != "" {
		q = q.Where("machine_type = ?", machineType)
	}
	if err := q.Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

func (s *gormStore) SaveMachine(ctx context.Context, m *model.Machine) error {
	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("failed to save machine %s: %w", m.MachineID, err)
	}
	return nil
}

// DeleteMachine removes a machine and returns the deleted record, or
// gorm.ErrRecordNotFound if no such machine exists.
func (s *gormStore) DeleteMachine(ctx context.Context, machineID string) (*model.Machine, error) {
	var m model.Machine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "machine_id = ?", machineID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Machine{}, "machine_id = ?", machineID).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) SaveReading(ctx context.Context, r *model.Reading) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to save reading for machine %s: %w", r.MachineID, err)
	}
	return nil
}

func (s *gormStore) FindReadings(ctx context.Context, machineID string, start, end time.Time) ([]model.Reading, error) {
	var readings []model.Reading
	err := s.db.WithContext(ctx).
		Where("machine_id = ? AND timestamp >= ? AND timestamp < ?", machineID, start, end).
		Order("timestamp ASC").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch readings for machine %s: %w", machineID, err)
	}
	return readings, nil
}
