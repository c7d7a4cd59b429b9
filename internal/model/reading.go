package model

import "time"

// Reading is one telemetry sample reported by a machine. The timestamp
// is assigned by the server at ingestion, never by the client.
type Reading struct {
	ID        int64       `gorm:"autoIncrement;primaryKey" json:"-"`
	MachineID string      `gorm:"size:64;not null;index:idx_readings_machine_ts" json:"machine_id"`
	Type      MachineType `gorm:"size:16;not null" json:"type"`
	Value     float64     `gorm:"not null" json:"value"`
	Timestamp time.Time   `gorm:"not null;index:idx_readings_machine_ts" json:"timestamp"`
}
