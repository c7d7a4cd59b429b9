package model

import "time"

// MachineType classifies how a machine reports telemetry and how its
// on-time is reconstructed.
type MachineType string

const (
	TypeOnOff   MachineType = "onoff"
	TypeCounter MachineType = "counter"
	TypeCurrent MachineType = "current"
)

// ValidType reports whether s is a recognized machine type.
func ValidType(s string) bool {
	switch MachineType(s) {
	case TypeOnOff, TypeCounter, TypeCurrent:
		return true
	}
	return false
}

// Machine represents a registered factory machine and its daily schedule.
type Machine struct {
	MachineID   string      `gorm:"primaryKey;size:64" json:"machine_id"`
	MachineType MachineType `gorm:"size:16;not null" json:"machine_type"`
	MachineName string      `gorm:"size:256;not null" json:"machine_name"`

	// Local time-of-day in HH:MM format.
	ScheduledStartTime string `gorm:"size:8;not null" json:"scheduled_start_time"`
	ScheduledStopTime  string `gorm:"size:8;not null" json:"scheduled_stop_time"`

	// Counter machines only.
	PartsPerHour int `json:"parts_per_hour,omitempty"`

	// Current machines only. OnCurrent is the activity threshold.
	IdleCurrent float64 `json:"idle_current,omitempty"`
	OnCurrent   float64 `json:"on_current,omitempty"`

	Status    string    `gorm:"size:16;default:active" json:"status"`
	Location  string    `gorm:"size:128" json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
