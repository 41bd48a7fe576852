package models

import "time"

// Cycle states for the reply state machine. Stored explicitly on the
// plant record so inbound replies never have to infer state from
// message history.
const (
	CycleAwaitingSoilCheck = "awaiting_soil_check"
	CycleAwaitingWaterDone = "awaiting_water_done"
)

// Plant is the central entity: one physical plant bound to one
// (owner phone, slot) messaging channel.
type Plant struct {
	ID           string `gorm:"primaryKey;size:36"`
	OwnerPhone   string `gorm:"size:20;not null;uniqueIndex:idx_owner_slot,priority:1"`
	Slot         int    `gorm:"not null;uniqueIndex:idx_owner_slot,priority:2"`
	SenderNumber string `gorm:"size:20;not null;index"`

	Name          string  `gorm:"size:64"`
	Species       string  `gorm:"size:64;not null"`
	PotSize       string  `gorm:"size:8"`  // small, large
	PotMaterial   string  `gorm:"size:16"` // plastic, terracotta
	LightExposure string  `gorm:"size:8"`  // north, south, east, west
	Latitude      float64
	Locale        string  `gorm:"size:8;default:en"`

	BaseHours        int     `gorm:"not null"`
	WinterMultiplier float64 `gorm:"not null;default:1"`
	AdjustedHours    int     `gorm:"not null"`
	CalibrationHours int     `gorm:"default:0"`
	CycleState       string  `gorm:"size:24;default:awaiting_soil_check"`
	SkipSoilCheck    bool    `gorm:"default:false"`
	LastWateredAt    time.Time
	NextDueAt        time.Time `gorm:"index"`

	MessagesSent    int    `gorm:"default:0"`
	LastMessageKind string `gorm:"size:16"`
	LastMessageBody string `gorm:"type:text"`
	LastMessageAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
