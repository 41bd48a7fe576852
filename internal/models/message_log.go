package models

import "time"

// Message kinds used across outbound sends and the reply flow.
const (
	KindSoilCheck    = "soil_check"
	KindWaterNow     = "water_now"
	KindWaitLonger   = "wait_longer"
	KindConfirmation = "confirmation"
	KindHelp         = "help"
)

// MessageLog records every message exchanged with a plant's channel, in
// both directions. Outbound rows carry the gateway delivery ID; the most
// recent outbound row doubles as the duplicate-avoidance reference.
type MessageLog struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	PlantID    string `gorm:"size:36;not null;index"`
	Direction  string `gorm:"size:8;not null"` // outbound, inbound
	Kind       string `gorm:"size:16"`
	Body       string `gorm:"type:text"`
	DeliveryID string `gorm:"size:64"`
	CreatedAt  time.Time

	Plant Plant `gorm:"foreignKey:PlantID"`
}
