package models

import "time"

// Account represents a plant owner, keyed by their contact phone number.
// The tier caps how many plant slots the account may fill.
type Account struct {
	Phone       string    `gorm:"primaryKey;size:20"`
	Tier        string    `gorm:"size:16;default:free"` // free, plus, grower
	Personality string    `gorm:"size:24;default:friendly"`
	Locale      string    `gorm:"size:8;default:en"`
	Channel     string    `gorm:"size:16;default:sms"` // sms, slack, discord
	ChannelID   string    `gorm:"size:128"`            // slack/discord user ID when channel != sms
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Plants []Plant `gorm:"foreignKey:OwnerPhone;references:Phone"`
}
