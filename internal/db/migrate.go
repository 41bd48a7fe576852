package db

import (
	"fmt"

	"github.com/verdant/drip/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Plant{},
		&models.MessageLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAccount upserts an Account row, preserving an existing tier unless
// one is explicitly given.
func SeedAccount(db *gorm.DB, acct models.Account) error {
	if acct.Phone == "" {
		return fmt.Errorf("db: seed account: phone is required")
	}
	if acct.Tier == "" {
		acct.Tier = "free"
	}
	if acct.Locale == "" {
		acct.Locale = "en"
	}
	if acct.Channel == "" {
		acct.Channel = "sms"
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "personality", "locale", "channel", "channel_id"}),
	}).Create(&acct)
	if result.Error != nil {
		return fmt.Errorf("db: seed account %q: %w", acct.Phone, result.Error)
	}
	return nil
}
