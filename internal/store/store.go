// Package store provides persistence operations for plants, accounts,
// and the message log.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verdant/drip/internal/models"
	"gorm.io/gorm"
)

// Distinguishable domain errors surfaced at creation and update time.
var (
	// ErrSlotTaken means the (phone, slot) pair already has a plant.
	ErrSlotTaken = errors.New("store: slot already registered")
	// ErrPlantLimit means the account's tier has no free slots left.
	ErrPlantLimit = errors.New("store: plant limit reached for tier")
	// ErrScheduleConflict means a conditional schedule update lost the
	// race: another pass already advanced this plant. Expected, not an
	// operational error.
	ErrScheduleConflict = errors.New("store: schedule already advanced")
	// ErrNotFound means no plant matched the lookup.
	ErrNotFound = errors.New("store: plant not found")
)

// ListDue returns plants whose due timestamp has elapsed, oldest first.
// limit/offset page through an unbounded result set; limit <= 0 means
// no cap.
func ListDue(db *gorm.DB, now time.Time, limit, offset int) ([]models.Plant, error) {
	q := db.Where("next_due_at <= ?", now).Order("next_due_at ASC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var plants []models.Plant
	if err := q.Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("store: list due: %w", err)
	}
	return plants, nil
}

// Get loads a plant by ID.
func Get(db *gorm.DB, id string) (*models.Plant, error) {
	var p models.Plant
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return &p, nil
}

// GetBySlot resolves a plant from its messaging channel address: the
// owner's phone and the dedicated sender number the reply arrived on.
// The channel only knows phone numbers, so this pair — not the plant
// ID — is the inbound addressing key.
func GetBySlot(db *gorm.DB, ownerPhone, senderNumber string) (*models.Plant, error) {
	var p models.Plant
	err := db.Where("owner_phone = ? AND sender_number = ?", ownerPhone, senderNumber).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get by slot %s/%s: %w", ownerPhone, senderNumber, err)
	}
	return &p, nil
}

// Create inserts a new plant. maxSlots is the owner's tier cap; the
// slot index must fall inside it and the (phone, slot) pair must be
// free. Both violations surface as distinguishable errors.
func Create(db *gorm.DB, p *models.Plant, maxSlots int) error {
	if p.ID == "" {
		return fmt.Errorf("store: create: plant ID is required")
	}
	if p.OwnerPhone == "" {
		return fmt.Errorf("store: create: owner phone is required")
	}
	if p.Slot < 0 || p.Slot >= maxSlots {
		return fmt.Errorf("%w: slot %d, max %d", ErrPlantLimit, p.Slot, maxSlots)
	}

	var existing int64
	if err := db.Model(&models.Plant{}).
		Where("owner_phone = ? AND slot = ?", p.OwnerPhone, p.Slot).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("store: create: check slot: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: %s slot %d", ErrSlotTaken, p.OwnerPhone, p.Slot)
	}

	if err := db.Create(p).Error; err != nil {
		// The unique index catches racing registrations the pre-check missed.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s slot %d", ErrSlotTaken, p.OwnerPhone, p.Slot)
		}
		return fmt.Errorf("store: create plant: %w", err)
	}
	return nil
}

// AdvanceSchedule conditionally advances a plant's schedule: the update
// applies only if next_due_at still matches the value read during the
// scan. A lost race returns ErrScheduleConflict and writes nothing, so
// overlapping sweeps never double-send.
func AdvanceSchedule(db *gorm.DB, plantID string, readNextDue time.Time, fields map[string]interface{}) error {
	result := db.Model(&models.Plant{}).
		Where("id = ? AND next_due_at = ?", plantID, readNextDue).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("store: advance schedule %s: %w", plantID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduleConflict
	}
	return nil
}

// UpdateFields applies an unconditional last-write-wins update to one
// plant. Reply processing uses this: a duplicate DONE resets the same
// way twice, which is harmless.
func UpdateFields(db *gorm.DB, plantID string, fields map[string]interface{}) error {
	result := db.Model(&models.Plant{}).Where("id = ?", plantID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("store: update %s: %w", plantID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAccount loads the owner's account, defaulting to a free-tier SMS
// account when none was ever seeded.
func GetAccount(db *gorm.DB, phone string) (*models.Account, error) {
	var acct models.Account
	err := db.Where("phone = ?", phone).First(&acct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Account{Phone: phone, Tier: "free", Locale: "en", Channel: "sms"}, nil
		}
		return nil, fmt.Errorf("store: get account %s: %w", phone, err)
	}
	return &acct, nil
}

// LogMessage appends a message-log row.
func LogMessage(db *gorm.DB, entry *models.MessageLog) error {
	if entry.PlantID == "" {
		return fmt.Errorf("store: log message: plant ID is required")
	}
	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("store: log message: %w", err)
	}
	return nil
}

// Messages returns a plant's message log, newest first.
func Messages(db *gorm.DB, plantID string, limit int) ([]models.MessageLog, error) {
	q := db.Where("plant_id = ?", plantID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var logs []models.MessageLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("store: messages for %s: %w", plantID, err)
	}
	return logs, nil
}

// isUniqueViolation sniffs driver-specific unique constraint errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
