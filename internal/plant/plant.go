// Package plant provides plant lifecycle operations: onboarding with an
// initial schedule, listing, and owner-facing updates.
package plant

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verdant/drip/internal/kb"
	"github.com/verdant/drip/internal/models"
	"github.com/verdant/drip/internal/schedule"
	"github.com/verdant/drip/internal/store"
	"gorm.io/gorm"
)

// Declared soil states at onboarding time.
const (
	SoilJustWatered = "just_watered"
	SoilDamp        = "damp"
	SoilDry         = "dry"
)

// CreateOpts holds parameters for onboarding a new plant.
type CreateOpts struct {
	OwnerPhone    string
	Slot          int
	SenderNumber  string
	Name          string
	Species       string
	PotSize       string // small, large
	PotMaterial   string // plastic, terracotta
	LightExposure string // north, south, east, west
	Latitude      float64
	Locale        string
	SoilStatus    string // just_watered, damp, dry
	MaxSlots      int    // owner's tier cap
}

// ListFilters holds optional filters for listing plants.
type ListFilters struct {
	OwnerPhone string
	Species    string
	DueOnly    bool
}

// Create onboards a plant: computes its schedule from the species
// profile and declared soil state, then persists it. The initial due
// timestamp uses the environment-adjusted interval — the dormancy
// multiplier only kicks in once regular scheduling takes over.
func Create(db *gorm.DB, cat kb.Catalog, clock schedule.Clock, opts CreateOpts) (*models.Plant, error) {
	if opts.Species == "" {
		return nil, fmt.Errorf("plant: species is required")
	}
	if opts.SenderNumber == "" {
		return nil, fmt.Errorf("plant: sender number is required")
	}

	now := clock.Now()
	iv := schedule.ComputeInterval(cat, opts.Species, opts.PotSize, opts.PotMaterial, opts.LightExposure, now)

	locale := opts.Locale
	if locale == "" {
		locale = "en"
	}

	p := &models.Plant{
		ID:            uuid.NewString(),
		OwnerPhone:    opts.OwnerPhone,
		Slot:          opts.Slot,
		SenderNumber:  opts.SenderNumber,
		Name:          opts.Name,
		Species:       opts.Species,
		PotSize:       opts.PotSize,
		PotMaterial:   opts.PotMaterial,
		LightExposure: opts.LightExposure,
		Latitude:      opts.Latitude,
		Locale:        locale,

		BaseHours:        iv.Base,
		WinterMultiplier: iv.WinterMultiplier,
		AdjustedHours:    iv.Adjusted,
		CycleState:       models.CycleAwaitingSoilCheck,
	}

	switch opts.SoilStatus {
	case SoilDamp:
		p.NextDueAt = schedule.NextDueFrom(now, iv.Adjusted/2)
	case SoilDry:
		p.NextDueAt = now
	default: // just_watered and unspecified
		p.LastWateredAt = now
		p.NextDueAt = schedule.NextDueFrom(now, iv.Adjusted)
	}

	if err := store.Create(db, p, opts.MaxSlots); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns plants matching the filters, ordered by owner and slot.
func List(db *gorm.DB, filters ListFilters) ([]models.Plant, error) {
	q := db.Order("owner_phone ASC, slot ASC")
	if filters.OwnerPhone != "" {
		q = q.Where("owner_phone = ?", filters.OwnerPhone)
	}
	if filters.Species != "" {
		q = q.Where("species = ?", filters.Species)
	}
	if filters.DueOnly {
		q = q.Where("next_due_at <= ?", time.Now())
	}

	var plants []models.Plant
	if err := q.Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("plant: list: %w", err)
	}
	return plants, nil
}

// Reschedule recomputes a plant's interval for the current date and
// persists the refreshed profile fields. Used after profile edits
// (repotting, moving the plant to a different window).
func Reschedule(db *gorm.DB, cat kb.Catalog, clock schedule.Clock, id string) (*models.Plant, error) {
	p, err := store.Get(db, id)
	if err != nil {
		return nil, err
	}

	now := clock.Now()
	iv := schedule.ComputeInterval(cat, p.Species, p.PotSize, p.PotMaterial, p.LightExposure, now)

	fields := map[string]interface{}{
		"base_hours":        iv.Base,
		"winter_multiplier": iv.WinterMultiplier,
		"adjusted_hours":    iv.Adjusted,
	}
	if err := store.UpdateFields(db, id, fields); err != nil {
		return nil, err
	}

	p.BaseHours = iv.Base
	p.WinterMultiplier = iv.WinterMultiplier
	p.AdjustedHours = iv.Adjusted
	return p, nil
}
