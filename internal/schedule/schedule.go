// Package schedule computes watering intervals. Everything here is a
// pure function of its inputs so scheduling decisions are reproducible
// under an injected clock.
package schedule

import (
	"math"
	"time"

	"github.com/verdant/drip/internal/kb"
)

// MinIntervalHours is the floor for any calibrated interval. Calibration
// can never push a plant to a near-zero or negative cadence.
const MinIntervalHours = 24

// Environment factor tables. Unrecognized attribute values fall through
// to 1.0 so bad input degrades to the species baseline instead of
// failing.
var (
	potSizeFactors = map[string]float64{
		"small": 0.90,
		"large": 1.10,
	}
	materialFactors = map[string]float64{
		"terracotta": 0.85,
		"plastic":    1.00,
	}
	lightFactors = map[string]float64{
		"north": 1.15,
		"south": 0.85,
		"east":  1.00,
		"west":  0.95,
	}
)

// Interval is the full result of an interval computation.
type Interval struct {
	Base             int     // species baseline hours
	WinterMultiplier float64 // species dormancy multiplier
	Adjusted         int     // baseline corrected for pot and light
	Effective        int     // Adjusted, winter-scaled when in dormancy
}

// ComputeInterval resolves a plant's watering interval from its species
// profile, pot attributes, and the calendar date. asOf decides whether
// the dormancy multiplier applies.
func ComputeInterval(cat kb.Catalog, species, potSize, potMaterial, lightExposure string, asOf time.Time) Interval {
	entry := cat.Lookup(species)

	factor := factorOr(potSizeFactors, potSize) *
		factorOr(materialFactors, potMaterial) *
		factorOr(lightFactors, lightExposure)

	adjusted := int(math.Round(float64(entry.BaseHours) * factor))

	effective := adjusted
	if InDormancy(asOf) {
		effective = int(math.Round(float64(adjusted) * entry.WinterMultiplier))
	}

	return Interval{
		Base:             entry.BaseHours,
		WinterMultiplier: entry.WinterMultiplier,
		Adjusted:         adjusted,
		Effective:        effective,
	}
}

// InDormancy reports whether the date falls in the November–March
// dormancy window.
func InDormancy(asOf time.Time) bool {
	switch asOf.Month() {
	case time.November, time.December, time.January, time.February, time.March:
		return true
	}
	return false
}

// ApplyCalibration offsets an interval by a signed calibration delta and
// clamps the result at the minimum floor.
func ApplyCalibration(adjustedHours, calibrationHours int) int {
	h := adjustedHours + calibrationHours
	if h < MinIntervalHours {
		return MinIntervalHours
	}
	return h
}

// NextDueFrom returns the instant a plant next needs attention: wall
// clock hours after the reference instant, not business time.
func NextDueFrom(from time.Time, intervalHours int) time.Time {
	return from.Add(time.Duration(intervalHours) * time.Hour)
}

func factorOr(table map[string]float64, key string) float64 {
	if f, ok := table[key]; ok {
		return f
	}
	return 1.0
}

// Clock supplies the current instant. Injected so the sweep and the
// reply flow are testable at fixed times.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
