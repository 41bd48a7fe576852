package reply

import (
	"time"

	"github.com/verdant/drip/internal/models"
	"github.com/verdant/drip/internal/schedule"
)

// calibrationStepHours is the per-reply nudge applied to a plant's
// persistent calibration offset: a DRY report means the soil dried out
// before the reminder, so future intervals shrink; a DAMP report means
// the reminder came too early, so they grow.
const calibrationStepHours = 12

// Decision is the outcome of one reply transition: the message to send
// back and the field changes to persist. A zero NextDueAt means the due
// timestamp is left untouched.
type Decision struct {
	Kind             string // outbound message kind (models.Kind*)
	NextDueAt        time.Time
	CycleState       string
	SkipSoilCheck    bool
	LastWateredAt    *time.Time
	CalibrationDelta int
}

// Transition applies one inbound intent to a plant's current cycle.
// iv must be the plant's freshly recomputed interval for now's date.
// The caller persists the returned decision; persistence is last-write-
// wins per plant, so concurrent duplicate replies settle harmlessly.
func Transition(p *models.Plant, intent Intent, iv schedule.Interval, now time.Time) Decision {
	switch intent {
	case IntentWatered:
		// Full reset regardless of prior state or flags.
		watered := now
		interval := schedule.ApplyCalibration(iv.Effective, p.CalibrationHours)
		return Decision{
			Kind:          models.KindConfirmation,
			NextDueAt:     schedule.NextDueFrom(now, interval),
			CycleState:    models.CycleAwaitingSoilCheck,
			SkipSoilCheck: false,
			LastWateredAt: &watered,
		}

	case IntentSoilDry:
		d := Decision{
			Kind:          models.KindWaterNow,
			CycleState:    models.CycleAwaitingWaterDone,
			SkipSoilCheck: p.SkipSoilCheck,
		}
		// Only the first DRY of a cycle tightens calibration; a repeat
		// while already awaiting the watering would double-count.
		if p.CycleState != models.CycleAwaitingWaterDone {
			d.CalibrationDelta = -calibrationStepHours
		}
		return d

	case IntentSoilDamp:
		return Decision{
			Kind:             models.KindWaitLonger,
			NextDueAt:        dampRecheck(p, iv, now),
			CycleState:       models.CycleAwaitingSoilCheck,
			SkipSoilCheck:    true,
			CalibrationDelta: calibrationStepHours,
		}

	default:
		return Decision{
			Kind:          models.KindHelp,
			CycleState:    p.CycleState,
			SkipSoilCheck: p.SkipSoilCheck,
		}
	}
}

// dampRecheck schedules the follow-up after a damp-soil report: 60% of
// the time remaining until the plant was next due. Checking a fraction
// of the remainder rather than the full interval avoids over-correcting
// plants that were already close to due. When the remainder is zero or
// negative (clock skew, late processing) it falls back to half the full
// calibrated interval.
func dampRecheck(p *models.Plant, iv schedule.Interval, now time.Time) time.Time {
	remaining := int(p.NextDueAt.Sub(now).Hours())
	if remaining > 0 {
		return schedule.NextDueFrom(now, remaining*6/10)
	}
	full := schedule.ApplyCalibration(iv.Adjusted, p.CalibrationHours)
	return schedule.NextDueFrom(now, full/2)
}

// Apply folds a decision into the plant struct in memory. The store
// persists the mutated record; callers that need conditional updates
// use the field set directly.
func Apply(p *models.Plant, d Decision) {
	if !d.NextDueAt.IsZero() {
		p.NextDueAt = d.NextDueAt
	}
	if d.CycleState != "" {
		p.CycleState = d.CycleState
	}
	p.SkipSoilCheck = d.SkipSoilCheck
	if d.LastWateredAt != nil {
		p.LastWateredAt = *d.LastWateredAt
	}
	if d.CalibrationDelta != 0 {
		p.CalibrationHours += d.CalibrationDelta
	}
}
