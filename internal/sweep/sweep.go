// Package sweep finds plants whose watering check is due and sends them
// their next prompt. It is the only writer that advances next_due_at
// without an inbound reply, so advancing is guarded by a compare-and-swap
// on the due timestamp: of any number of concurrent sweepers, exactly one
// claims each plant.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/verdant/drip/internal/models"
	"github.com/verdant/drip/internal/notify"
	"github.com/verdant/drip/internal/schedule"
	"github.com/verdant/drip/internal/store"
	"github.com/verdant/drip/internal/textgen"
)

const defaultPageSize = 200

// Deps bundles what a sweep needs. Out receives human-readable progress;
// nil means discard.
type Deps struct {
	DB       *gorm.DB
	Texts    textgen.Generator
	Adapters *notify.Registry
	PageSize int
	Out      io.Writer
}

// Report summarizes one sweep pass. Attempted counts due plants seen;
// Processed counts plants whose prompt was sent after a successful claim.
// Claimed-elsewhere plants are not failures.
type Report struct {
	Attempted int
	Processed int
	Conflicts int
	Failed    int
}

// RunOnce performs a single sweep pass as of now. Each due plant is
// claimed via compare-and-swap, then prompted; a failure on one plant
// never stops the pass.
func RunOnce(ctx context.Context, deps Deps, now time.Time) (Report, error) {
	var rep Report
	if deps.DB == nil {
		return rep, fmt.Errorf("sweep: db is required")
	}
	if deps.Texts == nil {
		return rep, fmt.Errorf("sweep: text generator is required")
	}
	if deps.Adapters == nil {
		return rep, fmt.Errorf("sweep: adapter registry is required")
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}

	// Every listed plant leaves the due set once claimed (by us or a
	// concurrent sweeper), so the offset only has to skip past plants
	// whose claim itself errored.
	for offset := 0; ; {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		plants, err := store.ListDue(deps.DB, now, pageSize, offset)
		if err != nil {
			return rep, fmt.Errorf("sweep: list due: %w", err)
		}
		if len(plants) == 0 {
			break
		}

		for i := range plants {
			p := &plants[i]
			rep.Attempted++

			kind, claimed, err := claim(deps.DB, p, now)
			if err != nil {
				log.Printf("sweep: claim plant %s: %v", p.ID, err)
				rep.Failed++
				offset++
				continue
			}
			if !claimed {
				rep.Conflicts++
				continue
			}

			if err := prompt(ctx, deps, p, kind, now); err != nil {
				log.Printf("sweep: prompt plant %s: %v", p.ID, err)
				rep.Failed++
				continue
			}
			rep.Processed++
		}

		if len(plants) < pageSize {
			break
		}
	}

	fmt.Fprintf(out, "Sweep done: %d due, %d prompted, %d claimed elsewhere, %d failed\n",
		rep.Attempted, rep.Processed, rep.Conflicts, rep.Failed)
	return rep, nil
}

// claim advances the plant's schedule iff next_due_at still matches what
// we read, and returns the prompt kind the plant should get. Claimed is
// false when another sweeper got there first. The skip flag is consumed
// here whether or not the later send succeeds, so a plant never gets the
// skip shortcut twice.
func claim(db *gorm.DB, p *models.Plant, now time.Time) (kind string, claimed bool, err error) {
	kind = models.KindSoilCheck
	state := models.CycleAwaitingSoilCheck
	if p.SkipSoilCheck {
		kind = models.KindWaterNow
		state = models.CycleAwaitingWaterDone
	}

	interval := schedule.ApplyCalibration(p.AdjustedHours, p.CalibrationHours)
	next := schedule.NextDueFrom(now, interval)

	err = store.AdvanceSchedule(db, p.ID, p.NextDueAt, map[string]interface{}{
		"next_due_at":     next,
		"skip_soil_check": false,
		"cycle_state":     state,
	})
	if errors.Is(err, store.ErrScheduleConflict) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	// Reflect the claim on the in-memory copy for the send step.
	p.NextDueAt = next
	p.SkipSoilCheck = false
	p.CycleState = state
	return kind, true, nil
}

// prompt generates and delivers the plant's message, then records it.
func prompt(ctx context.Context, deps Deps, p *models.Plant, kind string, now time.Time) error {
	acct, err := store.GetAccount(deps.DB, p.OwnerPhone)
	if err != nil {
		return fmt.Errorf("sweep: load account %s: %w", p.OwnerPhone, err)
	}

	body, err := deps.Texts.Generate(ctx, p, acct.Personality, kind)
	if err != nil {
		return fmt.Errorf("sweep: generate %s text: %w", kind, err)
	}

	adapter, err := deps.Adapters.For(acct.Channel)
	if err != nil {
		return fmt.Errorf("sweep: resolve channel %s: %w", acct.Channel, err)
	}

	to := p.OwnerPhone
	if acct.Channel != "sms" && acct.ChannelID != "" {
		to = acct.ChannelID
	}

	deliveryID, err := adapter.Send(ctx, notify.Message{
		To:   to,
		From: p.SenderNumber,
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("sweep: send via %s: %w", adapter.Name(), err)
	}

	if err := store.LogMessage(deps.DB, &models.MessageLog{
		PlantID:    p.ID,
		Direction:  "outbound",
		Kind:       kind,
		Body:       body,
		DeliveryID: deliveryID,
	}); err != nil {
		log.Printf("sweep: log message for plant %s: %v", p.ID, err)
	}

	fields := map[string]interface{}{
		"messages_sent":     gorm.Expr("messages_sent + 1"),
		"last_message_kind": kind,
		"last_message_body": body,
		"last_message_at":   now,
	}
	if err := store.UpdateFields(deps.DB, p.ID, fields); err != nil {
		log.Printf("sweep: update message fields for plant %s: %v", p.ID, err)
	}
	return nil
}
