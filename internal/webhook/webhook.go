// Package webhook serves the inbound-message HTTP endpoint. The SMS
// gateway (or a chat bridge) POSTs each reply here; the handler runs the
// reply state machine and sends the follow-up message back out.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/verdant/drip/internal/kb"
	"github.com/verdant/drip/internal/models"
	"github.com/verdant/drip/internal/notify"
	"github.com/verdant/drip/internal/reply"
	"github.com/verdant/drip/internal/schedule"
	"github.com/verdant/drip/internal/store"
	"github.com/verdant/drip/internal/textgen"
)

// StartOpts holds configuration for the webhook server.
type StartOpts struct {
	DB       *gorm.DB
	Catalog  kb.Catalog
	Texts    textgen.Generator
	Adapters *notify.Registry
	Clock    schedule.Clock
	Port     int
	Out      io.Writer
}

// Start launches the webhook HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("webhook: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8085
	}

	router, err := newRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Webhook listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// newRouter builds the Gin router with all routes registered.
func newRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("webhook: species catalog is required")
	}
	if opts.Texts == nil {
		return nil, fmt.Errorf("webhook: text generator is required")
	}
	if opts.Adapters == nil {
		return nil, fmt.Errorf("webhook: adapter registry is required")
	}
	if opts.Clock == nil {
		opts.Clock = schedule.SystemClock{}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handleHealth(opts.DB))
	router.POST("/inbound", handleInbound(opts))
	return router, nil
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// handleInbound processes one reply: resolve the plant from the
// (sender phone, receiving number) pair, run the transition, persist it,
// and send the follow-up message. Duplicate or racing replies settle
// last-write-wins; no row locking.
func handleInbound(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := c.PostForm("From")
		to := c.PostForm("To")
		body := c.PostForm("Body")
		if from == "" || to == "" || body == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "From, To and Body are required"})
			return
		}

		p, err := store.GetBySlot(opts.DB, from, to)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no plant bound to this number pair"})
			return
		}
		if err != nil {
			log.Printf("webhook: lookup plant for %s/%s: %v", from, to, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}

		if err := store.LogMessage(opts.DB, &models.MessageLog{
			PlantID:   p.ID,
			Direction: "inbound",
			Body:      body,
		}); err != nil {
			log.Printf("webhook: log inbound for plant %s: %v", p.ID, err)
		}

		now := opts.Clock.Now()
		intent := reply.ParseIntent(body)
		iv := schedule.ComputeInterval(opts.Catalog, p.Species, p.PotSize, p.PotMaterial, p.LightExposure, now)
		d := reply.Transition(p, intent, iv, now)

		if err := persistDecision(opts.DB, p.ID, d); err != nil {
			log.Printf("webhook: persist reply for plant %s: %v", p.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "persist failed"})
			return
		}
		reply.Apply(p, d)

		deliveryID, err := respond(c.Request.Context(), opts, p, d.Kind, now)
		if err != nil {
			// The transition is committed; a failed follow-up message
			// is not a failed reply.
			log.Printf("webhook: respond to plant %s: %v", p.ID, err)
		}

		c.JSON(http.StatusOK, gin.H{
			"intent":      string(intent),
			"kind":        d.Kind,
			"delivery_id": deliveryID,
		})
	}
}

// persistDecision writes a transition's field changes. The calibration
// nudge is applied relative to the stored value so racing replies
// accumulate rather than clobber.
func persistDecision(db *gorm.DB, plantID string, d reply.Decision) error {
	fields := map[string]interface{}{
		"cycle_state":     d.CycleState,
		"skip_soil_check": d.SkipSoilCheck,
	}
	if !d.NextDueAt.IsZero() {
		fields["next_due_at"] = d.NextDueAt
	}
	if d.LastWateredAt != nil {
		fields["last_watered_at"] = *d.LastWateredAt
	}
	if d.CalibrationDelta != 0 {
		fields["calibration_hours"] = gorm.Expr("calibration_hours + ?", d.CalibrationDelta)
	}
	return store.UpdateFields(db, plantID, fields)
}

// respond generates and sends the follow-up message for a reply.
func respond(ctx context.Context, opts StartOpts, p *models.Plant, kind string, now time.Time) (string, error) {
	acct, err := store.GetAccount(opts.DB, p.OwnerPhone)
	if err != nil {
		return "", fmt.Errorf("webhook: load account %s: %w", p.OwnerPhone, err)
	}

	body, err := opts.Texts.Generate(ctx, p, acct.Personality, kind)
	if err != nil {
		return "", fmt.Errorf("webhook: generate %s text: %w", kind, err)
	}

	adapter, err := opts.Adapters.For(acct.Channel)
	if err != nil {
		return "", fmt.Errorf("webhook: resolve channel %s: %w", acct.Channel, err)
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
		return "", fmt.Errorf("webhook: send via %s: %w", adapter.Name(), err)
	}

	if err := store.LogMessage(opts.DB, &models.MessageLog{
		PlantID:    p.ID,
		Direction:  "outbound",
		Kind:       kind,
		Body:       body,
		DeliveryID: deliveryID,
	}); err != nil {
		log.Printf("webhook: log outbound for plant %s: %v", p.ID, err)
	}

	fields := map[string]interface{}{
		"messages_sent":     gorm.Expr("messages_sent + 1"),
		"last_message_kind": kind,
		"last_message_body": body,
		"last_message_at":   now,
	}
	if err := store.UpdateFields(opts.DB, p.ID, fields); err != nil {
		log.Printf("webhook: update message fields for plant %s: %v", p.ID, err)
	}
	return deliveryID, nil
}
