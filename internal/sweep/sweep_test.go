package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/verdant/drip/internal/models"
	"github.com/verdant/drip/internal/notify"
	"github.com/verdant/drip/internal/textgen"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Plant{},
		&models.MessageLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedPlant(t *testing.T, db *gorm.DB, id string, slot int, due time.Time) *models.Plant {
	t.Helper()
	p := &models.Plant{
		ID:            id,
		OwnerPhone:    "+15551230000",
		Slot:          slot,
		SenderNumber:  "+15550001111",
		Name:          "Fern " + id,
		Species:       "pothos",
		BaseHours:     168,
		AdjustedHours: 168,
		CycleState:    models.CycleAwaitingSoilCheck,
		NextDueAt:     due,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed plant %s: %v", id, err)
	}
	return p
}

// recordingAdapter captures sends for assertions.
type recordingAdapter struct {
	name    string
	sent    []notify.Message
	sendErr error
}

func (a *recordingAdapter) Name() string { return a.name }

func (a *recordingAdapter) Send(_ context.Context, msg notify.Message) (string, error) {
	if a.sendErr != nil {
		return "", a.sendErr
	}
	a.sent = append(a.sent, msg)
	return fmt.Sprintf("d-%d", len(a.sent)), nil
}

func testDeps(db *gorm.DB, adapter notify.Adapter) Deps {
	reg := notify.NewRegistry()
	reg.Register(adapter)
	return Deps{
		DB:       db,
		Texts:    textgen.NewTemplateGenerator(),
		Adapters: reg,
	}
}

func TestRunOnceSendsSoilCheck(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	seedPlant(t, db, "p1", 0, now.Add(-time.Hour))

	sms := &recordingAdapter{name: "sms"}
	rep, err := RunOnce(context.Background(), testDeps(db, sms), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rep.Attempted != 1 || rep.Processed != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sms.sent))
	}
	if sms.sent[0].To != "+15551230000" || sms.sent[0].From != "+15550001111" {
		t.Errorf("addressing wrong: %+v", sms.sent[0])
	}

	var got models.Plant
	if err := db.First(&got, "id = ?", "p1").Error; err != nil {
		t.Fatalf("reload plant: %v", err)
	}
	wantDue := now.Add(168 * time.Hour)
	if !got.NextDueAt.Equal(wantDue) {
		t.Errorf("next due = %v, want %v", got.NextDueAt, wantDue)
	}
	if got.LastMessageKind != models.KindSoilCheck {
		t.Errorf("last message kind = %q", got.LastMessageKind)
	}
	if got.MessagesSent != 1 {
		t.Errorf("messages sent = %d", got.MessagesSent)
	}
	if got.CycleState != models.CycleAwaitingSoilCheck {
		t.Errorf("cycle state = %q", got.CycleState)
	}

	var logs []models.MessageLog
	if err := db.Find(&logs, "plant_id = ?", "p1").Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Kind != models.KindSoilCheck || logs[0].Direction != "outbound" {
		t.Errorf("unexpected log rows: %+v", logs)
	}
	if logs[0].DeliveryID == "" {
		t.Error("log row missing delivery ID")
	}
}

func TestRunOnceCalibratedAdvance(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	p := seedPlant(t, db, "p1", 0, now.Add(-time.Hour))
	if err := db.Model(p).Update("calibration_hours", -24).Error; err != nil {
		t.Fatalf("set calibration: %v", err)
	}

	if _, err := RunOnce(context.Background(), testDeps(db, &recordingAdapter{name: "sms"}), now); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var got models.Plant
	db.First(&got, "id = ?", "p1")
	wantDue := now.Add(144 * time.Hour)
	if !got.NextDueAt.Equal(wantDue) {
		t.Errorf("next due = %v, want calibrated %v", got.NextDueAt, wantDue)
	}
}

func TestRunOnceConsumesSkipFlag(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	p := seedPlant(t, db, "p1", 0, now.Add(-time.Hour))
	if err := db.Model(p).Update("skip_soil_check", true).Error; err != nil {
		t.Fatalf("set skip flag: %v", err)
	}

	sms := &recordingAdapter{name: "sms"}
	if _, err := RunOnce(context.Background(), testDeps(db, sms), now); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var got models.Plant
	db.First(&got, "id = ?", "p1")
	if got.SkipSoilCheck {
		t.Error("skip flag should be consumed")
	}
	if got.LastMessageKind != models.KindWaterNow {
		t.Errorf("last message kind = %q, want water_now", got.LastMessageKind)
	}
	if got.CycleState != models.CycleAwaitingWaterDone {
		t.Errorf("cycle state = %q, want awaiting_water_done", got.CycleState)
	}
}

func TestRunOnceIgnoresNotDue(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	seedPlant(t, db, "p1", 0, now.Add(time.Hour))

	sms := &recordingAdapter{name: "sms"}
	rep, err := RunOnce(context.Background(), testDeps(db, sms), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rep.Attempted != 0 || len(sms.sent) != 0 {
		t.Errorf("not-due plant was touched: %+v sends=%d", rep, len(sms.sent))
	}
}

func TestRunOnceSecondPassIsIdle(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	seedPlant(t, db, "p1", 0, now.Add(-time.Hour))

	sms := &recordingAdapter{name: "sms"}
	deps := testDeps(db, sms)
	if _, err := RunOnce(context.Background(), deps, now); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	rep, err := RunOnce(context.Background(), deps, now)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if rep.Attempted != 0 || len(sms.sent) != 1 {
		t.Errorf("second pass re-prompted: %+v sends=%d", rep, len(sms.sent))
	}
}

func TestClaimConflict(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	p := seedPlant(t, db, "p1", 0, now.Add(-time.Hour))

	// Another sweeper advances the plant after this one read it.
	stale := *p
	if err := db.Model(p).Update("next_due_at", now.Add(168*time.Hour)).Error; err != nil {
		t.Fatalf("concurrent advance: %v", err)
	}

	_, claimed, err := claim(db, &stale, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed {
		t.Error("stale read should lose the claim")
	}
}

func TestRunOnceSendFailureIsolated(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	seedPlant(t, db, "p1", 0, now.Add(-2*time.Hour))
	seedPlant(t, db, "p2", 1, now.Add(-time.Hour))

	sms := &recordingAdapter{name: "sms"}
	deps := testDeps(db, sms)

	// First plant's send fails; second must still be prompted.
	var calls int
	deps.Adapters = notify.NewRegistry()
	deps.Adapters.Register(&flakyAdapter{inner: sms, failOn: &calls})

	rep, err := RunOnce(context.Background(), deps, now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rep.Failed != 1 || rep.Processed != 1 {
		t.Errorf("report = %+v", rep)
	}
	if len(sms.sent) != 1 {
		t.Errorf("expected 1 successful send, got %d", len(sms.sent))
	}

	// The failed plant was still claimed, so it won't be re-prompted
	// until its next interval.
	var got models.Plant
	db.First(&got, "id = ?", "p1")
	if !got.NextDueAt.After(now) {
		t.Error("failed plant should still have been advanced")
	}
}

// flakyAdapter fails its first send and delegates the rest.
type flakyAdapter struct {
	inner  *recordingAdapter
	failOn *int
}

func (a *flakyAdapter) Name() string { return "sms" }

func (a *flakyAdapter) Send(ctx context.Context, msg notify.Message) (string, error) {
	*a.failOn++
	if *a.failOn == 1 {
		return "", fmt.Errorf("gateway timeout")
	}
	return a.inner.Send(ctx, msg)
}

func TestRunOncePaginates(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedPlant(t, db, fmt.Sprintf("p%d", i), i, now.Add(-time.Duration(i+1)*time.Minute))
	}

	sms := &recordingAdapter{name: "sms"}
	deps := testDeps(db, sms)
	deps.PageSize = 2

	rep, err := RunOnce(context.Background(), deps, now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rep.Processed != 5 {
		t.Errorf("processed = %d, want 5", rep.Processed)
	}
}

func TestRunOnceRoutesByAccountChannel(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	seedPlant(t, db, "p1", 0, now.Add(-time.Hour))
	acct := &models.Account{
		Phone:     "+15551230000",
		Tier:      "plus",
		Channel:   "discord",
		ChannelID: "u-discord-1",
	}
	if err := db.Create(acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}

	sms := &recordingAdapter{name: "sms"}
	dg := &recordingAdapter{name: "discord"}
	reg := notify.NewRegistry()
	reg.Register(sms)
	reg.Register(dg)
	deps := Deps{DB: db, Texts: textgen.NewTemplateGenerator(), Adapters: reg}

	if _, err := RunOnce(context.Background(), deps, now); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sms.sent) != 0 || len(dg.sent) != 1 {
		t.Fatalf("sms=%d discord=%d sends", len(sms.sent), len(dg.sent))
	}
	if dg.sent[0].To != "u-discord-1" {
		t.Errorf("discord recipient = %q", dg.sent[0].To)
	}
}
