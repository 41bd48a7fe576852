package textgen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verdant/drip/internal/models"
)

func testPlant() *models.Plant {
	return &models.Plant{
		ID:        "p1",
		Name:      "Fernando",
		Species:   "fern",
		Locale:    "en",
		NextDueAt: time.Now().Add(120 * time.Hour),
	}
}

func TestTemplateGenerator_AllKinds(t *testing.T) {
	g := NewTemplateGenerator()
	p := testPlant()

	kinds := []string{
		models.KindSoilCheck,
		models.KindWaterNow,
		models.KindWaitLonger,
		models.KindConfirmation,
		models.KindHelp,
	}
	for _, kind := range kinds {
		body, err := g.Generate(context.Background(), p, "friendly", kind)
		if err != nil {
			t.Errorf("%s: %v", kind, err)
			continue
		}
		if body == "" {
			t.Errorf("%s: empty body", kind)
		}
	}
}

func TestTemplateGenerator_UsesPlantName(t *testing.T) {
	g := NewTemplateGenerator()
	p := testPlant()

	body, err := g.Generate(context.Background(), p, "friendly", models.KindWaterNow)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(body, "Fernando") {
		t.Errorf("body %q does not mention the plant's name", body)
	}
}

func TestTemplateGenerator_FallsBackToSpecies(t *testing.T) {
	g := NewTemplateGenerator()
	p := testPlant()
	p.Name = ""

	body, err := g.Generate(context.Background(), p, "friendly", models.KindWaterNow)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(body, "fern") {
		t.Errorf("body %q does not mention the species", body)
	}
}

func TestTemplateGenerator_SpanishLocale(t *testing.T) {
	g := NewTemplateGenerator()
	p := testPlant()
	p.Locale = "es"

	body, err := g.Generate(context.Background(), p, "friendly", models.KindHelp)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(body, "SECA") {
		t.Errorf("body %q is not the Spanish help text", body)
	}
}

func TestTemplateGenerator_UnknownLocaleAndPersonality(t *testing.T) {
	g := NewTemplateGenerator()
	p := testPlant()
	p.Locale = "fr"

	body, err := g.Generate(context.Background(), p, "cowboy", models.KindSoilCheck)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if body == "" {
		t.Error("unknown locale/personality must degrade to the English friendly set")
	}
}

func TestTemplateGenerator_Personalities(t *testing.T) {
	g := NewTemplateGenerator()
	p := testPlant()

	friendly, _ := g.Generate(context.Background(), p, "friendly", models.KindWaterNow)
	sassy, _ := g.Generate(context.Background(), p, "sassy", models.KindWaterNow)
	zen, _ := g.Generate(context.Background(), p, "zen", models.KindWaterNow)

	if friendly == sassy || sassy == zen {
		t.Error("personalities must produce distinct bodies")
	}
}

// failingGenerator always errors, for fallback tests.
type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, *models.Plant, string, string) (string, error) {
	return "", errors.New("upstream unavailable")
}

// slowGenerator blocks until its context is cancelled.
type slowGenerator struct{}

func (slowGenerator) Generate(ctx context.Context, _ *models.Plant, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// cannedGenerator returns a fixed body.
type cannedGenerator struct{ body string }

func (g cannedGenerator) Generate(context.Context, *models.Plant, string, string) (string, error) {
	return g.body, nil
}

func TestWithFallback_PrimaryWins(t *testing.T) {
	g := WithFallback(cannedGenerator{body: "bespoke message"}, time.Second)

	body, err := g.Generate(context.Background(), testPlant(), "friendly", models.KindSoilCheck)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if body != "bespoke message" {
		t.Errorf("body = %q, want primary output", body)
	}
}

func TestWithFallback_PrimaryFailure(t *testing.T) {
	g := WithFallback(failingGenerator{}, time.Second)

	body, err := g.Generate(context.Background(), testPlant(), "friendly", models.KindSoilCheck)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(body, "Fernando") {
		t.Errorf("body = %q, want fixed template fallback", body)
	}
}

func TestWithFallback_PrimaryTimeout(t *testing.T) {
	g := WithFallback(slowGenerator{}, 10*time.Millisecond)

	start := time.Now()
	body, err := g.Generate(context.Background(), testPlant(), "friendly", models.KindSoilCheck)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if body == "" {
		t.Error("want fallback body after timeout")
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestWithFallback_NilPrimary(t *testing.T) {
	g := WithFallback(nil, time.Second)

	body, err := g.Generate(context.Background(), testPlant(), "friendly", models.KindConfirmation)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if body == "" {
		t.Error("nil primary must still produce the fixed template")
	}
}
