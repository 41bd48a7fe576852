// Package textgen produces outbound message bodies. A fixed template
// set per (personality, kind, locale) is always available; richer
// generators can wrap it and fall back to it on failure.
package textgen

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/verdant/drip/internal/models"
)

// Generator produces one message body for a plant. The core only needs
// a string back; any failure makes the caller fall back or skip.
type Generator interface {
	Generate(ctx context.Context, p *models.Plant, personality, kind string) (string, error)
}

// promptData is the payload available inside message templates.
type promptData struct {
	Name    string
	Species string
	Hours   int
}

// plainName returns a printable handle for the plant.
func plainName(p *models.Plant) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Species
}

// Fixed template bodies, keyed locale → personality → kind. Missing
// personalities fall back to "friendly"; missing locales to "en".
var fixedTemplates = map[string]map[string]map[string]string{
	"en": {
		"friendly": {
			models.KindSoilCheck:    "Hi! Time to check on {{.Name}}. Poke a finger an inch into the soil — reply DRY, DAMP, or DONE if you already watered.",
			models.KindWaterNow:     "{{.Name}} is thirsty! Give it a good drink and reply DONE when you're finished.",
			models.KindWaitLonger:   "Good call waiting! {{.Name}} still has moisture. I'll check back with you in about {{.Hours}} hours.",
			models.KindConfirmation: "Lovely! {{.Name}} is all set. I'll remind you when it's time again.",
			models.KindHelp:         "I didn't catch that. Reply DRY if the soil is dry, DAMP if it's still moist, or DONE once you've watered.",
		},
		"sassy": {
			models.KindSoilCheck:    "Hey plant parent — {{.Name}} wants attention. Finger in the soil: DRY, DAMP, or DONE. Go.",
			models.KindWaterNow:     "{{.Name}} is parched and judging you. Water it, then reply DONE.",
			models.KindWaitLonger:   "Fine, {{.Name}} can wait. Don't drown it. Talk in {{.Hours}} hours.",
			models.KindConfirmation: "Finally. {{.Name}} thanks you. Same time next cycle.",
			models.KindHelp:         "That's not a word I know. DRY, DAMP, or DONE. It's three options.",
		},
		"zen": {
			models.KindSoilCheck:    "A moment for {{.Name}}: feel the soil beneath the surface. Reply DRY, DAMP, or DONE.",
			models.KindWaterNow:     "{{.Name}} asks for water. When the pot has drunk, reply DONE.",
			models.KindWaitLonger:   "Patience. {{.Name}} rests in moist earth. We will return in {{.Hours}} hours.",
			models.KindConfirmation: "It is done. {{.Name}} and I are grateful.",
			models.KindHelp:         "The words DRY, DAMP, and DONE are the path.",
		},
	},
	"es": {
		"friendly": {
			models.KindSoilCheck:    "¡Hola! Toca la tierra de {{.Name}} — responde SECA, HÚMEDA, o LISTO si ya regaste.",
			models.KindWaterNow:     "¡{{.Name}} tiene sed! Riégala bien y responde LISTO cuando termines.",
			models.KindWaitLonger:   "¡Bien! {{.Name}} todavía tiene humedad. Te aviso en unas {{.Hours}} horas.",
			models.KindConfirmation: "¡Perfecto! {{.Name}} está lista. Te recuerdo en el próximo ciclo.",
			models.KindHelp:         "No entendí. Responde SECA si la tierra está seca, HÚMEDA si sigue mojada, o LISTO si ya regaste.",
		},
	},
}

// TemplateGenerator renders the fixed template set. It never calls out
// anywhere, so it is also the fallback of last resort.
type TemplateGenerator struct{}

// NewTemplateGenerator returns the fixed-template generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate renders the fixed template for the plant's locale.
func (g *TemplateGenerator) Generate(_ context.Context, p *models.Plant, personality, kind string) (string, error) {
	body := lookupTemplate(p.Locale, personality, kind)
	if body == "" {
		return "", fmt.Errorf("textgen: no template for kind %q", kind)
	}

	tmpl, err := template.New("msg").Parse(body)
	if err != nil {
		return "", fmt.Errorf("textgen: parse template: %w", err)
	}

	var buf bytes.Buffer
	data := promptData{
		Name:    plainName(p),
		Species: p.Species,
		Hours:   int(time.Until(p.NextDueAt).Hours()),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("textgen: execute template: %w", err)
	}
	return buf.String(), nil
}

// lookupTemplate resolves locale and personality with fallbacks.
func lookupTemplate(locale, personality, kind string) string {
	byPersonality, ok := fixedTemplates[locale]
	if !ok {
		byPersonality = fixedTemplates["en"]
	}
	byKind, ok := byPersonality[personality]
	if !ok {
		byKind = byPersonality["friendly"]
		if byKind == nil {
			byKind = fixedTemplates["en"]["friendly"]
		}
	}
	if body, ok := byKind[kind]; ok {
		return body
	}
	// Locale tables may be sparse; the English friendly set is complete.
	return fixedTemplates["en"]["friendly"][kind]
}

// fallbackGenerator tries a primary generator under a timeout and falls
// back to the fixed templates when it errors, times out, or returns an
// empty body.
type fallbackGenerator struct {
	primary Generator
	fixed   *TemplateGenerator
	timeout time.Duration
}

// WithFallback wraps a primary generator with the fixed-template safety
// net. A nil primary degenerates to the fixed templates directly.
func WithFallback(primary Generator, timeout time.Duration) Generator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &fallbackGenerator{
		primary: primary,
		fixed:   NewTemplateGenerator(),
		timeout: timeout,
	}
}

func (g *fallbackGenerator) Generate(ctx context.Context, p *models.Plant, personality, kind string) (string, error) {
	if g.primary != nil {
		genCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		body, err := g.primary.Generate(genCtx, p, personality, kind)
		if err == nil && body != "" {
			return body, nil
		}
	}
	return g.fixed.Generate(ctx, p, personality, kind)
}
