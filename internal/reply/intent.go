// Package reply interprets inbound short-code replies and drives the
// per-plant watering cycle state machine.
package reply

import "strings"

// Intent is the classified meaning of an inbound reply.
type Intent string

const (
	IntentSoilDry  Intent = "soil_dry"
	IntentSoilDamp Intent = "soil_damp"
	IntentWatered  Intent = "watered"
	IntentHelp     Intent = "help"
)

// Reply vocabulary. English and Spanish keywords are both always
// recognized regardless of the plant's configured locale — users mix
// languages more often than they change settings.
var (
	dryWords = wordSet(
		"dry", "drysoil", "soildry", "stilldry", "bonedry", "parched",
		"seca", "seco", "sequita",
	)
	dampWords = wordSet(
		"damp", "wet", "moist", "soaked", "stillwet", "stilldamp",
		"humeda", "húmeda", "humedo", "húmedo", "mojada", "mojado",
	)
	wateredWords = wordSet(
		"done", "watered", "did", "didit", "ok", "finished", "wateredit",
		"listo", "lista", "regada", "regado", "hecho", "ya",
	)
)

// ParseIntent classifies free-form reply text. Unrecognized text maps to
// IntentHelp, never an error.
func ParseIntent(text string) Intent {
	key := normalizeReply(text)

	switch {
	case dryWords[key]:
		return IntentSoilDry
	case dampWords[key]:
		return IntentSoilDamp
	case wateredWords[key]:
		return IntentWatered
	default:
		return IntentHelp
	}
}

// normalizeReply lowercases and strips everything that isn't a letter,
// so "DRY!", " dry " and "d-r-y" all classify the same.
func normalizeReply(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		if r >= 'a' && r <= 'z' || r >= 'à' && r <= 'ÿ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[normalizeReply(w)] = true
	}
	return set
}
