// Package kb holds the species knowledge base: baseline watering
// intervals and dormancy multipliers keyed by common species name.
package kb

import "strings"

// Entry is one species' watering profile.
type Entry struct {
	BaseHours        int
	WinterMultiplier float64
}

// DefaultEntry is returned for species absent from the catalog: one week
// between waterings, doubled during dormancy.
var DefaultEntry = Entry{BaseHours: 168, WinterMultiplier: 2.0}

// Catalog resolves a species name to its watering profile. Lookups never
// fail; unknown species resolve to DefaultEntry.
type Catalog interface {
	Lookup(species string) Entry
}

// mapCatalog is an immutable Catalog backed by a normalized map.
type mapCatalog struct {
	entries map[string]Entry
}

// New builds a Catalog from a species→entry map. Keys are matched
// case-insensitively with surrounding whitespace ignored.
func New(entries map[string]Entry) Catalog {
	normalized := make(map[string]Entry, len(entries))
	for name, e := range entries {
		normalized[normalize(name)] = e
	}
	return &mapCatalog{entries: normalized}
}

func (c *mapCatalog) Lookup(species string) Entry {
	if e, ok := c.entries[normalize(species)]; ok {
		return e
	}
	return DefaultEntry
}

func normalize(species string) string {
	return strings.ToLower(strings.TrimSpace(species))
}

// builtin is the shipped species table. Hours are between-watering
// baselines for a medium plastic pot in neutral light.
var builtin = map[string]Entry{
	"pothos":            {BaseHours: 168, WinterMultiplier: 2.0},
	"monstera":          {BaseHours: 192, WinterMultiplier: 2.0},
	"snake plant":       {BaseHours: 336, WinterMultiplier: 4.0},
	"zz plant":          {BaseHours: 336, WinterMultiplier: 3.0},
	"spider plant":      {BaseHours: 144, WinterMultiplier: 1.5},
	"peace lily":        {BaseHours: 120, WinterMultiplier: 1.5},
	"fiddle leaf fig":   {BaseHours: 192, WinterMultiplier: 2.0},
	"rubber plant":      {BaseHours: 216, WinterMultiplier: 2.5},
	"philodendron":      {BaseHours: 168, WinterMultiplier: 2.0},
	"succulent":         {BaseHours: 336, WinterMultiplier: 3.0},
	"cactus":            {BaseHours: 504, WinterMultiplier: 4.0},
	"aloe vera":         {BaseHours: 400, WinterMultiplier: 3.0},
	"calathea":          {BaseHours: 120, WinterMultiplier: 1.5},
	"fern":              {BaseHours: 96, WinterMultiplier: 1.5},
	"orchid":            {BaseHours: 168, WinterMultiplier: 2.0},
	"english ivy":       {BaseHours: 144, WinterMultiplier: 2.0},
	"chinese evergreen": {BaseHours: 216, WinterMultiplier: 2.0},
	"dracaena":          {BaseHours: 240, WinterMultiplier: 2.5},
	"basil":             {BaseHours: 48, WinterMultiplier: 1.0},
	"herbs":             {BaseHours: 72, WinterMultiplier: 1.0},
}

// Builtin returns the shipped species catalog.
func Builtin() Catalog {
	return New(builtin)
}
