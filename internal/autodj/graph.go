package autodj

import (
	"sort"

	"github.com/satindergrewal/brandtone/internal/descriptor"
)

// Station is a node in the station graph: a style prompt plus the tags the
// descriptor extractor derives from it.
type Station struct {
	Name     string
	Prompt   string
	Genre    descriptor.Genre
	Mood     descriptor.Mood
	Adjacent []string
}

// Stations maps station names to their graph nodes with adjacency edges.
// Transitions only follow edges -- no jumping across the graph.
var Stations = map[string]*Station{
	"lobby": {
		Name:     "lobby",
		Prompt:   "soft background music for the lobby",
		Genre:    descriptor.GenreGeneral,
		Mood:     descriptor.MoodNeutral,
		Adjacent: []string{"sunday morning", "bedroom tapes", "night drive"},
	},
	"sunday morning": {
		Name:     "sunday morning",
		Prompt:   "easy pop melody for a slow sunday",
		Genre:    descriptor.GenrePop,
		Mood:     descriptor.MoodNeutral,
		Adjacent: []string{"lobby", "city lights", "heartstrings"},
	},
	"city lights": {
		Name:     "city lights",
		Prompt:   "inspirador pop chorus for a bright storefront",
		Genre:    descriptor.GenrePop,
		Mood:     descriptor.MoodEnergetic,
		Adjacent: []string{"sunday morning", "neon pulse", "open road"},
	},
	"heartstrings": {
		Name:     "heartstrings",
		Prompt:   "emotivo pop ballad, warm and tender",
		Genre:    descriptor.GenrePop,
		Mood:     descriptor.MoodEmotional,
		Adjacent: []string{"sunday morning", "bedroom tapes"},
	},
	"bedroom tapes": {
		Name:     "bedroom tapes",
		Prompt:   "reflexivo indie guitar sketches",
		Genre:    descriptor.GenreIndie,
		Mood:     descriptor.MoodCalm,
		Adjacent: []string{"lobby", "heartstrings", "open road"},
	},
	"open road": {
		Name:     "open road",
		Prompt:   "energético indie rock for the open road",
		Genre:    descriptor.GenreIndie,
		Mood:     descriptor.MoodEnergetic,
		Adjacent: []string{"bedroom tapes", "city lights"},
	},
	"neon pulse": {
		Name:     "neon pulse",
		Prompt:   "energético electronic anthem with driving synths",
		Genre:    descriptor.GenreElectronic,
		Mood:     descriptor.MoodEnergetic,
		Adjacent: []string{"city lights", "night drive"},
	},
	"night drive": {
		Name:     "night drive",
		Prompt:   "contemplativo electronic cruise, late night synth haze",
		Genre:    descriptor.GenreElectronic,
		Mood:     descriptor.MoodCalm,
		Adjacent: []string{"neon pulse", "lobby"},
	},
}

// StationNames returns all station names in sorted order.
func StationNames() []string {
	names := make([]string, 0, len(Stations))
	for name := range Stations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidStation checks if a station exists in the graph.
func IsValidStation(name string) bool {
	_, ok := Stations[name]
	return ok
}
