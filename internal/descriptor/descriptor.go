// Package descriptor maps free-text style prompts to a small closed set of
// genre and mood tags that drive synthesis.
package descriptor

import "strings"

// Genre is the timbre class of a track.
type Genre int

const (
	GenreGeneral Genre = iota // default when no keyword matches
	GenreElectronic
	GenrePop
	GenreIndie
)

// Mood selects the modulation applied to a track.
type Mood int

const (
	MoodNeutral Mood = iota // default when no keyword matches
	MoodEnergetic
	MoodCalm
	MoodEmotional
)

var genreNames = map[Genre]string{
	GenreGeneral:    "general",
	GenreElectronic: "electronic",
	GenrePop:        "pop",
	GenreIndie:      "indie",
}

var moodNames = map[Mood]string{
	MoodNeutral:   "neutral",
	MoodEnergetic: "energetic",
	MoodCalm:      "calm",
	MoodEmotional: "emotional",
}

func (g Genre) String() string {
	if name, ok := genreNames[g]; ok {
		return name
	}
	return genreNames[GenreGeneral]
}

func (m Mood) String() string {
	if name, ok := moodNames[m]; ok {
		return name
	}
	return moodNames[MoodNeutral]
}

// ParseGenre resolves a tag name as returned by Genre.String.
func ParseGenre(name string) (Genre, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for g, n := range genreNames {
		if n == name {
			return g, true
		}
	}
	return GenreGeneral, false
}

// ParseMood resolves a tag name as returned by Mood.String.
func ParseMood(name string) (Mood, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, n := range moodNames {
		if n == name {
			return m, true
		}
	}
	return MoodNeutral, false
}

type genreRule struct {
	keywords []string
	genre    Genre
}

type moodRule struct {
	keywords []string
	mood     Mood
}

// Rules are checked in order; the first rule with a matching keyword wins.
var genreRules = []genreRule{
	{keywords: []string{"eletrônico", "electronic"}, genre: GenreElectronic},
	{keywords: []string{"pop"}, genre: GenrePop},
	{keywords: []string{"indie"}, genre: GenreIndie},
}

var moodRules = []moodRule{
	{keywords: []string{"inspirador", "energético"}, mood: MoodEnergetic},
	{keywords: []string{"reflexivo", "contemplativo"}, mood: MoodCalm},
	{keywords: []string{"emotivo"}, mood: MoodEmotional},
}

// Extract derives the (genre, mood) pair from a prompt by case-insensitive
// substring matching. It never fails: unmatched text yields
// (GenreGeneral, MoodNeutral).
func Extract(text string) (Genre, Mood) {
	lower := strings.ToLower(text)
	return extractGenre(lower), extractMood(lower)
}

func extractGenre(lower string) Genre {
	for _, r := range genreRules {
		if containsAny(lower, r.keywords) {
			return r.genre
		}
	}
	return GenreGeneral
}

func extractMood(lower string) Mood {
	for _, r := range moodRules {
		if containsAny(lower, r.keywords) {
			return r.mood
		}
	}
	return MoodNeutral
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
