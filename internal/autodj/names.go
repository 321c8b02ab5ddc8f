package autodj

// stationAdjectives gives each station a pool of descriptors for track names.
var stationAdjectives = map[string][]string{
	"lobby":          {"quiet", "polished", "welcoming", "steady", "soft"},
	"sunday morning": {"sunlit", "lazy", "easy", "golden", "unhurried"},
	"city lights":    {"bright", "rising", "sparkling", "busy", "radiant"},
	"heartstrings":   {"tender", "aching", "warm", "bittersweet", "close"},
	"bedroom tapes":  {"hazy", "dusty", "wistful", "faded", "hushed"},
	"open road":      {"restless", "wide", "spirited", "sunburnt", "raw"},
	"neon pulse":     {"neon", "kinetic", "surging", "chrome", "electric"},
	"night drive":    {"midnight", "gliding", "distant", "velvet", "low"},
}

// TrackName generates a human-readable name from station and track ID.
// The first characters of the ID pick a deterministic adjective.
func TrackName(station, trackID string) string {
	if station == "" || trackID == "" {
		return ""
	}

	adjs := stationAdjectives[station]
	if len(adjs) == 0 {
		return station + " session"
	}

	var h int
	for i := 0; i < len(trackID) && i < 8; i++ {
		h = h*31 + int(trackID[i])
	}
	if h < 0 {
		h = -h
	}

	return adjs[h%len(adjs)] + " " + station
}

// trackTitle is the storage title for a rendered track: its name plus a
// short ID so repeated names never collide on disk.
func trackTitle(name, trackID string) string {
	short := trackID
	if len(short) > 8 {
		short = short[:8]
	}
	return name + " " + short
}
