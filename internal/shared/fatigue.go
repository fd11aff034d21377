package shared

// Energy levels are what the coach sees (0 exhausted, 100 fresh). The
// optimizer works on the multiplier t_j in [MinMultiplier, MaxMultiplier].
const (
	MinMultiplier = 0.3
	MaxMultiplier = 1.0
	FreshLevel    = 100.0

	// Per-minute rates applied to t_j.
	CourtDrainRate   = 0.02
	BenchRecoverRate = 0.01
)

// LevelToMultiplier maps an energy level 0-100 onto t_j.
func LevelToMultiplier(level float64) float64 {
	return clamp(level/100.0*(MaxMultiplier-MinMultiplier)+MinMultiplier, MinMultiplier, MaxMultiplier)
}

// MultiplierToLevel maps t_j back onto the 0-100 energy scale.
func MultiplierToLevel(t float64) float64 {
	return clamp((t-MinMultiplier)/(MaxMultiplier-MinMultiplier)*100.0, 0, 100)
}

// UpdateMultiplier applies one stint of the given length to t_j.
func UpdateMultiplier(t, minutes float64, onCourt bool) float64 {
	if onCourt {
		t -= CourtDrainRate * minutes
	} else {
		t += BenchRecoverRate * minutes
	}
	return clamp(t, MinMultiplier, MaxMultiplier)
}

// UpdateLevels returns new energy levels for every tracked player after a
// stint of the given length. Players in lineup were on court.
func UpdateLevels(levels map[string]float64, lineup []string, seconds float64) map[string]float64 {
	minutes := seconds / 60.0
	onCourt := make(map[string]bool, len(lineup))
	for _, id := range lineup {
		onCourt[id] = true
	}

	updated := make(map[string]float64, len(levels))
	for id, level := range levels {
		t := UpdateMultiplier(LevelToMultiplier(level), minutes, onCourt[id])
		updated[id] = MultiplierToLevel(t)
	}
	return updated
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
