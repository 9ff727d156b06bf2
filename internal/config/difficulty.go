package config

import (
	"strings"

	"github.com/BekRobot99/42-ft-transcendence-sub002/internal/ai"
)

// ProfileSet returns the built-in AI profiles with the configured overrides
// applied. An override replaces the whole profile of that name; unset fields
// of an override inherit from the built-in profile of the same name.
func (c AIConfig) ProfileSet() map[string]ai.Profile {
	set := ai.DefaultProfiles()
	for name, p := range c.Profiles {
		key := strings.ToLower(strings.TrimSpace(name))
		base := set[key]

		if p.ReactionTime <= 0 {
			p.ReactionTime = base.ReactionTime
		}
		if p.Accuracy <= 0 {
			p.Accuracy = base.Accuracy
		}
		if p.Speed <= 0 {
			p.Speed = base.Speed
		}
		if p.PredictionDepth <= 0 {
			p.PredictionDepth = base.PredictionDepth
		}
		p.Accuracy = clampF(p.Accuracy, 0, 1)
		p.Speed = clampF(p.Speed, 0, 1)
		p.Name = key
		set[key] = p
	}
	return set
}

// clampF restricts a float64 to [lo, hi].
func clampF(val, lo, hi float64) float64 {
	return max(lo, min(hi, val))
}
