// Package ai implements the computer opponent: it observes match snapshots,
// reacts after a human-like delay and emits paddle inputs.
package ai

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownDifficulty is returned for a difficulty name with no profile.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty names.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Profile tunes how well the AI plays.
type Profile struct {
	Name            string        `yaml:"-"`
	ReactionTime    time.Duration `yaml:"reaction_time"`    // Delay between observing and acting
	Accuracy        float64       `yaml:"accuracy"`         // 1 = no aiming error
	Speed           float64       `yaml:"speed"`            // Paddle intensity of emitted moves
	PredictionDepth int           `yaml:"prediction_depth"` // <= 1 tracks the ball; more looks ahead this many seconds
}

// DefaultProfiles returns the built-in easy/medium/hard profiles.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		DifficultyEasy: {
			Name:            DifficultyEasy,
			ReactionTime:    600 * time.Millisecond,
			Accuracy:        0.6,
			Speed:           0.6,
			PredictionDepth: 1,
		},
		DifficultyMedium: {
			Name:            DifficultyMedium,
			ReactionTime:    400 * time.Millisecond,
			Accuracy:        0.8,
			Speed:           0.8,
			PredictionDepth: 2,
		},
		DifficultyHard: {
			Name:            DifficultyHard,
			ReactionTime:    200 * time.Millisecond,
			Accuracy:        0.95,
			Speed:           1.0,
			PredictionDepth: 3,
		},
	}
}

// LookupProfile finds a profile by case-insensitive name.
func LookupProfile(profiles map[string]Profile, name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	p, ok := profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, name)
	}
	if p.Name == "" {
		p.Name = key
	}
	return p, nil
}

// ProfileNames returns the sorted profile names.
func ProfileNames(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
