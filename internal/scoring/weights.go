package scoring

import (
	"fmt"
	"math"
)

// Weights are the top-level factor weights. They must sum to 1.
type Weights struct {
	Questionnaire float64
	Audio         float64
	Mood          float64
	Engagement    float64
}

// DefaultWeights are the reference product tuning values.
func DefaultWeights() Weights {
	return Weights{
		Questionnaire: 0.40,
		Audio:         0.30,
		Mood:          0.20,
		Engagement:    0.10,
	}
}

// Validate checks that every weight is non-negative and the total is 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"questionnaire": w.Questionnaire,
		"audio":         w.Audio,
		"mood":          w.Mood,
		"engagement":    w.Engagement,
	} {
		if v < 0 {
			return fmt.Errorf("%s weight must not be negative, got %v", name, v)
		}
	}
	sum := w.Questionnaire + w.Audio + w.Mood + w.Engagement
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// Questionnaire field weights, out of 100.
const (
	weightSoundtrack = 25
	weightMoodGenre  = 25
	weightFrequency  = 20
	weightMoodTag    = 20
	weightMemory     = 10
)

// Audio feature weights.
const (
	weightValence      = 0.25
	weightEnergy       = 0.25
	weightDanceability = 0.20
	weightAcousticness = 0.15
	weightTempo        = 0.15
)

// Engagement bonus factors.
const (
	bonusPerCommonMatch = 0.1
	bonusMoodHistory    = 0.2
)

const neutral = 0.5
