// Package scoring ranks discovery candidates. Everything here is a pure
// function of its inputs: no I/O, no clock, no randomness.
package scoring

import (
	"math"
	"strings"

	"github.com/oggyb/songmatch/internal/domain"
)

// Scorer combines the four sub-scores with fixed weights.
type Scorer struct {
	weights Weights
}

// NewScorer validates w and returns a Scorer using it.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Default returns a Scorer with the reference weights.
func Default() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// Weights returns the factor weights in use.
func (s *Scorer) Weights() Weights { return s.weights }

// Breakdown exposes the individual sub-scores next to the total.
type Breakdown struct {
	Questionnaire float64
	Audio         float64
	Mood          float64
	Engagement    float64
	Total         float64
}

// Score returns the compatibility of viewer with post (authored by author),
// always within [0,1].
func (s *Scorer) Score(viewer *domain.UserProfile, post *domain.Post, author *domain.UserProfile) float64 {
	return s.Explain(viewer, post, author).Total
}

// Explain is Score with the sub-scores kept.
func (s *Scorer) Explain(viewer *domain.UserProfile, post *domain.Post, author *domain.UserProfile) Breakdown {
	var b Breakdown
	if viewer == nil || post == nil || author == nil {
		return b
	}

	prefs := viewer.Preferences
	if prefs == nil {
		prefs = &domain.MusicPreferences{}
	}

	b.Questionnaire = QuestionnaireSimilarity(viewer.Questionnaire, author.Questionnaire)
	b.Audio = AudioSimilarity(prefs.AverageFeatures, post.Song.Features)
	b.Mood = MoodOverlap(prefs.MoodTags, post.MoodTags)
	b.Engagement = EngagementBonus(viewer.Engagement, author.Engagement)

	b.Total = clamp01(s.weights.Questionnaire*b.Questionnaire +
		s.weights.Audio*b.Audio +
		s.weights.Mood*b.Mood +
		s.weights.Engagement*b.Engagement)
	return b
}

// QuestionnaireSimilarity compares the answers both users gave. Fields left
// empty on either side are skipped rather than penalised.
func QuestionnaireSimilarity(a, b domain.Questionnaire) float64 {
	type field struct {
		x, y   string
		weight float64
		sim    func(x, y string) float64
	}
	fields := []field{
		{a.SoundtrackDescription, b.SoundtrackDescription, weightSoundtrack, TextSimilarity},
		{a.MoodGenre, b.MoodGenre, weightMoodGenre, exactElse(TextSimilarity)},
		{a.DiscoveryFrequency, b.DiscoveryFrequency, weightFrequency, exactElse(constant(neutral))},
		{a.PreferredMoodTag, b.PreferredMoodTag, weightMoodTag, exactElse(constant(neutral))},
		{a.MemoryText, b.MemoryText, weightMemory, TextSimilarity},
	}

	var total, weights float64
	for _, f := range fields {
		if normalize(f.x) == "" || normalize(f.y) == "" {
			continue
		}
		total += f.weight * f.sim(f.x, f.y)
		weights += f.weight
	}
	if weights == 0 {
		return 0
	}
	return clamp01(total / weights)
}

func exactElse(fallback func(x, y string) float64) func(x, y string) float64 {
	return func(x, y string) float64 {
		if normalize(x) == normalize(y) {
			return 1
		}
		return fallback(x, y)
	}
}

func constant(v float64) func(x, y string) float64 {
	return func(string, string) float64 { return v }
}

// AudioSimilarity compares the viewer's learned average vector with the
// post's features. Without both it returns the neutral 0.5.
func AudioSimilarity(avg, track *domain.AudioFeatures) float64 {
	if avg.Empty() || track.Empty() {
		return neutral
	}

	var total, weights float64
	add := func(a, b *float64, weight float64, sim func(a, b float64) float64) {
		if a == nil || b == nil {
			return
		}
		total += weight * sim(*a, *b)
		weights += weight
	}
	add(avg.Valence, track.Valence, weightValence, boundedSimilarity)
	add(avg.Energy, track.Energy, weightEnergy, boundedSimilarity)
	add(avg.Danceability, track.Danceability, weightDanceability, boundedSimilarity)
	add(avg.Acousticness, track.Acousticness, weightAcousticness, boundedSimilarity)
	add(avg.Tempo, track.Tempo, weightTempo, TempoSimilarity)

	if weights == 0 {
		return neutral
	}
	return clamp01(total / weights)
}

func boundedSimilarity(a, b float64) float64 {
	return 1 - math.Abs(a-b)
}

// TempoSimilarity is 1 - |a-b|/max(a,b), floored at 0.
func TempoSimilarity(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi <= 0 {
		if a == b {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-math.Abs(a-b)/hi)
}

// MoodOverlap is |V∩P| / max(|V|,|P|), neutral when either side is empty.
func MoodOverlap(viewerTags, postTags []string) float64 {
	v, p := set(viewerTags), set(postTags)
	if len(v) == 0 || len(p) == 0 {
		return neutral
	}
	inter := 0
	for k := range v {
		if _, ok := p[k]; ok {
			inter++
		}
	}
	return float64(inter) / math.Max(float64(len(v)), float64(len(p)))
}

// EngagementBonus rewards shared matches and a similar posting mood history.
func EngagementBonus(viewer, author domain.EngagementHistory) float64 {
	common := 0
	theirs := make(map[string]struct{}, len(author.MatchedUserIDs))
	for _, id := range author.MatchedUserIDs {
		theirs[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(viewer.MatchedUserIDs))
	for _, id := range viewer.MatchedUserIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := theirs[id]; ok {
			common++
		}
	}

	moods := jaccard(tokens(strings.Join(viewer.PostedMoods, " ")), tokens(strings.Join(author.PostedMoods, " ")))
	return clamp01(bonusPerCommonMatch*float64(common) + bonusMoodHistory*moods)
}
