package discovery

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/metrics"
)

// RefreshPreferences relearns the user's music preferences from their most
// recent accepted posts and overwrites the stored value. A user with no
// accepted posts is left untouched.
//
// Calls go through a circuit breaker; while it is open the refresh fails
// fast with gobreaker.ErrOpenState.
func (s *Service) RefreshPreferences(ctx context.Context, userID string) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.refreshPreferences(ctx, userID)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.PreferenceRefreshTotal.WithLabelValues("open").Inc()
	case err != nil:
		metrics.PreferenceRefreshTotal.WithLabelValues("error").Inc()
	}
	return err
}

func (s *Service) refreshPreferences(ctx context.Context, userID string) error {
	ids, err := s.swipes.RecentAcceptedPostIDs(ctx, userID, s.opts.SampleSize)
	if err != nil {
		return fmt.Errorf("load accepted posts: %w", err)
	}
	if len(ids) == 0 {
		metrics.PreferenceRefreshTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	byID, err := s.posts.GetPosts(ctx, ids)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}
	posts := make([]domain.Post, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	if len(posts) == 0 {
		metrics.PreferenceRefreshTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	if err := s.users.SetMusicPreferences(ctx, userID, LearnPreferences(posts)); err != nil {
		return fmt.Errorf("store preferences: %w", err)
	}
	metrics.PreferenceRefreshTotal.WithLabelValues("ok").Inc()
	return nil
}

// LearnPreferences derives preferences from a sample of liked posts: the
// union of genres, the union of mood tags, and the per-field mean of the audio
// features. A field no post carries is left nil, as is the whole vector when
// no post carries any feature.
func LearnPreferences(posts []domain.Post) domain.MusicPreferences {
	var (
		genres, moods []string
		seenGenre     = map[string]struct{}{}
		seenMood      = map[string]struct{}{}
		acc           featureMean
	)
	for i := range posts {
		p := &posts[i]
		for _, g := range p.Song.Genres {
			if _, ok := seenGenre[g]; !ok {
				seenGenre[g] = struct{}{}
				genres = append(genres, g)
			}
		}
		for _, m := range p.MoodTags {
			if _, ok := seenMood[m]; !ok {
				seenMood[m] = struct{}{}
				moods = append(moods, m)
			}
		}
		acc.add(p.Song.Features)
	}
	return domain.MusicPreferences{
		Genres:          genres,
		AverageFeatures: acc.mean(),
		MoodTags:        moods,
	}
}

type runningMean struct {
	sum float64
	n   int
}

func (r *runningMean) add(v *float64) {
	if v != nil {
		r.sum += *v
		r.n++
	}
}

func (r *runningMean) value() *float64 {
	if r.n == 0 {
		return nil
	}
	v := r.sum / float64(r.n)
	return &v
}

type featureMean struct {
	valence, energy, danceability, acousticness, tempo runningMean
}

func (m *featureMean) add(f *domain.AudioFeatures) {
	if f == nil {
		return
	}
	m.valence.add(f.Valence)
	m.energy.add(f.Energy)
	m.danceability.add(f.Danceability)
	m.acousticness.add(f.Acousticness)
	m.tempo.add(f.Tempo)
}

func (m *featureMean) mean() *domain.AudioFeatures {
	out := &domain.AudioFeatures{
		Valence:      m.valence.value(),
		Energy:       m.energy.value(),
		Danceability: m.danceability.value(),
		Acousticness: m.acousticness.value(),
		Tempo:        m.tempo.value(),
	}
	if out.Empty() {
		return nil
	}
	return out
}
