package repository

import (
	"slices"
	"strings"

	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/domain"
)

// toDomainPost is the single normalization step between stored rows and the
// shape scoring and feed assembly work with. Older rows carry no mood tags,
// mixed-case tags, or an all-null feature vector; none of that leaks past here.
func toDomainPost(p *db.Post) domain.Post {
	features := &domain.AudioFeatures{
		Valence:      p.Valence,
		Energy:       p.Energy,
		Danceability: p.Danceability,
		Acousticness: p.Acousticness,
		Tempo:        p.Tempo,
	}
	if features.Empty() {
		features = nil
	}

	mood := normalizeTag(p.Mood)
	tags := normalizeTags(p.MoodTags)
	if mood != "" && !slices.Contains(tags, mood) {
		tags = append([]string{mood}, tags...)
	}

	return domain.Post{
		ID:     p.ID,
		UserID: p.UserID,
		Song: domain.Song{
			Title:      strings.TrimSpace(p.Title),
			Artist:     strings.TrimSpace(p.Artist),
			Album:      p.Album,
			CoverURL:   p.CoverURL,
			ExternalID: p.ExternalID,
			PreviewURL: p.PreviewURL,
			Features:   features,
			Genres:     normalizeTags(p.Genres),
		},
		Mood:      mood,
		MoodTags:  tags,
		CreatedAt: p.CreatedAt,
	}
}

func fromDomainPost(p *domain.Post) db.Post {
	row := db.Post{
		ID:         p.ID,
		UserID:     p.UserID,
		Title:      p.Song.Title,
		Artist:     p.Song.Artist,
		Album:      p.Song.Album,
		CoverURL:   p.Song.CoverURL,
		ExternalID: p.Song.ExternalID,
		PreviewURL: p.Song.PreviewURL,
		Genres:     normalizeTags(p.Song.Genres),
		Mood:       normalizeTag(p.Mood),
		MoodTags:   normalizeTags(p.MoodTags),
		CreatedAt:  p.CreatedAt.UTC(),
	}
	if f := p.Song.Features; f != nil {
		row.Valence, row.Energy, row.Danceability = f.Valence, f.Energy, f.Danceability
		row.Acousticness, row.Tempo = f.Acousticness, f.Tempo
	}
	return row
}

func toDomainUser(u *db.User) domain.UserProfile {
	return domain.UserProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Bio:         u.Bio,
		Questionnaire: domain.Questionnaire{
			SoundtrackDescription: u.SoundtrackDescription,
			MoodGenre:             u.MoodGenre,
			DiscoveryFrequency:    u.DiscoveryFrequency,
			MemoryText:            u.MemoryText,
			PreferredMoodTag:      u.PreferredMoodTag,
		},
		Preferences: u.MusicPreferences,
		Engagement:  u.Engagement,
	}
}

func fromDomainUser(u *domain.UserProfile) db.User {
	return db.User{
		ID:                    u.ID,
		DisplayName:           u.DisplayName,
		PhotoURL:              u.PhotoURL,
		Bio:                   u.Bio,
		SoundtrackDescription: u.Questionnaire.SoundtrackDescription,
		MoodGenre:             u.Questionnaire.MoodGenre,
		DiscoveryFrequency:    u.Questionnaire.DiscoveryFrequency,
		MemoryText:            u.Questionnaire.MemoryText,
		PreferredMoodTag:      u.Questionnaire.PreferredMoodTag,
		MusicPreferences:      u.Preferences,
		Engagement:            u.Engagement,
	}
}

func toDomainMatch(m *db.Match) domain.Match {
	return domain.Match{
		ID:            m.ID,
		UserIDs:       [2]string{m.UserLow, m.UserHigh},
		Participants:  m.Participants,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		LastMessageAt: m.LastMessageAt,
	}
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeTags lower-cases, trims and deduplicates, keeping first-seen order.
func normalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = normalizeTag(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
