package domain

// Questionnaire holds the five onboarding answers a user gives once.
// Empty fields are treated as "not answered" by the scorer.
type Questionnaire struct {
	SoundtrackDescription string `json:"soundtrack_description,omitempty"`
	MoodGenre             string `json:"mood_genre,omitempty"`
	DiscoveryFrequency    string `json:"discovery_frequency,omitempty"`
	MemoryText            string `json:"memory_text,omitempty"`
	PreferredMoodTag      string `json:"preferred_mood_tag,omitempty"`
}

// AudioFeatures is a per-track (or averaged) feature vector.
// A nil field means the value is unknown, which is different from zero.
type AudioFeatures struct {
	Valence      *float64 `json:"valence,omitempty"`
	Energy       *float64 `json:"energy,omitempty"`
	Danceability *float64 `json:"danceability,omitempty"`
	Acousticness *float64 `json:"acousticness,omitempty"`
	Tempo        *float64 `json:"tempo,omitempty"`
}

// Empty reports whether no feature is present.
func (f *AudioFeatures) Empty() bool {
	return f == nil ||
		(f.Valence == nil && f.Energy == nil && f.Danceability == nil &&
			f.Acousticness == nil && f.Tempo == nil)
}

// MusicPreferences is the learned taste of a user. It is always replaced
// wholesale by the preference refresh, never merged.
type MusicPreferences struct {
	Genres          []string       `json:"genres,omitempty"`
	AverageFeatures *AudioFeatures `json:"average_features,omitempty"`
	MoodTags        []string       `json:"mood_tags,omitempty"`
}

// EngagementHistory is written by other subsystems and read by the scorer.
type EngagementHistory struct {
	LikedPostIDs   []string `json:"liked_post_ids,omitempty"`
	MatchedUserIDs []string `json:"matched_user_ids,omitempty"`
	FriendIDs      []string `json:"friend_ids,omitempty"`
	PostedMoods    []string `json:"posted_moods,omitempty"`
}

// UserProfile is the scoring view of a user.
type UserProfile struct {
	ID            string
	DisplayName   string
	PhotoURL      string
	Bio           string
	Questionnaire Questionnaire
	Preferences   *MusicPreferences
	Engagement    EngagementHistory
}
