package domain

import "time"

// Song is the track attached to a post.
type Song struct {
	Title      string
	Artist     string
	Album      string
	CoverURL   string
	ExternalID string
	PreviewURL string
	Features   *AudioFeatures
	Genres     []string
}

// Post is a user's song of the day. Whether it is active is never stored;
// it is derived from CreatedAt by the window package on every read.
type Post struct {
	ID        string
	UserID    string
	Song      Song
	Mood      string
	MoodTags  []string
	CreatedAt time.Time
}
