package db

import (
	"time"

	"github.com/oggyb/songmatch/internal/domain"
)

// User table. Questionnaire answers are plain columns; learned preferences
// and engagement history are JSON documents owned by other processes.
type User struct {
	ID          string `gorm:"primaryKey;size:64"`
	DisplayName string `gorm:"size:128;not null"`
	PhotoURL    string `gorm:"size:512"`
	Bio         string `gorm:"size:1024"`

	SoundtrackDescription string `gorm:"size:1024"`
	MoodGenre             string `gorm:"size:128"`
	DiscoveryFrequency    string `gorm:"size:64"`
	MemoryText            string `gorm:"size:1024"`
	PreferredMoodTag      string `gorm:"size:64"`

	MusicPreferences *domain.MusicPreferences `gorm:"serializer:json;type:text"`
	Engagement       domain.EngagementHistory `gorm:"serializer:json;type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Post is a song of the day.
//
// Indexes:
//   - idx_posts_created_user(created_at DESC, user_id)
//     Serves the "recent posts after window start" feed query.
//   - idx_posts_user_created(user_id, created_at)
//     Serves author lookups (reciprocity, has-posted-today).
//
// Legacy rows may carry only the flat Title/Artist pair and no mood tags;
// the repository normalizes every row into one domain.Post shape.
type Post struct {
	ID     string `gorm:"primaryKey;size:36"`
	UserID string `gorm:"size:64;not null;index:idx_posts_user_created,priority:1;index:idx_posts_created_user,priority:2"`

	Title      string `gorm:"size:256;not null"`
	Artist     string `gorm:"size:256;not null"`
	Album      string `gorm:"size:256"`
	CoverURL   string `gorm:"size:512"`
	ExternalID string `gorm:"size:128"`
	PreviewURL string `gorm:"size:512"`

	Valence      *float64
	Energy       *float64
	Danceability *float64
	Acousticness *float64
	Tempo        *float64

	Genres   []string `gorm:"serializer:json;type:text"`
	Mood     string   `gorm:"size:64"`
	MoodTags []string `gorm:"serializer:json;type:text"`

	CreatedAt time.Time `gorm:"not null;index:idx_posts_created_user,priority:1,sort:desc;index:idx_posts_user_created,priority:2"`
}

// Swipe is an append-only ledger row. There is deliberately no uniqueness
// on (swiper_id, post_id); Seq orders repeated swipes on the same post.
//
// Indexes:
//   - idx_swipes_swiper_post(swiper_id, post_id, direction)
//     "already swiped" filtering and reciprocity checks.
//   - idx_swipes_post(post_id)
//     Cascade cleanup of expired posts.
type Swipe struct {
	Seq        uint64    `gorm:"primaryKey;autoIncrement"`
	SwiperID   string    `gorm:"size:64;not null;index:idx_swipes_swiper_post,priority:1"`
	PostID     string    `gorm:"size:36;not null;index:idx_swipes_swiper_post,priority:2;index:idx_swipes_post"`
	PostUserID string    `gorm:"size:64;not null"`
	Direction  string    `gorm:"size:8;not null;index:idx_swipes_swiper_post,priority:3"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Match between two users.
//
// The primary key is derived from the sorted user pair, and the pair itself
// carries a unique index, so a second insert for the same pair can only
// collide, never duplicate.
type Match struct {
	ID            string               `gorm:"primaryKey;size:36"`
	UserLow       string               `gorm:"size:64;not null;uniqueIndex:idx_matches_pair,priority:1;index:idx_matches_low_created,priority:1"`
	UserHigh      string               `gorm:"size:64;not null;uniqueIndex:idx_matches_pair,priority:2;index:idx_matches_high_created,priority:1"`
	IsActive      bool                 `gorm:"not null;default:true"`
	Participants  []domain.Participant `gorm:"serializer:json;type:text"`
	CreatedAt     time.Time            `gorm:"autoCreateTime;index:idx_matches_low_created,priority:2;index:idx_matches_high_created,priority:2"`
	LastMessageAt *time.Time
}

// Friendship is stored as two rows, one per direction.
type Friendship struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	FriendID  string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Post{}, &Swipe{}, &Match{}, &Friendship{}}
}
