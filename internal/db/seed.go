package db

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/logger"
)

var seedNamespace = uuid.MustParse("5b0c8d1e-2f7a-4c43-9a51-7f3e9d2b6c10")

var (
	seedMoodGenres  = []string{"Electronic", "Indie Rock", "Jazz", "Hip Hop", "Ambient", "Soul"}
	seedFrequencies = []string{"daily", "weekly", "monthly"}
	seedMoods       = []string{"chill", "hype", "dreamy", "melancholy", "focused", "romantic"}
	seedGenres      = []string{"house", "techno", "indie", "jazz", "hip-hop", "ambient", "soul", "pop"}
	seedSoundtracks = []string{
		"late night drives through empty city streets",
		"sunday mornings with coffee and vinyl",
		"sweaty basements and strobe lights",
		"long train rides staring out the window",
		"cooking dinner with friends and too much wine",
	}
	seedSongs = [][2]string{
		{"Midnight City", "M83"}, {"Teardrop", "Massive Attack"}, {"So What", "Miles Davis"},
		{"Windowlicker", "Aphex Twin"}, {"Nights", "Frank Ocean"}, {"Strobe", "deadmau5"},
		{"Redbone", "Childish Gambino"}, {"Breathe", "Telepopmusik"}, {"Holocene", "Bon Iver"},
		{"Alright", "Kendrick Lamar"}, {"Intro", "The xx"}, {"Dreams", "Fleetwood Mac"},
	}
)

// SeedTestData resets the database and populates it with a deterministic demo
// dataset relative to windowStart (the current window) and now.
//
// Behavior:
//  1. Clears swipes, matches, friendships, posts and users.
//  2. Creates 20 users with questionnaire answers.
//  3. Gives every user one post from the previous window and one from the
//     current window, with audio features on most of them.
//  4. Adds a few friendships, ~5 swipes per user on older posts, and a match
//     for every third pair that accepted each other.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB, windowStart, now time.Time) error {
	r := rand.New(rand.NewSource(42))
	log := logger.With("component", "seed")

	// --- Fresh start ---
	for _, table := range []string{"swipes", "matches", "friendships", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Info("cleared existing data")

	// --- Users ---
	const userCount = 20
	userIDs := make([]string, 0, userCount)
	for i := 1; i <= userCount; i++ {
		id := fmt.Sprintf("user%d", i)
		userIDs = append(userIDs, id)
		u := User{
			ID:                    id,
			DisplayName:           fmt.Sprintf("User %d", i),
			PhotoURL:              fmt.Sprintf("https://picsum.photos/seed/%s/200", id),
			Bio:                   "here for the music",
			SoundtrackDescription: pick(r, seedSoundtracks),
			MoodGenre:             pick(r, seedMoodGenres),
			DiscoveryFrequency:    pick(r, seedFrequencies),
			PreferredMoodTag:      pick(r, seedMoods),
			Engagement: domain.EngagementHistory{
				PostedMoods: []string{pick(r, seedMoods), pick(r, seedMoods)},
			},
		}
		// every fourth user skipped the optional memory question
		if i%4 != 0 {
			u.MemoryText = "the summer I learned every word of " + pick(r, seedSongs)[0]
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Info("seeded users", "count", userCount)

	// --- Posts ---
	elapsed := now.Sub(windowStart)
	var older []Post
	for i, uid := range userIDs {
		for _, current := range []bool{false, true} {
			at := windowStart.Add(-time.Duration(1+r.Intn(23)) * time.Hour)
			if current {
				at = windowStart.Add(time.Nanosecond + time.Duration(r.Int63n(int64(elapsed)+1)))
			}
			p := seedPost(r, uid, i, current, at)
			if err := db.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to seed post: %w", err)
			}
			if !current {
				older = append(older, p)
			}
		}
	}
	log.Info("seeded posts", "count", 2*userCount)

	// --- Friendships ---
	for i := 0; i+1 < userCount; i += 5 {
		a, b := userIDs[i], userIDs[i+1]
		rows := []Friendship{{UserID: a, FriendID: b}, {UserID: b, FriendID: a}}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to seed friendship: %w", err)
		}
	}

	// --- Swipes on older posts ---
	accepted := map[[2]string]bool{}
	for _, swiper := range userIDs {
		for j := 0; j < 5; j++ {
			p := older[r.Intn(len(older))]
			if p.UserID == swiper {
				continue
			}
			dir := domain.DirectionReject
			if r.Intn(100) < 65 { // like probability 65%
				dir = domain.DirectionAccept
				accepted[[2]string{swiper, p.UserID}] = true
			}
			s := Swipe{SwiperID: swiper, PostID: p.ID, PostUserID: p.UserID, Direction: string(dir)}
			if err := db.Create(&s).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
		}
	}

	// --- Matches for every third mutual pair ---
	mutual := 0
	for _, a := range userIDs {
		for _, b := range userIDs {
			if a >= b || !accepted[[2]string{a, b}] || !accepted[[2]string{b, a}] {
				continue
			}
			mutual++
			if mutual%3 != 1 {
				continue
			}
			lo, hi := domain.SortedPair(a, b)
			m := Match{
				ID:       domain.MatchID(lo, hi),
				UserLow:  lo,
				UserHigh: hi,
				IsActive: true,
				Participants: []domain.Participant{
					{UserID: lo, Name: "User " + lo[len("user"):]},
					{UserID: hi, Name: "User " + hi[len("user"):]},
				},
			}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
				return fmt.Errorf("failed to seed match: %w", err)
			}
		}
	}
	log.Info("seeded swipes and matches", "mutual_pairs", mutual)

	return nil
}

func seedPost(r *rand.Rand, userID string, i int, current bool, at time.Time) Post {
	song := pick(r, seedSongs)
	p := Post{
		ID:        uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%s/%t", userID, current))).String(),
		UserID:    userID,
		Title:     song[0],
		Artist:    song[1],
		Genres:    []string{pick(r, seedGenres), pick(r, seedGenres)},
		Mood:      pick(r, seedMoods),
		CreatedAt: at.UTC(),
	}
	p.MoodTags = []string{p.Mood, pick(r, seedMoods)}
	// every fifth post predates audio analysis
	if i%5 != 0 {
		p.Valence, p.Energy = ptr(r.Float64()), ptr(r.Float64())
		p.Danceability, p.Acousticness = ptr(r.Float64()), ptr(r.Float64())
		p.Tempo = ptr(float64(70 + r.Intn(100)))
	}
	return p
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.Intn(len(items))]
}

func ptr(v float64) *float64 { return &v }
