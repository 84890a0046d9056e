// Package discovery assembles the ranked daily feed and keeps learned music
// preferences fresh.
package discovery

import (
	"context"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/oggyb/songmatch/internal/config"
	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/scoring"
	"github.com/oggyb/songmatch/internal/window"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.UserProfile, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*domain.UserProfile, error)
	SetMusicPreferences(ctx context.Context, id string, prefs domain.MusicPreferences) error
}

type PostStore interface {
	QueryRecentPosts(ctx context.Context, excludeAuthor string, afterTs time.Time, limit int) ([]domain.Post, error)
	QueryPostsByAuthor(ctx context.Context, userID string, afterTs time.Time) ([]domain.Post, error)
	GetPosts(ctx context.Context, ids []string) (map[string]domain.Post, error)
}

// UnseenPostStore answers the whole exclusion query in the store itself.
// It backs the feed when the exclusion lookups fail.
type UnseenPostStore interface {
	QueryUnseenPosts(ctx context.Context, viewerID string, afterTs time.Time, limit int) ([]domain.Post, error)
}

type SwipeStore interface {
	SwipedPostIDs(ctx context.Context, swiperID string) ([]string, error)
	RecentAcceptedPostIDs(ctx context.Context, swiperID string, limit int) ([]string, error)
}

type FriendLister interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

type MatchLister interface {
	MatchedUserIDs(ctx context.Context, userID string) ([]string, error)
}

// FeedCache stores assembled feeds. Implemented by cache.RedisCache.
type FeedCache interface {
	KeyForFeed(viewerID string, windowStart time.Time) string
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Options are the tunables of the service.
type Options struct {
	ResultCap        int
	FetchCap         int
	SampleSize       int
	CacheTTL         time.Duration
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration
}

// DefaultOptions returns the reference values.
func DefaultOptions() Options {
	return Options{
		ResultCap:        15,
		FetchCap:         100,
		SampleSize:       20,
		CacheTTL:         2 * time.Minute,
		BreakerFailures:  5,
		BreakerOpenDelay: 30 * time.Second,
	}
}

// OptionsFromConfig maps the FEED_* and PREFERENCES_* settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ResultCap:        cfg.Feed.ResultCap,
		FetchCap:         cfg.Feed.FetchCap,
		SampleSize:       cfg.Preferences.SampleSize,
		CacheTTL:         cfg.Feed.CacheTTL,
		BreakerFailures:  cfg.Preferences.BreakerFailures,
		BreakerOpenDelay: cfg.Preferences.BreakerOpenDelay,
	}
}

// Deps groups the collaborators of a Service. Unseen, Cache, Logger and Now
// are optional.
type Deps struct {
	Users   UserStore
	Posts   PostStore
	Unseen  UnseenPostStore
	Swipes  SwipeStore
	Friends FriendLister
	Matches MatchLister
	Cache   FeedCache
	Window  *window.Window
	Scorer  *scoring.Scorer
	Logger  *slog.Logger
	Now     func() time.Time
}

type Service struct {
	users   UserStore
	posts   PostStore
	unseen  UnseenPostStore
	swipes  SwipeStore
	friends FriendLister
	matches MatchLister
	cache   FeedCache
	window  *window.Window
	scorer  *scoring.Scorer
	log     *slog.Logger
	now     func() time.Time
	opts    Options

	breaker *gobreaker.CircuitBreaker[struct{}]
}

func New(d Deps, opts Options) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Scorer == nil {
		d.Scorer = scoring.Default()
	}
	s := &Service{
		users:   d.Users,
		posts:   d.Posts,
		unseen:  d.Unseen,
		swipes:  d.Swipes,
		friends: d.Friends,
		matches: d.Matches,
		cache:   d.Cache,
		window:  d.Window,
		scorer:  d.Scorer,
		log:     d.Logger.With("component", "discovery"),
		now:     d.Now,
		opts:    opts,
	}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "preference-refresh",
		Timeout: opts.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

// BreakerState reports the preference refresh breaker state ("closed", "open", "half-open").
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}
