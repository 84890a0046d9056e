// Package matching turns mutual accepts into exactly one match per user pair.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/events"
	"github.com/oggyb/songmatch/internal/metrics"
)

type PostReader interface {
	QueryPostsByAuthor(ctx context.Context, userID string, afterTs time.Time) ([]domain.Post, error)
}

type SwipeReader interface {
	HasAcceptedAny(ctx context.Context, swiperID string, postIDs []string) (bool, error)
}

type FriendChecker interface {
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

type MatchStore interface {
	AreUsersMatched(ctx context.Context, a, b string) (bool, error)
	Create(ctx context.Context, m *domain.Match) error
	ListByUser(ctx context.Context, userID string, paginationToken *string, limit int) ([]domain.Match, *string, error)
}

type UserStore interface {
	GetUsers(ctx context.Context, ids []string) (map[string]*domain.UserProfile, error)
	AddMatchedUser(ctx context.Context, id, otherID string) error
}

// FeedInvalidator drops a viewer's cached feeds.
type FeedInvalidator interface {
	InvalidateFeeds(ctx context.Context, viewerID string) error
}

// Deps groups the collaborators of an Engine. Feeds may be nil when no feed
// cache is configured.
type Deps struct {
	Posts     PostReader
	Swipes    SwipeReader
	Friends   FriendChecker
	Matches   MatchStore
	Users     UserStore
	Feeds     FeedInvalidator
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Engine detects reciprocity and creates matches.
type Engine struct {
	posts     PostReader
	swipes    SwipeReader
	friends   FriendChecker
	matches   MatchStore
	users     UserStore
	feeds     FeedInvalidator
	publisher events.Publisher
	log       *slog.Logger
}

func NewEngine(d Deps) *Engine {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Engine{
		posts:     d.Posts,
		swipes:    d.Swipes,
		friends:   d.Friends,
		matches:   d.Matches,
		users:     d.Users,
		feeds:     d.Feeds,
		publisher: d.Publisher,
		log:       d.Logger.With("component", "match_engine"),
	}
}

// TryCreateMatch is called after swiper accepted a post by author.
//
// Behavior:
//   - Returns (nil, nil) while author has not accepted any post by swiper.
//   - Returns (nil, nil) when the two are friends.
//   - Returns domain.ErrMatchExists when the pair is already matched, either
//     found up front or lost to a concurrent creator at insert time.
//   - Otherwise creates the match with both users' display metadata.
//
// Example:
//
//	m, err := engine.TryCreateMatch(ctx, "alice", "bob")
func (e *Engine) TryCreateMatch(ctx context.Context, swiperID, authorID string) (*domain.Match, error) {
	if swiperID == "" || authorID == "" {
		return nil, fmt.Errorf("%w: user ids are required", domain.ErrInvalidArgument)
	}
	if swiperID == authorID {
		return nil, fmt.Errorf("%w: cannot match with yourself", domain.ErrInvalidArgument)
	}

	// reciprocity: has the author accepted anything the swiper posted?
	own, err := e.posts.QueryPostsByAuthor(ctx, swiperID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load posts of %s: %w", swiperID, err)
	}
	ids := make([]string, 0, len(own))
	for _, p := range own {
		ids = append(ids, p.ID)
	}
	mutual, err := e.swipes.HasAcceptedAny(ctx, authorID, ids)
	if err != nil {
		return nil, fmt.Errorf("check reciprocity: %w", err)
	}
	if !mutual {
		metrics.MatchesTotal.WithLabelValues("not_reciprocal").Inc()
		return nil, nil
	}

	friends, err := e.friends.AreFriends(ctx, swiperID, authorID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		metrics.MatchesTotal.WithLabelValues("friends").Inc()
		return nil, nil
	}

	matched, err := e.matches.AreUsersMatched(ctx, swiperID, authorID)
	if err != nil {
		return nil, fmt.Errorf("check existing match: %w", err)
	}
	if matched {
		metrics.MatchesTotal.WithLabelValues("exists").Inc()
		return nil, domain.ErrMatchExists
	}

	m := &domain.Match{
		UserIDs:      [2]string{swiperID, authorID},
		Participants: e.participants(ctx, swiperID, authorID),
	}
	if err := e.matches.Create(ctx, m); err != nil {
		if errors.Is(err, domain.ErrMatchExists) {
			metrics.MatchesTotal.WithLabelValues("exists").Inc()
		}
		return nil, err
	}
	metrics.MatchesTotal.WithLabelValues("created").Inc()
	e.log.Info("match created", "match_id", m.ID, "users", m.UserIDs)

	e.afterCreate(ctx, m)
	return m, nil
}

// participants snapshots display metadata. A missing profile still yields a
// participant carrying the id, so the match is never blocked on it.
func (e *Engine) participants(ctx context.Context, a, b string) []domain.Participant {
	lo, hi := domain.SortedPair(a, b)
	profiles, err := e.users.GetUsers(ctx, []string{lo, hi})
	if err != nil {
		e.log.Warn("load participant profiles failed", "err", err)
		profiles = nil
	}
	out := make([]domain.Participant, 0, 2)
	for _, id := range []string{lo, hi} {
		p := domain.Participant{UserID: id}
		if u, ok := profiles[id]; ok {
			p.Name, p.PhotoURL, p.Bio = u.DisplayName, u.PhotoURL, u.Bio
		}
		out = append(out, p)
	}
	return out
}

// afterCreate runs the side effects of a new match. None of them is fatal.
func (e *Engine) afterCreate(ctx context.Context, m *domain.Match) {
	// cached feeds of both users still list each other's posts
	if e.feeds != nil {
		for _, id := range m.UserIDs {
			if err := e.feeds.InvalidateFeeds(ctx, id); err != nil {
				e.log.Warn("feed cache invalidation failed", "user", id, "err", err)
			}
		}
	}

	err := e.publisher.PublishMatchCreated(ctx, events.MatchCreated{
		MatchID:   m.ID,
		UserIDs:   m.UserIDs,
		CreatedAt: m.CreatedAt,
	})
	if err != nil {
		metrics.EventPublishFailuresTotal.Inc()
		e.log.Warn("publish match event failed", "match_id", m.ID, "err", err)
	}

	for i, id := range m.UserIDs {
		other := m.UserIDs[1-i]
		if err := e.users.AddMatchedUser(ctx, id, other); err != nil {
			e.log.Warn("record matched user failed", "user", id, "other", other, "err", err)
		}
	}
}

// ListMatches returns a page of the user's matches, newest first.
func (e *Engine) ListMatches(ctx context.Context, userID string, pageToken *string, limit int) ([]domain.Match, *string, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return e.matches.ListByUser(ctx, userID, pageToken, limit)
}
