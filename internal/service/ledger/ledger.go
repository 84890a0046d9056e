// Package ledger records swipes and hands accepts to the match engine.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/metrics"
)

type SwipeAppender interface {
	Append(ctx context.Context, swipe *domain.Swipe) error
}

type Matcher interface {
	TryCreateMatch(ctx context.Context, swiperID, authorID string) (*domain.Match, error)
}

// FeedInvalidator drops a viewer's cached feeds.
type FeedInvalidator interface {
	InvalidateFeeds(ctx context.Context, viewerID string) error
}

type Ledger struct {
	swipes  SwipeAppender
	matcher Matcher
	feeds   FeedInvalidator
	log     *slog.Logger
}

// New builds a Ledger. feeds may be nil when no feed cache is configured.
func New(swipes SwipeAppender, matcher Matcher, feeds FeedInvalidator, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		swipes:  swipes,
		matcher: matcher,
		feeds:   feeds,
		log:     log.With("component", "swipe_ledger"),
	}
}

// RecordSwipe appends one swipe and, for an accept, asks the match engine
// whether the pair is now mutual.
//
// Behavior:
//   - Every valid call appends a row, repeated swipes included.
//   - A reject always returns (nil, nil).
//   - An accept returns the new match, or nil when there is none yet or the
//     pair was already matched.
//
// Example:
//
//	m, err := l.RecordSwipe(ctx, "bob", "post-1", "alice", domain.DirectionAccept)
func (l *Ledger) RecordSwipe(ctx context.Context, swiperID, postID, authorID string, direction domain.Direction) (*domain.Match, error) {
	if swiperID == "" || postID == "" || authorID == "" {
		return nil, fmt.Errorf("%w: swiper, post and author are required", domain.ErrInvalidArgument)
	}
	if direction != domain.DirectionAccept && direction != domain.DirectionReject {
		return nil, fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidArgument, direction)
	}
	if swiperID == authorID {
		return nil, fmt.Errorf("%w: cannot swipe on your own post", domain.ErrInvalidArgument)
	}

	swipe := &domain.Swipe{
		SwiperID:   swiperID,
		PostID:     postID,
		PostUserID: authorID,
		Direction:  direction,
	}
	if err := l.swipes.Append(ctx, swipe); err != nil {
		return nil, fmt.Errorf("append swipe: %w", err)
	}
	metrics.SwipesTotal.WithLabelValues(string(direction)).Inc()

	if l.feeds != nil {
		if err := l.feeds.InvalidateFeeds(ctx, swiperID); err != nil {
			l.log.Warn("feed cache invalidation failed", "user", swiperID, "err", err)
		}
	}

	if direction == domain.DirectionReject {
		return nil, nil
	}

	m, err := l.matcher.TryCreateMatch(ctx, swiperID, authorID)
	if errors.Is(err, domain.ErrMatchExists) {
		l.log.Debug("pair already matched", "swiper", swiperID, "author", authorID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("try create match: %w", err)
	}
	return m, nil
}
