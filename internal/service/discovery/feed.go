package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/metrics"
)

// FeedEntry is one ranked post of a viewer's feed.
type FeedEntry struct {
	Post   domain.Post        `json:"post"`
	Author domain.Participant `json:"author"`
	Score  float64            `json:"score"`
}

// AssembleFeed returns at most ResultCap of today's posts, best match first.
//
// Behavior:
//   - Refreshes the viewer's learned preferences first; a failed refresh is
//     logged and the stale preferences are used.
//   - Only a missing or unreadable viewer profile is returned as an error.
//   - Posts already swiped, posts by friends or matched users, and posts whose
//     author profile cannot be loaded are skipped.
//   - Equal scores keep recency order.
//   - Any other store failure yields an empty feed and a nil error.
//
// Example:
//
//	entries, err := svc.AssembleFeed(ctx, "u1")
func (s *Service) AssembleFeed(ctx context.Context, viewerID string) ([]FeedEntry, error) {
	if viewerID == "" {
		return nil, fmt.Errorf("%w: viewer id is required", domain.ErrInvalidArgument)
	}
	now := s.now()
	windowStart := s.window.CurrentStart(now)

	if entries, ok := s.cachedFeed(ctx, viewerID, windowStart); ok {
		metrics.FeedRequestsTotal.WithLabelValues("cached").Inc()
		return entries, nil
	}

	started := time.Now()
	defer func() { metrics.FeedAssemblyDuration.Observe(time.Since(started).Seconds()) }()

	if err := s.RefreshPreferences(ctx, viewerID); err != nil {
		s.log.Warn("preference refresh failed, using stale preferences", "viewer", viewerID, "err", err)
	}

	viewer, err := s.users.GetUser(ctx, viewerID)
	if err != nil {
		metrics.FeedRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load viewer %s: %w", viewerID, err)
	}

	entries, err := s.rank(ctx, viewer, windowStart)
	if err != nil {
		s.log.Error("feed assembly failed, returning empty feed", "viewer", viewerID, "err", err)
		metrics.FeedRequestsTotal.WithLabelValues("empty").Inc()
		return []FeedEntry{}, nil
	}

	metrics.FeedRequestsTotal.WithLabelValues("ok").Inc()
	metrics.FeedSize.Observe(float64(len(entries)))
	s.storeFeed(ctx, viewerID, windowStart, entries)
	return entries, nil
}

func (s *Service) rank(ctx context.Context, viewer *domain.UserProfile, windowStart time.Time) ([]FeedEntry, error) {
	candidates, err := s.candidates(ctx, viewer.ID, windowStart)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []FeedEntry{}, nil
	}
	authorIDs := make([]string, 0, len(candidates))
	for _, p := range candidates {
		authorIDs = append(authorIDs, p.UserID)
	}

	authors, err := s.users.GetUsers(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	entries := make([]FeedEntry, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		author, ok := authors[p.UserID]
		if !ok {
			s.log.Debug("skipping post with unknown author", "post", p.ID, "author", p.UserID)
			continue
		}
		entries = append(entries, FeedEntry{
			Post:   *p,
			Author: domain.Participant{UserID: author.ID, Name: author.DisplayName, PhotoURL: author.PhotoURL, Bio: author.Bio},
			Score:  s.scorer.Score(viewer, p, author),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > s.opts.ResultCap {
		entries = entries[:s.opts.ResultCap]
	}
	return entries, nil
}

// candidates returns today's posts the viewer may still see, newest first.
// When the exclusion lookups fail it retries with the single-query path.
func (s *Service) candidates(ctx context.Context, viewerID string, windowStart time.Time) ([]domain.Post, error) {
	posts, err := s.filteredRecentPosts(ctx, viewerID, windowStart)
	if err == nil || s.unseen == nil {
		return posts, err
	}
	s.log.Warn("exclusion lookup failed, falling back to store-side filtering", "viewer", viewerID, "err", err)
	metrics.FeedFallbackTotal.Inc()

	posts, ferr := s.unseen.QueryUnseenPosts(ctx, viewerID, windowStart, s.opts.FetchCap)
	if ferr != nil {
		return nil, fmt.Errorf("%w; fallback query: %v", err, ferr)
	}
	return posts, nil
}

func (s *Service) filteredRecentPosts(ctx context.Context, viewerID string, windowStart time.Time) ([]domain.Post, error) {
	var friends, matched, swiped []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		friends, err = s.friends.FriendIDs(gctx, viewerID)
		return err
	})
	g.Go(func() (err error) {
		matched, err = s.matches.MatchedUserIDs(gctx, viewerID)
		return err
	})
	g.Go(func() (err error) {
		swiped, err = s.swipes.SwipedPostIDs(gctx, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve exclusions: %w", err)
	}

	excluded := toSet(friends, matched)
	seen := toSet(swiped)

	posts, err := s.posts.QueryRecentPosts(ctx, viewerID, windowStart, s.opts.FetchCap)
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}

	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		if _, ok := excluded[p.UserID]; ok {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) cachedFeed(ctx context.Context, viewerID string, windowStart time.Time) ([]FeedEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	var entries []FeedEntry
	ok, err := s.cache.GetJSON(ctx, s.cache.KeyForFeed(viewerID, windowStart), &entries)
	switch {
	case err != nil:
		metrics.FeedCacheTotal.WithLabelValues("error").Inc()
		s.log.Warn("feed cache read failed", "viewer", viewerID, "err", err)
		return nil, false
	case !ok:
		metrics.FeedCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.FeedCacheTotal.WithLabelValues("hit").Inc()
	if entries == nil {
		entries = []FeedEntry{}
	}
	return entries, true
}

func (s *Service) storeFeed(ctx context.Context, viewerID string, windowStart time.Time, entries []FeedEntry) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, s.cache.KeyForFeed(viewerID, windowStart), entries, s.opts.CacheTTL); err != nil {
		s.log.Warn("feed cache write failed", "viewer", viewerID, "err", err)
	}
}

func toSet(lists ...[]string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, l := range lists {
		for _, v := range l {
			out[v] = struct{}{}
		}
	}
	return out
}
