package explore

import (
	"context"
	"fmt"

	"github.com/oggyb/songmatch/internal/app"
	"github.com/oggyb/songmatch/internal/domain"
	svcErr "github.com/oggyb/songmatch/internal/errors"
	"github.com/oggyb/songmatch/internal/repository"
	"github.com/oggyb/songmatch/internal/service/discovery"
	"github.com/oggyb/songmatch/internal/service/ledger"
	"github.com/oggyb/songmatch/internal/service/matching"
)

// Service implements the Explore gRPC API.
// It is a thin transport layer over the discovery, ledger and matching services.
type Service struct {
	appCtx    *app.AppContext
	postRepo  *repository.PostRepository
	discovery *discovery.Service
	ledger    *ledger.Ledger
	engine    *matching.Engine
}

var _ ExploreServiceServer = (*Service)(nil)

// NewExploreService wires repositories and services from AppContext.
// Dependencies include:
//   - DB connection (via the repositories)
//   - RedisCache for the feed cache and match events, when present
func NewExploreService(appCtx *app.AppContext) *Service {
	posts := repository.NewPostRepository(appCtx.DB)
	swipes := repository.NewSwipeRepository(appCtx.DB)
	users := repository.NewUserRepository(appCtx.DB)
	friends := repository.NewFriendRepository(appCtx.DB)
	matches := repository.NewMatchRepository(appCtx.DB)

	deps := discovery.Deps{
		Users:   users,
		Posts:   posts,
		Unseen:  posts,
		Swipes:  swipes,
		Friends: friends,
		Matches: matches,
		Window:  appCtx.Window,
		Scorer:  appCtx.Scorer,
		Logger:  appCtx.Logger,
	}
	engineDeps := matching.Deps{
		Posts:     posts,
		Swipes:    swipes,
		Friends:   friends,
		Matches:   matches,
		Users:     users,
		Publisher: appCtx.Publisher,
		Logger:    appCtx.Logger,
	}
	// a nil *RedisCache must not end up as a non-nil interface
	var feeds ledger.FeedInvalidator
	if appCtx.RedisCache != nil {
		deps.Cache = appCtx.RedisCache
		engineDeps.Feeds = appCtx.RedisCache
		feeds = appCtx.RedisCache
	}
	engine := matching.NewEngine(engineDeps)

	return &Service{
		appCtx:    appCtx,
		postRepo:  posts,
		discovery: discovery.New(deps, discovery.OptionsFromConfig(appCtx.Config)),
		ledger:    ledger.New(swipes, engine, feeds, appCtx.Logger),
		engine:    engine,
	}
}

// GetFeed returns the viewer's ranked feed for the current window.
//
// Example:
//
//	svc.GetFeed(ctx, &GetFeedRequest{ViewerUserID: "u1"})
func (s *Service) GetFeed(ctx context.Context, req *GetFeedRequest) (*GetFeedResponse, error) {
	s.appCtx.Logger.Debug("GetFeed called", "viewer", req.ViewerUserID)

	if req.ViewerUserID == "" {
		return nil, svcErr.InvalidArgument("viewer_user_id is required")
	}

	entries, err := s.discovery.AssembleFeed(ctx, req.ViewerUserID)
	if err != nil {
		s.appCtx.Logger.Error("AssembleFeed failed", "viewer", req.ViewerUserID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &GetFeedResponse{Items: make([]FeedItem, 0, len(entries))}
	for _, e := range entries {
		resp.Items = append(resp.Items, toFeedItem(e))
	}

	s.appCtx.Logger.Debug("GetFeed result", "viewer", req.ViewerUserID, "item_count", len(resp.Items))
	return resp, nil
}

// RecordSwipe stores a swipe on a post and reports whether it completed a match.
//
// Behavior:
//   - The post's author is resolved server side; unknown posts are NotFound.
//   - Swiping on your own post is InvalidArgument.
//   - An already matched pair reports matched=false, never an error.
//
// Example:
//
//	svc.RecordSwipe(ctx, &RecordSwipeRequest{SwiperUserID: "u1", PostID: "p9", Direction: "accept"})
func (s *Service) RecordSwipe(ctx context.Context, req *RecordSwipeRequest) (*RecordSwipeResponse, error) {
	s.appCtx.Logger.Debug(
		"RecordSwipe called",
		"swiper", req.SwiperUserID,
		"post", req.PostID,
		"direction", req.Direction,
	)

	if req.SwiperUserID == "" || req.PostID == "" {
		return nil, svcErr.InvalidArgument("swiper_user_id and post_id are required")
	}
	direction, err := domain.ParseDirection(req.Direction)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	post, err := s.postRepo.GetPost(ctx, req.PostID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	m, err := s.ledger.RecordSwipe(ctx, req.SwiperUserID, post.ID, post.UserID, direction)
	if err != nil {
		s.appCtx.Logger.Error("RecordSwipe failed", "swiper", req.SwiperUserID, "post", req.PostID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &RecordSwipeResponse{}
	if m != nil {
		resp.Matched = true
		out := toMatch(*m)
		resp.Match = &out
	}
	return resp, nil
}

// ListMatches returns the user's matches, newest first, with cursor pagination.
func (s *Service) ListMatches(ctx context.Context, req *ListMatchesRequest) (*ListMatchesResponse, error) {
	s.appCtx.Logger.Debug("ListMatches called", "user", req.UserID, "token", req.PaginationToken)

	if req.UserID == "" {
		return nil, svcErr.InvalidArgument("user_id is required")
	}

	matches, next, err := s.engine.ListMatches(ctx, req.UserID, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &ListMatchesResponse{Matches: make([]Match, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, toMatch(m))
	}
	if next != nil {
		resp.NextPaginationToken = next
	}
	return resp, nil
}

// GetWindow reports the current posting window and whether the user posted in it.
func (s *Service) GetWindow(ctx context.Context, req *GetWindowRequest) (*GetWindowResponse, error) {
	if req.UserID == "" {
		return nil, svcErr.InvalidArgument("user_id is required")
	}

	st, err := s.discovery.WindowStatus(ctx, req.UserID)
	if err != nil {
		return nil, svcErr.Map(fmt.Errorf("window status: %w", err))
	}
	return &GetWindowResponse{
		WindowStartUnix:     st.Start.Unix(),
		NextWindowStartUnix: st.NextStart.Unix(),
		HasPosted:           st.HasPosted,
	}, nil
}

func toFeedItem(e discovery.FeedEntry) FeedItem {
	return FeedItem{
		PostID:       e.Post.ID,
		AuthorUserID: e.Author.UserID,
		AuthorName:   e.Author.Name,
		AuthorPhoto:  e.Author.PhotoURL,
		Song: Song{
			Title:      e.Post.Song.Title,
			Artist:     e.Post.Song.Artist,
			Album:      e.Post.Song.Album,
			CoverURL:   e.Post.Song.CoverURL,
			PreviewURL: e.Post.Song.PreviewURL,
			ExternalID: e.Post.Song.ExternalID,
			Genres:     e.Post.Song.Genres,
		},
		Mood:          e.Post.Mood,
		MoodTags:      e.Post.MoodTags,
		Score:         e.Score,
		UnixTimestamp: uint64(e.Post.CreatedAt.UnixMilli()),
	}
}

func toMatch(m domain.Match) Match {
	out := Match{
		MatchID:       m.ID,
		UserIDs:       []string{m.UserIDs[0], m.UserIDs[1]},
		Participants:  make([]Participant, 0, len(m.Participants)),
		IsActive:      m.IsActive,
		UnixTimestamp: uint64(m.CreatedAt.UnixMilli()),
	}
	for _, p := range m.Participants {
		out.Participants = append(out.Participants, Participant{
			UserID:   p.UserID,
			Name:     p.Name,
			PhotoURL: p.PhotoURL,
			Bio:      p.Bio,
		})
	}
	return out
}
