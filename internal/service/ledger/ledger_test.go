package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/songmatch/internal/cache"
	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/db/dbtest"
	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/logger"
	"github.com/oggyb/songmatch/internal/repository"
	"github.com/oggyb/songmatch/internal/service/ledger"
	"github.com/oggyb/songmatch/internal/service/matching"
)

type stubMatcher struct {
	calls int
	match *domain.Match
	err   error
}

func (s *stubMatcher) TryCreateMatch(context.Context, string, string) (*domain.Match, error) {
	s.calls++
	return s.match, s.err
}

type stubSwipes struct {
	appended []domain.Swipe
	err      error
}

func (s *stubSwipes) Append(_ context.Context, swipe *domain.Swipe) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, *swipe)
	return nil
}

func TestRecordSwipe_MutualMatchScenario(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	posts := repository.NewPostRepository(gdb)
	users := repository.NewUserRepository(gdb)
	swipes := repository.NewSwipeRepository(gdb)

	for _, u := range []domain.UserProfile{{ID: "A", DisplayName: "Ann"}, {ID: "B", DisplayName: "Ben"}} {
		require.NoError(t, users.CreateUser(ctx, &u))
	}
	now := time.Now().UTC()
	require.NoError(t, posts.CreatePost(ctx, &domain.Post{ID: "P_A", UserID: "A", Song: domain.Song{Title: "a", Artist: "a"}, Mood: "calm", CreatedAt: now}))
	require.NoError(t, posts.CreatePost(ctx, &domain.Post{ID: "P_B", UserID: "B", Song: domain.Song{Title: "b", Artist: "b"}, Mood: "calm", CreatedAt: now}))

	engine := matching.NewEngine(matching.Deps{
		Posts:   posts,
		Swipes:  swipes,
		Friends: repository.NewFriendRepository(gdb),
		Matches: repository.NewMatchRepository(gdb),
		Users:   users,
		Logger:  logger.Discard(),
	})
	l := ledger.New(swipes, engine, nil, logger.Discard())

	m, err := l.RecordSwipe(ctx, "B", "P_A", "A", domain.DirectionAccept)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = l.RecordSwipe(ctx, "A", "P_B", "B", domain.DirectionAccept)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.ElementsMatch(t, []string{"A", "B"}, m.UserIDs[:])

	// swiping again on an already matched pair is a quiet no-op
	m, err = l.RecordSwipe(ctx, "A", "P_B", "B", domain.DirectionAccept)
	require.NoError(t, err)
	assert.Nil(t, m)

	var matches, rows int64
	require.NoError(t, gdb.Model(&db.Match{}).Count(&matches).Error)
	require.NoError(t, gdb.Model(&db.Swipe{}).Count(&rows).Error)
	assert.Equal(t, int64(1), matches)
	assert.Equal(t, int64(3), rows)
}

func TestRecordSwipe_RejectNeverMatches(t *testing.T) {
	swipes := &stubSwipes{}
	matcher := &stubMatcher{match: &domain.Match{ID: "m"}}
	l := ledger.New(swipes, matcher, nil, logger.Discard())

	m, err := l.RecordSwipe(context.Background(), "u1", "p1", "u2", domain.DirectionReject)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Zero(t, matcher.calls)
	require.Len(t, swipes.appended, 1)
	assert.Equal(t, domain.DirectionReject, swipes.appended[0].Direction)
}

func TestRecordSwipe_ExistingMatchIsNotAnError(t *testing.T) {
	matcher := &stubMatcher{err: domain.ErrMatchExists}
	l := ledger.New(&stubSwipes{}, matcher, nil, logger.Discard())

	m, err := l.RecordSwipe(context.Background(), "u1", "p1", "u2", domain.DirectionAccept)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, 1, matcher.calls)
}

func TestRecordSwipe_PropagatesFailures(t *testing.T) {
	boom := errors.New("boom")

	l := ledger.New(&stubSwipes{err: boom}, &stubMatcher{}, nil, logger.Discard())
	_, err := l.RecordSwipe(context.Background(), "u1", "p1", "u2", domain.DirectionAccept)
	assert.ErrorIs(t, err, boom)

	l = ledger.New(&stubSwipes{}, &stubMatcher{err: boom}, nil, logger.Discard())
	_, err = l.RecordSwipe(context.Background(), "u1", "p1", "u2", domain.DirectionAccept)
	assert.ErrorIs(t, err, boom)
}

func TestRecordSwipe_Validation(t *testing.T) {
	swipes := &stubSwipes{}
	l := ledger.New(swipes, &stubMatcher{}, nil, logger.Discard())
	ctx := context.Background()

	cases := []struct {
		name                 string
		swiper, post, author string
		direction            domain.Direction
	}{
		{"missing swiper", "", "p1", "u2", domain.DirectionAccept},
		{"missing post", "u1", "", "u2", domain.DirectionAccept},
		{"missing author", "u1", "p1", "", domain.DirectionAccept},
		{"unknown direction", "u1", "p1", "u2", domain.Direction("maybe")},
		{"own post", "u1", "p1", "u1", domain.DirectionAccept},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.RecordSwipe(ctx, tc.swiper, tc.post, tc.author, tc.direction)
			assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
		})
	}
	assert.Empty(t, swipes.appended)
}

func TestRecordSwipe_InvalidatesCachedFeed(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	key := rc.KeyForFeed("u1", time.Now())
	require.NoError(t, rc.SetJSON(ctx, key, []string{"p1"}, time.Minute))

	l := ledger.New(&stubSwipes{}, &stubMatcher{}, rc, logger.Discard())
	_, err := l.RecordSwipe(ctx, "u1", "p1", "u2", domain.DirectionReject)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	// a broken cache does not fail the swipe
	mr.Close()
	_, err = l.RecordSwipe(ctx, "u1", "p2", "u2", domain.DirectionReject)
	require.NoError(t, err)
}
