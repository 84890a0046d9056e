package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/db/dbtest"
	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/repository"
)

func f(v float64) *float64 { return &v }

func createPost(t *testing.T, repo *repository.PostRepository, id, author string, at time.Time) {
	t.Helper()
	require.NoError(t, repo.CreatePost(context.Background(), &domain.Post{
		ID:        id,
		UserID:    author,
		Song:      domain.Song{Title: "t-" + id, Artist: "a"},
		Mood:      "chill",
		CreatedAt: at,
	}))
}

func TestPostRepository_NormalizesLegacyRows(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewPostRepository(gdb)

	// a row written by an older client: flat song fields, mixed-case mood,
	// no mood tags, no audio features
	require.NoError(t, gdb.Create(&db.Post{
		ID:        "legacy",
		UserID:    "u1",
		Title:     "  Midnight City ",
		Artist:    "M83",
		Mood:      "Dreamy",
		Genres:    []string{"Synth-Pop", "synth-pop", ""},
		CreatedAt: time.Now().UTC(),
	}).Error)

	p, err := repo.GetPost(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "Midnight City", p.Song.Title)
	assert.Equal(t, "dreamy", p.Mood)
	assert.Equal(t, []string{"dreamy"}, p.MoodTags)
	assert.Equal(t, []string{"synth-pop"}, p.Song.Genres)
	assert.Nil(t, p.Song.Features)
}

func TestPostRepository_KeepsPartialFeatures(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPostRepository(dbtest.Open(t))

	require.NoError(t, repo.CreatePost(ctx, &domain.Post{
		ID:       "p1",
		UserID:   "u1",
		Song:     domain.Song{Title: "x", Artist: "y", Features: &domain.AudioFeatures{Tempo: f(128)}},
		Mood:     "hype",
		MoodTags: []string{"Party", "hype"},
	}))

	p, err := repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p.Song.Features)
	assert.Nil(t, p.Song.Features.Valence)
	assert.Equal(t, 128.0, *p.Song.Features.Tempo)
	assert.ElementsMatch(t, []string{"party", "hype"}, p.MoodTags)
}

func TestPostRepository_GetPostNotFound(t *testing.T) {
	repo := repository.NewPostRepository(dbtest.Open(t))

	_, err := repo.GetPost(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPostRepository_QueryRecentPosts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPostRepository(dbtest.Open(t))

	boundary := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	createPost(t, repo, "old", "u2", boundary.Add(-time.Minute))
	createPost(t, repo, "edge", "u2", boundary)
	createPost(t, repo, "mine", "viewer", boundary.Add(time.Minute))
	createPost(t, repo, "p1", "u2", boundary.Add(time.Millisecond))
	createPost(t, repo, "p2", "u3", boundary.Add(2*time.Hour))
	createPost(t, repo, "p3", "u4", boundary.Add(time.Hour))

	posts, err := repo.QueryRecentPosts(ctx, "viewer", boundary, 10)
	require.NoError(t, err)

	var ids []string
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	// newest first, boundary itself excluded, own post excluded
	assert.Equal(t, []string{"p2", "p3", "p1"}, ids)

	capped, err := repo.QueryRecentPosts(ctx, "viewer", boundary, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestPostRepository_QueryRecentPostsAcceptsAnyZone(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPostRepository(dbtest.Open(t))

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	boundary := time.Date(2026, 5, 1, 9, 0, 0, 0, ny)

	createPost(t, repo, "before", "u2", boundary.Add(-time.Second))
	createPost(t, repo, "after", "u2", boundary.Add(time.Second))

	posts, err := repo.QueryRecentPosts(ctx, "viewer", boundary, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "after", posts[0].ID)
}

func TestPostRepository_QueryUnseenPosts(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	posts := repository.NewPostRepository(gdb)
	swipes := repository.NewSwipeRepository(gdb)
	friends := repository.NewFriendRepository(gdb)
	matches := repository.NewMatchRepository(gdb)

	// "mid" sorts between its two match partners, so both pair columns are hit
	require.NoError(t, friends.AddFriendship(ctx, "mid", "friend"))
	require.NoError(t, matches.Create(ctx, &domain.Match{UserIDs: [2]string{"aaa", "mid"}}))
	gone := &domain.Match{UserIDs: [2]string{"mid", "zzz"}}
	require.NoError(t, matches.Create(ctx, gone))
	require.NoError(t, matches.SetActive(ctx, gone.ID, false))

	boundary := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	createPost(t, posts, "edge", "u2", boundary)
	createPost(t, posts, "mine", "mid", boundary.Add(time.Minute))
	createPost(t, posts, "by-friend", "friend", boundary.Add(time.Minute))
	createPost(t, posts, "by-low", "aaa", boundary.Add(time.Minute))
	createPost(t, posts, "by-high", "zzz", boundary.Add(time.Minute))
	createPost(t, posts, "rejected", "u2", boundary.Add(2*time.Minute))
	createPost(t, posts, "p1", "u2", boundary.Add(3*time.Minute))
	createPost(t, posts, "p2", "u3", boundary.Add(4*time.Minute))

	require.NoError(t, swipes.Append(ctx, &domain.Swipe{SwiperID: "mid", PostID: "rejected", PostUserID: "u2", Direction: domain.DirectionReject}))
	// someone else's swipe does not hide the post
	require.NoError(t, swipes.Append(ctx, &domain.Swipe{SwiperID: "other", PostID: "p1", PostUserID: "u2", Direction: domain.DirectionReject}))

	got, err := posts.QueryUnseenPosts(ctx, "mid", boundary, 10)
	require.NoError(t, err)
	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p2", "p1"}, ids)

	capped, err := posts.QueryUnseenPosts(ctx, "mid", boundary, 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, "p2", capped[0].ID)
}

func TestPostRepository_QueryPostsByAuthor(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPostRepository(dbtest.Open(t))

	now := time.Now().UTC()
	createPost(t, repo, "a1", "alice", now.Add(-48*time.Hour))
	createPost(t, repo, "a2", "alice", now.Add(-time.Hour))
	createPost(t, repo, "b1", "bob", now)

	all, err := repo.QueryPostsByAuthor(ctx, "alice", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	recent, err := repo.QueryPostsByAuthor(ctx, "alice", now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "a2", recent[0].ID)
}

func TestPostRepository_DeleteExpiredCascadesToSwipes(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	posts := repository.NewPostRepository(gdb)
	swipes := repository.NewSwipeRepository(gdb)

	cutoff := time.Now().UTC().Add(-time.Hour)
	createPost(t, posts, "expired", "u1", cutoff.Add(-time.Minute))
	createPost(t, posts, "fresh", "u1", cutoff.Add(time.Minute))
	require.NoError(t, swipes.Append(ctx, &domain.Swipe{SwiperID: "u2", PostID: "expired", PostUserID: "u1", Direction: domain.DirectionAccept}))
	require.NoError(t, swipes.Append(ctx, &domain.Swipe{SwiperID: "u2", PostID: "fresh", PostUserID: "u1", Direction: domain.DirectionAccept}))

	n, err := posts.DeleteExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ids, err := swipes.SwipedPostIDs(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}

func TestSwipeRepository_AppendKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewSwipeRepository(gdb)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(ctx, &domain.Swipe{SwiperID: "u1", PostID: "p1", PostUserID: "u2", Direction: domain.DirectionAccept}))
	}

	var count int64
	require.NoError(t, gdb.Model(&db.Swipe{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	ids, err := repo.SwipedPostIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestSwipeRepository_MostRecentJudgementWins(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(dbtest.Open(t))

	require.NoError(t, repo.Append(ctx, &domain.Swipe{SwiperID: "bob", PostID: "p1", PostUserID: "alice", Direction: domain.DirectionAccept}))
	ok, err := repo.HasAcceptedAny(ctx, "bob", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Append(ctx, &domain.Swipe{SwiperID: "bob", PostID: "p1", PostUserID: "alice", Direction: domain.DirectionReject}))
	ok, err = repo.HasAcceptedAny(ctx, "bob", []string{"p1", "p2"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.HasAcceptedAny(ctx, "bob", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSwipeRepository_RecentAcceptedPostIDs(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(dbtest.Open(t))

	add := func(post string, d domain.Direction) {
		require.NoError(t, repo.Append(ctx, &domain.Swipe{SwiperID: "u1", PostID: post, PostUserID: "x", Direction: d}))
	}
	add("p1", domain.DirectionAccept)
	add("p2", domain.DirectionReject)
	add("p3", domain.DirectionAccept)
	add("p1", domain.DirectionAccept) // duplicate, moves p1 to the front
	add("p4", domain.DirectionAccept)
	add("p4", domain.DirectionReject) // changed mind

	ids, err := repo.RecentAcceptedPostIDs(ctx, "u1", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids)

	ids, err = repo.RecentAcceptedPostIDs(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestMatchRepository_CreateIsIdempotentPerPair(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(dbtest.Open(t))

	first := &domain.Match{UserIDs: [2]string{"bob", "alice"}}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, domain.MatchID("alice", "bob"), first.ID)
	assert.Equal(t, [2]string{"alice", "bob"}, first.UserIDs)
	assert.True(t, first.IsActive)

	err := repo.Create(ctx, &domain.Match{UserIDs: [2]string{"alice", "bob"}})
	assert.True(t, errors.Is(err, domain.ErrMatchExists))

	err = repo.Create(ctx, &domain.Match{UserIDs: [2]string{"alice", "alice"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestMatchRepository_ConcurrentCreateYieldsOneRow(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewMatchRepository(gdb)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		exists  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair := [2]string{"alice", "bob"}
			if i%2 == 1 {
				pair = [2]string{"bob", "alice"}
			}
			err := repo.Create(ctx, &domain.Match{UserIDs: pair})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrMatchExists):
				exists++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 7, exists)

	var count int64
	require.NoError(t, gdb.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMatchRepository_AreUsersMatchedIsSymmetricAndActiveOnly(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(dbtest.Open(t))

	m := &domain.Match{UserIDs: [2]string{"alice", "bob"}}
	require.NoError(t, repo.Create(ctx, m))

	ok, err := repo.AreUsersMatched(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.SetActive(ctx, m.ID, false))
	ok, err = repo.AreUsersMatched(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	// deactivated pairs are still never recreated
	err = repo.Create(ctx, &domain.Match{UserIDs: [2]string{"alice", "bob"}})
	assert.True(t, errors.Is(err, domain.ErrMatchExists))

	ids, err := repo.MatchedUserIDs(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids)
}

func TestMatchRepository_ListByUserPaginates(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	repo := repository.NewMatchRepository(gdb)

	base := time.Now().UTC().Add(-time.Hour)
	for i, other := range []string{"b", "c", "d", "e", "f"} {
		lo, hi := domain.SortedPair("a", other)
		require.NoError(t, gdb.Create(&db.Match{
			ID:        domain.MatchID(lo, hi),
			UserLow:   lo,
			UserHigh:  hi,
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	page1, next, err := repo.ListByUser(ctx, "a", nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, [2]string{"a", "f"}, page1[0].UserIDs)
	assert.Equal(t, [2]string{"a", "e"}, page1[1].UserIDs)

	page2, next, err := repo.ListByUser(ctx, "a", next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotNil(t, next)
	assert.Equal(t, [2]string{"a", "d"}, page2[0].UserIDs)

	page3, next, err := repo.ListByUser(ctx, "a", next, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, next)
	assert.Equal(t, [2]string{"a", "b"}, page3[0].UserIDs)

	bad := "%%%"
	_, _, err = repo.ListByUser(ctx, "a", &bad, 2)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestUserRepository_PreferencesAndEngagement(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.Open(t))

	require.NoError(t, repo.CreateUser(ctx, &domain.UserProfile{
		ID:            "u1",
		DisplayName:   "Uno",
		Questionnaire: domain.Questionnaire{MoodGenre: "Electronic"},
	}))

	u, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, u.Preferences)
	assert.Equal(t, "Electronic", u.Questionnaire.MoodGenre)

	prefs := domain.MusicPreferences{
		Genres:          []string{"house"},
		AverageFeatures: &domain.AudioFeatures{Energy: f(0.7)},
		MoodTags:        []string{"hype"},
	}
	require.NoError(t, repo.SetMusicPreferences(ctx, "u1", prefs))

	// wholesale overwrite, nothing merged from the previous value
	require.NoError(t, repo.SetMusicPreferences(ctx, "u1", domain.MusicPreferences{Genres: []string{"jazz"}}))
	u, err = repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.Preferences)
	assert.Equal(t, []string{"jazz"}, u.Preferences.Genres)
	assert.Nil(t, u.Preferences.AverageFeatures)
	assert.Empty(t, u.Preferences.MoodTags)

	require.NoError(t, repo.AddMatchedUser(ctx, "u1", "u2"))
	require.NoError(t, repo.AddMatchedUser(ctx, "u1", "u2"))
	u, err = repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, u.Engagement.MatchedUserIDs)

	err = repo.AddMatchedUser(ctx, "ghost", "u2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	users, err := repo.GetUsers(ctx, []string{"u1", "ghost"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Contains(t, users, "u1")
}

func TestUserRepository_ConcurrentAddMatchedUserKeepsEveryEntry(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.Open(t))
	require.NoError(t, repo.CreateUser(ctx, &domain.UserProfile{ID: "hub", DisplayName: "Hub"}))

	others := []string{"o1", "o2", "o3", "o4", "o5", "o6"}
	var wg sync.WaitGroup
	errs := make([]error, len(others))
	for i, other := range others {
		wg.Add(1)
		go func(i int, other string) {
			defer wg.Done()
			errs[i] = repo.AddMatchedUser(ctx, "hub", other)
		}(i, other)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	u, err := repo.GetUser(ctx, "hub")
	require.NoError(t, err)
	assert.ElementsMatch(t, others, u.Engagement.MatchedUserIDs)
}

func TestFriendRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFriendRepository(dbtest.Open(t))

	require.NoError(t, repo.AddFriendship(ctx, "a", "b"))
	require.NoError(t, repo.AddFriendship(ctx, "b", "a")) // idempotent
	require.NoError(t, repo.AddFriendship(ctx, "a", "c"))

	ids, err := repo.FriendIDs(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)

	ok, err := repo.AreFriends(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AreFriends(ctx, "b", "c")
	require.NoError(t, err)
	assert.False(t, ok)
}
