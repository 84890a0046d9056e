package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/songmatch/internal/domain"
)

// WindowStatus describes the posting window as seen by one user.
type WindowStatus struct {
	Start     time.Time
	NextStart time.Time
	HasPosted bool
}

// WindowStatus reports the current window bounds and whether the user has
// already shared a song in it.
func (s *Service) WindowStatus(ctx context.Context, userID string) (WindowStatus, error) {
	if userID == "" {
		return WindowStatus{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	now := s.now()
	st := WindowStatus{
		Start:     s.window.CurrentStart(now),
		NextStart: s.window.NextStart(now),
	}
	posts, err := s.posts.QueryPostsByAuthor(ctx, userID, st.Start)
	if err != nil {
		return WindowStatus{}, fmt.Errorf("load posts of %s: %w", userID, err)
	}
	for _, p := range posts {
		if s.window.IsActive(p.CreatedAt, now) {
			st.HasPosted = true
			break
		}
	}
	return st, nil
}
