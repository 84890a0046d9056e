package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/domain"
)

// PostRepository provides data access for posts. Every row leaves this type
// through toDomainPost, so callers only ever see the normalized shape.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new repository bound to the given DB connection.
func NewPostRepository(database *gorm.DB) *PostRepository {
	return &PostRepository{db: database}
}

// CreatePost stores a new post. CreatedAt defaults to now when zero.
func (r *PostRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	if post.ID == "" || post.UserID == "" {
		return fmt.Errorf("%w: post id and author are required", domain.ErrInvalidArgument)
	}
	row := fromDomainPost(post)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	post.CreatedAt = row.CreatedAt
	return nil
}

// GetPost returns a single post or domain.ErrNotFound.
func (r *PostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var row db.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p := toDomainPost(&row)
	return &p, nil
}

// GetPosts loads the given posts keyed by id. Missing ids are simply absent.
func (r *PostRepository) GetPosts(ctx context.Context, ids []string) (map[string]domain.Post, error) {
	out := make(map[string]domain.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []db.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = toDomainPost(&rows[i])
	}
	return out, nil
}

// QueryPostsByAuthor returns the author's posts created strictly after
// afterTs, newest first. A zero afterTs returns every post by the author.
func (r *PostRepository) QueryPostsByAuthor(ctx context.Context, userID string, afterTs time.Time) ([]domain.Post, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if !afterTs.IsZero() {
		query = query.Where("created_at > ?", afterTs.UTC())
	}

	var rows []db.Post
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainPosts(rows), nil
}

// QueryRecentPosts returns up to limit posts created strictly after afterTs
// by anyone except excludeAuthor, newest first.
//
// Example:
//
//	repo.QueryRecentPosts(ctx, "u1", window.CurrentStart(now), 100)
func (r *PostRepository) QueryRecentPosts(ctx context.Context, excludeAuthor string, afterTs time.Time, limit int) ([]domain.Post, error) {
	var rows []db.Post
	err := r.db.WithContext(ctx).
		Where("created_at > ? AND user_id <> ?", afterTs.UTC(), excludeAuthor).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainPosts(rows), nil
}

// QueryUnseenPosts returns up to limit posts created strictly after afterTs
// that viewerID may still be shown: not their own, never swiped by them, and
// not written by a friend or by anyone they were ever matched with. Newest
// first, in a single round trip.
//
// Example:
//
//	repo.QueryUnseenPosts(ctx, "u1", window.CurrentStart(now), 100)
func (r *PostRepository) QueryUnseenPosts(ctx context.Context, viewerID string, afterTs time.Time, limit int) ([]domain.Post, error) {
	tx := r.db.WithContext(ctx)
	swiped := tx.Model(&db.Swipe{}).Select("post_id").Where("swiper_id = ?", viewerID)
	friends := tx.Model(&db.Friendship{}).Select("friend_id").Where("user_id = ?", viewerID)
	matchedHigh := tx.Model(&db.Match{}).Select("user_high").Where("user_low = ?", viewerID)
	matchedLow := tx.Model(&db.Match{}).Select("user_low").Where("user_high = ?", viewerID)

	var rows []db.Post
	err := tx.
		Where("created_at > ? AND user_id <> ?", afterTs.UTC(), viewerID).
		Where("id NOT IN (?)", swiped).
		Where("user_id NOT IN (?)", friends).
		Where("user_id NOT IN (?)", matchedHigh).
		Where("user_id NOT IN (?)", matchedLow).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainPosts(rows), nil
}

// DeleteExpired removes posts created at or before cutoff together with the
// swipes that reference them. Returns the number of posts removed.
func (r *PostRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&db.Post{}).Select("id").Where("created_at <= ?", cutoff.UTC())

		if err := tx.Where("post_id IN (?)", expired).Delete(&db.Swipe{}).Error; err != nil {
			return fmt.Errorf("failed to delete swipes: %w", err)
		}
		res := tx.Where("created_at <= ?", cutoff.UTC()).Delete(&db.Post{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete posts: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

func toDomainPosts(rows []db.Post) []domain.Post {
	out := make([]domain.Post, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainPost(&rows[i]))
	}
	return out
}
