package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/domain"
)

// latestOnly keeps a swipe row only if it is the swiper's most recent
// judgement on that post. Duplicates are stored, and the newest one wins.
const latestOnly = `
	NOT EXISTS (
		SELECT 1 FROM swipes s2
		WHERE s2.swiper_id = s.swiper_id
		  AND s2.post_id = s.post_id
		  AND s2.seq > s.seq
	)`

// SwipeRepository is the append-only swipe ledger.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Append writes one ledger row. It never updates or deduplicates.
func (r *SwipeRepository) Append(ctx context.Context, swipe *domain.Swipe) error {
	row := db.Swipe{
		SwiperID:   swipe.SwiperID,
		PostID:     swipe.PostID,
		PostUserID: swipe.PostUserID,
		Direction:  string(swipe.Direction),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	swipe.Seq = row.Seq
	swipe.CreatedAt = row.CreatedAt
	return nil
}

// SwipedPostIDs returns every post the user has swiped on, in any direction.
func (r *SwipeRepository) SwipedPostIDs(ctx context.Context, swiperID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Distinct("post_id").
		Where("swiper_id = ?", swiperID).
		Pluck("post_id", &ids).Error
	return ids, err
}

// HasAcceptedAny reports whether the swiper's latest judgement on any of
// the given posts is an accept.
//
// Example:
//
//	repo.HasAcceptedAny(ctx, "bob", []string{"p1", "p2"}) // -> true if bob accepted p1 or p2
func (r *SwipeRepository) HasAcceptedAny(ctx context.Context, swiperID string, postIDs []string) (bool, error) {
	if len(postIDs) == 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.swiper_id = ? AND s.post_id IN ? AND s.direction = ?", swiperID, postIDs, string(domain.DirectionAccept)).
		Where(latestOnly).
		Count(&count).Error
	return count > 0, err
}

// RecentAcceptedPostIDs returns up to limit distinct posts the user
// currently accepts, most recently swiped first.
func (r *SwipeRepository) RecentAcceptedPostIDs(ctx context.Context, swiperID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Where("s.swiper_id = ? AND s.direction = ?", swiperID, string(domain.DirectionAccept)).
		Where(latestOnly).
		Order("s.seq DESC").
		Limit(limit).
		Pluck("s.post_id", &ids).Error
	return ids, err
}
