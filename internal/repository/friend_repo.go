package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/songmatch/internal/db"
)

// FriendRepository reads the symmetric friendship relation. Writes belong to
// the friend-management service; AddFriendship exists for seeding and tests.
type FriendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new repository bound to the given DB connection.
func NewFriendRepository(database *gorm.DB) *FriendRepository {
	return &FriendRepository{db: database}
}

// FriendIDs returns the ids of the user's friends.
func (r *FriendRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}

// AreFriends reports whether a and b are friends.
func (r *FriendRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

// AddFriendship stores both directions of the relation. Idempotent.
func (r *FriendRepository) AddFriendship(ctx context.Context, a, b string) error {
	rows := []db.Friendship{{UserID: a, FriendID: b}, {UserID: b, FriendID: a}}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
