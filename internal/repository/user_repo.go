package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/domain"
)

// UserRepository provides data access for user profiles.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// CreateUser stores a profile. Signup itself lives elsewhere; this is used
// by seeding and tests.
func (r *UserRepository) CreateUser(ctx context.Context, u *domain.UserProfile) error {
	row := fromDomainUser(u)
	return r.db.WithContext(ctx).Create(&row).Error
}

// GetUser returns the profile or domain.ErrNotFound.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	var row db.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u := toDomainUser(&row)
	return &u, nil
}

// GetUsers loads profiles keyed by id. Unknown ids are absent from the map.
func (r *UserRepository) GetUsers(ctx context.Context, ids []string) (map[string]*domain.UserProfile, error) {
	out := make(map[string]*domain.UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		u := toDomainUser(&rows[i])
		out[u.ID] = &u
	}
	return out, nil
}

// SetMusicPreferences overwrites the learned preferences wholesale.
func (r *UserRepository) SetMusicPreferences(ctx context.Context, id string, prefs domain.MusicPreferences) error {
	return r.db.WithContext(ctx).
		Model(&db.User{ID: id}).
		Select("MusicPreferences").
		Updates(&db.User{MusicPreferences: &prefs}).Error
}

// AddMatchedUser records otherID in the user's engagement history.
// The row is locked for the read-modify-write so concurrent matches for the
// same user cannot drop each other's entry. A no-op if already present.
func (r *UserRepository) AddMatchedUser(ctx context.Context, id, otherID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row db.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
			}
			return err
		}
		if slices.Contains(row.Engagement.MatchedUserIDs, otherID) {
			return nil
		}
		row.Engagement.MatchedUserIDs = append(row.Engagement.MatchedUserIDs, otherID)
		return tx.Model(&row).Select("Engagement").Updates(&row).Error
	})
}
