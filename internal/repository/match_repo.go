package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/songmatch/internal/db"
	"github.com/oggyb/songmatch/internal/domain"
	"github.com/oggyb/songmatch/internal/utils/pagination"
)

// MatchRepository provides data access for matches.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts the match for the pair in m.UserIDs.
//
// Behavior:
//   - The id is derived from the sorted pair (domain.MatchID); any id set by
//     the caller is replaced.
//   - Insert is ON CONFLICT DO NOTHING. If nothing was inserted, a match for
//     the pair already exists and domain.ErrMatchExists is returned.
//   - Two concurrent creators therefore produce exactly one row.
func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	lo, hi := domain.SortedPair(m.UserIDs[0], m.UserIDs[1])
	if lo == "" || lo == hi {
		return fmt.Errorf("%w: a match needs two distinct users", domain.ErrInvalidArgument)
	}

	row := db.Match{
		ID:           domain.MatchID(lo, hi),
		UserLow:      lo,
		UserHigh:     hi,
		IsActive:     true,
		Participants: m.Participants,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrMatchExists
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMatchExists
	}

	*m = toDomainMatch(&row)
	return nil
}

// AreUsersMatched reports whether an active match exists for the pair.
// Argument order does not matter.
func (r *MatchRepository) AreUsersMatched(ctx context.Context, a, b string) (bool, error) {
	lo, hi := domain.SortedPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_low = ? AND user_high = ? AND is_active = ?", lo, hi, true).
		Count(&count).Error
	return count > 0, err
}

// MatchedUserIDs returns every user the given user has ever matched with,
// active or not.
func (r *MatchRepository) MatchedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var rows []db.Match
	err := r.db.WithContext(ctx).
		Select("user_low", "user_high").
		Where("user_low = ? OR user_high = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		if m.UserLow == userID {
			ids = append(ids, m.UserHigh)
		} else {
			ids = append(ids, m.UserLow)
		}
	}
	return ids, nil
}

// SetActive flips the soft-deactivation flag.
func (r *MatchRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's matches, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListByUser(ctx, "u1", nil, 20) // first 20 matches of u1
func (r *MatchRepository) ListByUser(
	ctx context.Context,
	userID string,
	paginationToken *string,
	limit int,
) ([]domain.Match, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	query := r.db.WithContext(ctx).
		Where("(user_low = ? OR user_high = ?)", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.ID != "" && cursor.CreatedUnixNano > 0 {
		ts := time.Unix(0, cursor.CreatedUnixNano).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var rows []db.Match
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(rows) > limit {
		last := rows[limit-1]
		token, err := pagination.Encode(pagination.Cursor{
			ID:              last.ID,
			CreatedUnixNano: last.CreatedAt.UnixNano(),
		})
		if err != nil {
			return nil, nil, err
		}
		nextToken = &token
		rows = rows[:limit]
	}

	out := make([]domain.Match, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainMatch(&rows[i]))
	}
	return out, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
