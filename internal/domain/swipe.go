package domain

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the judgement a swiper gives a post.
type Direction string

const (
	DirectionAccept Direction = "accept"
	DirectionReject Direction = "reject"
)

// ParseDirection accepts the canonical names plus the left/right aliases
// used by the clients.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept", "right", "like":
		return DirectionAccept, nil
	case "reject", "left", "pass":
		return DirectionReject, nil
	}
	return "", fmt.Errorf("%w: unknown swipe direction %q", ErrInvalidArgument, s)
}

// Swipe is one immutable ledger entry.
type Swipe struct {
	Seq        uint64
	SwiperID   string
	PostID     string
	PostUserID string
	Direction  Direction
	CreatedAt  time.Time
}
