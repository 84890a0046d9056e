package domain

import (
	"time"

	"github.com/google/uuid"
)

// matchNamespace seeds the name-based UUIDs used as match identities.
var matchNamespace = uuid.MustParse("5b0e3c9a-2f4d-5d8e-9a51-7c1f0b6e2d43")

// Participant is display metadata captured when the match is created.
type Participant struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// Match is a mutual-acceptance relationship between exactly two users.
type Match struct {
	ID            string
	UserIDs       [2]string
	Participants  []Participant
	IsActive      bool
	CreatedAt     time.Time
	LastMessageAt *time.Time
}

// SortedPair returns the two ids in ascending order.
func SortedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// MatchID derives the identity of the match between a and b.
// The result does not depend on argument order.
func MatchID(a, b string) string {
	lo, hi := SortedPair(a, b)
	return uuid.NewSHA1(matchNamespace, []byte(lo+":"+hi)).String()
}

// Other returns the counterpart of userID in the match.
func (m *Match) Other(userID string) (string, bool) {
	switch userID {
	case m.UserIDs[0]:
		return m.UserIDs[1], true
	case m.UserIDs[1]:
		return m.UserIDs[0], true
	}
	return "", false
}
