package models

import (
	id "knowledgehub/pkg/domain"
)

// Counters are the cumulative figures badge rules evaluate against.
type Counters struct {
	Uploads   int `json:"uploads"`
	Approvals int `json:"approvals"`
}

// UserReputation is the per-user score state. Score only moves through the
// reputation engine and never goes below zero; badges are granted at most once.
type UserReputation struct {
	UserID   id.UserID       `json:"user_id"`
	Score    int             `json:"score"`
	Badges   map[string]bool `json:"badges"`
	Counters Counters        `json:"counters"`
}

// NewUserReputation returns the zero record for a user.
func NewUserReputation(userID id.UserID) *UserReputation {
	return &UserReputation{
		UserID: userID,
		Badges: map[string]bool{},
	}
}

// HasBadge reports whether the badge was already granted.
func (r *UserReputation) HasBadge(badge string) bool {
	return r.Badges[badge]
}

// BadgeList returns granted badges as a slice for API responses.
func (r *UserReputation) BadgeList() []string {
	out := make([]string, 0, len(r.Badges))
	for badge := range r.Badges {
		out = append(out, badge)
	}
	return out
}

// Clone returns a deep copy so store reads never alias store-held state.
func (r *UserReputation) Clone() *UserReputation {
	if r == nil {
		return nil
	}
	out := *r
	out.Badges = make(map[string]bool, len(r.Badges))
	for k, v := range r.Badges {
		out.Badges[k] = v
	}
	return &out
}
