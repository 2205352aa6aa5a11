package srs

import (
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
)

// DueCards returns the cards due at now, in their input order.
func DueCards(cards []domain.Card, now time.Time) []domain.Card {
	due := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	return due
}
