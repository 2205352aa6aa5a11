package progress

import (
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
)

// UpdateStreak records a study on now's calendar date.
// Studying the day after the last study extends the streak, studying again on
// the same day changes nothing, and anything else starts a new streak of one.
func UpdateStreak(state domain.StreakState, now time.Time) domain.StreakState {
	today := Date(now)
	switch {
	case !state.HasStudied():
		state.CurrentStreak = 1
	case DaysBetween(state.LastStudyDate, today) == 0:
		// already counted today
	case DaysBetween(state.LastStudyDate, today) == 1:
		state.CurrentStreak++
	default:
		state.CurrentStreak = 1
	}
	state.LastStudyDate = today
	return state
}

// StudiedOn reports whether the streak already counts t's calendar date.
func StudiedOn(state domain.StreakState, t time.Time) bool {
	return state.HasStudied() && DaysBetween(state.LastStudyDate, t) == 0
}

// Date returns midnight of t's calendar date in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b, each taken in its own location.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
