package progress

import (
	"testing"
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
)

func TestUpdateStreak(t *testing.T) {
	day := func(d int, hour int) time.Time {
		return time.Date(2024, 2, d, hour, 0, 0, 0, time.UTC)
	}

	testCases := []struct {
		name       string
		state      domain.StreakState
		now        time.Time
		wantStreak int
	}{
		{"first study", domain.StreakState{}, day(10, 9), 1},
		{"consecutive day", domain.StreakState{LastStudyDate: day(10, 0), CurrentStreak: 4}, day(11, 23), 5},
		{"same day", domain.StreakState{LastStudyDate: day(10, 0), CurrentStreak: 4}, day(10, 22), 4},
		{"two day gap", domain.StreakState{LastStudyDate: day(10, 0), CurrentStreak: 4}, day(12, 1), 1},
		{"three day gap", domain.StreakState{LastStudyDate: day(10, 0), CurrentStreak: 9}, day(13, 8), 1},
		{"month boundary", domain.StreakState{LastStudyDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), CurrentStreak: 2}, day(1, 7), 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := UpdateStreak(tc.state, tc.now)
			if got.CurrentStreak != tc.wantStreak {
				t.Errorf("Expected streak %d, but got %d", tc.wantStreak, got.CurrentStreak)
			}
			if want := Date(tc.now); !got.LastStudyDate.Equal(want) {
				t.Errorf("Expected last study date %v, but got %v", want, got.LastStudyDate)
			}
		})
	}
}

func TestUpdateStreakLateNightToEarlyMorning(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	lateNight := time.Date(2024, 2, 10, 23, 50, 0, 0, loc)
	earlyMorning := lateNight.Add(20 * time.Minute)

	state := UpdateStreak(domain.StreakState{}, lateNight)
	state = UpdateStreak(state, earlyMorning)
	if state.CurrentStreak != 2 {
		t.Errorf("Expected studying across midnight to count as two days, but got streak %d", state.CurrentStreak)
	}
}

func TestStudiedOn(t *testing.T) {
	now := time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)
	if StudiedOn(domain.StreakState{}, now) {
		t.Error("Expected an empty streak not to count any day")
	}
	state := UpdateStreak(domain.StreakState{}, now)
	if !StudiedOn(state, now.Add(5*time.Hour)) {
		t.Error("Expected the same calendar day to be counted")
	}
	if StudiedOn(state, now.Add(24*time.Hour)) {
		t.Error("Expected the next day not to be counted yet")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 2, 28, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("Expected 2 days across a leap day, but got %d", got)
	}
	if got := DaysBetween(b, a); got != -2 {
		t.Errorf("Expected -2 days backwards, but got %d", got)
	}
}
