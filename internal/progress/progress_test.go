package progress

import (
	"testing"
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	cards := []domain.Card{
		{ID: "1", EaseFactor: 2.5, NextReviewAt: now.Add(-time.Hour)},
		{ID: "2", EaseFactor: 2.6, NextReviewAt: now.Add(time.Hour)},
		{ID: "3", EaseFactor: 1.3, NextReviewAt: now},
		{ID: "4", EaseFactor: 3.1, NextReviewAt: now.Add(48 * time.Hour)},
	}
	streak := domain.StreakState{LastStudyDate: now, CurrentStreak: 4}

	stats := Summarize(cards, streak, now)

	if stats.TotalCards != 4 {
		t.Errorf("Expected 4 total cards, but got %d", stats.TotalCards)
	}
	if stats.MasteredCards != 2 {
		t.Errorf("Expected 2 mastered cards (ease above 2.5), but got %d", stats.MasteredCards)
	}
	if stats.DueCards != 2 {
		t.Errorf("Expected 2 due cards, but got %d", stats.DueCards)
	}
	if stats.StudyStreak != 4 {
		t.Errorf("Expected streak 4, but got %d", stats.StudyStreak)
	}
	if stats.LearningCards() != 2 {
		t.Errorf("Expected 2 learning cards, but got %d", stats.LearningCards())
	}
	if stats.MasteryPercent() != 50 {
		t.Errorf("Expected 50%% mastery, but got %d", stats.MasteryPercent())
	}
	if stats.CompletionRate() != 50.0 {
		t.Errorf("Expected 50.0%% completion, but got %.1f", stats.CompletionRate())
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, domain.StreakState{}, time.Now())
	if stats.TotalCards != 0 || stats.MasteredCards != 0 || stats.DueCards != 0 {
		t.Errorf("Expected all counts to be zero, but got %+v", stats)
	}
	if stats.MasteryPercent() != 0 {
		t.Errorf("Expected 0%% mastery, but got %d", stats.MasteryPercent())
	}
	if stats.CompletionRate() != 0 {
		t.Errorf("Expected 0%% completion, but got %v", stats.CompletionRate())
	}
	if len(stats.Badges()) != 0 {
		t.Errorf("Expected no badges, but got %v", stats.Badges())
	}
}

func TestPercentRounding(t *testing.T) {
	stats := Stats{TotalCards: 3, MasteredCards: 1}
	if stats.MasteryPercent() != 33 {
		t.Errorf("Expected 33%%, but got %d", stats.MasteryPercent())
	}
	if stats.CompletionRate() != 33.3 {
		t.Errorf("Expected 33.3%%, but got %v", stats.CompletionRate())
	}
	stats = Stats{TotalCards: 3, MasteredCards: 2}
	if stats.MasteryPercent() != 67 {
		t.Errorf("Expected 67%%, but got %d", stats.MasteryPercent())
	}
	if stats.CompletionRate() != 66.7 {
		t.Errorf("Expected 66.7%%, but got %v", stats.CompletionRate())
	}
}

func TestBadges(t *testing.T) {
	testCases := []struct {
		name  string
		stats Stats
		want  []Badge
	}{
		{"none", Stats{TotalCards: 9, MasteredCards: 4, StudyStreak: 6}, nil},
		{"collector", Stats{TotalCards: 10}, []Badge{BadgeCollector}},
		{"on fire", Stats{StudyStreak: 7}, []Badge{BadgeOnFire}},
		{"all", Stats{TotalCards: 10, MasteredCards: 8, StudyStreak: 30}, []Badge{BadgeCollector, BadgeOnFire, BadgeScholar, BadgeExpert}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.stats.Badges()
			if len(got) != len(tc.want) {
				t.Fatalf("Expected %v, but got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Expected %v, but got %v", tc.want, got)
				}
			}
		})
	}
}

func TestStreakTier(t *testing.T) {
	testCases := map[int]Tier{0: TierSeedling, 2: TierSeedling, 3: TierSteady, 7: TierStar, 14: TierSpark, 29: TierSpark, 30: TierFire}
	for streak, want := range testCases {
		if got := StreakTier(streak); got != want {
			t.Errorf("Expected tier %s for streak %d, but got %s", want, streak, got)
		}
	}
}
