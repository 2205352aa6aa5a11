package progress

import (
	"math"
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/srs"
)

// MasteryThreshold is the ease factor a card must exceed to count as mastered.
const MasteryThreshold = 2.5

// Stats summarises a card collection.
type Stats struct {
	TotalCards    int
	MasteredCards int
	DueCards      int
	StudyStreak   int
}

// Summarize derives stats from all cards and the streak state at now.
func Summarize(cards []domain.Card, streak domain.StreakState, now time.Time) Stats {
	stats := Stats{
		TotalCards:  len(cards),
		DueCards:    len(srs.DueCards(cards, now)),
		StudyStreak: streak.CurrentStreak,
	}
	for _, c := range cards {
		if IsMastered(c) {
			stats.MasteredCards++
		}
	}
	return stats
}

// IsMastered reports whether the card's ease factor is above MasteryThreshold.
func IsMastered(c domain.Card) bool {
	return c.EaseFactor > MasteryThreshold
}

// LearningCards is the number of cards not yet mastered.
func (s Stats) LearningCards() int {
	return s.TotalCards - s.MasteredCards
}

// MasteryPercent is the share of mastered cards, rounded to a whole percent.
func (s Stats) MasteryPercent() int {
	if s.TotalCards == 0 {
		return 0
	}
	return int(math.Round(float64(s.MasteredCards) / float64(s.TotalCards) * 100))
}

// CompletionRate is the share of mastered cards as a percentage with one decimal.
func (s Stats) CompletionRate() float64 {
	if s.TotalCards == 0 {
		return 0
	}
	return math.Round(float64(s.MasteredCards)/float64(s.TotalCards)*1000) / 10
}

// Badge is an achievement unlocked by the current stats.
type Badge string

const (
	BadgeCollector Badge = "Collector"
	BadgeOnFire    Badge = "On Fire"
	BadgeScholar   Badge = "Scholar"
	BadgeExpert    Badge = "Expert"
)

// Badges returns the unlocked achievements in display order.
func (s Stats) Badges() []Badge {
	var badges []Badge
	if s.TotalCards >= 10 {
		badges = append(badges, BadgeCollector)
	}
	if s.StudyStreak >= 7 {
		badges = append(badges, BadgeOnFire)
	}
	if s.MasteredCards >= 5 {
		badges = append(badges, BadgeScholar)
	}
	if s.MasteryPercent() >= 80 {
		badges = append(badges, BadgeExpert)
	}
	return badges
}

// Tier names how long a study streak has lasted.
type Tier string

const (
	TierSeedling Tier = "seedling"
	TierSteady   Tier = "steady"
	TierStar     Tier = "star"
	TierSpark    Tier = "spark"
	TierFire     Tier = "fire"
)

// StreakTier returns the tier for a streak length.
func StreakTier(streak int) Tier {
	switch {
	case streak >= 30:
		return TierFire
	case streak >= 14:
		return TierSpark
	case streak >= 7:
		return TierStar
	case streak >= 3:
		return TierSteady
	default:
		return TierSeedling
	}
}
