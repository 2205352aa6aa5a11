package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewCard(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	t.Run("sets initial review state", func(t *testing.T) {
		card, err := NewCard("  What is Go? ", "A language\n", now)
		if err != nil {
			t.Fatalf("NewCard() returned an unexpected error: %v", err)
		}
		if card.ID == "" {
			t.Error("Expected an ID to be assigned")
		}
		if card.Question != "What is Go?" || card.Answer != "A language" {
			t.Errorf("Expected trimmed content, but got %q / %q", card.Question, card.Answer)
		}
		if card.Repetitions != 0 || card.IntervalDays != 1 || card.EaseFactor != 2.5 {
			t.Errorf("Expected {0, 1, 2.5}, but got {%d, %d, %.2f}", card.Repetitions, card.IntervalDays, card.EaseFactor)
		}
		if want := now.Add(24 * time.Hour); !card.NextReviewAt.Equal(want) {
			t.Errorf("Expected next review at %v, but got %v", want, card.NextReviewAt)
		}
		if err := card.Validate(); err != nil {
			t.Errorf("Expected a new card to be valid, but got %v", err)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, _ := NewCard("Q", "A", now)
		b, _ := NewCard("Q", "A", now)
		if a.ID == b.ID {
			t.Error("Expected two cards to get different IDs")
		}
	})

	t.Run("rejects empty content", func(t *testing.T) {
		for _, tc := range []struct{ q, a string }{{"", "A"}, {"Q", "  "}, {"", ""}} {
			if _, err := NewCard(tc.q, tc.a, now); !errors.Is(err, ErrInvalidCard) {
				t.Errorf("Expected ErrInvalidCard for %q/%q, but got %v", tc.q, tc.a, err)
			}
		}
	})
}

func TestNewCards(t *testing.T) {
	now := time.Now()
	cards := NewCards([]Pair{{"Q1", "A1"}, {"", "A2"}, {"Q3", "A3"}}, now)
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, but got %d", len(cards))
	}
	if cards[0].Question != "Q1" || cards[1].Question != "Q3" {
		t.Errorf("Expected input order to be kept, but got %q, %q", cards[0].Question, cards[1].Question)
	}
}

func TestCardValidate(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	valid, _ := NewCard("Q", "A", now)

	testCases := []struct {
		name   string
		mutate func(c *Card)
	}{
		{"negative repetitions", func(c *Card) { c.Repetitions = -1 }},
		{"zero interval", func(c *Card) { c.IntervalDays = 0; c.NextReviewAt = c.UpdatedAt }},
		{"interval above cap", func(c *Card) {
			c.IntervalDays = MaxIntervalDays + 1
			c.NextReviewAt = DaysAfter(c.UpdatedAt, c.IntervalDays)
		}},
		{"ease below floor", func(c *Card) { c.EaseFactor = 1.29 }},
		{"missing id", func(c *Card) { c.ID = "" }},
		{"inconsistent next review", func(c *Card) { c.NextReviewAt = c.NextReviewAt.Add(time.Hour) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := valid
			tc.mutate(&card)
			if err := card.Validate(); !errors.Is(err, ErrInvalidCard) {
				t.Errorf("Expected ErrInvalidCard, but got %v", err)
			}
		})
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	card := Card{NextReviewAt: now}
	if !card.IsDue(now) {
		t.Error("Expected a card due exactly now to be due")
	}
	if card.IsDue(now.Add(-time.Second)) {
		t.Error("Expected a card due in the future not to be due")
	}
}

func TestStreakStateValidate(t *testing.T) {
	if err := (StreakState{CurrentStreak: -1}).Validate(); err == nil {
		t.Error("Expected a negative streak to be invalid")
	}
	if (StreakState{}).HasStudied() {
		t.Error("Expected zero streak state to have no study date")
	}
}
