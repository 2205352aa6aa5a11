package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Initial scheduling state of every new card.
const (
	InitialRepetitions = 0
	InitialInterval    = 1
	InitialEaseFactor  = 2.5
	MinEaseFactor      = 1.3
)

// MaxIntervalDays caps the review interval at roughly 5.8 million years.
const MaxIntervalDays = math.MaxInt32

// ErrInvalidCard is returned when a card breaks one of its invariants.
var ErrInvalidCard = errors.New("invalid card")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Card represents a single question-answer pair and its review state.
type Card struct {
	ID           string    `validate:"required"`
	Question     string    `validate:"required"`
	Answer       string    `validate:"required"`
	Repetitions  int       `validate:"gte=0"`
	IntervalDays int       `validate:"gte=1,lte=2147483647"`
	EaseFactor   float64   `validate:"gte=1.3"`
	NextReviewAt time.Time `validate:"required"`
	CreatedAt    time.Time `validate:"required"`
	UpdatedAt    time.Time `validate:"required"`
}

// Pair is a question and answer produced by a generator or the text parser,
// before it has any review state.
type Pair struct {
	Question string
	Answer   string
}

// NewCard creates a card that becomes due one day after now.
func NewCard(question, answer string, now time.Time) (Card, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return Card{}, fmt.Errorf("%w: question and answer must not be empty", ErrInvalidCard)
	}
	return Card{
		ID:           uuid.NewString(),
		Question:     question,
		Answer:       answer,
		Repetitions:  InitialRepetitions,
		IntervalDays: InitialInterval,
		EaseFactor:   InitialEaseFactor,
		NextReviewAt: DaysAfter(now, InitialInterval),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewCards turns generated pairs into cards. Pairs with an empty side are skipped.
func NewCards(pairs []Pair, now time.Time) []Card {
	cards := make([]Card, 0, len(pairs))
	for _, p := range pairs {
		card, err := NewCard(p.Question, p.Answer, now)
		if err != nil {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// IsDue reports whether the card should be reviewed at now.
func (c Card) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// Validate checks the card's field constraints and that NextReviewAt is
// exactly IntervalDays after UpdatedAt.
func (c Card) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidCard, c.ID, err)
	}
	if !DaysAfter(c.UpdatedAt, c.IntervalDays).Equal(c.NextReviewAt) {
		return fmt.Errorf("%w %q: next review %s is not %d days after %s",
			ErrInvalidCard, c.ID, c.NextReviewAt.Format(time.RFC3339), c.IntervalDays, c.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

// DaysAfter returns t moved forward by the given number of 24 hour days.
// Long intervals would overflow a time.Duration, so the date arithmetic is
// done in UTC where every day has 24 hours.
func DaysAfter(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, days).In(t.Location())
}

// StreakState tracks consecutive study days. It is shared by all cards.
// A zero LastStudyDate means nothing has been studied yet.
type StreakState struct {
	LastStudyDate time.Time
	CurrentStreak int `validate:"gte=0"`
}

// HasStudied reports whether a study date has been recorded.
func (s StreakState) HasStudied() bool {
	return !s.LastStudyDate.IsZero()
}

// Validate checks the streak state's field constraints.
func (s StreakState) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid streak state: %w", err)
	}
	return nil
}
