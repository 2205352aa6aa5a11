package srs

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/snapcard/internal/domain"
)

// ErrInvalidJudgment is returned for a judgment other than Again, Good or Easy.
var ErrInvalidJudgment = errors.New("invalid judgment")

// Judgment is the user's self-reported recall quality for a card.
type Judgment int

const (
	Again Judgment = iota + 1 // failed to recall
	Good                      // recalled
	Easy                      // recalled effortlessly
)

// Judgments lists every valid judgment in button order.
var Judgments = []Judgment{Again, Good, Easy}

var judgmentNames = [...]string{Again: "again", Good: "good", Easy: "easy"}

// String returns the lower-case name of the judgment.
func (j Judgment) String() string {
	if j.IsValid() {
		return judgmentNames[j]
	}
	return fmt.Sprintf("Judgment(%d)", int(j))
}

// IsValid reports whether j is one of Again, Good or Easy.
func (j Judgment) IsValid() bool {
	return j >= Again && j <= Easy
}

// ParseJudgment accepts a judgment name ("again", "good", "easy", any case)
// or its number ("1", "2", "3").
func ParseJudgment(s string) (Judgment, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, j := range Judgments {
		if s == judgmentNames[j] || s == fmt.Sprint(int(j)) {
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidJudgment, s)
}

// MarshalText implements encoding.TextMarshaler.
func (j Judgment) MarshalText() ([]byte, error) {
	if !j.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidJudgment, int(j))
	}
	return []byte(judgmentNames[j]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (j *Judgment) UnmarshalText(text []byte) error {
	v, err := ParseJudgment(string(text))
	if err != nil {
		return err
	}
	*j = v
	return nil
}

// Params holds the numeric policy of the scheduler.
type Params struct {
	AgainPenalty       float64 `validate:"gte=0"`   // ease lost on Again
	MinEase            float64 `validate:"gte=1.3"` // ease floor applied after Again
	GraduatingInterval int     `validate:"gte=1"`   // interval after the second successful review
	EasyBonus          float64 `validate:"gte=1"`   // extra interval multiplier on Easy
	EasyEaseStep       float64 `validate:"gte=0"`   // ease gained on Easy
}

var validate = validator.New()

// DefaultParams returns the SM-2 style policy the application ships with.
func DefaultParams() *Params {
	return &Params{
		AgainPenalty:       0.2,
		MinEase:            domain.MinEaseFactor,
		GraduatingInterval: 6,
		EasyBonus:          1.3,
		EasyEaseStep:       0.1,
	}
}

// Validate checks the parameters are within bounds that keep card invariants.
func (p *Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid scheduler params: %w", err)
	}
	return nil
}

// Apply computes the card's next review state using the default params.
func Apply(card domain.Card, j Judgment, now time.Time) (domain.Card, error) {
	return DefaultParams().Apply(card, j, now)
}

// Apply returns the card rescheduled after a review with the given judgment.
// The input card is not modified.
func (p *Params) Apply(card domain.Card, j Judgment, now time.Time) (domain.Card, error) {
	interval := card.IntervalDays
	reps := card.Repetitions
	ease := card.EaseFactor

	switch j {
	case Again:
		reps = 0
		interval = 1
		ease = math.Max(p.MinEase, ease-p.AgainPenalty)
	case Good:
		switch reps {
		case 0:
			interval = 1
		case 1:
			interval = p.GraduatingInterval
		default:
			interval = roundDays(float64(interval) * ease)
		}
		reps++
	case Easy:
		interval = roundDays(float64(interval) * ease * p.EasyBonus)
		reps++
		ease += p.EasyEaseStep
	default:
		return domain.Card{}, fmt.Errorf("%w: %d", ErrInvalidJudgment, int(j))
	}

	card.Repetitions = reps
	card.IntervalDays = interval
	card.EaseFactor = ease
	card.UpdatedAt = now
	card.NextReviewAt = domain.DaysAfter(now, interval)
	return card, nil
}

// Preview returns the card as it would be after each possible judgment.
func (p *Params) Preview(card domain.Card, now time.Time) map[Judgment]domain.Card {
	out := make(map[Judgment]domain.Card, len(Judgments))
	for _, j := range Judgments {
		next, _ := p.Apply(card, j, now)
		out[j] = next
	}
	return out
}

// roundDays rounds half away from zero and keeps the result within
// [1, domain.MaxIntervalDays].
func roundDays(days float64) int {
	if days >= domain.MaxIntervalDays {
		return domain.MaxIntervalDays
	}
	return max(1, int(math.Round(days)))
}
