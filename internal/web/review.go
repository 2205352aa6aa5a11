package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/progress"
	"github.com/conorfennell/snapcard/internal/session"
	"github.com/conorfennell/snapcard/internal/srs"
)

type cardView struct {
	Card    domain.Card
	Index   int
	Total   int
	Options []optionView
}

type optionView struct {
	Judgment srs.Judgment
	Days     int
}

// handleStartReview begins a fresh session over the stored cards.
func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, err := s.ctrl.Start(now); err != nil {
		s.serverError(w, "Error starting review", err)
		return
	}
	s.renderCurrent(w, now, "card_front")
}

// handleGetNextReview renders the front of the current card, starting a
// session first if none is running.
func (s *Server) handleGetNextReview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.ctrl.Status() == session.StatusIdle {
		if _, err := s.ctrl.Start(now); err != nil {
			s.serverError(w, "Error starting review", err)
			return
		}
	}
	s.renderCurrent(w, now, "card_front")
}

// handleShowAnswer renders the back of the current card with the interval
// each judgment would give it.
func (s *Server) handleShowAnswer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderCurrent(w, s.now(), "card_back")
}

// handlePostJudgment records a judgment on the current card and renders the next one.
func (s *Server) handlePostJudgment(w http.ResponseWriter, r *http.Request) {
	j, err := srs.ParseJudgment(r.PostFormValue("judgment"))
	if err != nil {
		http.Error(w, "Invalid judgment", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.ctrl.CurrentCard()
	if err != nil {
		http.Error(w, "No review in progress", http.StatusConflict)
		return
	}
	// A form from another tab or an earlier card must not grade this one.
	if id := r.PostFormValue("card"); id != "" && id != current.ID {
		card, err := s.db.FindCardByID(id)
		if err != nil {
			s.serverError(w, "Error finding card", err)
			return
		}
		if card == nil {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Card is no longer current", http.StatusConflict)
		return
	}

	now := s.now()
	if err := s.ctrl.RecordJudgment(j, now); err != nil {
		if !errors.Is(err, session.ErrStreakNotSaved) {
			s.serverError(w, "Error recording judgment", err)
			return
		}
		// The judgment is recorded; the streak write is retried on the next one.
		s.log.Warn("Failed to save study streak", "error", err)
	}
	s.renderCurrent(w, now, "card_front")
}

// renderCurrent renders the current card with the named template, or the
// completion view when nothing is due. Callers hold s.mu.
func (s *Server) renderCurrent(w http.ResponseWriter, now time.Time, name string) {
	card, err := s.ctrl.CurrentCard()
	if errors.Is(err, session.ErrNoCurrentCard) {
		stats := s.ctrl.Stats(now)
		s.render(w, "review_done", map[string]any{
			"Stats": stats,
			"Tier":  progress.StreakTier(stats.StudyStreak),
		})
		return
	}
	if err != nil {
		s.serverError(w, "Error getting current card", err)
		return
	}

	index, total := s.ctrl.Position()
	view := cardView{Card: card, Index: index, Total: total}
	if name == "card_back" {
		preview, err := s.ctrl.Preview(now)
		if err != nil {
			s.serverError(w, "Error previewing judgments", err)
			return
		}
		for _, j := range srs.Judgments {
			view.Options = append(view.Options, optionView{Judgment: j, Days: preview[j].IntervalDays})
		}
	}
	s.render(w, name, view)
}
