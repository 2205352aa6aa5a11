package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/generate"
)

// maxGenerateInput caps the text sent for generation.
const maxGenerateInput = 20000

// handleGetGenerate renders the card creation page.
func (s *Server) handleGetGenerate(w http.ResponseWriter, r *http.Request) {
	s.render(w, "generate", map[string]any{
		"CanGenerate": s.generator != nil,
	})
}

// handlePostGenerate turns pasted text into new cards.
func (s *Server) handlePostGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		http.Error(w, "Generation is not configured", http.StatusNotImplemented)
		return
	}
	text := strings.TrimSpace(r.PostFormValue("text"))
	if text == "" {
		http.Error(w, "Text cannot be empty", http.StatusBadRequest)
		return
	}
	if len(text) > maxGenerateInput {
		http.Error(w, "Text is too long", http.StatusRequestEntityTooLarge)
		return
	}

	pairs, err := s.generator.Generate(r.Context(), text)
	if errors.Is(err, generate.ErrNoFlashcards) {
		s.render(w, "error", "No flashcards could be generated from that text.")
		return
	}
	if err != nil {
		s.log.Error("Failed to generate flashcards", "error", err)
		http.Error(w, "Failed to generate flashcards", http.StatusBadGateway)
		return
	}
	s.addCards(w, pairs)
}

// handlePostCard adds a single hand-written card.
func (s *Server) handlePostCard(w http.ResponseWriter, r *http.Request) {
	pair := domain.Pair{
		Question: r.PostFormValue("question"),
		Answer:   r.PostFormValue("answer"),
	}
	if strings.TrimSpace(pair.Question) == "" || strings.TrimSpace(pair.Answer) == "" {
		http.Error(w, "Question and answer cannot be empty", http.StatusBadRequest)
		return
	}
	s.addCards(w, []domain.Pair{pair})
}

func (s *Server) addCards(w http.ResponseWriter, pairs []domain.Pair) {
	cards := domain.NewCards(pairs, s.now())
	inserted, err := s.db.InsertCards(cards, 0)
	if err != nil {
		s.serverError(w, "Error saving cards", err)
		return
	}
	s.log.Info("Cards added", "new_cards", inserted, "submitted", len(cards))
	s.endSession()
	s.render(w, "generate_result", map[string]any{
		"Cards":    cards,
		"Inserted": inserted,
	})
}
