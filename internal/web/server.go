package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conorfennell/snapcard/internal/generate"
	"github.com/conorfennell/snapcard/internal/importer"
	"github.com/conorfennell/snapcard/internal/progress"
	"github.com/conorfennell/snapcard/internal/session"
	"github.com/conorfennell/snapcard/internal/storage"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	importer  *importer.Importer
	generator generate.Generator
	templates *template.Template
	router    chi.Router
	log       *slog.Logger
	now       func() time.Time

	// mu serialises access to ctrl, which is not safe for concurrent use.
	mu   sync.Mutex
	ctrl *session.Controller
}

// Option configures a Server.
type Option func(*Server)

// WithGenerator enables AI card generation.
func WithGenerator(g generate.Generator) Option {
	return func(s *Server) { s.generator = g }
}

// WithLogger sets the server's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, im *importer.Importer, opts ...Option) (*Server, error) {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		db:        db,
		importer:  im,
		templates: tpl,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctrl = session.New(db, session.WithLogger(s.log))

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/", s.handleIndex)
	r.Get("/deck", s.handleGetDeck)
	r.Get("/progress", s.handleGetProgress)

	// HTMX-based review loop
	r.Post("/review/start", s.handleStartReview)
	r.Get("/review/next", s.handleGetNextReview)
	r.Get("/review/answer", s.handleShowAnswer)
	r.Post("/review/judgment", s.handlePostJudgment)

	// Card creation
	r.Get("/generate", s.handleGetGenerate)
	r.Post("/generate", s.handlePostGenerate)
	r.Post("/cards", s.handlePostCard)

	// Source management routes
	r.Get("/sources", s.handleGetSources)
	r.Post("/sources", s.handlePostSource)
	r.Delete("/sources/{id}", s.handleDeleteSource)
	r.Post("/sync", s.handlePostSync)

	s.router = r
	return nil
}

// render executes a template into a buffer so a failure can still become a 500.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

type deckView struct {
	Stats       progress.Stats
	Tier        progress.Tier
	DueCount    int
	HasDueCards bool
}

// loadStats summarises the stored cards. It reads the store directly, so it
// works whether or not a review session is running.
func (s *Server) loadStats(now time.Time) (progress.Stats, error) {
	cards, err := s.db.LoadAllCards()
	if err != nil {
		return progress.Stats{}, err
	}
	streak, err := s.db.LoadStreakState()
	if err != nil {
		return progress.Stats{}, err
	}
	return progress.Summarize(cards, streak, now), nil
}

func (s *Server) deck(now time.Time) (deckView, error) {
	stats, err := s.loadStats(now)
	if err != nil {
		return deckView{}, err
	}
	return deckView{
		Stats:       stats,
		Tier:        progress.StreakTier(stats.StudyStreak),
		DueCount:    stats.DueCards,
		HasDueCards: stats.DueCards > 0,
	}, nil
}

// handleIndex renders the full page with the deck view.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.deck(s.now())
	if err != nil {
		s.serverError(w, "Error loading deck", err)
		return
	}
	s.render(w, "index", data)
}

// handleGetDeck renders the deck view, showing the number of due cards.
func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	data, err := s.deck(s.now())
	if err != nil {
		s.serverError(w, "Error loading deck", err)
		return
	}
	s.render(w, "deck", data)
}

// handleGetProgress renders the statistics and achievements.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	stats, err := s.loadStats(s.now())
	if err != nil {
		s.serverError(w, "Error loading progress", err)
		return
	}
	s.render(w, "progress", map[string]any{
		"Stats": stats,
		"Tier":  progress.StreakTier(stats.StudyStreak),
	})
}

func (s *Server) renderSourceList(w http.ResponseWriter, message string) {
	sources, err := s.sourceViews()
	if err != nil {
		s.serverError(w, "Error getting sources", err)
		return
	}
	s.render(w, "source_list", map[string]any{
		"Sources": sources,
		"Message": message,
	})
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.sourceViews()
	if err != nil {
		s.serverError(w, "Error getting sources", err)
		return
	}
	s.render(w, "sources", map[string]any{
		"Sources": sources,
	})
}

type sourceView struct {
	storage.Source
	Cards int
}

// sourceViews lists every source with the number of cards imported from it.
func (s *Server) sourceViews() ([]sourceView, error) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		return nil, err
	}
	views := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		n, err := s.db.CountCardsBySource(src.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, sourceView{Source: src, Cards: n})
	}
	return views, nil
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	path := r.PostFormValue("path")
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	src, err := s.importer.AddSource(path)
	if err != nil {
		s.log.Warn("Failed to add source", "path", path, "error", err)
		http.Error(w, "Failed to add source: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.renderSourceList(w, "Added "+src.Path)
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid source ID", http.StatusBadRequest)
		return
	}

	if err := s.db.DeleteSource(id); err != nil {
		s.serverError(w, "Error deleting source", err)
		return
	}
	s.renderSourceList(w, "")
}

// handlePostSync imports all sources and re-renders the source list.
func (s *Server) handlePostSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.importer.Run(s.now()) // Run in the foreground to make the user wait
	if err != nil {
		s.serverError(w, "Error importing sources", err)
		return
	}
	s.endSession()
	s.renderSourceList(w, fmt.Sprintf("Imported %d new cards from %d sources.", res.Inserted, res.Sources))
}

// endSession drops the running review so the next one sees new cards.
func (s *Server) endSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.End()
}
