package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/snapcard/internal/config"
	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/generate"
	"github.com/conorfennell/snapcard/internal/importer"
	"github.com/conorfennell/snapcard/internal/progress"
	"github.com/conorfennell/snapcard/internal/session"
	"github.com/conorfennell/snapcard/internal/storage"
	"github.com/conorfennell/snapcard/internal/web"
)

const usage = `Usage: snapcard <command> [flags]

Commands:
  serve                 Start the web study UI
  study                 Review due cards in the terminal
  stats                 Print progress statistics
  import                Import cards from all registered sources
  add-source <path|url> Register a directory or git repository as a card source
  generate [file]       Generate cards from text (a file or stdin) with the OpenAI API

Run 'snapcard <command> --help' for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg config.Config
	db  *storage.DB
	log *slog.Logger
}

func run(command string, args []string) error {
	switch command {
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	case "serve", "study", "stats", "import", "add-source", "generate":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	fs := pflag.NewFlagSet("snapcard "+command, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	log := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(log)

	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Debug("Database opened", "path", cfg.DB.Path)

	a := &app{cfg: cfg, db: db, log: log}
	switch command {
	case "serve":
		return a.serve()
	case "study":
		return runStudy(session.New(db, session.WithLogger(log)), os.Stdin, os.Stdout, time.Now)
	case "stats":
		return a.stats(os.Stdout)
	case "import":
		_, err := a.importer().Run(time.Now())
		return err
	case "add-source":
		if fs.NArg() != 1 {
			return errors.New("add-source takes exactly one path or git URL")
		}
		_, err := a.importer().AddSource(fs.Arg(0))
		return err
	default: // generate
		return a.generate(fs.Args())
	}
}

func (a *app) importer() *importer.Importer {
	return importer.New(a.db, a.cfg.Sources.ReposDir, importer.WithLogger(a.log))
}

// generator returns nil when no API key is configured.
func (a *app) generator() generate.Generator {
	key, err := a.cfg.OpenAI.Key()
	if err != nil {
		return nil
	}
	return generate.NewOpenAI(key, a.cfg.OpenAI.BaseURL, a.cfg.OpenAI.Model)
}

func (a *app) serve() error {
	opts := []web.Option{web.WithLogger(a.log)}
	if gen := a.generator(); gen != nil {
		opts = append(opts, web.WithGenerator(gen))
	} else {
		a.log.Info("No OpenAI API key configured, card generation is disabled")
	}
	srv, err := web.NewServer(a.db, a.importer(), opts...)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting server", "addr", a.cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (a *app) stats(out io.Writer) error {
	now := time.Now()
	cards, err := a.db.LoadAllCards()
	if err != nil {
		return err
	}
	streak, err := a.db.LoadStreakState()
	if err != nil {
		return err
	}
	printStats(out, progress.Summarize(cards, streak, now))
	return nil
}

func printStats(out io.Writer, s progress.Stats) {
	fmt.Fprintf(out, "Total cards:  %d\n", s.TotalCards)
	fmt.Fprintf(out, "Mastered:     %d (%d%%)\n", s.MasteredCards, s.MasteryPercent())
	fmt.Fprintf(out, "Learning:     %d\n", s.LearningCards())
	fmt.Fprintf(out, "Due now:      %d\n", s.DueCards)
	fmt.Fprintf(out, "Completion:   %.1f%%\n", s.CompletionRate())
	fmt.Fprintf(out, "Study streak: %d days (%s)\n", s.StudyStreak, progress.StreakTier(s.StudyStreak))
	if badges := s.Badges(); len(badges) > 0 {
		names := make([]string, len(badges))
		for i, b := range badges {
			names[i] = string(b)
		}
		fmt.Fprintf(out, "Achievements: %s\n", strings.Join(names, ", "))
	}
}

func (a *app) generate(args []string) error {
	gen := a.generator()
	if gen == nil {
		return config.ErrNoAPIKey
	}

	var in io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	pairs, err := gen.Generate(ctx, string(text))
	if err != nil {
		return err
	}

	cards := domain.NewCards(pairs, time.Now())
	inserted, err := a.db.InsertCards(cards, 0)
	if err != nil {
		return err
	}
	for _, c := range cards {
		fmt.Printf("Q: %s\nA: %s\n\n", c.Question, c.Answer)
	}
	a.log.Info("Generated cards", "generated", len(cards), "new_cards", inserted)
	return nil
}
