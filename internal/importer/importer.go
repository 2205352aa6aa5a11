package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/gitsource"
	"github.com/conorfennell/snapcard/internal/parser"
	"github.com/conorfennell/snapcard/internal/storage"
)

// Store is the storage the importer reconciles sources into.
type Store interface {
	GetAllSources() ([]storage.Source, error)
	FindSourceByPath(path string) (*storage.Source, error)
	InsertSource(path, sourceType string) (int64, error)
	InsertCards(cards []domain.Card, sourceID int64) (int, error)
	UpdateSourceLastScanned(sourceID int64, at time.Time) error
}

// SyncFunc brings the checkout of a git source at localPath up to date.
type SyncFunc func(url, localPath string) error

// Result summarises an import run.
type Result struct {
	Sources  int
	Parsed   int
	Inserted int
	Failed   int
}

// Importer turns the Q/A text files of registered sources into new cards.
// Cards already in the store are left alone, so re-importing never resets
// review progress.
type Importer struct {
	store    Store
	reposDir string
	sync     SyncFunc
	log      *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithSync replaces the git clone/pull step.
func WithSync(fn SyncFunc) Option {
	return func(im *Importer) { im.sync = fn }
}

// WithLogger sets the importer's logger.
func WithLogger(log *slog.Logger) Option {
	return func(im *Importer) { im.log = log }
}

// New returns an Importer that checks git sources out under reposDir.
func New(store Store, reposDir string, opts ...Option) *Importer {
	im := &Importer{
		store:    store,
		reposDir: reposDir,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.sync == nil {
		im.sync = gitsource.Syncer{Logger: im.log}.Sync
	}
	return im
}

// AddSource registers a local directory or git URL as a card source.
// Local paths are stored as absolute paths.
func (im *Importer) AddSource(path string) (storage.Source, error) {
	sourceType := storage.SourceGit
	if !gitsource.IsURL(path) {
		sourceType = storage.SourceLocal
		abs, err := filepath.Abs(path)
		if err != nil {
			return storage.Source{}, fmt.Errorf("failed to resolve source path %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return storage.Source{}, fmt.Errorf("failed to stat source path %s: %w", abs, err)
		}
		if !info.IsDir() {
			return storage.Source{}, fmt.Errorf("source path %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := im.store.FindSourceByPath(path)
	if err != nil {
		return storage.Source{}, err
	}
	if existing != nil {
		im.log.Info("Source already registered", "id", existing.ID, "path", path)
		return *existing, nil
	}

	id, err := im.store.InsertSource(path, sourceType)
	if err != nil {
		return storage.Source{}, err
	}
	im.log.Info("Source added", "id", id, "type", sourceType, "path", path)
	return storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// Run imports every registered source. A failing source is logged and
// skipped; Run only fails when the sources cannot be listed.
func (im *Importer) Run(now time.Time) (Result, error) {
	im.log.Info("Starting import for all sources")
	sources, err := im.store.GetAllSources()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get sources: %w", err)
	}

	var res Result
	if len(sources) == 0 {
		im.log.Info("No sources configured. Add one with: snapcard add-source <path/or/url.git>")
		return res, nil
	}

	for _, source := range sources {
		res.Sources++
		parsed, inserted, err := im.ImportSource(source, now)
		res.Parsed += parsed
		res.Inserted += inserted
		if err != nil {
			res.Failed++
			im.log.Error("Failed to import source", "id", source.ID, "path", source.Path, "error", err)
		}
	}
	im.log.Info("Import complete",
		"sources", res.Sources,
		"parsed_cards", res.Parsed,
		"new_cards", res.Inserted,
		"failed_sources", res.Failed,
	)
	return res, nil
}

// ImportSource syncs a single source and inserts the cards it holds.
// It returns the number of pairs parsed and of cards newly inserted.
func (im *Importer) ImportSource(source storage.Source, now time.Time) (parsed, inserted int, err error) {
	im.log.Info("Importing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	switch source.Type {
	case storage.SourceLocal:
	case storage.SourceGit:
		dir, err = gitsource.LocalPath(im.reposDir, source.Path)
		if err != nil {
			return 0, 0, err
		}
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return 0, 0, fmt.Errorf("failed to create repos directory: %w", err)
		}
		if err := im.sync(source.Path, dir); err != nil {
			return 0, 0, err
		}
	default:
		return 0, 0, fmt.Errorf("unknown source type %q", source.Type)
	}

	pairs, err := im.scanDir(dir)
	if err != nil {
		return 0, 0, err
	}

	inserted, err = im.store.InsertCards(domain.NewCards(pairs, now), source.ID)
	if err != nil {
		return len(pairs), 0, err
	}

	if err := im.store.UpdateSourceLastScanned(source.ID, now); err != nil {
		im.log.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	im.log.Info("Source imported",
		"path", dir,
		"parsed_cards", len(pairs),
		"new_cards", inserted,
	)
	return len(pairs), inserted, nil
}

// scanDir parses every card file below dir. Files that fail to parse are
// logged and skipped.
func (im *Importer) scanDir(dir string) ([]domain.Pair, error) {
	var pairs []domain.Pair
	var parseErrors []error

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir // .git and friends
			}
			return nil
		}
		if !isCardFile(d.Name()) {
			return nil
		}
		filePairs, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		pairs = append(pairs, filePairs...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}
	if len(parseErrors) > 0 {
		im.log.Warn("Some files could not be parsed", "path", dir, "error", errors.Join(parseErrors...))
	}
	return pairs, nil
}

func isCardFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt":
		return true
	}
	return false
}
