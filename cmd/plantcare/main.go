package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/vbonduro/plantcare/internal/advisor"
	"github.com/vbonduro/plantcare/internal/advisor/claude"
	"github.com/vbonduro/plantcare/internal/advisor/gbif"
	"github.com/vbonduro/plantcare/internal/advisor/openmeteo"
	"github.com/vbonduro/plantcare/internal/config"
	"github.com/vbonduro/plantcare/internal/db"
	"github.com/vbonduro/plantcare/internal/filestore"
	"github.com/vbonduro/plantcare/internal/filestore/cached"
	"github.com/vbonduro/plantcare/internal/filestore/local"
	"github.com/vbonduro/plantcare/internal/logging"
	"github.com/vbonduro/plantcare/internal/portability"
	"github.com/vbonduro/plantcare/internal/repository"
	"github.com/vbonduro/plantcare/internal/service"
	"github.com/vbonduro/plantcare/internal/store"
	"github.com/vbonduro/plantcare/internal/web"
)

const usage = `usage: plantcare [command]

commands:
  serve              run the HTTP API (default)
  export [file]      write a snapshot to file or stdout
  import <file>      load a snapshot ("-" reads stdin)
  calendar [file]    write the iCalendar feed to file or stdout
  prune              delete photos no plant references
`

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	code := 0
	if err := run(context.Background(), os.Args[1:], cfg, database, logger); err != nil {
		logger.Error("command failed", "error", err)
		code = 1
	}
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	os.Exit(code)
}

// app holds the components every command is built from.
type app struct {
	repo    *repository.Repository
	service *service.PlantService
	porter  *portability.Porter
}

func newApp(cfg *config.Config, database *sql.DB, logger *slog.Logger) (*app, error) {
	files, err := newFileStore(cfg, database, logger)
	if err != nil {
		return nil, err
	}
	settings := store.NewSettingsStore(database)
	repo := repository.New(store.NewPlantStore(database), files, settings, logger)
	return &app{
		repo:    repo,
		service: service.NewPlantService(repo, settings, newAdvisors(cfg, logger), cfg.CascadeFileDelete, logger),
		porter:  portability.New(repo, logger),
	}, nil
}

func run(ctx context.Context, args []string, cfg *config.Config, database *sql.DB, logger *slog.Logger) error {
	a, err := newApp(cfg, database, logger)
	if err != nil {
		return err
	}

	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		return web.NewServer(a.service, a.porter, logger).ListenAndServe(cfg.ListenAddr)
	case "export":
		snap, err := a.porter.Export(ctx)
		if err != nil {
			return err
		}
		return writeOutput(args, func(w io.Writer) error { return portability.Encode(w, snap) })
	case "import":
		if len(args) != 1 {
			return fmt.Errorf("import needs a snapshot file\n%s", usage)
		}
		snap, err := readSnapshot(args[0])
		if err != nil {
			return err
		}
		stats, err := a.porter.Import(ctx, snap)
		if err != nil {
			return err
		}
		logger.Info("import finished", "plants", stats.Plants, "photos", stats.Photos, "skipped", stats.Skipped)
		return nil
	case "calendar":
		ics, err := a.service.Calendar(ctx)
		if err != nil {
			return err
		}
		return writeOutput(args, func(w io.Writer) error {
			_, err := io.WriteString(w, ics)
			return err
		})
	case "prune":
		n, err := a.repo.PruneOrphanFiles(ctx)
		if err != nil {
			return err
		}
		logger.Info("prune finished", "removed", n)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func newFileStore(cfg *config.Config, database *sql.DB, logger *slog.Logger) (filestore.FileStore, error) {
	var backend filestore.FileStore
	switch cfg.FileBackend {
	case "local":
		fs, err := local.NewLocalFileStore(cfg.FileLocalPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		logger.Info("using local file backend", "path", cfg.FileLocalPath)
		backend = fs
	default:
		backend = store.NewFileStore(database, logger)
	}
	if cfg.FileCacheSize <= 0 {
		return backend, nil
	}
	c, err := cached.New(backend, cfg.FileCacheSize, cached.DefaultMaxBlobBytes, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file cache: %w", err)
	}
	return c, nil
}

func newAdvisors(cfg *config.Config, logger *slog.Logger) service.Advisors {
	switch cfg.AdvisorBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when ADVISOR_BACKEND=claude")
			return service.Advisors{}
		}
		logger.Info("using Claude advisor backend")
		c := claude.NewClaudeAdvisor(cfg.ClaudeAPIKey, cfg.ClaudeModel)
		return service.Advisors{
			Taxonomy: advisor.NewMultiSuggester(logger, c, gbif.NewGBIFSuggester(cfg.GBIFURL)),
			Planner:  c,
			Weather:  openmeteo.NewOpenMeteoLookup(cfg.WeatherURL),
		}
	case "open":
		logger.Info("using open data advisor backend")
		return service.Advisors{
			Taxonomy: gbif.NewGBIFSuggester(cfg.GBIFURL),
			Weather:  openmeteo.NewOpenMeteoLookup(cfg.WeatherURL),
		}
	default:
		return service.Advisors{}
	}
}

// writeOutput writes to the file named in args, or stdout when none is given.
func writeOutput(args []string, write func(io.Writer) error) error {
	if len(args) == 0 || args[0] == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readSnapshot(path string) (*portability.Snapshot, error) {
	if path == "-" {
		return portability.Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return portability.Decode(f)
}
