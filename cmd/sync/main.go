package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/solara-medspa/backend-go/internal/boulevard"
	"github.com/solara-medspa/backend-go/internal/cache"
	"github.com/solara-medspa/backend-go/internal/config"
	"github.com/solara-medspa/backend-go/internal/domain"
	"github.com/solara-medspa/backend-go/internal/repository"
	"github.com/solara-medspa/backend-go/internal/repository/postgres"
	"github.com/solara-medspa/backend-go/internal/salesync"
	"github.com/solara-medspa/backend-go/internal/storage"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "sync",
		Usage: "Pull Boulevard report exports into the local database",
		Commands: []*cli.Command{
			{
				Name:  "sales",
				Usage: "Sync retail product sales from the configured sales report",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Parse and normalize without writing to the database",
					},
					&cli.BoolFlag{
						Name:  "full-refresh",
						Usage: "Wipe synced sales and catalog rows before writing",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Export resolution mode: latest or create",
						Value: "latest",
					},
					&cli.StringFlag{
						Name:  "file-url",
						Usage: "Skip export resolution and download this URL directly",
					},
				},
				Action: runSalesSync,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSalesSync(c *cli.Context) error {
	mode := domain.SyncMode(c.String("mode"))
	if mode != domain.SyncModeLatest && mode != domain.SyncModeCreate {
		return fmt.Errorf("mode must be latest or create, got %q", mode)
	}

	cfg := config.Load()

	db, err := sqlx.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	syncCache := cache.NewNoopSyncCache()

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(cfg.Archive)
		if err != nil {
			log.Printf("warning: archive storage unavailable: %v", err)
			archive = nil
		}
	}

	blvd := boulevard.NewClient(cfg.Boulevard)
	resolver := boulevard.NewResolver(
		blvd,
		cfg.Boulevard.SalesReportID,
		cfg.Sync.PollAttempts,
		time.Duration(cfg.Sync.PollIntervalSec)*time.Second,
	)

	orchestrator := salesync.NewOrchestrator(
		resolver,
		blvd,
		repository.NewSalesRepository(postgres.Wrap(db), cfg.Sync.ChunkSize),
		repository.NewCatalogRepository(db),
		repository.NewClientsRepository(db),
		repository.NewStaffRepository(db),
		syncCache,
		archive,
		cfg.Sync,
	)

	summary, err := orchestrator.Sync(c.Context, domain.SyncOptions{
		FileURL:     c.String("file-url"),
		DryRun:      c.Bool("dry-run"),
		Mode:        mode,
		FullRefresh: c.Bool("full-refresh"),
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
