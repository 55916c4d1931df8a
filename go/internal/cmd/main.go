package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/gateway"
	"github.com/btktNo012/MysteryMakerProject/go/internal/room"
	"github.com/btktNo012/MysteryMakerProject/go/internal/scenario"
	"github.com/btktNo012/MysteryMakerProject/go/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	scenarios, err := scenario.Load(config.Scenario.File, config.Scenario.SkillInfoFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scenario")
	}
	log.Info().Str("title", scenarios.Scenario.Title).Int("pc_count", scenarios.PCCount()).Msg("scenario loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	var repo room.Repository
	if dbConfig := loadDatabaseConfig(); dbConfig.URL != "" || os.Getenv("DB_HOST") != "" {
		pool, err := setupDatabase(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up database")
		}
		defer pool.Close()

		pgRepo := room.NewPostgresRepository(pool)
		if err := pgRepo.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		repo = pgRepo
	} else {
		log.Warn().Msg("no database configured, using in-memory room store")
		repo = room.NewMemoryRepository(clock)
	}

	app := room.NewApp(repo, scenarios, clock, room.Config{
		ReadingExtension: config.readingExtension(),
		DisconnectGrace:  config.disconnectGrace(),
	})

	manager := gateway.NewManager(app, gateway.DefaultConnectionConfig())
	app.SetBroadcaster(manager)

	sched := scheduler.New(app, repo, clock)
	app.SetScheduler(sched)
	sched.RecoverAll(ctx)

	go manager.Start(ctx)
	go scheduler.RunSweeper(ctx, app, clock, config.cleanupInterval(), config.inactivityTimeout())

	if err := runServer(ctx, config, manager); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
