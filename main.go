package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/reviewcore/internal/cache"
	"github.com/example/reviewcore/internal/config"
	"github.com/example/reviewcore/internal/database"
	"github.com/example/reviewcore/internal/difficulty"
	"github.com/example/reviewcore/internal/forgetting"
	"github.com/example/reviewcore/internal/importer"
	"github.com/example/reviewcore/internal/logger"
	"github.com/example/reviewcore/internal/orchestrator"
	"github.com/example/reviewcore/internal/scheduling"
	"github.com/example/reviewcore/internal/service"
)

func main() {
	importPath := flag.String("import", "", "import problems from the given Excel/CSV file and exit")
	flag.Parse()

	cfg := config.Load()

	appLog, err := logger.New(cfg.Mode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	store, err := database.Connect(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	users := database.NewUserRepository(store)
	problems := database.NewProblemRepository(store)
	schedules := database.NewScheduleRepository(store)
	curveProfiles := database.NewCurveProfileRepository(store)
	difficultyProfiles := database.NewDifficultyProfileRepository(store)
	feedback := database.NewFeedbackRepository(store)
	adjustments := database.NewAdjustmentRepository(store)

	if *importPath != "" {
		im := importer.New(problems, appLog)
		result, err := im.Import(ctx, importer.DefaultConfig(*importPath))
		if err != nil {
			appLog.Fatal("import failed", "file", *importPath, "error", err)
		}
		for _, rowErr := range result.Errors {
			appLog.Warn("import row rejected", "detail", rowErr)
		}
		appLog.Info("import done", "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
		return
	}

	results, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		appLog.Fatal("failed to connect to redis", "error", err)
	}
	defer results.Close()

	calc := forgetting.NewCalculator()
	predictor := difficulty.NewPredictor(problems, difficultyProfiles, feedback, adjustments, appLog)
	outcomes := service.NewOutcomeSource(feedback)
	window := scheduling.TimeWindow{StartHour: cfg.WindowStartHour, EndHour: cfg.WindowEndHour}
	scheduler := scheduling.NewScheduler(schedules, curveProfiles, outcomes, calc, appLog, window)

	svc := service.New(scheduler, predictor, schedules, users, results, appLog)
	svc.ScheduleTTL = cfg.ScheduleTTL

	jobs := orchestrator.New(users, schedules, scheduler, results, appLog)
	jobs.ScheduleTTL = cfg.ScheduleTTL
	jobs.StaleAfter = cfg.StaleAfter
	jobs.BatchPause = cfg.BatchPause
	jobs.SetBatchSize(cfg.BatchSize)
	jobs.Start()

	appLog.Info("review engine started", "mode", cfg.Mode, "db", cfg.DBType)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.Info("shutting down", "signal", sig.String())

	jobs.Stop()
	cancel()
}
