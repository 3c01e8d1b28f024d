package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/qs3c/uslugi_go_server/config"
	"github.com/qs3c/uslugi_go_server/internal/database"
	"github.com/qs3c/uslugi_go_server/internal/repository"
	"github.com/qs3c/uslugi_go_server/internal/scheduler"
)

// One-shot job runner for ops use (system cron, manual recovery).

var job = flag.String("job", "tick", "Job to run: tick (promotion advance) or reset (daily counters)")

func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// No redis lock here: the one-shot runner is driven by an external cron
	// that already serializes invocations.
	jobs, err := scheduler.NewService(db, userRepo, paymentRepo, nil, &cfg.Promotion)
	if err != nil {
		log.Fatalf("Failed to init scheduler: %v", err)
	}

	now := time.Now()
	switch *job {
	case "tick":
		if err := jobs.RunPromotionTick(now); err != nil {
			log.Fatalf("Promotion tick failed: %v", err)
		}
	case "reset":
		if err := jobs.RunDailyReset(now); err != nil {
			log.Fatalf("Daily reset failed: %v", err)
		}
	default:
		log.Fatalf("Unknown job %q (want tick or reset)", *job)
	}
}
