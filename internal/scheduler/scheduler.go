package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/config"
	"github.com/qs3c/uslugi_go_server/internal/pkg/lock"
	"github.com/qs3c/uslugi_go_server/internal/repository"
)

const (
	defaultTickInterval = 15 * time.Minute
	defaultResetTZ      = "Asia/Almaty"
)

// TickLockKey and TickLockTTL configure the cross-instance tick lock. The TTL
// only needs to outlive a single tick's runtime — the lock is released when
// the tick finishes, and the TTL is just the bound on how long a crashed
// holder can block the other instances.
const (
	TickLockKey = "promotion:tick-lock"
	TickLockTTL = time.Minute
)

// Service runs the two background jobs: the fairness-queue promotion tick and
// the daily counter reset. Both are exposed as pure functions of the current
// time so tests and the one-shot runner can drive them with a fake clock.
type Service struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentRepository
	locker      *lock.Locker

	tickInterval time.Duration
	resetLoc     *time.Location

	now      func() time.Time
	running  int32
	stopChan chan struct{}
}

func NewService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	locker *lock.Locker,
	cfg *config.PromotionConfig,
) (*Service, error) {
	interval := defaultTickInterval
	if cfg != nil && cfg.TickIntervalMinutes > 0 {
		interval = time.Duration(cfg.TickIntervalMinutes) * time.Minute
	}

	tz := defaultResetTZ
	if cfg != nil && cfg.ResetTimezone != "" {
		tz = cfg.ResetTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}

	return &Service{
		db:           db,
		userRepo:     userRepo,
		paymentRepo:  paymentRepo,
		locker:       locker,
		tickInterval: interval,
		resetLoc:     loc,
		now:          time.Now,
		stopChan:     make(chan struct{}),
	}, nil
}

// Start launches the background timers.
func (s *Service) Start() {
	go s.runPromotionTicks()
	go s.runDailyReset()
	log.Printf("Scheduler started (tick every %s, reset at midnight %s)", s.tickInterval, s.resetLoc)
}

// Stop stops the background timers.
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Scheduler stopped")
}

func (s *Service) runPromotionTicks() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick guards RunPromotionTick against overlap: a long-running tick makes the
// next trigger a no-op instead of a concurrent run.
func (s *Service) tick() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		log.Println("promotion tick: previous tick still running, skipping")
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	if s.locker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ok, err := s.locker.Acquire(ctx)
		cancel()
		if err != nil {
			log.Printf("promotion tick: lock error: %v", err)
			return
		}
		if !ok {
			log.Println("promotion tick: another instance holds the lock, skipping")
			return
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.locker.Release(ctx); err != nil {
				log.Printf("promotion tick: lock release failed: %v", err)
			}
		}()
	}

	if err := s.RunPromotionTick(s.now()); err != nil {
		log.Printf("promotion tick failed: %v", err)
	}
}

// RunPromotionTick advances the fairness queue once: for every city with an
// eligible master, the longest-unpromoted candidate (never-promoted first)
// gets its top slot refreshed and one daily credit consumed. Each city
// advances in its own transaction; a failing city is logged and the tick
// moves on, so one broken partition cannot starve the rest.
func (s *Service) RunPromotionTick(now time.Time) error {
	if n, err := s.paymentRepo.DeactivateExpired(now); err != nil {
		log.Printf("promotion tick: expiry sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("promotion tick: deactivated %d expired payment(s)", n)
	}

	cities, err := s.userRepo.DistinctPromotedCities()
	if err != nil {
		return err
	}

	advanced := 0
	for _, city := range cities {
		if err := s.advanceCity(city, now); err != nil {
			log.Printf("promotion tick: city %q failed: %v", city, err)
			continue
		}
		advanced++
	}

	log.Printf("promotion tick: processed %d/%d cities at %s", advanced, len(cities), now.UTC().Format(time.RFC3339))
	return nil
}

func (s *Service) advanceCity(city string, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)

		head, err := repo.NextPromotionCandidate(city, now)
		if err != nil {
			return err
		}
		if head == nil {
			return nil
		}

		ok, err := repo.AdvancePromotion(head.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// The guarded update lost a race with another advancement;
			// the master keeps its remaining quota intact.
			log.Printf("promotion tick: advancement skipped for master %d in %q", head.ID, city)
			return nil
		}

		log.Printf("promotion tick: promoted master %d in %q", head.ID, city)
		return nil
	})
}

func (s *Service) runDailyReset() {
	timer := time.NewTimer(s.untilNextMidnight(s.now()))
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-timer.C:
			if err := s.RunDailyReset(s.now()); err != nil {
				log.Printf("daily reset failed: %v", err)
			}
			timer.Reset(s.untilNextMidnight(s.now()))
		}
	}
}

// RunDailyReset zeroes every master's daily promotion counter. Idempotent:
// running it twice in one operational day leaves the same state.
func (s *Service) RunDailyReset(now time.Time) error {
	log.Printf("daily reset: zeroing promotion counters at %s", now.In(s.resetLoc).Format(time.RFC3339))
	if err := s.userRepo.ResetAllDailyCounters(); err != nil {
		return err
	}
	log.Println("daily reset: completed")
	return nil
}

// untilNextMidnight computes the wait until the next operational-day boundary
// in the reset timezone.
func (s *Service) untilNextMidnight(now time.Time) time.Duration {
	local := now.In(s.resetLoc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.resetLoc)
	return next.Sub(local)
}
