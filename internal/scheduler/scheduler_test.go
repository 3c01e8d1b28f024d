package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/config"
	"github.com/qs3c/uslugi_go_server/internal/model"
	"github.com/qs3c/uslugi_go_server/internal/pkg/lock"
	"github.com/qs3c/uslugi_go_server/internal/repository"
	"github.com/qs3c/uslugi_go_server/internal/testutil"
)

func setupScheduler(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	cfg := &config.PromotionConfig{
		TickIntervalMinutes: 15,
		ResetTimezone:       "UTC",
	}

	svc, err := NewService(db, userRepo, paymentRepo, nil, cfg)
	require.NoError(t, err)

	return svc, db
}

func promoteTodayUsed(t *testing.T, db *gorm.DB, id int64) int {
	t.Helper()
	var user model.User
	require.NoError(t, db.First(&user, id).Error)
	return user.PromoteTodayUsed
}

func lastPromotedAt(t *testing.T, db *gorm.DB, id int64) *time.Time {
	t.Helper()
	var user model.User
	require.NoError(t, db.First(&user, id).Error)
	return user.LastPromotedAt
}

func TestRunPromotionTick_RoundRobinScenario(t *testing.T) {
	svc, db := setupScheduler(t)

	tick := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expires := tick.Add(30 * 24 * time.Hour)

	// A has never been promoted, B was promoted an hour ago.
	a := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"),
		testutil.WithPromotion(3, expires))
	b := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"),
		testutil.WithPromotion(3, expires),
		testutil.WithLastPromotedAt(tick.Add(-time.Hour)))

	// First tick: A wins (NULL sorts first).
	require.NoError(t, svc.RunPromotionTick(tick))
	assert.Equal(t, 1, promoteTodayUsed(t, db, a.ID))
	assert.Equal(t, 0, promoteTodayUsed(t, db, b.ID))

	// Second tick: B has the older timestamp now.
	require.NoError(t, svc.RunPromotionTick(tick.Add(15*time.Minute)))
	assert.Equal(t, 1, promoteTodayUsed(t, db, a.ID))
	assert.Equal(t, 1, promoteTodayUsed(t, db, b.ID))

	// Third tick: back to A.
	require.NoError(t, svc.RunPromotionTick(tick.Add(30*time.Minute)))
	assert.Equal(t, 2, promoteTodayUsed(t, db, a.ID))
	assert.Equal(t, 1, promoteTodayUsed(t, db, b.ID))
}

func TestRunPromotionTick_EveryoneVisitedBeforeRepeat(t *testing.T) {
	svc, db := setupScheduler(t)

	tick := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	expires := tick.Add(30 * 24 * time.Hour)

	ids := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		m := testutil.TestMaster(t, db,
			testutil.WithCity("Almaty"),
			testutil.WithPromotion(7, expires))
		ids = append(ids, m.ID)
	}

	// After three ticks every master has exactly one credit consumed.
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RunPromotionTick(tick.Add(time.Duration(i)*15*time.Minute)))
	}
	for _, id := range ids {
		assert.Equal(t, 1, promoteTodayUsed(t, db, id))
	}

	// Three more ticks: a second full round, never a third visit early.
	for i := 3; i < 6; i++ {
		require.NoError(t, svc.RunPromotionTick(tick.Add(time.Duration(i)*15*time.Minute)))
	}
	for _, id := range ids {
		assert.Equal(t, 2, promoteTodayUsed(t, db, id))
	}
}

func TestRunPromotionTick_OneWinnerPerCity(t *testing.T) {
	svc, db := setupScheduler(t)

	tick := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	expires := tick.Add(30 * 24 * time.Hour)

	almaty := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"), testutil.WithPromotion(3, expires))
	astana := testutil.TestMaster(t, db,
		testutil.WithCity("Astana"), testutil.WithPromotion(3, expires))
	bystander := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"), testutil.WithPromotion(3, expires),
		testutil.WithLastPromotedAt(tick.Add(-time.Minute)))

	require.NoError(t, svc.RunPromotionTick(tick))

	// Each city advanced exactly its queue head.
	assert.Equal(t, 1, promoteTodayUsed(t, db, almaty.ID))
	assert.Equal(t, 1, promoteTodayUsed(t, db, astana.ID))
	assert.Equal(t, 0, promoteTodayUsed(t, db, bystander.ID))
}

func TestRunPromotionTick_SkipsExhaustedAndExpired(t *testing.T) {
	svc, db := setupScheduler(t)

	tick := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	exhausted := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"),
		testutil.WithPromotion(3, tick.Add(24*time.Hour)),
		testutil.WithDailyUsed(3))
	expired := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"),
		testutil.WithPromotion(3, tick.Add(-time.Minute)))

	require.NoError(t, svc.RunPromotionTick(tick))

	assert.Equal(t, 3, promoteTodayUsed(t, db, exhausted.ID))
	assert.Equal(t, 0, promoteTodayUsed(t, db, expired.ID))
	assert.Nil(t, lastPromotedAt(t, db, exhausted.ID))
}

func TestRunPromotionTick_DeactivatesExpiredPayments(t *testing.T) {
	svc, db := setupScheduler(t)

	tick := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	master := testutil.TestMaster(t, db)
	payment := testutil.TestPromotePayment(t, db, master.ID,
		testutil.WithWindow(tick.Add(-48*time.Hour), tick.Add(-time.Second)))

	require.NoError(t, svc.RunPromotionTick(tick))

	var updated model.Payment
	require.NoError(t, db.First(&updated, payment.ID).Error)
	assert.False(t, updated.IsActive)
}

func TestRunDailyReset_Idempotent(t *testing.T) {
	svc, db := setupScheduler(t)

	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	expires := now.Add(24 * time.Hour)

	m1 := testutil.TestMaster(t, db, testutil.WithPromotion(3, expires), testutil.WithDailyUsed(3))
	m2 := testutil.TestMaster(t, db, testutil.WithPromotion(5, expires), testutil.WithDailyUsed(2))
	client := testutil.TestClient(t, db)

	require.NoError(t, svc.RunDailyReset(now))
	require.NoError(t, svc.RunDailyReset(now))

	assert.Equal(t, 0, promoteTodayUsed(t, db, m1.ID))
	assert.Equal(t, 0, promoteTodayUsed(t, db, m2.ID))
	_ = client

	// A reset does not touch rotation timestamps or quotas.
	var user model.User
	require.NoError(t, db.First(&user, m1.ID).Error)
	require.NotNil(t, user.PromoteTimesPerDay)
	assert.Equal(t, 3, *user.PromoteTimesPerDay)
}

func setupLockedScheduler(t *testing.T) (*Service, *gorm.DB, *lock.Locker, *miniredis.Miniredis) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	locker := lock.NewLocker(client, TickLockKey, TickLockTTL)

	svc, err := NewService(db,
		repository.NewUserRepository(db),
		repository.NewPaymentRepository(db),
		locker,
		&config.PromotionConfig{TickIntervalMinutes: 15, ResetTimezone: "UTC"})
	require.NoError(t, err)

	return svc, db, locker, mr
}

func TestTick_ConsecutiveTicksAllRun(t *testing.T) {
	svc, db, _, mr := setupLockedScheduler(t)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	master := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"),
		testutil.WithPromotion(3, start.Add(30*24*time.Hour)))

	// A finished tick must leave no lock behind for the next interval to
	// trip over, no matter how closely the two ticks follow each other.
	for i := 0; i < 3; i++ {
		now := start.Add(time.Duration(i) * 15 * time.Minute)
		svc.now = func() time.Time { return now }
		svc.tick()

		assert.Equal(t, i+1, promoteTodayUsed(t, db, master.ID))
		assert.False(t, mr.Exists(TickLockKey), "lock must be released after the tick")
	}
}

func TestTick_SkipsWhileAnotherInstanceHoldsLock(t *testing.T) {
	svc, db, locker, _ := setupLockedScheduler(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	master := testutil.TestMaster(t, db,
		testutil.WithCity("Almaty"),
		testutil.WithPromotion(3, now.Add(30*24*time.Hour)))

	ok, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	svc.now = func() time.Time { return now }
	svc.tick()
	assert.Equal(t, 0, promoteTodayUsed(t, db, master.ID))

	// Once the holder releases, the next tick proceeds.
	require.NoError(t, locker.Release(context.Background()))
	svc.tick()
	assert.Equal(t, 1, promoteTodayUsed(t, db, master.ID))
}

func TestService_StartAndStop(t *testing.T) {
	svc, _ := setupScheduler(t)

	svc.Start()
	time.Sleep(10 * time.Millisecond)
	svc.Stop()
}

func TestService_UntilNextMidnight(t *testing.T) {
	svc, _ := setupScheduler(t)

	now := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, svc.untilNextMidnight(now))

	justAfter := time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, 24*time.Hour-time.Second, svc.untilNextMidnight(justAfter))
}

func TestNewService_DefaultsAndBadTimezone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	svc, err := NewService(db, userRepo, paymentRepo, nil, &config.PromotionConfig{})
	require.NoError(t, err)
	assert.Equal(t, defaultTickInterval, svc.tickInterval)

	_, err = NewService(db, userRepo, paymentRepo, nil, &config.PromotionConfig{
		ResetTimezone: "Not/AZone",
	})
	assert.Error(t, err)
}
