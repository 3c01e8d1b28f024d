package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/config"
	"github.com/qs3c/uslugi_go_server/internal/model"
	"github.com/qs3c/uslugi_go_server/internal/model/dto"
	"github.com/qs3c/uslugi_go_server/internal/repository"
	"github.com/qs3c/uslugi_go_server/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Promotion: config.PromotionConfig{
			Packages: []config.PromotionPackage{
				{TimesPerDay: 3, Amount: 1800, Name: "Top boost 3 times/day"},
				{TimesPerDay: 5, Amount: 3250, Name: "Top boost 5 times/day"},
				{TimesPerDay: 7, Amount: 4890, Name: "Top boost 7 times/day"},
			},
			Banks:               []string{"Kaspi", "Halyk", "Forte"},
			DurationDays:        30,
			TickIntervalMinutes: 15,
			ResetTimezone:       "UTC",
			ExtraRequestAmount:  350,
		},
	}
}

func setupPromotionService(t *testing.T) (*PromotionService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notificationService := NewNotificationService(notificationRepo, nil)

	return NewPromotionService(userRepo, paymentRepo, notificationService, testConfig()), db
}

func TestPromotionService_Purchase(t *testing.T) {
	svc, db := setupPromotionService(t)

	master := testutil.TestMaster(t, db)

	resp, err := svc.Purchase(master.ID, &dto.PromoteRequest{TimesPerDay: 5, Bank: "Kaspi"})
	require.NoError(t, err)
	assert.Equal(t, float64(3250), resp.Amount)
	assert.NotZero(t, resp.PaymentID)

	var payment model.Payment
	require.NoError(t, db.First(&payment, resp.PaymentID).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.False(t, payment.IsActive)
	assert.Nil(t, payment.StartDate)
	assert.Nil(t, payment.EndDate)
	require.NotNil(t, payment.TimesPerDay)
	assert.Equal(t, 5, *payment.TimesPerDay)
}

func TestPromotionService_Purchase_Validation(t *testing.T) {
	svc, db := setupPromotionService(t)

	master := testutil.TestMaster(t, db)
	client := testutil.TestClient(t, db)

	_, err := svc.Purchase(client.ID, &dto.PromoteRequest{TimesPerDay: 3, Bank: "Kaspi"})
	assert.ErrorIs(t, err, ErrMasterOnly)

	_, err = svc.Purchase(master.ID, &dto.PromoteRequest{TimesPerDay: 4, Bank: "Kaspi"})
	assert.ErrorIs(t, err, ErrUnknownPackage)

	_, err = svc.Purchase(master.ID, &dto.PromoteRequest{TimesPerDay: 3, Bank: "Sber"})
	assert.ErrorIs(t, err, ErrUnknownBank)
}

func TestPromotionService_Purchase_ConflictWithActivePromotion(t *testing.T) {
	svc, db := setupPromotionService(t)

	master := testutil.TestMaster(t, db)
	testutil.TestPromotePayment(t, db, master.ID)

	var before int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&before).Error)

	_, err := svc.Purchase(master.ID, &dto.PromoteRequest{TimesPerDay: 5, Bank: "Kaspi"})
	assert.ErrorIs(t, err, ErrActivePromotionExists)

	// The rejected purchase must not leave a record behind.
	var after int64
	require.NoError(t, db.Model(&model.Payment{}).Count(&after).Error)
	assert.Equal(t, before, after)
}

func TestPromotionService_Confirm(t *testing.T) {
	svc, db := setupPromotionService(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	master := testutil.TestMaster(t, db)
	resp, err := svc.Purchase(master.ID, &dto.PromoteRequest{TimesPerDay: 3, Bank: "Halyk"})
	require.NoError(t, err)

	info, err := svc.Confirm(master.ID, resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, string(model.PaymentStatusPaid), info.Status)
	assert.True(t, info.IsActive)

	var payment model.Payment
	require.NoError(t, db.First(&payment, resp.PaymentID).Error)
	require.NotNil(t, payment.StartDate)
	require.NotNil(t, payment.EndDate)
	assert.True(t, payment.StartDate.Equal(now))
	assert.True(t, payment.EndDate.Equal(now.Add(30*24*time.Hour)))

	var updated model.User
	require.NoError(t, db.First(&updated, master.ID).Error)
	assert.True(t, updated.IsPromoted)
	require.NotNil(t, updated.PromoteTimesPerDay)
	assert.Equal(t, 3, *updated.PromoteTimesPerDay)
	assert.Equal(t, 0, updated.PromoteTodayUsed)
	require.NotNil(t, updated.PromotionExpiration)
	assert.True(t, updated.PromotionExpiration.Equal(*payment.EndDate))

	// The owner gets the "promotion active" notification.
	var notifications []model.Notification
	require.NoError(t, db.Where("user_id = ?", master.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "Payment confirmed")
}

func TestPromotionService_Confirm_AlreadyPaidIsNoop(t *testing.T) {
	svc, db := setupPromotionService(t)

	master := testutil.TestMaster(t, db)
	resp, err := svc.Purchase(master.ID, &dto.PromoteRequest{TimesPerDay: 3, Bank: "Kaspi"})
	require.NoError(t, err)

	first, err := svc.Confirm(master.ID, resp.PaymentID)
	require.NoError(t, err)

	second, err := svc.Confirm(master.ID, resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, first.StartDate, second.StartDate)
	assert.Equal(t, first.EndDate, second.EndDate)

	var notifications []model.Notification
	require.NoError(t, db.Where("user_id = ?", master.ID).Find(&notifications).Error)
	assert.Len(t, notifications, 1, "re-confirming must not notify again")
}

func TestPromotionService_Confirm_NotFound(t *testing.T) {
	svc, db := setupPromotionService(t)

	master := testutil.TestMaster(t, db)
	other := testutil.TestMaster(t, db)
	resp, err := svc.Purchase(master.ID, &dto.PromoteRequest{TimesPerDay: 3, Bank: "Kaspi"})
	require.NoError(t, err)

	_, err = svc.Confirm(master.ID, 99999)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	// Another user's payment is invisible, not just forbidden.
	_, err = svc.Confirm(other.ID, resp.PaymentID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPromotionService_PurchaseExtraRequest(t *testing.T) {
	svc, db := setupPromotionService(t)

	client := testutil.TestClient(t, db)
	master := testutil.TestMaster(t, db)

	info, err := svc.PurchaseExtraRequest(client.ID, "Forte")
	require.NoError(t, err)
	assert.Equal(t, string(model.PurposeExtraRequest), info.Purpose)
	assert.Equal(t, float64(350), info.Amount)
	assert.Equal(t, string(model.PaymentStatusPaid), info.Status)
	assert.True(t, info.IsActive)

	_, err = svc.PurchaseExtraRequest(master.ID, "Forte")
	assert.ErrorIs(t, err, ErrClientOnly)

	_, err = svc.PurchaseExtraRequest(client.ID, "Monopoly")
	assert.ErrorIs(t, err, ErrUnknownBank)
}

func TestPromotedAt(t *testing.T) {
	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)

	times := 3
	user := &model.User{
		IsPromoted:         true,
		PromoteTimesPerDay: &times,
		Payments: []model.Payment{{
			Purpose:   model.PurposePromote,
			Status:    model.PaymentStatusPaid,
			IsActive:  true,
			StartDate: &start,
			EndDate:   &end,
		}},
	}

	assert.True(t, PromotedAt(user, now))
	assert.False(t, PromotedAt(user, end.Add(time.Second)), "past the window")

	user.Payments[0].IsActive = false
	assert.False(t, PromotedAt(user, now), "inactive record")

	user.Payments[0].IsActive = true
	user.IsPromoted = false
	assert.False(t, PromotedAt(user, now), "flag cleared")
}
