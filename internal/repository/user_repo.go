package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByPhone(phone string) (*model.User, error) {
	var user model.User
	err := r.db.Where("phone_number = ?", phone).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// ListMasters returns verified masters with their promote payments preloaded,
// optionally filtered by city and category.
func (r *UserRepository) ListMasters(city string, categoryID *int64) ([]model.User, error) {
	query := r.db.Where("user_type = ? AND is_verified = ?", model.UserTypeMaster, true)

	if city != "" {
		query = query.Where("city = ?", city)
	}
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var masters []model.User
	err := query.
		Preload("Payments", "purpose = ?", model.PurposePromote).
		Find(&masters).Error
	if err != nil {
		return nil, err
	}
	return masters, nil
}

// DistinctPromotedCities lists the city partitions that currently contain at
// least one promotion-enabled master.
func (r *UserRepository) DistinctPromotedCities() ([]string, error) {
	var cities []string
	err := r.db.Model(&model.User{}).
		Where("user_type = ? AND is_promoted = ? AND city <> ''", model.UserTypeMaster, true).
		Distinct().
		Pluck("city", &cities).Error
	if err != nil {
		return nil, err
	}
	return cities, nil
}

// NextPromotionCandidate returns the head of the fairness queue for one city:
// enabled masters with quota remaining and an unexpired promotion, ordered by
// last_promoted_at ascending. NULL sorts first on both MySQL and SQLite, so a
// never-promoted master always wins the tie.
func (r *UserRepository) NextPromotionCandidate(city string, now time.Time) (*model.User, error) {
	var user model.User
	err := r.db.
		Where("user_type = ? AND is_promoted = ?", model.UserTypeMaster, true).
		Where("city = ?", city).
		Where("promote_times_per_day IS NOT NULL AND promote_today_used < promote_times_per_day").
		Where("promotion_expiration > ?", now).
		Order("last_promoted_at ASC").
		Order("id ASC").
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// AdvancePromotion marks one master as promoted now and consumes one daily
// credit. The quota check lives in the WHERE clause so a concurrent advance
// can never push the counter past the quota; the caller learns about a lost
// race through the false return.
func (r *UserRepository) AdvancePromotion(id int64, now time.Time) (bool, error) {
	res := r.db.Model(&model.User{}).
		Where("id = ? AND promote_today_used < promote_times_per_day", id).
		Updates(map[string]interface{}{
			"last_promoted_at":   now,
			"promote_today_used": gorm.Expr("promote_today_used + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ActivatePromotion applies a confirmed promote payment to the master profile.
func (r *UserRepository) ActivatePromotion(id int64, timesPerDay int, expiresAt time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_promoted":           true,
		"promote_times_per_day": timesPerDay,
		"promote_today_used":    0,
		"promotion_expiration":  expiresAt,
	}).Error
}

// ResetAllDailyCounters zeroes every master's daily promotion counter.
// The absolute SET makes repeated runs within one day a no-op.
func (r *UserRepository) ResetAllDailyCounters() error {
	return r.db.Model(&model.User{}).
		Where("user_type = ?", model.UserTypeMaster).
		Update("promote_today_used", 0).Error
}

func (r *UserRepository) ExistsByPhone(phone string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("phone_number = ?", phone).Count(&count).Error
	return count > 0, err
}
