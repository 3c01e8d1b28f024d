package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/uslugi_go_server/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

func (r *PaymentRepository) Create(payment *model.Payment) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepository) Update(payment *model.Payment) error {
	return r.db.Save(payment).Error
}

func (r *PaymentRepository) GetByID(id int64) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetOwned looks up a payment scoped to its owner.
func (r *PaymentRepository) GetOwned(id, userID int64) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListByUser(userID int64) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ActivePromotionForUser returns the user's active, unexpired promote payment,
// or nil when there is none. Used for the purchase conflict check.
func (r *PaymentRepository) ActivePromotionForUser(userID int64, now time.Time) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.
		Where("user_id = ? AND purpose = ? AND is_active = ?", userID, model.PurposePromote, true).
		Where("end_date >= ?", now).
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// ListActivePromotions returns all promote payments valid at now.
func (r *PaymentRepository) ListActivePromotions(now time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.
		Where("purpose = ? AND status = ? AND is_active = ?", model.PurposePromote, model.PaymentStatusPaid, true).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// DeactivateExpired flips the active flag off for promote payments whose
// window has passed. Deactivating an already-inactive record matches no rows,
// so concurrent calls are harmless.
func (r *PaymentRepository) DeactivateExpired(now time.Time) (int64, error) {
	res := r.db.Model(&model.Payment{}).
		Where("purpose = ? AND is_active = ?", model.PurposePromote, true).
		Where("end_date < ?", now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
