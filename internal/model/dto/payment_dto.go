package dto

// PromoteRequest is the paid package purchase request.
type PromoteRequest struct {
	TimesPerDay int    `json:"times_per_day" binding:"required"`
	Bank        string `json:"bank" binding:"required"`
}

// PromoteResponse is returned after a pending promotion payment is created.
type PromoteResponse struct {
	PaymentID int64   `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Bank      string  `json:"bank"`
	Message   string  `json:"message"`
}

// ExtraRequestPaymentRequest pays for one extra client request.
type ExtraRequestPaymentRequest struct {
	Bank string `json:"bank" binding:"required"`
}

// PaymentInfo is the payment record returned to its owner.
type PaymentInfo struct {
	ID          int64   `json:"id"`
	Purpose     string  `json:"purpose"`
	PackageName string  `json:"package_name,omitempty"`
	TimesPerDay *int    `json:"times_per_day,omitempty"`
	Amount      float64 `json:"amount"`
	Bank        string  `json:"bank"`
	Status      string  `json:"status"`
	IsActive    bool    `json:"is_active"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
}
