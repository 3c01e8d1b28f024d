package dto

// MasterInfo is one entry of the composed ranking list.
type MasterInfo struct {
	ID             int64   `json:"id"`
	FullName       string  `json:"full_name,omitempty"`
	AboutMe        string  `json:"about_me,omitempty"`
	PhotoURL       string  `json:"photo_url,omitempty"`
	CategoryID     *int64  `json:"category_id,omitempty"`
	City           string  `json:"city,omitempty"`
	Reputation     float64 `json:"reputation"`
	Promoted       bool    `json:"promoted"`
	LastPromotedAt string  `json:"last_promoted_at,omitempty"`
}
