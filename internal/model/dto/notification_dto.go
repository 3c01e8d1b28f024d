package dto

// NotificationInfo is a stored notification returned to its owner.
type NotificationInfo struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}
