package service

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrMasterOnly            = errors.New("only masters can purchase promotion")
	ErrClientOnly            = errors.New("only clients can pay for an extra request")
	ErrUnknownPackage        = errors.New("unknown promotion package")
	ErrUnknownBank           = errors.New("unsupported bank")
	ErrActivePromotionExists = errors.New("an active promotion already exists")
	ErrNotificationNotFound  = errors.New("notification not found")
)
