package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrPlanRequired    = errors.New("paid plan required")
	ErrBackendFailure  = errors.New("generation backend failure")
	ErrDeliveryBlocked = errors.New("recipient blocked delivery")
)
