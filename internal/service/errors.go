package service

import "errors"

var (
	ErrNotFound            = errors.New("error not found")
	ErrValidation          = errors.New("error step validation failed")
	ErrStepInFlight        = errors.New("error step transition already in flight")
	ErrOnboardingCompleted = errors.New("error onboarding already completed")
)
