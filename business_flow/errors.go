// Package businessflow contains the core business logic and use cases for ad serving workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Ad-related errors
	ErrAdNotFound      = errors.New("ad not found")
	ErrAdAssetRequired = errors.New("ad asset is required")
	ErrAppLinkRequired = errors.New("app link is required")
	ErrEmptyAdList     = errors.New("ad list must contain at least one entry")
	ErrNoAdsAvailable  = errors.New("no ads available in the system")
	ErrAdIDRequired    = errors.New("ad ID is required")

	// App registration errors
	ErrAppNotFound           = errors.New("app not found")
	ErrAppIDRequired         = errors.New("app ID is required")
	ErrMissingRequiredFields = errors.New("missing or empty required fields")

	// Running ad errors
	ErrRunningAdNotFound   = errors.New("running ad not found")
	ErrRunningAdInactive   = errors.New("running ad is inactive")
	ErrRunningAdIDRequired = errors.New("running ad ID is required")
	ErrEmptyPlacementList  = errors.New("ad ID list must contain at least one entry")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAdNotFound(err error) bool {
	return errors.Is(err, ErrAdNotFound)
}

func IsAppNotFound(err error) bool {
	return errors.Is(err, ErrAppNotFound)
}

func IsRunningAdNotFound(err error) bool {
	return errors.Is(err, ErrRunningAdNotFound)
}

func IsRunningAdInactive(err error) bool {
	return errors.Is(err, ErrRunningAdInactive)
}

func IsNoAdsAvailable(err error) bool {
	return errors.Is(err, ErrNoAdsAvailable)
}
