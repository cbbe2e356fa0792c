package weather

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidConditions = errors.New("invalid weather conditions")
	// ErrSourceUnavailable wraps every failure of a Source lookup.
	ErrSourceUnavailable = errors.New("weather source unavailable")
)
