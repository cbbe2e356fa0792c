package minima

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidTrainingLevel = errors.New("invalid training level")
	ErrInvalidPolicy        = errors.New("invalid minima policy")
)
