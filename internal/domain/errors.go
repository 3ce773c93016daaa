package domain

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrPriceNotFound is returned when no price exists for a symbol/date
	ErrPriceNotFound = errors.New("price not found")

	// ErrInsufficientFunds is returned when cash cannot cover the smallest lot
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientPosition is returned when a sell exceeds held shares
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrOddLotLiquidation is returned when a full liquidation does not divide
	// by the lot size. Fatal: it indicates upstream accounting inconsistency.
	ErrOddLotLiquidation = errors.New("liquidation size is not lot-aligned")

	// ErrInvalidConfig is returned for configuration errors at construction time
	ErrInvalidConfig = errors.New("invalid configuration")
)
