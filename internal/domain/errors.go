package domain

import "errors"

// Validation failures are returned to the placing client as values, never
// panics; the HTTP layer maps them onto the "ERROR: <reason>" contract.
var (
	ErrUnknownClient        = errors.New("unknown client")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrInvalidArgument      = errors.New("invalid price or quantity")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrMalformedRecord      = errors.New("malformed trade record")
)
