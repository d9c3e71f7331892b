package engine

import "errors"

var (
	// ErrUnknownTradingPair is returned for commands addressed to a pair
	// that was not configured when the engine was built. Pairs are never
	// auto-created.
	ErrUnknownTradingPair = errors.New("unknown trading pair")

	// ErrInvalidQuantity is returned for a non-positive order quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidPrice is returned when a price is missing or non-positive
	// where the order type requires one.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrOrderNotFound is returned by cancellation when the id is unknown,
	// already filled or already cancelled. The three cases are
	// indistinguishable to the caller; resolved orders are purged.
	ErrOrderNotFound = errors.New("order not found")

	// ErrWrongBook is returned when an order is handed to a book whose
	// trading pair it does not belong to.
	ErrWrongBook = errors.New("order does not belong to this book")
)
