package ledger

import "errors"

var (
	// ErrInsufficientRisk rejects logging a trade whose lot size is not positive
	// or whose risk parameters are out of range.
	ErrInsufficientRisk = errors.New("insufficient risk parameters")
	ErrTradeNotFound    = errors.New("trade not found")
	ErrTradeClosed      = errors.New("trade already closed")
	ErrInvalidExitPrice = errors.New("invalid exit price")

	// ErrNotPersisted marks a mutation that was applied in memory but could not
	// be written to the store. The in-memory ledger stays authoritative.
	ErrNotPersisted = errors.New("ledger change not persisted")

	// ErrNoSnapshot is returned by a Store that has never been written.
	ErrNoSnapshot = errors.New("no snapshot stored")
)
