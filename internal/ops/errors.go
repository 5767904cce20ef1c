// Package ops implements the operation executor: list/locate/preview/
// context/scan-targets/extract/replace/rename over both symbol kinds,
// sharing a common resolve -> guard -> execute -> verify frame.
package ops

import "errors"

// Sentinel errors, one per failure category, so callers can errors.Is
// against a stable identity regardless of the wrapped detail.
var (
	// Input errors.
	ErrMissingArgument  = errors.New("ops: missing required argument")
	ErrMutuallyExclusive = errors.New("ops: mutually exclusive options")
	ErrInvalidIdentifier = errors.New("ops: replacement name is not a valid identifier")
	ErrInvalidRange      = errors.New("ops: malformed span or range")

	// Resolution errors (also see selector.ErrNoMatch / ErrAmbiguous / ErrSelect).
	ErrNotReplaceable = errors.New("ops: record is not replaceable")

	// Guard errors.
	ErrGuardFailed = errors.New("ops: guard check failed")

	// Integrity errors.
	ErrSyntaxFailure = errors.New("ops: post-edit source does not parse")

	// I/O errors.
	ErrIO = errors.New("ops: I/O failure")
)
