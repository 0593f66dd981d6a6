/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All sentinel errors in one place. Query functions never return NotFound —
  a missing relation projects to an empty result — so these errors belong
  to the mutating surfaces (contract creation, payment updates) and to
  report validation, where the original system treats a bad request as an
  error.

USAGE:
  if billing.IsNotFound(err) {
      // 404
  }
*/
package billing

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrContractNotFound is returned when a referenced contract doesn't exist.
	ErrContractNotFound = errors.New("contract not found")

	// ErrPaymentNotFound is returned when a referenced payment doesn't exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidDuration is returned when a contract duration is below one month.
	ErrInvalidDuration = errors.New("contract duration must be at least one month")

	// ErrInvalidValue is returned when a contract value is not positive.
	ErrInvalidValue = errors.New("contract value must be positive")

	// ErrMissingPeriod is returned when a report request omits a bound.
	ErrMissingPeriod = errors.New("report period start and end are required")

	// ErrInvalidPeriod is returned when a report period starts after it ends.
	ErrInvalidPeriod = errors.New("report period start is after end")

	// ErrInvalidStatus is returned when an update carries an unknown status.
	ErrInvalidStatus = errors.New("unknown payment status")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrMissingPeriod) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidStatus)
}
