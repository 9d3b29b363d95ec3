package order

import "errors"

var (
	// ErrEmptyOrder blocks assembly when there is nothing to price: no cart
	// lines and no prescription context.
	ErrEmptyOrder = errors.New("nothing to order: cart is empty and no prescription given")

	// ErrNoCustomer blocks assembly without a customer reference.
	ErrNoCustomer = errors.New("order requires a customer")

	// ErrAvailabilityCheckFailed means the inventory check itself errored or
	// timed out; the caller may retry. Distinct from ErrUnavailable.
	ErrAvailabilityCheckFailed = errors.New("availability check failed")

	// ErrUnavailable means the check answered: the stock is not there.
	ErrUnavailable = errors.New("order items are not available")

	// ErrConfirmInFlight rejects a second confirm while one is already
	// running for the same draft.
	ErrConfirmInFlight = errors.New("confirmation already in flight for this order")
)
