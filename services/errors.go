package services

import "errors"

var (
	// ErrAlreadyQueued means the identity is already in the pool or in an
	// active proposed match.
	ErrAlreadyQueued = errors.New("participant already queued or in an active match")

	// ErrStaleMatch means an event referenced a match that is unknown or no
	// longer awaiting responses. Stale events are logged and ignored.
	ErrStaleMatch = errors.New("match is not awaiting responses")

	// ErrMissingIdentity means a candidate without a user id was handed to
	// the scorer.
	ErrMissingIdentity = errors.New("candidate is missing a user id")

	// ErrDeliveryFailed means a proposal could not be delivered to both
	// sides and was aborted.
	ErrDeliveryFailed = errors.New("proposal delivery failed")

	// ErrIncompatibleCounterpart means the generated counterpart did not
	// satisfy the compatibility policy; the candidate stays in the pool.
	ErrIncompatibleCounterpart = errors.New("generated counterpart is not compatible")
)
