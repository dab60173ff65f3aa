package services

import "errors"

// Error taxonomy shared by the gateway and the HTTP surface. Everything here
// is recoverable: it becomes a structured reply, never a crashed connection.
var (
	// ErrValidation: malformed or missing input; no store was touched.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound: a user or group lookup missed.
	ErrNotFound = errors.New("not found")

	// ErrAdmissionRejected: no permit before the admission timeout; retry later.
	ErrAdmissionRejected = errors.New("admission rejected")

	// ErrStoreFault: the underlying store failed; session state is unchanged.
	ErrStoreFault = errors.New("store fault")
)
