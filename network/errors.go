package network

import "errors"

var (
	// ErrNoRoute is returned when a datagram has no on-link way to its
	// destination.
	ErrNoRoute = errors.New("no route to host")

	// ErrUnknownTraceSource is returned when connecting to a trace source
	// that an object does not have.
	ErrUnknownTraceSource = errors.New("unknown trace source")

	// ErrInvalidTracePath is returned when a trace path cannot be parsed.
	ErrInvalidTracePath = errors.New("invalid trace path")

	// ErrAddressExhausted is returned when an address helper has no host
	// address left in its network.
	ErrAddressExhausted = errors.New("address space exhausted")
)
