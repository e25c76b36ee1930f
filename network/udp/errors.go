package udp

import "errors"

var (
	// ErrSocketClosed is returned by operations on a closed socket.
	ErrSocketClosed = errors.New("socket is closed")

	// ErrNotConnected is returned by Send on a socket with no default peer.
	ErrNotConnected = errors.New("socket is not connected")

	// ErrBroadcastNotAllowed is returned when sending to a broadcast address
	// without SetAllowBroadcast(true).
	ErrBroadcastNotAllowed = errors.New("broadcast not allowed")

	// ErrAddressInUse is returned when binding to a taken port.
	ErrAddressInUse = errors.New("address already in use")
)
