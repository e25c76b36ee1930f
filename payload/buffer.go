// Package payload holds the reusable outgoing message of a sender.
package payload

import "github.com/sarchlab/wavesim/network"

// A Sender transmits packets.
type Sender interface {
	Send(p *network.Packet) error
}

// Buffer holds the current outgoing message as a null-terminated string.
// The zero value is an empty buffer of size zero.
//
// A Buffer belongs to one sender and is only touched from event handlers.
type Buffer struct {
	data []byte
}

// SetFill replaces the content. The storage is reallocated only when the
// length changes.
func (b *Buffer) SetFill(content string) {
	needed := len(content) + 1

	if needed != len(b.data) {
		b.data = make([]byte, needed)
	}

	copy(b.data, content)
	b.data[needed-1] = 0
}

// Size returns the number of bytes in the buffer, terminator included.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Bytes returns a copy of the buffer.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)

	return out
}

// Send transmits the buffer as one packet. The buffer does not change.
func (b *Buffer) Send(to Sender) error {
	return to.Send(network.NewPacketFromBytes(b.data))
}
