package network

import "sync/atomic"

var nextPacketUID atomic.Uint64

// A Packet is an immutable sequence of bytes. The size is fixed when the
// packet is created.
type Packet struct {
	uid  uint64
	data []byte
}

// NewPacket creates a packet of the given size filled with zeros.
func NewPacket(size int) *Packet {
	if size < 0 {
		panic("packet size must not be negative")
	}

	return &Packet{
		uid:  nextPacketUID.Add(1),
		data: make([]byte, size),
	}
}

// NewPacketFromBytes creates a packet that holds a copy of b.
func NewPacketFromBytes(b []byte) *Packet {
	data := make([]byte, len(b))
	copy(data, b)

	return &Packet{
		uid:  nextPacketUID.Add(1),
		data: data,
	}
}

// UID returns the unique ID of the packet.
func (p *Packet) UID() uint64 {
	return p.uid
}

// Size returns the number of bytes in the packet.
func (p *Packet) Size() int {
	return len(p.data)
}

// CopyData copies at most n bytes from the start of the packet into dst and
// returns the number of bytes copied.
func (p *Packet) CopyData(dst []byte, n int) int {
	if n > len(p.data) {
		n = len(p.data)
	}

	return copy(dst, p.data[:n])
}

// Bytes returns a copy of the packet content.
func (p *Packet) Bytes() []byte {
	b := make([]byte, len(p.data))
	copy(b, p.data)

	return b
}
