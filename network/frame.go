package network

// Header sizes used to compute the bytes a datagram occupies on a link.
const (
	Ipv4HeaderSize = 20
	UDPHeaderSize  = 8
)

// A Datagram is a UDP datagram carried over IPv4.
type Datagram struct {
	Src, Dst InetSocketAddress
	Packet   *Packet
}

// Size returns the number of bytes the datagram occupies, headers included.
func (d Datagram) Size() int {
	return d.Packet.Size() + Ipv4HeaderSize + UDPHeaderSize
}

// A Frame is what a device puts on a channel.
type Frame struct {
	Src, Dst Mac48Address
	Datagram Datagram
}
