package network

import (
	"fmt"
	"net/netip"
	"strconv"
	"sync/atomic"
)

// AddressFamily tells which kind of address an Address holds.
type AddressFamily int

// Address families known to the simulator.
const (
	FamilyUnknown AddressFamily = iota
	FamilyInet
	FamilyMac48
)

// An Address is an opaque network address.
type Address interface {
	Family() AddressFamily
	String() string
}

// Ipv4Any is the wildcard address sockets bind to.
var Ipv4Any = netip.IPv4Unspecified()

// Ipv4Broadcast is the limited broadcast address.
var Ipv4Broadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// InetSocketAddress is an IPv4 address plus a port.
type InetSocketAddress struct {
	IP   netip.Addr
	Port uint16
}

// NewInetSocketAddress creates an InetSocketAddress.
func NewInetSocketAddress(ip netip.Addr, port uint16) InetSocketAddress {
	return InetSocketAddress{IP: ip, Port: port}
}

// Family returns FamilyInet.
func (a InetSocketAddress) Family() AddressFamily {
	return FamilyInet
}

// String formats the address as ip:port.
func (a InetSocketAddress) String() string {
	return a.IP.String() + ":" + strconv.Itoa(int(a.Port))
}

// AsInetSocketAddress converts addr to an InetSocketAddress if it belongs to
// the inet family.
func AsInetSocketAddress(addr Address) (InetSocketAddress, bool) {
	if addr == nil || addr.Family() != FamilyInet {
		return InetSocketAddress{}, false
	}

	switch a := addr.(type) {
	case InetSocketAddress:
		return a, true
	case *InetSocketAddress:
		return *a, true
	default:
		return InetSocketAddress{}, false
	}
}

// Mac48Address is a 48-bit link-layer address.
type Mac48Address [6]byte

// BroadcastMac is the link-layer broadcast address.
var BroadcastMac = Mac48Address{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

var nextMac atomic.Uint64

// AllocateMac48Address returns a new link-layer address. Addresses are handed
// out in sequence, starting from 00:00:00:00:00:01.
func AllocateMac48Address() Mac48Address {
	n := nextMac.Add(1)

	var m Mac48Address
	for i := 5; i >= 0; i-- {
		m[i] = byte(n)
		n >>= 8
	}

	return m
}

// Family returns FamilyMac48.
func (m Mac48Address) Family() AddressFamily {
	return FamilyMac48
}

// IsBroadcast tells if the address is the broadcast address.
func (m Mac48Address) IsBroadcast() bool {
	return m == BroadcastMac
}

// String formats the address as colon separated hex.
func (m Mac48Address) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		m[0], m[1], m[2], m[3], m[4], m[5])
}

// AddressPair is the detail attached to receive traces that report both ends
// of a datagram.
type AddressPair struct {
	Src, Dst Address
}
