package network

import (
	"fmt"
	"math/bits"
	"net/netip"
)

// An Ipv4Interface binds an address to a device.
type Ipv4Interface struct {
	Device    NetDevice
	Prefix    netip.Prefix
	neighbors *NeighborTable
}

// Local returns the address of the interface.
func (i *Ipv4Interface) Local() netip.Addr {
	return i.Prefix.Addr()
}

// Broadcast returns the subnet-directed broadcast address of the interface.
func (i *Ipv4Interface) Broadcast() netip.Addr {
	a := i.Prefix.Addr().As4()
	hostBits := 32 - i.Prefix.Bits()

	for b := 3; b >= 0 && hostBits > 0; b-- {
		n := min(hostBits, 8)
		a[b] |= byte(1<<n - 1)
		hostBits -= n
	}

	return netip.AddrFrom4(a)
}

// OnLink tells if addr belongs to the subnet of the interface.
func (i *Ipv4Interface) OnLink(addr netip.Addr) bool {
	return i.Prefix.Masked().Contains(addr)
}

// NeighborTable maps addresses to link-layer addresses. The address helper
// fills it while assigning addresses, so no resolution protocol runs.
type NeighborTable struct {
	entries map[netip.Addr]Mac48Address
}

// NewNeighborTable creates an empty NeighborTable.
func NewNeighborTable() *NeighborTable {
	return &NeighborTable{entries: make(map[netip.Addr]Mac48Address)}
}

// Add records that addr lives behind mac.
func (t *NeighborTable) Add(addr netip.Addr, mac Mac48Address) {
	t.entries[addr] = mac
}

// Lookup returns the link-layer address of addr.
func (t *NeighborTable) Lookup(addr netip.Addr) (Mac48Address, bool) {
	mac, ok := t.entries[addr]
	return mac, ok
}

// Ipv4AddressHelper hands out consecutive host addresses of a network to
// devices.
type Ipv4AddressHelper struct {
	network   netip.Prefix
	nextHost  uint32
	neighbors *NeighborTable
}

// NewIpv4AddressHelper creates a helper for the network with the given base
// address and mask, for example "10.1.1.0" and "255.255.255.0".
func NewIpv4AddressHelper(base, mask string) (*Ipv4AddressHelper, error) {
	baseAddr, err := netip.ParseAddr(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base %q: %w", base, err)
	}

	maskBits, err := maskLength(mask)
	if err != nil {
		return nil, err
	}

	prefix, err := baseAddr.Prefix(maskBits)
	if err != nil {
		return nil, fmt.Errorf("invalid base %q: %w", base, err)
	}

	return &Ipv4AddressHelper{
		network:   prefix,
		nextHost:  1,
		neighbors: NewNeighborTable(),
	}, nil
}

func maskLength(mask string) (int, error) {
	m, err := netip.ParseAddr(mask)
	if err != nil || !m.Is4() {
		return 0, fmt.Errorf("invalid mask %q", mask)
	}

	b := m.As4()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	ones := bits.LeadingZeros32(^v)

	if bits.TrailingZeros32(v) != 32-ones && v != 0 {
		return 0, fmt.Errorf("invalid mask %q: not contiguous", mask)
	}

	return ones, nil
}

// Assign gives each device the next free host address and adds the
// interface to the device's node.
func (h *Ipv4AddressHelper) Assign(devices ...NetDevice) ([]*Ipv4Interface, error) {
	ifaces := make([]*Ipv4Interface, 0, len(devices))

	for _, dev := range devices {
		addr, err := h.nextAddress()
		if err != nil {
			return nil, err
		}

		iface := &Ipv4Interface{
			Device:    dev,
			Prefix:    netip.PrefixFrom(addr, h.network.Bits()),
			neighbors: h.neighbors,
		}
		h.neighbors.Add(addr, dev.Address())
		dev.Node().AddInterface(iface)

		ifaces = append(ifaces, iface)
	}

	return ifaces, nil
}

func (h *Ipv4AddressHelper) nextAddress() (netip.Addr, error) {
	hostBits := 32 - h.network.Bits()
	if hostBits < 2 || uint64(h.nextHost) >= uint64(1)<<hostBits-1 {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrAddressExhausted, h.network)
	}

	b := h.network.Masked().Addr().As4()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	v += h.nextHost
	h.nextHost++

	return netip.AddrFrom4([4]byte{
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}), nil
}
