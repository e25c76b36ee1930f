package network

import (
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Addresses", func() {
	It("should format socket addresses", func() {
		addr := NewInetSocketAddress(netip.MustParseAddr("10.1.1.2"), 80)

		Expect(addr.String()).To(Equal("10.1.1.2:80"))
		Expect(addr.Family()).To(Equal(FamilyInet))
	})

	It("should convert inet addresses", func() {
		addr := NewInetSocketAddress(netip.MustParseAddr("10.1.1.2"), 80)

		got, ok := AsInetSocketAddress(addr)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(addr))

		got, ok = AsInetSocketAddress(&addr)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(addr))
	})

	It("should not convert other families", func() {
		_, ok := AsInetSocketAddress(BroadcastMac)
		Expect(ok).To(BeFalse())

		_, ok = AsInetSocketAddress(nil)
		Expect(ok).To(BeFalse())
	})

	It("should allocate link addresses in sequence", func() {
		a := AllocateMac48Address()
		b := AllocateMac48Address()

		Expect(b[5]).To(Equal(a[5] + 1))
		Expect(a.IsBroadcast()).To(BeFalse())
		Expect(BroadcastMac.IsBroadcast()).To(BeTrue())
	})

	It("should format link addresses", func() {
		m := Mac48Address{0, 0, 0, 0, 0, 0x0a}

		Expect(m.String()).To(Equal("00:00:00:00:00:0a"))
		Expect(m.Family()).To(Equal(FamilyMac48))
	})
})

var _ = Describe("Packet", func() {
	It("should be zero filled", func() {
		p := NewPacket(4)

		Expect(p.Size()).To(Equal(4))
		Expect(p.Bytes()).To(Equal([]byte{0, 0, 0, 0}))
	})

	It("should give each packet its own uid", func() {
		Expect(NewPacket(1).UID()).NotTo(Equal(NewPacket(1).UID()))
	})

	It("should not share memory with the caller", func() {
		src := []byte("abc")
		p := NewPacketFromBytes(src)
		src[0] = 'x'

		b := p.Bytes()
		b[1] = 'y'

		Expect(p.Bytes()).To(Equal([]byte("abc")))
	})

	It("should copy at most the packet size", func() {
		p := NewPacketFromBytes([]byte("hello"))
		dst := make([]byte, 10)

		Expect(p.CopyData(dst, 3)).To(Equal(3))
		Expect(dst[:3]).To(Equal([]byte("hel")))
		Expect(p.CopyData(dst, 10)).To(Equal(5))
	})

	It("should panic on negative size", func() {
		Expect(func() { NewPacket(-1) }).To(Panic())
	})

	It("should count headers in datagram size", func() {
		d := Datagram{Packet: NewPacket(100)}

		Expect(d.Size()).To(Equal(128))
	})
})
