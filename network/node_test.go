package network

import (
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Node", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *sim.SerialEngine
		nodes     *NodeContainer
		devs      []*recordingDevice
		ifaces    []*Ipv4Interface
		transport *MockTransport
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		nodes = NewNodeContainer(2, engine, nil)
		transport = NewMockTransport(mockCtrl)

		devs = []*recordingDevice{
			newRecordingDevice("Wifi", nodes.Get(0)),
			newRecordingDevice("Wifi", nodes.Get(1)),
		}

		h, err := NewIpv4AddressHelper("10.1.1.0", "255.255.255.0")
		Expect(err).NotTo(HaveOccurred())

		ifaces, err = h.Assign(devs[0], devs[1])
		Expect(err).NotTo(HaveOccurred())

		nodes.Get(0).SetTransport(transport)
		nodes.Get(1).SetTransport(transport)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	datagramTo := func(ip string) Datagram {
		return Datagram{
			Src:    NewInetSocketAddress(Ipv4Any, 49153),
			Dst:    NewInetSocketAddress(netip.MustParseAddr(ip), 80),
			Packet: NewPacket(10),
		}
	}

	It("should name nodes by index", func() {
		Expect(nodes.N()).To(Equal(2))
		Expect(nodes.Get(1).Name()).To(Equal("Node[1]"))
		Expect(nodes.Get(1).ID()).To(Equal(1))
	})

	It("should measure distance", func() {
		nodes.Get(1).SetPosition(Position{X: 3, Y: 4})

		Expect(nodes.Get(0).Position().DistanceTo(nodes.Get(1).Position())).
			To(BeNumerically("~", 5.0, 1e-9))
	})

	It("should unicast to the neighbor", func() {
		err := nodes.Get(0).SendDatagram(datagramTo("10.1.1.2"))

		Expect(err).NotTo(HaveOccurred())
		Expect(devs[0].sent).To(HaveLen(1))
		Expect(devs[0].sent[0].Dst).To(Equal(devs[1].Address()))
		Expect(devs[0].sent[0].Datagram.Src.IP).
			To(Equal(netip.MustParseAddr("10.1.1.1")))
	})

	It("should broadcast to the subnet", func() {
		err := nodes.Get(0).SendDatagram(datagramTo("10.1.1.255"))

		Expect(err).NotTo(HaveOccurred())
		Expect(devs[0].sent).To(HaveLen(1))
		Expect(devs[0].sent[0].Dst).To(Equal(BroadcastMac))
	})

	It("should fail without a route", func() {
		err := nodes.Get(0).SendDatagram(datagramTo("10.2.0.1"))

		Expect(err).To(MatchError(ErrNoRoute))
		Expect(devs[0].sent).To(BeEmpty())
	})

	It("should fail on an on-link host nobody owns", func() {
		err := nodes.Get(0).SendDatagram(datagramTo("10.1.1.77"))

		Expect(err).To(MatchError(ErrNoRoute))
	})

	It("should loop back a limited broadcast", func() {
		transport.EXPECT().
			Deliver(gomock.Any(), ifaces[0]).
			Do(func(d Datagram, _ *Ipv4Interface) {
				Expect(d.Src.IP).To(Equal(netip.MustParseAddr("10.1.1.1")))
				Expect(d.Dst.IP).To(Equal(Ipv4Broadcast))
			})

		err := nodes.Get(0).SendDatagram(datagramTo("255.255.255.255"))
		Expect(err).NotTo(HaveOccurred())
		Expect(devs[0].sent).To(HaveLen(1))
		Expect(devs[0].sent[0].Dst).To(Equal(BroadcastMac))

		Expect(engine.Run()).To(Succeed())
	})

	It("should loop back datagrams to itself", func() {
		transport.EXPECT().Deliver(gomock.Any(), ifaces[0])

		err := nodes.Get(0).SendDatagram(datagramTo("10.1.1.1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(devs[0].sent).To(BeEmpty())

		Expect(engine.Run()).To(Succeed())
	})

	It("should fail a limited broadcast without interfaces", func() {
		lonely := NewNode(9, engine, nil)

		err := lonely.SendDatagram(datagramTo("255.255.255.255"))

		Expect(err).To(MatchError(ErrNoRoute))
	})

	It("should deliver accepted frames", func() {
		d := datagramTo("10.1.1.2")
		transport.EXPECT().Deliver(d, ifaces[1])

		devs[1].Receive(Frame{Dst: devs[1].Address(), Datagram: d})
	})

	It("should drop datagrams for other hosts", func() {
		d := datagramTo("10.1.1.9")

		devs[1].Receive(Frame{Dst: BroadcastMac, Datagram: d})
	})

	It("should drop frames for other devices", func() {
		d := datagramTo("10.1.1.2")

		devs[1].Receive(Frame{Dst: devs[0].Address(), Datagram: d})
	})
})
