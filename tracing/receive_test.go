package tracing

import (
	"bytes"
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/mock/gomock"
)

func inet(ip string, port uint16) network.InetSocketAddress {
	return network.NewInetSocketAddress(netip.MustParseAddr(ip), port)
}

var _ = DescribeTable("FormatTime",
	func(t sim.VTimeInSec, s string) {
		Expect(FormatTime(t)).To(Equal(s))
	},
	Entry("whole", sim.VTimeInSec(2), "2"),
	Entry("fraction", sim.VTimeInSec(1.1), "1.1"),
	Entry("six digits", sim.VTimeInSec(2.000123456), "2.00012"),
	Entry("horizon", sim.VTimeInSec(110), "110"),
)

var _ = Describe("DecodeText", func() {
	It("should stop at the terminator", func() {
		p := network.NewPacketFromBytes([]byte("haha\x00junk"))

		Expect(DecodeText(p)).To(Equal("haha"))
	})

	It("should end unterminated packets", func() {
		p := network.NewPacketFromBytes([]byte("abc"))

		Expect(DecodeText(p)).To(Equal("abc"))
		Expect(p.Bytes()).To(Equal([]byte("abc")))
	})

	It("should read zero filled packets as empty", func() {
		Expect(DecodeText(network.NewPacket(1000))).To(Equal(""))
	})
})

var _ = Describe("PollingTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		receiver   *MockReceiver
		out        *bytes.Buffer
		tracer     *PollingTracer
		node       *network.Node
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		receiver = NewMockReceiver(mockCtrl)
		out = new(bytes.Buffer)
		tracer = NewPollingTracer(out, timeTeller)
		node = network.NewNode(2, sim.NewSerialEngine(), nil)

		timeTeller.EXPECT().Now().Return(sim.VTimeInSec(2.5)).AnyTimes()
		receiver.EXPECT().Node().Return(node).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should drain every queued packet", func() {
		gomock.InOrder(
			receiver.EXPECT().RecvFrom().Return(
				network.NewPacketFromBytes([]byte("one\x00")), inet("10.1.1.1", 5)),
			receiver.EXPECT().RecvFrom().Return(
				network.NewPacketFromBytes([]byte("two\x00")), inet("10.1.1.3", 5)),
			receiver.EXPECT().RecvFrom().Return(nil, nil),
		)

		tracer.ReceivePacket(receiver)

		Expect(out.String()).To(Equal(
			"2.5 node 2 received one packet from 10.1.1.1. data: one\n" +
				"2.5 node 2 received one packet from 10.1.1.3. data: two\n"))
	})

	It("should fall back for other address families", func() {
		gomock.InOrder(
			receiver.EXPECT().RecvFrom().Return(
				network.NewPacketFromBytes([]byte("x")), network.BroadcastMac),
			receiver.EXPECT().RecvFrom().Return(nil, nil),
		)

		tracer.ReceivePacket(receiver)

		Expect(out.String()).To(Equal("2.5 node 2 received one packet!\n"))
	})

	It("should write nothing on an empty endpoint", func() {
		receiver.EXPECT().RecvFrom().Return(nil, nil)

		tracer.ReceivePacket(receiver)

		Expect(out.Len()).To(BeZero())
	})
})

var _ = Describe("TwoAddressTracer", func() {
	var (
		out    *bytes.Buffer
		tracer *TwoAddressTracer
	)

	BeforeEach(func() {
		out = new(bytes.Buffer)
		tracer = NewTwoAddressTracer(out)
	})

	It("should print both addresses and the text", func() {
		tracer.Trace("/NodeList/1/ApplicationList/0/$PacketSink/RxWithAddresses",
			sim.HookCtx{
				Now:  2.000123,
				Item: network.NewPacketFromBytes([]byte("haha\x00")),
				Detail: network.AddressPair{
					Src: inet("10.1.1.1", 49153),
					Dst: inet("10.1.1.2", 80),
				},
			})

		Expect(out.String()).To(Equal(
			"2.00012 10.1.1.2 received one packet from 10.1.1.1. data: haha\n"))
	})

	It("should skip a destination of another family", func() {
		tracer.Func(sim.HookCtx{
			Now:  3,
			Item: network.NewPacketFromBytes([]byte("hi")),
			Detail: network.AddressPair{
				Src: inet("10.1.1.3", 1),
				Dst: network.BroadcastMac,
			},
		})

		Expect(out.String()).To(Equal(
			"3 received one packet from 10.1.1.3. data: hi\n"))
	})

	It("should fall back for other source families", func() {
		tracer.Func(sim.HookCtx{
			Now:  3,
			Item: network.NewPacketFromBytes([]byte("hi")),
			Detail: network.AddressPair{
				Src: network.BroadcastMac,
				Dst: inet("10.1.1.2", 80),
			},
		})

		Expect(out.String()).To(Equal("3 10.1.1.2 received one packet!\n"))
	})

	It("should ignore hooks without a packet", func() {
		tracer.Func(sim.HookCtx{Now: 1, Item: "other"})

		Expect(out.Len()).To(BeZero())
	})
})
