package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("FrameRecorder", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockDataRecorder
		recorder *FrameRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable(FrameTable, FrameEntry{})
		recorder = NewFrameRecorder(backend)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	frame := func() network.Frame {
		return network.Frame{
			Datagram: network.Datagram{
				Src:    inet("10.1.1.1", 49153),
				Dst:    inet("255.255.255.255", 80),
				Packet: network.NewPacketFromBytes([]byte("haha\x00")),
			},
		}
	}

	It("should record transmissions", func() {
		f := frame()
		backend.EXPECT().
			InsertData(FrameTable, gomock.Any()).
			Do(func(_ string, e any) {
				entry := e.(FrameEntry)
				Expect(entry.Direction).To(Equal("tx"))
				Expect(entry.Time).To(Equal(2.0))
				Expect(entry.Src).To(Equal("10.1.1.1:49153"))
				Expect(entry.Dst).To(Equal("255.255.255.255:80"))
				Expect(entry.Size).To(Equal(33))
				Expect(entry.PacketUID).To(Equal(f.Datagram.Packet.UID()))
				Expect(entry.Digest).To(Equal(Digest(f.Datagram.Packet)))
				Expect(entry.Node).To(Equal(-1))
				Expect(entry.ID).NotTo(BeEmpty())
			})

		recorder.Func(sim.HookCtx{
			Now:  2,
			Pos:  network.HookPosDeviceTx,
			Item: f,
		})

		Expect(recorder.Count()).To(Equal(1))
	})

	It("should record arrivals", func() {
		backend.EXPECT().
			InsertData(FrameTable, gomock.Any()).
			Do(func(_ string, e any) {
				Expect(e.(FrameEntry).Direction).To(Equal("rx"))
			})

		recorder.Func(sim.HookCtx{Pos: network.HookPosDeviceRx, Item: frame()})
	})

	It("should ignore other hook positions", func() {
		recorder.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent, Item: frame()})

		Expect(recorder.Count()).To(BeZero())
	})

	It("should give equal payloads equal digests", func() {
		a := network.NewPacketFromBytes([]byte("same"))
		b := network.NewPacketFromBytes([]byte("same"))
		c := network.NewPacketFromBytes([]byte("diff"))

		Expect(Digest(a)).To(Equal(Digest(b)))
		Expect(Digest(a)).NotTo(Equal(Digest(c)))
	})

	It("should flush the backend", func() {
		backend.EXPECT().Flush()

		recorder.Flush()
	})
})
