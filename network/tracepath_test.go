package network

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/wavesim/sim"
)

type stubApp struct {
	sim.HookableBase
	name string
}

func (a *stubApp) Name() string     { return a.name }
func (a *stubApp) TypeName() string { return "StubApp" }

func (a *stubApp) ConnectTrace(source string, hook sim.Hook) error {
	if source != "Rx" {
		return ErrUnknownTraceSource
	}

	a.AcceptHook(hook)

	return nil
}

var _ = Describe("Trace paths", func() {
	var (
		engine *sim.SerialEngine
		nodes  *NodeContainer
		apps   []*stubApp
		devs   []*recordingDevice
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		nodes = NewNodeContainer(2, engine, nil)
		apps = nil
		devs = nil

		for _, n := range nodes.Nodes() {
			app := &stubApp{name: "App"}
			n.AddApplication(app)
			apps = append(apps, app)

			devs = append(devs, newRecordingDevice("Dev", n))
		}
	})

	DescribeTable("should reject malformed paths",
		func(path string) {
			err := ConnectWithoutContext(nodes, path, sim.HookFunc(func(sim.HookCtx) {}))
			Expect(err).To(MatchError(ErrInvalidTracePath))
		},
		Entry("too short", "/NodeList/*/Rx"),
		Entry("wrong root", "/Nodes/*/ApplicationList/*/Rx"),
		Entry("unknown list", "/NodeList/*/SocketList/*/Rx"),
		Entry("bad index", "/NodeList/a/ApplicationList/*/Rx"),
		Entry("type without $", "/NodeList/*/ApplicationList/*/StubApp/Rx"),
		Entry("no match", "/NodeList/5/ApplicationList/*/Rx"),
		Entry("type mismatch", "/NodeList/*/ApplicationList/*/$Other/Rx"),
	)

	It("should report unknown sources", func() {
		err := ConnectWithoutContext(nodes,
			"/NodeList/*/ApplicationList/*/$StubApp/Tx",
			sim.HookFunc(func(sim.HookCtx) {}))

		Expect(err).To(MatchError(ErrUnknownTraceSource))
	})

	It("should connect every matching application", func() {
		err := ConnectWithoutContext(nodes,
			"/NodeList/*/ApplicationList/*/$StubApp/Rx",
			sim.HookFunc(func(sim.HookCtx) {}))

		Expect(err).NotTo(HaveOccurred())
		Expect(apps[0].NumHooks()).To(Equal(1))
		Expect(apps[1].NumHooks()).To(Equal(1))
	})

	It("should connect only the selected node", func() {
		err := ConnectWithoutContext(nodes,
			"/NodeList/1/ApplicationList/0/Rx",
			sim.HookFunc(func(sim.HookCtx) {}))

		Expect(err).NotTo(HaveOccurred())
		Expect(apps[0].NumHooks()).To(Equal(0))
		Expect(apps[1].NumHooks()).To(Equal(1))
	})

	It("should pass the concrete path as context", func() {
		var contexts []string

		err := Connect(nodes, "/NodeList/*/DeviceList/*/MacTx",
			func(context string, _ sim.HookCtx) {
				contexts = append(contexts, context)
			})
		Expect(err).NotTo(HaveOccurred())

		Expect(devs[1].Send(Frame{Datagram: Datagram{Packet: NewPacket(1)}})).
			To(Succeed())

		Expect(contexts).To(Equal([]string{
			"/NodeList/1/DeviceList/0/$RecordingDevice/MacTx",
		}))
	})
})
