// Package simulation composes the topology, the receive tracers, and the
// timed flows of a wavesim run.
package simulation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/wavesim/config"
	"github.com/sarchlab/wavesim/datarecording"
	"github.com/sarchlab/wavesim/monitoring"
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/network/apps"
	"github.com/sarchlab/wavesim/network/csma"
	"github.com/sarchlab/wavesim/network/udp"
	"github.com/sarchlab/wavesim/network/wifi"
	"github.com/sarchlab/wavesim/sim"
	"github.com/sarchlab/wavesim/tracing"
	"github.com/sarchlab/wavesim/traffic"
	"go.uber.org/zap"
)

// Trace paths the simulation subscribes to.
const (
	SinkRxPath = "/NodeList/*/ApplicationList/*/$PacketSink/RxWithAddresses"
	MacTxPath  = "/NodeList/*/DeviceList/*/MacTx"
	MacRxPath  = "/NodeList/*/DeviceList/*/MacRx"
)

// Fixed parts of the topology.
const (
	WifiNetwork = "10.1.1.0"
	CsmaNetwork = "192.168.1.0"
	NetworkMask = "255.255.255.0"

	CsmaDataRate = 5 * sim.Mbps
	CsmaDelay    = sim.VTimeInSec(0.002)

	SinkStartTime = sim.VTimeInSec(0.01)
)

// A Simulation owns everything a run needs.
type Simulation struct {
	id      string
	engine  *sim.SerialEngine
	logger  *zap.Logger
	output  io.Writer
	horizon sim.VTimeInSec

	nodes       *network.NodeContainer
	wifiChannel *wifi.Channel
	csmaChannel *csma.Channel
	wifiIfaces  []*network.Ipv4Interface
	csmaIfaces  []*network.Ipv4Interface

	sinks      []*apps.PacketSink
	tracer     *tracing.TwoAddressTracer
	sources    []*udp.Socket
	senders    []*traffic.Sender
	generators []*traffic.Generator

	dataRecorder  datarecording.DataRecorder
	frameRecorder *tracing.FrameRecorder
	execRecorder  *datarecording.ExecRecorder

	monitor     *monitoring.Monitor
	progressBar *monitoring.ProgressBar

	terminated bool
}

func newSimulation(
	logger *zap.Logger,
	output io.Writer,
	horizon float64,
) *Simulation {
	return &Simulation{
		id:      xid.New().String(),
		engine:  sim.NewSerialEngine(),
		logger:  logger,
		output:  output,
		horizon: sim.VTimeInSec(horizon),
		tracer:  tracing.NewTwoAddressTracer(output),
	}
}

// ID returns the unique ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the event engine.
func (s *Simulation) Engine() sim.Engine {
	return s.engine
}

// Horizon returns the time the run stops at.
func (s *Simulation) Horizon() sim.VTimeInSec {
	return s.horizon
}

// Nodes returns the nodes of the topology.
func (s *Simulation) Nodes() *network.NodeContainer {
	return s.nodes
}

// WifiInterfaces returns the wireless interface of every node.
func (s *Simulation) WifiInterfaces() []*network.Ipv4Interface {
	return s.wifiIfaces
}

// CsmaInterfaces returns the wired interfaces, which are only addressed when
// the scenario asks for it.
func (s *Simulation) CsmaInterfaces() []*network.Ipv4Interface {
	return s.csmaIfaces
}

// Sinks returns the packet sink of every node.
func (s *Simulation) Sinks() []*apps.PacketSink {
	return s.sinks
}

// Generators returns the generators of the generator flows.
func (s *Simulation) Generators() []*traffic.Generator {
	return s.generators
}

// Senders returns the senders of the one-shot flows.
func (s *Simulation) Senders() []*traffic.Sender {
	return s.senders
}

// DataRecorder returns the recorder, or nil when recording is off.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// FrameRecorder returns the frame recorder, or nil when recording is off.
func (s *Simulation) FrameRecorder() *tracing.FrameRecorder {
	return s.frameRecorder
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

func (s *Simulation) buildTopology(
	scenario *config.Scenario,
	phyMode string,
	txPowerDbm float64,
) error {
	s.nodes = network.NewNodeContainer(
		len(scenario.Positions), s.engine, s.logger)
	s.wifiChannel = wifi.NewChannel("WifiChannel", s.engine)
	s.csmaChannel = csma.NewChannel(
		"CsmaChannel", s.engine, CsmaDataRate, CsmaDelay)

	wifiBuilder := wifi.MakeBuilder().
		WithChannel(s.wifiChannel).
		WithPhyMode(phyMode).
		WithTxPowerDbm(txPowerDbm).
		WithLogger(s.logger)

	var wifiDevs, csmaDevs []network.NetDevice

	for i, n := range s.nodes.Nodes() {
		p := scenario.Positions[i]
		n.SetPosition(network.Position{X: p.X, Y: p.Y, Z: p.Z})

		wifiDevs = append(wifiDevs,
			wifiBuilder.Build(sim.BuildName(n.Name(), "Wifi"), n))
		csmaDevs = append(csmaDevs,
			csma.NewDevice(sim.BuildName(n.Name(), "Csma"), n, s.csmaChannel))
	}

	var err error

	s.wifiIfaces, err = assign(WifiNetwork, wifiDevs)
	if err != nil {
		return err
	}

	if scenario.AddressCsma {
		s.csmaIfaces, err = assign(CsmaNetwork, csmaDevs)
		if err != nil {
			return err
		}
	}

	return nil
}

func assign(base string, devs []network.NetDevice) (
	[]*network.Ipv4Interface, error,
) {
	h, err := network.NewIpv4AddressHelper(base, NetworkMask)
	if err != nil {
		return nil, err
	}

	ifaces, err := h.Assign(devs...)
	if err != nil {
		return nil, fmt.Errorf("addressing %s: %w", base, err)
	}

	return ifaces, nil
}

func (s *Simulation) installSinks() {
	for _, n := range s.nodes.Nodes() {
		udp.Install(n)

		sink := apps.NewPacketSink(
			sim.BuildName(n.Name(), "Sink"), n, config.DefaultPort)
		sink.StartAt(SinkStartTime)

		s.sinks = append(s.sinks, sink)
	}
}

func (s *Simulation) installPollers(port uint16) error {
	tracer := tracing.NewPollingTracer(s.output, s.engine)

	for _, n := range s.nodes.Nodes() {
		socket := udp.Install(n).CreateSocket()

		err := socket.Bind(network.NewInetSocketAddress(network.Ipv4Any, port))
		if err != nil {
			return fmt.Errorf("polling on %s: %w", n.Name(), err)
		}

		socket.SetRecvCallback(func(r *udp.Socket) {
			tracer.ReceivePacket(r)
		})
	}

	return nil
}

func (s *Simulation) connectTracer() error {
	return network.Connect(s.nodes, SinkRxPath, s.tracer.Trace)
}

func (s *Simulation) addFlow(i int, f config.Flow) error {
	name := sim.BuildNameWithIndex("Sim", "Flow", i)

	remote, err := s.flowRemote(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	socket := udp.Install(s.nodes.Get(f.Source)).CreateSocket()
	socket.SetAllowBroadcast(true)

	if err := socket.Connect(remote); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	s.sources = append(s.sources, socket)
	start := sim.VTimeInSec(f.Start)

	switch f.Kind {
	case config.FlowOneShot:
		sender := traffic.NewSender(name, s.engine)
		sender.SendAt(start, socket, f.Text)
		s.senders = append(s.senders, sender)
	case config.FlowGenerator:
		g := traffic.MakeBuilder().
			WithEngine(s.engine).
			WithLogger(s.logger).
			WithPacketSize(f.PacketSize).
			WithCount(f.Count).
			WithInterval(sim.VTimeInSec(f.Interval)).
			Build(name, socket)
		g.StartAt(start)
		s.generators = append(s.generators, g)
	default:
		return fmt.Errorf("%s: unknown flow kind %q", name, f.Kind)
	}

	s.logger.Debug("flow scheduled",
		zap.String("flow", name),
		zap.String("kind", string(f.Kind)),
		zap.Stringer("remote", remote),
		zap.Float64("start", f.Start))

	return nil
}

func (s *Simulation) flowRemote(f config.Flow) (network.InetSocketAddress, error) {
	t, ok := f.TargetNode()
	if !ok {
		return network.NewInetSocketAddress(network.Ipv4Broadcast, f.Port), nil
	}

	if t < 0 || t >= len(s.wifiIfaces) {
		return network.InetSocketAddress{},
			fmt.Errorf("target node %d does not exist", t)
	}

	return network.NewInetSocketAddress(s.wifiIfaces[t].Local(), f.Port), nil
}

func (s *Simulation) startRecording(path string) error {
	if path == "" {
		path = "wavesim_" + s.id
	}

	s.dataRecorder = datarecording.New(path)
	s.frameRecorder = tracing.NewFrameRecorder(s.dataRecorder)

	s.execRecorder = datarecording.NewExecRecorder(s.dataRecorder)
	s.execRecorder.Start()
	s.execRecorder.Add("Run ID", s.id)
	s.execRecorder.Add("Horizon", tracing.FormatTime(s.horizon))

	err := network.ConnectWithoutContext(s.nodes, MacTxPath, s.frameRecorder)
	if err != nil {
		return err
	}

	return network.ConnectWithoutContext(s.nodes, MacRxPath, s.frameRecorder)
}

func (s *Simulation) startMonitor(port int) error {
	s.monitor = monitoring.NewMonitor(s.logger).WithPortNumber(port)
	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterNodes(s.nodes)

	if _, err := s.monitor.StartServer(); err != nil {
		return err
	}

	s.progressBar = s.monitor.CreateProgressBar(
		"Virtual time (ms)", uint64(s.horizon*1000))
	s.engine.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos == sim.HookPosAfterEvent {
			s.progressBar.SetFinished(uint64(ctx.Now * 1000))
		}
	}))

	return nil
}

// Run processes events until the horizon. An error returned by an event
// handler stops the run.
func (s *Simulation) Run() error {
	s.logger.Info("simulation started",
		zap.String("id", s.id),
		zap.Float64("horizon", float64(s.horizon)))

	err := s.engine.RunUntil(s.horizon)
	if err != nil {
		return fmt.Errorf("simulation %s: %w", s.id, err)
	}

	if s.progressBar != nil {
		s.progressBar.SetFinished(s.progressBar.Total)
	}

	s.logger.Info("simulation finished",
		zap.Float64("now", float64(s.engine.Now())))

	return nil
}

// Terminate releases the simulation. It closes every open socket, runs the
// simulation end handlers, writes the recording, and stops the monitor.
// Calling it again does nothing.
func (s *Simulation) Terminate() {
	if s.terminated {
		return
	}

	s.terminated = true

	for _, n := range s.nodes.Nodes() {
		proto, ok := n.Transport().(*udp.Protocol)
		if !ok {
			continue
		}

		for _, socket := range proto.Sockets() {
			if socket.IsClosed() {
				continue
			}

			if err := socket.Close(); err != nil {
				s.logger.Warn("closing socket",
					zap.String("socket", socket.Name()), zap.Error(err))
			}
		}
	}

	s.engine.Finished()

	if s.dataRecorder != nil {
		s.execRecorder.Add("Frames", fmt.Sprint(s.frameRecorder.Count()))
		s.execRecorder.Finish()

		if err := s.dataRecorder.Close(); err != nil {
			s.logger.Warn("closing recorder", zap.Error(err))
		}
	}

	if s.monitor != nil {
		s.monitor.CompleteProgressBar(s.progressBar)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := s.monitor.StopServer(ctx); err != nil {
			s.logger.Warn("stopping monitor", zap.Error(err))
		}
	}
}
