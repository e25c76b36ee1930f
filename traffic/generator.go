// Package traffic drives timed sends on endpoints.
package traffic

import (
	"fmt"

	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/zap"
)

// An Endpoint is where a generator sends its packets.
type Endpoint interface {
	Send(p *network.Packet) error
	Close() error
}

// State is the state of a Generator.
type State int

// States of a Generator.
const (
	Active State = iota
	Closed
)

func (s State) String() string {
	switch s {
	case Active:
		return "Active"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HookPosPacketSent marks a generator sending a packet.
var HookPosPacketSent = &sim.HookPos{Name: "Generator Packet Sent"}

// GenerateEvent asks a generator to send. Remaining is the number of packets
// still to send, this one included.
type GenerateEvent struct {
	*sim.EventBase
	Remaining int
}

// NewGenerateEvent creates a GenerateEvent.
func NewGenerateEvent(
	t sim.VTimeInSec,
	g *Generator,
	remaining int,
) *GenerateEvent {
	return &GenerateEvent{
		EventBase: sim.NewEventBase(t, g),
		Remaining: remaining,
	}
}

// Generator sends a fixed number of zero-filled packets, one per interval,
// then closes its endpoint.
type Generator struct {
	sim.HookableBase

	name       string
	engine     sim.Engine
	logger     *zap.Logger
	endpoint   Endpoint
	packetSize int
	count      int
	interval   sim.VTimeInSec

	state     State
	remaining int
	sent      int
}

// Name returns the name of the generator.
func (g *Generator) Name() string {
	return g.name
}

// State returns Active until the endpoint is closed.
func (g *Generator) State() State {
	return g.state
}

// Sent returns the number of packets sent.
func (g *Generator) Sent() int {
	return g.sent
}

// Remaining returns the number of packets still to send.
func (g *Generator) Remaining() int {
	return g.remaining
}

// StartAt schedules the first send at time t.
func (g *Generator) StartAt(t sim.VTimeInSec) {
	g.engine.Schedule(NewGenerateEvent(t, g, g.count))
}

// Handle sends one packet and schedules the next, or closes the endpoint
// when nothing remains.
func (g *Generator) Handle(e sim.Event) error {
	evt, ok := e.(*GenerateEvent)
	if !ok {
		panic(fmt.Sprintf("generator cannot handle %T", e))
	}

	if g.state == Closed {
		return nil
	}

	g.remaining = evt.Remaining

	if evt.Remaining <= 0 {
		return g.close()
	}

	p := network.NewPacket(g.packetSize)
	if err := g.endpoint.Send(p); err != nil {
		return fmt.Errorf("%s sending packet %d: %w", g.name, g.sent, err)
	}

	g.sent++
	g.remaining--

	g.InvokeHook(sim.HookCtx{
		Domain: g,
		Now:    evt.Time(),
		Pos:    HookPosPacketSent,
		Item:   p,
	})

	g.engine.Schedule(NewGenerateEvent(
		evt.Time()+g.interval, g, evt.Remaining-1))

	return nil
}

func (g *Generator) close() error {
	g.state = Closed

	g.logger.Debug("generator closed", zap.Int("sent", g.sent))

	if err := g.endpoint.Close(); err != nil {
		return fmt.Errorf("%s closing endpoint: %w", g.name, err)
	}

	return nil
}

// Builder can build generators.
type Builder struct {
	engine     sim.Engine
	logger     *zap.Logger
	packetSize int
	count      int
	interval   sim.VTimeInSec
}

// MakeBuilder creates a builder with the defaults of the command line.
func MakeBuilder() Builder {
	return Builder{
		logger:     zap.NewNop(),
		packetSize: 1000,
		count:      1,
		interval:   1.0,
	}
}

// WithEngine sets the engine that schedules the sends.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *zap.Logger) Builder {
	b.logger = l
	return b
}

// WithPacketSize sets the size of every packet.
func (b Builder) WithPacketSize(n int) Builder {
	b.packetSize = n
	return b
}

// WithCount sets the number of packets to send.
func (b Builder) WithCount(n int) Builder {
	b.count = n
	return b
}

// WithInterval sets the time between two sends.
func (b Builder) WithInterval(t sim.VTimeInSec) Builder {
	b.interval = t
	return b
}

// Build creates a generator bound to the endpoint.
func (b Builder) Build(name string, endpoint Endpoint) *Generator {
	b.parametersMustBeValid(endpoint)
	sim.NameMustBeValid(name)

	return &Generator{
		name:       name,
		engine:     b.engine,
		logger:     b.logger.With(zap.String("generator", name)),
		endpoint:   endpoint,
		packetSize: b.packetSize,
		count:      b.count,
		interval:   b.interval,
		remaining:  b.count,
	}
}

func (b Builder) parametersMustBeValid(endpoint Endpoint) {
	if b.engine == nil {
		panic("engine is not set")
	}

	if endpoint == nil {
		panic("endpoint is not set")
	}

	if b.packetSize < 0 {
		panic("packet size must not be negative")
	}

	if b.count < 0 {
		panic("count must not be negative")
	}

	if b.interval < 0 {
		panic("interval must not be negative")
	}
}
