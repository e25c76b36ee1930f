package simulation

import (
	"io"
	"os"

	"github.com/sarchlab/wavesim/config"
	"github.com/sarchlab/wavesim/network/wifi"
	"github.com/sarchlab/wavesim/sim"
	"go.uber.org/zap"
)

// Builder can be used to build a simulation.
type Builder struct {
	logger     *zap.Logger
	output     io.Writer
	phyMode    string
	txPowerDbm float64
	scenario   *config.Scenario

	recordOn   bool
	recordPath string

	monitorOn   bool
	monitorPort int

	eventLogging bool
}

// MakeBuilder creates a builder for the default three node scenario.
func MakeBuilder() Builder {
	return Builder{
		logger:     zap.NewNop(),
		output:     os.Stdout,
		phyMode:    wifi.DefaultPhyMode,
		txPowerDbm: 29,
		scenario:   config.DefaultScenario(config.DefaultOptions()),
	}
}

// WithLogger sets the framework logger.
func (b Builder) WithLogger(l *zap.Logger) Builder {
	b.logger = l
	return b
}

// WithOutput sets where trace lines are written.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.output = w
	return b
}

// WithPhyMode sets the wifi physical mode.
func (b Builder) WithPhyMode(mode string) Builder {
	b.phyMode = mode
	return b
}

// WithTxPowerDbm sets the wifi transmit power.
func (b Builder) WithTxPowerDbm(p float64) Builder {
	b.txPowerDbm = p
	return b
}

// WithScenario sets the node positions, flows, and horizon.
func (b Builder) WithScenario(s *config.Scenario) Builder {
	b.scenario = s
	return b
}

// WithRecording records every frame into <path>.sqlite3. An empty path picks
// a name from the simulation ID.
func (b Builder) WithRecording(path string) Builder {
	b.recordOn = true
	b.recordPath = path

	return b
}

// WithMonitoring starts the monitoring server on the given port. Port 0
// picks a free port.
func (b Builder) WithMonitoring(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port

	return b
}

// WithEventLogging logs every event at debug level.
func (b Builder) WithEventLogging() Builder {
	b.eventLogging = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.logger == nil {
		panic("logger must not be nil")
	}

	if b.output == nil {
		panic("output must not be nil")
	}

	if b.scenario == nil {
		panic("scenario must not be nil")
	}
}

// Build builds the topology, attaches the tracers, and schedules all flows.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	if err := b.scenario.Validate(); err != nil {
		return nil, err
	}

	s := newSimulation(b.logger, b.output, b.scenario.Horizon)

	if b.eventLogging {
		s.engine.AcceptHook(sim.NewEventLogger(b.logger))
	}

	err := s.buildTopology(b.scenario, b.phyMode, b.txPowerDbm)
	if err != nil {
		return nil, err
	}

	s.installSinks()

	if b.scenario.PollPort != 0 {
		if err := s.installPollers(b.scenario.PollPort); err != nil {
			return nil, err
		}
	}

	if b.recordOn {
		if err := s.startRecording(b.recordPath); err != nil {
			return nil, err
		}
	}

	if err := s.connectTracer(); err != nil {
		return nil, err
	}

	for i, f := range b.scenario.Flows {
		if err := s.addFlow(i, f); err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		if err := s.startMonitor(b.monitorPort); err != nil {
			return nil, err
		}
	}

	return s, nil
}
