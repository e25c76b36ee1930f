package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FlowKind tells how a flow sends.
type FlowKind string

// The kinds of flows.
const (
	FlowOneShot   FlowKind = "oneshot"
	FlowGenerator FlowKind = "generator"
)

// BroadcastTarget is the flow target that sends to 255.255.255.255.
const BroadcastTarget = "broadcast"

// DefaultPort is the port the packet sinks listen on.
const DefaultPort = 80

// ErrInvalidScenario is returned when a scenario cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Position is a node position in meters.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Flow describes one timed sender.
type Flow struct {
	Kind   FlowKind `yaml:"kind"`
	Source int      `yaml:"source"`
	Target string   `yaml:"target"`
	Port   uint16   `yaml:"port"`
	Start  float64  `yaml:"start"`

	Text string `yaml:"text,omitempty"`

	PacketSize int     `yaml:"packetSize,omitempty"`
	Count      int     `yaml:"count,omitempty"`
	Interval   float64 `yaml:"interval,omitempty"`
}

// TargetNode returns the index of the target node. It returns false for a
// broadcast flow.
func (f Flow) TargetNode() (int, bool) {
	if f.Target == BroadcastTarget {
		return 0, false
	}

	i, err := strconv.Atoi(f.Target)
	if err != nil {
		return 0, false
	}

	return i, true
}

// Scenario is what a run does: where the nodes are, which flows send and when
// the run ends. A non-zero PollPort opens a socket on that port on every node
// whose arrivals are logged with the node ID.
type Scenario struct {
	Horizon     float64    `yaml:"horizon"`
	Positions   []Position `yaml:"positions"`
	AddressCsma bool       `yaml:"addressCsma"`
	PollPort    uint16     `yaml:"pollPort"`
	Flows       []Flow     `yaml:"flows"`
}

// DefaultScenario builds the scenario that the options describe.
func DefaultScenario(o Options) *Scenario {
	s := &Scenario{
		Horizon: o.Horizon,
		Positions: []Position{
			{X: 0},
			{X: o.Distance},
			{X: 600},
		},
	}

	if o.Traffic {
		s.Flows = append(s.Flows, Flow{
			Kind:       FlowGenerator,
			Source:     0,
			Target:     BroadcastTarget,
			Port:       DefaultPort,
			Start:      1.0,
			PacketSize: int(o.PacketSize),
			Count:      int(o.NumPackets),
			Interval:   o.Interval,
		})
	}

	if o.Aux {
		s.Flows = append(s.Flows, Flow{
			Kind:   FlowOneShot,
			Source: 2,
			Target: "1",
			Port:   DefaultPort,
			Start:  1 + o.IntervalTime,
			Text:   "test",
		})
	}

	s.Flows = append(s.Flows, Flow{
		Kind:   FlowOneShot,
		Source: 0,
		Target: BroadcastTarget,
		Port:   DefaultPort,
		Start:  2.0,
		Text:   "haha",
	})

	return s
}

// LoadScenario decodes a YAML scenario. Fields the document leaves out keep
// the values of base.
func LoadScenario(r io.Reader, base *Scenario) (*Scenario, error) {
	s := *base
	s.Positions = append([]Position(nil), base.Positions...)
	s.Flows = append([]Flow(nil), base.Flows...)

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}

	for i := range s.Flows {
		if s.Flows[i].Port == 0 {
			s.Flows[i].Port = DefaultPort
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// LoadScenarioFile reads a YAML scenario from a file.
func LoadScenarioFile(path string, base *Scenario) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadScenario(f, base)
}

// Validate checks that every flow refers to existing nodes and has usable
// parameters.
func (s *Scenario) Validate() error {
	if s.Horizon <= 0 {
		return fmt.Errorf("%w: horizon %g is not positive",
			ErrInvalidScenario, s.Horizon)
	}

	if len(s.Positions) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidScenario)
	}

	if s.PollPort == DefaultPort {
		return fmt.Errorf("%w: poll port %d is taken by the sinks",
			ErrInvalidScenario, s.PollPort)
	}

	for i, f := range s.Flows {
		if err := s.validateFlow(f); err != nil {
			return fmt.Errorf("%w: flow %d: %w", ErrInvalidScenario, i, err)
		}
	}

	return nil
}

func (s *Scenario) validateFlow(f Flow) error {
	n := len(s.Positions)

	if f.Source < 0 || f.Source >= n {
		return fmt.Errorf("source %d out of range", f.Source)
	}

	if f.Target != BroadcastTarget {
		t, ok := f.TargetNode()
		if !ok || t < 0 || t >= n {
			return fmt.Errorf("target %q is neither %s nor a node",
				f.Target, BroadcastTarget)
		}
	}

	if f.Start < 0 {
		return fmt.Errorf("start %g is negative", f.Start)
	}

	switch f.Kind {
	case FlowOneShot:
		return nil
	case FlowGenerator:
		if f.PacketSize < 0 || f.Count < 0 || f.Interval < 0 {
			return errors.New("generator parameters must not be negative")
		}

		return nil
	default:
		return fmt.Errorf("unknown kind %q", f.Kind)
	}
}
