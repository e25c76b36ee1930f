package traffic

import (
	"fmt"

	"github.com/sarchlab/wavesim/payload"
	"github.com/sarchlab/wavesim/sim"
)

// SendEvent asks a Sender to send a text once.
type SendEvent struct {
	*sim.EventBase
	Endpoint payload.Sender
	Text     string
}

// Sender sends a text message through its own payload buffer. It never
// closes the endpoint it sends on.
type Sender struct {
	name   string
	engine sim.Engine
	buf    payload.Buffer
}

// NewSender creates a Sender.
func NewSender(name string, engine sim.Engine) *Sender {
	sim.NameMustBeValid(name)

	return &Sender{
		name:   name,
		engine: engine,
	}
}

// Name returns the name of the sender.
func (s *Sender) Name() string {
	return s.name
}

// Payload returns the buffer the sender fills.
func (s *Sender) Payload() *payload.Buffer {
	return &s.buf
}

// SendOnce fills the buffer with text and sends it.
func (s *Sender) SendOnce(endpoint payload.Sender, text string) error {
	s.buf.SetFill(text)

	return s.buf.Send(endpoint)
}

// SendAt schedules a SendOnce at time t.
func (s *Sender) SendAt(t sim.VTimeInSec, endpoint payload.Sender, text string) {
	s.engine.Schedule(&SendEvent{
		EventBase: sim.NewEventBase(t, s),
		Endpoint:  endpoint,
		Text:      text,
	})
}

// Handle sends the text of a SendEvent.
func (s *Sender) Handle(e sim.Event) error {
	evt, ok := e.(*SendEvent)
	if !ok {
		panic(fmt.Sprintf("sender cannot handle %T", e))
	}

	if err := s.SendOnce(evt.Endpoint, evt.Text); err != nil {
		return fmt.Errorf("%s sending %q: %w", s.name, evt.Text, err)
	}

	return nil
}
