// Package tracing turns arrivals and link activity into trace lines and
// records.
package tracing

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
)

// FormatTime prints a virtual time with six significant digits.
func FormatTime(t sim.VTimeInSec) string {
	return strconv.FormatFloat(float64(t), 'g', 6, 64)
}

// DecodeText reads a packet as a null-terminated string. The packet is
// copied into a buffer one byte longer than the packet, so the text always
// ends, even when the packet carries no terminator.
func DecodeText(p *network.Packet) string {
	buf := make([]byte, p.Size()+1)
	p.CopyData(buf, p.Size())
	buf[p.Size()] = 0

	return string(buf[:bytes.IndexByte(buf, 0)])
}

func writeArrival(
	w io.Writer,
	prefix string,
	p *network.Packet,
	src network.Address,
) {
	var sb strings.Builder
	sb.WriteString(prefix)

	if addr, ok := network.AsInetSocketAddress(src); ok {
		sb.WriteString(" received one packet from ")
		sb.WriteString(addr.IP.String())
		sb.WriteString(". data: ")
		sb.WriteString(DecodeText(p))
	} else {
		sb.WriteString(" received one packet!")
	}

	sb.WriteByte('\n')

	io.WriteString(w, sb.String())
}

// A Receiver is an endpoint that can be drained.
type Receiver interface {
	RecvFrom() (*network.Packet, network.Address)
	Node() *network.Node
}

// PollingTracer drains an endpoint and writes one line per packet.
type PollingTracer struct {
	w          io.Writer
	timeTeller sim.TimeTeller
}

// NewPollingTracer creates a PollingTracer that writes to w.
func NewPollingTracer(w io.Writer, timeTeller sim.TimeTeller) *PollingTracer {
	return &PollingTracer{
		w:          w,
		timeTeller: timeTeller,
	}
}

// ReceivePacket writes a line for every packet queued on r.
func (t *PollingTracer) ReceivePacket(r Receiver) {
	for {
		p, src := r.RecvFrom()
		if p == nil {
			return
		}

		prefix := fmt.Sprintf("%s node %d",
			FormatTime(t.timeTeller.Now()), r.Node().ID())
		writeArrival(t.w, prefix, p, src)
	}
}

// TwoAddressTracer writes one line per sink arrival. It reads the packet
// from the hook item and the addresses from a network.AddressPair detail.
type TwoAddressTracer struct {
	w io.Writer
}

// NewTwoAddressTracer creates a TwoAddressTracer that writes to w.
func NewTwoAddressTracer(w io.Writer) *TwoAddressTracer {
	return &TwoAddressTracer{w: w}
}

// Trace handles an arrival reported on a trace path.
func (t *TwoAddressTracer) Trace(_ string, ctx sim.HookCtx) {
	t.Func(ctx)
}

// Func handles an arrival.
func (t *TwoAddressTracer) Func(ctx sim.HookCtx) {
	p, ok := ctx.Item.(*network.Packet)
	if !ok {
		return
	}

	pair, _ := ctx.Detail.(network.AddressPair)

	prefix := FormatTime(ctx.Now)
	if dst, ok := network.AsInetSocketAddress(pair.Dst); ok {
		prefix += " " + dst.IP.String()
	}

	writeArrival(t.w, prefix, p, pair.Src)
}
