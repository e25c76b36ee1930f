package tracing

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/sarchlab/wavesim/datarecording"
	"github.com/sarchlab/wavesim/network"
	"github.com/sarchlab/wavesim/sim"
)

// FrameTable is the table FrameRecorder writes to.
const FrameTable = "frames"

// FrameEntry is one recorded frame transmission or arrival.
type FrameEntry struct {
	ID        string
	Time      float64
	Node      int
	Device    string
	Direction string
	Src       string
	Dst       string
	Size      int
	PacketUID uint64
	Digest    string
}

// FrameRecorder is a hook that records device traffic. Attach it to MacTx
// and MacRx trace sources.
type FrameRecorder struct {
	backend datarecording.DataRecorder
	count   int
}

// NewFrameRecorder creates the frame table and returns a recorder that fills
// it.
func NewFrameRecorder(backend datarecording.DataRecorder) *FrameRecorder {
	backend.CreateTable(FrameTable, FrameEntry{})

	return &FrameRecorder{backend: backend}
}

// Count returns the number of frames recorded.
func (r *FrameRecorder) Count() int {
	return r.count
}

// Func records a frame reported by a device.
func (r *FrameRecorder) Func(ctx sim.HookCtx) {
	var direction string

	switch ctx.Pos {
	case network.HookPosDeviceTx:
		direction = "tx"
	case network.HookPosDeviceRx:
		direction = "rx"
	default:
		return
	}

	f, ok := ctx.Item.(network.Frame)
	if !ok {
		return
	}

	entry := FrameEntry{
		ID:        sim.GetIDGenerator().Generate(),
		Time:      float64(ctx.Now),
		Node:      -1,
		Direction: direction,
		Src:       f.Datagram.Src.String(),
		Dst:       f.Datagram.Dst.String(),
		Size:      f.Datagram.Size(),
		PacketUID: f.Datagram.Packet.UID(),
		Digest:    Digest(f.Datagram.Packet),
	}

	if dev, ok := ctx.Domain.(network.NetDevice); ok {
		entry.Device = dev.Name()
		entry.Node = dev.Node().ID()
	}

	r.backend.InsertData(FrameTable, entry)
	r.count++
}

// Digest returns a short hash of a packet's content.
func Digest(p *network.Packet) string {
	return strconv.FormatUint(xxhash.Sum64(p.Bytes()), 16)
}

// Flush writes buffered records.
func (r *FrameRecorder) Flush() {
	r.backend.Flush()
}
