package sim

// HookPosBufPush marks an element entering a buffer.
var HookPosBufPush = &HookPos{Name: "Buf Push"}

// HookPosBufPop marks an element leaving a buffer.
var HookPosBufPop = &HookPos{Name: "Buf Pop"}

// HookPosBufDrop marks an element turned away by a full buffer.
var HookPosBufDrop = &HookPos{Name: "Buf Drop"}

// A Buffer is a bounded FIFO queue with a drop-tail policy. Elements that
// arrive while it is full are discarded and counted.
type Buffer interface {
	Named
	Hookable

	// Push appends e. It returns false and counts a drop if the buffer is
	// full.
	Push(e any) bool

	// Pop removes the oldest element. It returns nil if the buffer is empty.
	Pop() any

	Peek() any
	CanPush() bool
	Capacity() int
	Size() int

	// Dropped returns the number of elements discarded since creation.
	Dropped() int

	// Clear discards the queued elements without counting them as drops.
	Clear()
}

// NewBuffer creates a drop-tail buffer that holds up to capacity elements.
func NewBuffer(name string, capacity int) Buffer {
	NameMustBeValid(name)

	if capacity <= 0 {
		panic("buffer capacity must be positive")
	}

	return &dropTailBuffer{
		name:     name,
		capacity: capacity,
	}
}

type dropTailBuffer struct {
	HookableBase

	name     string
	capacity int
	elements []any
	dropped  int
}

func (b *dropTailBuffer) Name() string {
	return b.name
}

func (b *dropTailBuffer) CanPush() bool {
	return len(b.elements) < b.capacity
}

func (b *dropTailBuffer) Push(e any) bool {
	pos := HookPosBufPush

	accepted := b.CanPush()
	if accepted {
		b.elements = append(b.elements, e)
	} else {
		b.dropped++
		pos = HookPosBufDrop
	}

	b.notify(pos, e)

	return accepted
}

func (b *dropTailBuffer) Pop() any {
	if len(b.elements) == 0 {
		return nil
	}

	e := b.elements[0]
	b.elements[0] = nil
	b.elements = b.elements[1:]

	b.notify(HookPosBufPop, e)

	return e
}

func (b *dropTailBuffer) notify(pos *HookPos, e any) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{
		Domain: b,
		Pos:    pos,
		Item:   e,
	})
}

func (b *dropTailBuffer) Peek() any {
	if len(b.elements) == 0 {
		return nil
	}

	return b.elements[0]
}

func (b *dropTailBuffer) Capacity() int {
	return b.capacity
}

func (b *dropTailBuffer) Size() int {
	return len(b.elements)
}

func (b *dropTailBuffer) Dropped() int {
	return b.dropped
}

func (b *dropTailBuffer) Clear() {
	b.elements = nil
}
