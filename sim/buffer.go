package sim

import "fmt"

// HookPosBufPush marks when an element is pushed into the buffer.
var HookPosBufPush = &HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is popped from the buffer.
var HookPosBufPop = &HookPos{Name: "Buffer Pop"}

// A Buffer is a bounded FIFO. Flit buffers of routers and the stages of the
// crossbar are Buffers, so a Buffer never holds more than Capacity elements.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e interface{})
	Pop() interface{}
	Peek() interface{}
	Capacity() int
	Size() int

	// Elements lists the content, head first.
	Elements() []interface{}

	// Clear drops every element.
	Clear()
}

// Named describes an object that has a name.
type Named interface {
	Name() string
}

// NewBuffer creates a buffer that holds at most capacity elements.
func NewBuffer(name string, capacity int) Buffer {
	if capacity < 1 {
		panic(fmt.Sprintf("buffer %s must have a positive capacity", name))
	}

	return &ringBuffer{
		name:  name,
		slots: make([]interface{}, capacity),
	}
}

// ringBuffer keeps its elements in a fixed slice. head is the slot of the
// oldest element.
type ringBuffer struct {
	HookableBase

	name  string
	slots []interface{}
	head  int
	size  int
}

func (b *ringBuffer) Name() string {
	return b.name
}

func (b *ringBuffer) CanPush() bool {
	return b.size < len(b.slots)
}

// Push appends an element. Pushing into a full buffer breaks the occupancy
// bound and raises an InvariantViolation.
func (b *ringBuffer) Push(e interface{}) {
	if !b.CanPush() {
		panic(&InvariantViolation{
			Component: b.name,
			Detail:    "buffer overflow",
			State:     b.describe(),
		})
	}

	b.slots[(b.head+b.size)%len(b.slots)] = e
	b.size++

	b.InvokeHook(HookCtx{Domain: b, Pos: HookPosBufPush, Item: e})
}

func (b *ringBuffer) Pop() interface{} {
	if b.size == 0 {
		return nil
	}

	e := b.slots[b.head]
	b.slots[b.head] = nil
	b.head = (b.head + 1) % len(b.slots)
	b.size--

	b.InvokeHook(HookCtx{Domain: b, Pos: HookPosBufPop, Item: e})

	return e
}

func (b *ringBuffer) Peek() interface{} {
	if b.size == 0 {
		return nil
	}

	return b.slots[b.head]
}

func (b *ringBuffer) Capacity() int {
	return len(b.slots)
}

func (b *ringBuffer) Size() int {
	return b.size
}

func (b *ringBuffer) Elements() []interface{} {
	out := make([]interface{}, b.size)
	for i := range out {
		out[i] = b.slots[(b.head+i)%len(b.slots)]
	}

	return out
}

func (b *ringBuffer) Clear() {
	for i := range b.slots {
		b.slots[i] = nil
	}

	b.head = 0
	b.size = 0
}

func (b *ringBuffer) describe() string {
	return fmt.Sprintf("size=%d capacity=%d content=%v",
		b.size, len(b.slots), b.Elements())
}
