package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BufferImpl", func() {
	var (
		buf Buffer
	)

	BeforeEach(func() {
		buf = NewBuffer("Buf", 2)
	})

	It("should allow push and pop", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		buf.Push(1)
		Expect(buf.CanPush()).To(BeTrue())
		Expect(buf.Size()).To(Equal(1))

		buf.Push(2)
		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))

		Expect(buf.Peek()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(1))
		Expect(buf.Size()).To(Equal(1))
		Expect(buf.Peek()).To(Equal(2))
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Size()).To(Equal(0))
		Expect(buf.Peek()).To(BeNil())
		Expect(buf.Pop()).To(BeNil())
	})

	It("should raise an invariant violation on overflow", func() {
		buf.Push(1)
		buf.Push(2)

		defer func() {
			r := recover()
			Expect(r).To(BeAssignableToTypeOf(&InvariantViolation{}))
			v := r.(*InvariantViolation)
			Expect(v.Component).To(Equal("Buf"))
			Expect(v.Detail).To(Equal("buffer overflow"))
		}()

		buf.Push(3)
	})

	It("should invoke hooks on push and pop", func() {
		var positions []*HookPos
		buf.AcceptHook(HookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		buf.Push(1)
		buf.Pop()

		Expect(positions).To(Equal([]*HookPos{HookPosBufPush, HookPosBufPop}))
	})

	It("should clear", func() {
		buf.Push(2)
		Expect(buf.Size()).To(Equal(1))

		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.Peek()).To(BeNil())
	})
})

var _ = Describe("Buffer wrap-around", func() {
	It("should keep fifo order across the end of its storage", func() {
		buf := NewBuffer("Ring", 3)

		buf.Push("a")
		buf.Push("b")
		Expect(buf.Pop()).To(Equal("a"))

		buf.Push("c")
		buf.Push("d")

		Expect(buf.CanPush()).To(BeFalse())
		Expect(buf.Elements()).To(Equal([]interface{}{"b", "c", "d"}))
		Expect(buf.Pop()).To(Equal("b"))
		Expect(buf.Pop()).To(Equal("c"))
		Expect(buf.Pop()).To(Equal("d"))
		Expect(buf.Elements()).To(BeEmpty())
	})

	It("should describe its content when it overflows", func() {
		buf := NewBuffer("Ring", 1)
		buf.Push(7)

		defer func() {
			v := recover().(*InvariantViolation)
			Expect(v.State).To(ContainSubstring("content=[7]"))
		}()

		buf.Push(8)
	})
})
