package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in order", func() {
		rng := rand.New(rand.NewSource(1))
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(Cycle(rng.Intn(1000))).
				AnyTimes()
			queue.Push(event)
		}

		now := Cycle(0)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}
	})

	It("should keep insertion order among same-cycle events", func() {
		events := make([]*MockEvent, 5)
		for i := range events {
			events[i] = NewMockEvent(mockCtrl)
			events[i].EXPECT().Time().Return(Cycle(3)).AnyTimes()
			queue.Push(events[i])
		}

		for i := range events {
			Expect(queue.Pop()).To(BeIdenticalTo(events[i]))
		}
	})

	It("should pop due events only", func() {
		early := NewMockEvent(mockCtrl)
		early.EXPECT().Time().Return(Cycle(2)).AnyTimes()
		late := NewMockEvent(mockCtrl)
		late.EXPECT().Time().Return(Cycle(5)).AnyTimes()
		queue.Push(late)
		queue.Push(early)

		Expect(queue.PopDue(1)).To(BeEmpty())
		Expect(queue.PopDue(4)).To(Equal([]Event{early}))
		Expect(queue.Len()).To(Equal(1))
		Expect(queue.Peek()).To(BeIdenticalTo(late))
		Expect(queue.PopDue(5)).To(Equal([]Event{late}))
		Expect(queue.Peek()).To(BeNil())
	})
})
