package pipelining

import (
	"errors"

	"github.com/nakacristo/caminos-lib-sub002/sim"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type pipelineItem struct {
	taskID string
}

func (p pipelineItem) TaskID() string {
	return p.taskID
}

func mustBuild(b Builder, name string) Pipeline {
	p, err := b.Build(name)
	Expect(err).NotTo(HaveOccurred())

	return p
}

var _ = Describe("Builder", func() {
	It("should reject a negative number of stages", func() {
		_, err := MakeBuilder().
			WithNumStage(-1).
			WithPostPipelineBuffer(sim.NewBuffer("Post", 1)).
			Build("Pipeline")

		var cfgErr *sim.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Field).To(Equal("pipeline.stages"))
	})

	It("should require a post-pipeline buffer", func() {
		_, err := MakeBuilder().Build("Pipeline")
		Expect(err).To(MatchError(ContainSubstring("post_buffer")))
	})
})

var _ = Describe("Pipeline", func() {
	var (
		mockCtrl           *gomock.Controller
		postPipelineBuffer *MockBuffer
		pipeline           Pipeline
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		postPipelineBuffer = NewMockBuffer(mockCtrl)
		pipeline = mustBuild(MakeBuilder().
			WithPipelineWidth(1).
			WithNumStage(100).
			WithCyclePerStage(2).
			WithPostPipelineBuffer(postPipelineBuffer), "Pipeline")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should process items in pipeline", func() {
		item1 := pipelineItem{taskID: "1"}
		item2 := pipelineItem{taskID: "2"}

		Expect(pipeline.CanAccept()).To(BeTrue())

		pipeline.Accept(item1)
		Expect(pipeline.CanAccept()).To(BeFalse())
		Expect(pipeline.InFlight()).To(Equal(1))

		Expect(pipeline.Tick()).To(BeTrue())
		Expect(pipeline.CanAccept()).To(BeFalse())

		Expect(pipeline.Tick()).To(BeTrue())
		Expect(pipeline.CanAccept()).To(BeTrue())
		pipeline.Accept(item2)

		for i := 2; i < 199; i++ {
			Expect(pipeline.Tick()).To(BeTrue())
		}

		postPipelineBuffer.EXPECT().CanPush().Return(true)
		postPipelineBuffer.EXPECT().Push(item1)
		Expect(pipeline.Tick()).To(BeTrue())
		Expect(pipeline.InFlight()).To(Equal(1))

		Expect(pipeline.Tick()).To(BeTrue())

		postPipelineBuffer.EXPECT().CanPush().Return(false)
		Expect(pipeline.Tick()).To(BeFalse())

		postPipelineBuffer.EXPECT().CanPush().Return(true)
		postPipelineBuffer.EXPECT().Push(item2)
		Expect(pipeline.Tick()).To(BeTrue())

		Expect(pipeline.Tick()).To(BeFalse())
		Expect(pipeline.InFlight()).To(Equal(0))
	})
})

var _ = Describe("Wide Pipeline", func() {
	var (
		post     sim.Buffer
		pipeline Pipeline
	)

	BeforeEach(func() {
		post = sim.NewBuffer("Post", 4)
		pipeline = mustBuild(MakeBuilder().
			WithPipelineWidth(2).
			WithNumStage(1).
			WithPostPipelineBuffer(post), "Crossbar")
	})

	It("should accept one item per lane each cycle", func() {
		pipeline.Accept(pipelineItem{taskID: "a"})
		pipeline.Accept(pipelineItem{taskID: "b"})
		Expect(pipeline.CanAccept()).To(BeFalse())

		Expect(pipeline.Tick()).To(BeTrue())

		Expect(post.Size()).To(Equal(2))
		Expect(post.Pop()).To(Equal(pipelineItem{taskID: "a"}))
		Expect(pipeline.CanAccept()).To(BeTrue())
	})

	It("should report accept and exit through hooks", func() {
		var positions []*sim.HookPos
		pipeline.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		pipeline.Accept(pipelineItem{taskID: "a"})
		pipeline.Tick()

		Expect(positions).To(Equal(
			[]*sim.HookPos{HookPosPipelineAccept, HookPosPipelineExit}))
	})
})

var _ = Describe("Zero-Stage Pipeline", func() {
	var (
		mockCtrl           *gomock.Controller
		postPipelineBuffer *MockBuffer
		pipeline           Pipeline
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		postPipelineBuffer = NewMockBuffer(mockCtrl)
		pipeline = mustBuild(MakeBuilder().
			WithPipelineWidth(1).
			WithNumStage(0).
			WithCyclePerStage(2).
			WithPostPipelineBuffer(postPipelineBuffer), "Pipeline")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not accept if post buffer is full", func() {
		postPipelineBuffer.EXPECT().CanPush().Return(false)

		Expect(pipeline.CanAccept()).To(BeFalse())
	})

	It("should forward to post buffer directly", func() {
		item1 := pipelineItem{taskID: "1"}

		postPipelineBuffer.EXPECT().CanPush().Return(true)
		postPipelineBuffer.EXPECT().Push(item1)

		canAccept := pipeline.CanAccept()
		pipeline.Accept(item1)

		Expect(canAccept).To(BeTrue())
		Expect(pipeline.InFlight()).To(Equal(0))
	})
})
