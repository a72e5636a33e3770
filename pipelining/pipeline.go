// Package pipelining provides a fixed-depth delay line. Routers use it to
// model the crossbar traversal delay.
package pipelining

import (
	"github.com/nakacristo/caminos-lib-sub002/sim"
)

// HookPosPipelineAccept marks an element entering the pipeline.
var HookPosPipelineAccept = &sim.HookPos{Name: "Pipeline Accept"}

// HookPosPipelineExit marks an element leaving the last stage.
var HookPosPipelineExit = &sim.HookPos{Name: "Pipeline Exit"}

// PipelineItem is an item that can pass through a pipeline.
type PipelineItem interface {
	TaskID() string
}

// Pipeline allows simulation designers to define pipeline structures.
type Pipeline interface {
	sim.Named
	sim.Hookable

	// Tick moves elements in the pipeline forward.
	Tick() (madeProgress bool)

	// CanAccept checks if the pipeline can accept a new element.
	CanAccept() bool

	// Accept adds an element to the pipeline. If the first pipeline stage is
	// currently occupied, this function panics.
	Accept(elem PipelineItem)

	// InFlight returns the number of elements inside the stages.
	InFlight() int

	// Clear discards all the items that are currently in the pipeline.
	Clear()
}

type pipelineStageInfo struct {
	elem      PipelineItem
	cycleLeft int
}

type pipelineImpl struct {
	sim.HookableBase
	name            string
	width           int
	numStage        int
	cyclePerStage   int
	postPipelineBuf sim.Buffer
	stages          [][]pipelineStageInfo
	inFlight        int
}

func (p *pipelineImpl) Name() string {
	return p.name
}

// Clear discards all the items in the pipeline.
func (p *pipelineImpl) Clear() {
	p.stages = make([][]pipelineStageInfo, p.width)
	for i := 0; i < p.width; i++ {
		p.stages[i] = make([]pipelineStageInfo, p.numStage)
	}

	p.inFlight = 0
}

func (p *pipelineImpl) InFlight() int {
	return p.inFlight
}

// Tick moves elements in the pipeline forward. Stages are visited from the
// last to the first so that a full lane advances in lockstep.
func (p *pipelineImpl) Tick() (madeProgress bool) {
	for lane := 0; lane < p.width; lane++ {
		for i := p.numStage - 1; i >= 0; i-- {
			stage := &p.stages[lane][i]

			if stage.elem == nil {
				continue
			}

			if stage.cycleLeft > 0 {
				stage.cycleLeft--
				madeProgress = true

				continue
			}

			if i == p.numStage-1 {
				madeProgress = p.tryMoveToPostPipelineBuffer(stage) ||
					madeProgress
			} else {
				madeProgress = p.tryMoveToNextStage(lane, i) || madeProgress
			}
		}
	}

	return madeProgress
}

func (p *pipelineImpl) tryMoveToPostPipelineBuffer(
	stage *pipelineStageInfo,
) (succeed bool) {
	if !p.postPipelineBuf.CanPush() {
		return false
	}

	p.postPipelineBuf.Push(stage.elem)
	p.invoke(HookPosPipelineExit, stage.elem)

	stage.elem = nil
	p.inFlight--

	return true
}

func (p *pipelineImpl) tryMoveToNextStage(
	lane int,
	stageNum int,
) (succeed bool) {
	stage := &p.stages[lane][stageNum]
	nextStage := &p.stages[lane][stageNum+1]

	if nextStage.elem != nil {
		return false
	}

	nextStage.elem = stage.elem
	nextStage.cycleLeft = p.cyclePerStage - 1
	stage.elem = nil

	return true
}

// CanAccept checks if the pipeline can accept a new element.
func (p *pipelineImpl) CanAccept() bool {
	if p.numStage == 0 {
		return p.postPipelineBuf.CanPush()
	}

	for lane := 0; lane < p.width; lane++ {
		if p.stages[lane][0].elem == nil {
			return true
		}
	}

	return false
}

// Accept adds an element to the pipeline. If the first pipeline stage is
// currently occupied, this function panics.
func (p *pipelineImpl) Accept(elem PipelineItem) {
	p.invoke(HookPosPipelineAccept, elem)

	if p.numStage == 0 {
		p.postPipelineBuf.Push(elem)
		return
	}

	for lane := 0; lane < p.width; lane++ {
		if p.stages[lane][0].elem != nil {
			continue
		}

		p.stages[lane][0].elem = elem
		p.stages[lane][0].cycleLeft = p.cyclePerStage - 1
		p.inFlight++

		return
	}

	panic("pipeline is not free. Use CanAccept before accepting.")
}

func (p *pipelineImpl) invoke(pos *sim.HookPos, elem PipelineItem) {
	if p.NumHooks() == 0 {
		return
	}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   elem,
	})
}
