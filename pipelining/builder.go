package pipelining

import "github.com/nakacristo/caminos-lib-sub002/sim"

// A Builder can build pipelines.
type Builder struct {
	width           int
	numStage        int
	cyclePerStage   int
	postPipelineBuf sim.Buffer
}

// MakeBuilder creates a builder for a single-lane pipeline with one
// one-cycle stage.
func MakeBuilder() Builder {
	return Builder{
		width:         1,
		numStage:      1,
		cyclePerStage: 1,
	}
}

// WithPipelineWidth sets the number of lanes, that is the number of elements
// a stage holds at the same time. A crossbar has one lane per port.
func (b Builder) WithPipelineWidth(n int) Builder {
	b.width = n
	return b
}

// WithNumStage sets the number of stages. Zero stages forward accepted
// elements straight to the post-pipeline buffer.
func (b Builder) WithNumStage(n int) Builder {
	b.numStage = n
	return b
}

// WithCyclePerStage sets how many cycles an element spends in each stage.
func (b Builder) WithCyclePerStage(n int) Builder {
	b.cyclePerStage = n
	return b
}

// WithPostPipelineBuffer sets where elements go after the last stage.
func (b Builder) WithPostPipelineBuffer(buf sim.Buffer) Builder {
	b.postPipelineBuf = buf
	return b
}

// Build checks the parameters and creates the pipeline.
func (b Builder) Build(name string) (Pipeline, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	p := &pipelineImpl{
		name:            name,
		width:           b.width,
		numStage:        b.numStage,
		cyclePerStage:   b.cyclePerStage,
		postPipelineBuf: b.postPipelineBuf,
	}

	p.Clear()

	return p, nil
}

func (b Builder) validate() error {
	switch {
	case b.width < 1:
		return sim.NewConfigurationError("pipeline.width",
			"must be positive, got %d", b.width)
	case b.numStage < 0:
		return sim.NewConfigurationError("pipeline.stages",
			"must not be negative, got %d", b.numStage)
	case b.cyclePerStage < 1:
		return sim.NewConfigurationError("pipeline.cycles_per_stage",
			"must be positive, got %d", b.cyclePerStage)
	case b.postPipelineBuf == nil:
		return sim.NewConfigurationError("pipeline.post_buffer",
			"is required")
	}

	return nil
}
