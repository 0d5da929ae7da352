package pipeline

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default is the full chain: load, declare, check, finalize.
func Default() *Pipeline {
	return New(&LoadProcessor{}, &DeclareProcessor{}, &CheckProcessor{}, &FinalizeProcessor{})
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Stages check ctx.Err themselves, so a failed load still reaches
		// the end of the chain with its error.
	}
	return ctx
}
