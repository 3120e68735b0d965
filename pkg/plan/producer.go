package plan

import (
	"context"
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/utils"
)

// Producer asks the model for a plan and passes it through the refiner. It never
// touches the file system.
type Producer struct {
	gen            llm.Generator
	refiner        *Refiner
	projectContext string
	logger         *utils.Logger
}

// NewProducer creates a producer. projectContext describes the open project and is
// included in every planning prompt; it may be empty.
func NewProducer(gen llm.Generator, refiner *Refiner, projectContext string, logger *utils.Logger) *Producer {
	return &Producer{
		gen:            gen,
		refiner:        refiner,
		projectContext: projectContext,
		logger:         logger,
	}
}

// GetProjectPlan produces a plan for creating a new project.
func (p *Producer) GetProjectPlan(ctx context.Context, query string) (*Outcome, error) {
	return p.Produce(ctx, KindProjectCreation, query)
}

// Produce runs one planning request of the given kind followed by refinement. A reply
// that is not JSON is returned as Raw without refinement; JSON without an "actions"
// list is a MalformedPlanError.
func (p *Producer) Produce(ctx context.Context, kind Kind, query string) (*Outcome, error) {
	prompt, err := BuildPrompt(kind, query, p.projectContext)
	if err != nil {
		return nil, err
	}

	p.logger.LogProcessStep(fmt.Sprintf("Requesting %s plan", kind))
	result, err := p.gen.Generate(ctx, prompt, true)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}
	if !result.IsStructured() {
		p.logger.Log("Planning reply was not JSON, returning raw text")
		return &Outcome{Raw: result.Text()}, nil
	}

	candidate, err := ParsePlan(result)
	if err != nil {
		return nil, err
	}
	return p.refiner.Refine(ctx, query, candidate)
}
