package analysis

import (
	"context"
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/utils"
	"github.com/alantheprice/stackpilot/pkg/workspace"
)

// Analyzer summarizes an opened project through the model.
type Analyzer struct {
	gen          llm.Generator
	project      *workspace.Project
	excerptChars int
	logger       *utils.Logger
}

func NewAnalyzer(gen llm.Generator, project *workspace.Project, excerptChars int, logger *utils.Logger) *Analyzer {
	return &Analyzer{
		gen:          gen,
		project:      project,
		excerptChars: excerptChars,
		logger:       logger,
	}
}

// Analyze returns the model's free-text summary for t.
func (a *Analyzer) Analyze(ctx context.Context, t Type) (string, error) {
	if a.project == nil {
		return "", fmt.Errorf("no project is open")
	}

	prompt, err := BuildPrompt(t, a.project.Dependencies, a.project.Samples, a.excerptChars)
	if err != nil {
		return "", err
	}

	a.logger.LogProcessStep(fmt.Sprintf("Running %s analysis on %d file(s)", t, len(a.project.Samples)))
	result, err := a.gen.Generate(ctx, prompt, false)
	if err != nil {
		return "", fmt.Errorf("%s analysis failed: %w", t, err)
	}
	return result.Text(), nil
}
