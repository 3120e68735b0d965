package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/utils"
)

// Outcome is what a refinement produced. Exactly one of Plan and Raw is set: Raw holds
// model text that could not be read as a plan.
type Outcome struct {
	Plan *ProjectPlan `json:"plan,omitempty"`
	Raw  string       `json:"raw,omitempty"`

	// Original is the plan before refinement.
	Original *ProjectPlan `json:"-"`
	// Issues found in Original.
	Issues []Issue `json:"issues,omitempty"`
	// Remaining issues in Plan after the last round. Unknown when Raw is set.
	Remaining []Issue `json:"remaining,omitempty"`
	Rounds    int     `json:"rounds"`
}

// Complete reports whether the outcome is a plan with no known issues.
func (o *Outcome) Complete() bool {
	return o.Plan != nil && len(o.Remaining) == 0
}

// Refined reports whether the model was asked to repair the plan.
func (o *Outcome) Refined() bool {
	return o.Rounds > 0
}

// Refiner repairs incomplete plans by sending them back to the model.
type Refiner struct {
	gen       llm.Generator
	maxRounds int
	logger    *utils.Logger
}

// NewRefiner returns a refiner that makes at most maxRounds repair requests per plan.
// maxRounds below 1 is treated as 1.
func NewRefiner(gen llm.Generator, maxRounds int, logger *utils.Logger) *Refiner {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Refiner{gen: gen, maxRounds: maxRounds, logger: logger}
}

// Refine returns p untouched when it has no issues, without calling the model.
// Otherwise each round sends the plan, the user query and the issue list to the model
// and re-validates the reply. A reply that is not a plan ends refinement and is
// returned as Raw.
func (r *Refiner) Refine(ctx context.Context, query string, p *ProjectPlan) (*Outcome, error) {
	issues, err := Validate(p)
	if err != nil {
		return nil, err
	}

	r.warnUnknownKinds(p)
	outcome := &Outcome{Plan: p, Original: p, Issues: issues}
	if len(issues) == 0 {
		r.logger.Log("Plan looks complete. No refinement needed.")
		return outcome, nil
	}

	current, remaining := p, issues
	for round := 1; round <= r.maxRounds; round++ {
		r.logger.LogProcessStep(fmt.Sprintf("Refining plan (round %d/%d), %d issue(s) found", round, r.maxRounds, len(remaining)))

		prompt, err := RepairPrompt(query, current, remaining)
		if err != nil {
			return nil, err
		}
		result, err := r.gen.Generate(ctx, prompt, true)
		if err != nil {
			return nil, fmt.Errorf("plan refinement failed: %w", err)
		}
		outcome.Rounds = round

		if !result.IsStructured() {
			r.logger.Log("Refinement reply was not JSON, returning raw text")
			outcome.Plan, outcome.Raw, outcome.Remaining = nil, result.Text(), nil
			return outcome, nil
		}
		refined, err := ParsePlan(result)
		if err != nil {
			var malformed *MalformedPlanError
			if errors.As(err, &malformed) {
				r.logger.Logf("Refinement reply is not a plan (%s), returning raw text", malformed.Reason)
			}
			outcome.Plan, outcome.Raw, outcome.Remaining = nil, result.Text(), nil
			return outcome, nil
		}

		current = refined
		r.warnUnknownKinds(refined)
		remaining, err = Validate(refined)
		if err != nil {
			return nil, err
		}
		if len(remaining) == 0 {
			break
		}
	}

	outcome.Plan, outcome.Remaining = current, remaining
	if len(remaining) > 0 {
		r.logger.Logf("Plan still has %d issue(s) after %d refinement round(s)", len(remaining), outcome.Rounds)
	}
	return outcome, nil
}

// warnUnknownKinds logs steps whose action is not one the planning prompt allows.
// They are kept in the plan.
func (r *Refiner) warnUnknownKinds(p *ProjectPlan) {
	for i, action := range p.Actions {
		if !action.Action.Known() {
			r.logger.Logf("Warning: plan step %d has unknown action %q", i+1, action.Action)
		}
	}
}
