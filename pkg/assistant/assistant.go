package assistant

import (
	"context"
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/analysis"
	"github.com/alantheprice/stackpilot/pkg/intent"
	"github.com/alantheprice/stackpilot/pkg/plan"
	"github.com/alantheprice/stackpilot/pkg/utils"
	"github.com/google/uuid"
)

// DefaultThreshold is the lowest confidence that is acted on.
const DefaultThreshold = 0.5

// Classifier maps a query to an intent.
type Classifier interface {
	Detect(ctx context.Context, query string) (intent.Classification, error)
}

// Analyst produces stack summaries.
type Analyst interface {
	Analyze(ctx context.Context, t analysis.Type) (string, error)
}

// Planner produces plans.
type Planner interface {
	Produce(ctx context.Context, kind plan.Kind, query string) (*plan.Outcome, error)
}

// Assistant classifies queries and routes them to the analysis or planning handler.
type Assistant struct {
	classifier Classifier
	analyst    Analyst
	planner    Planner
	threshold  float64
	logger     *utils.Logger
}

// New creates an assistant. A threshold of zero uses DefaultThreshold.
func New(classifier Classifier, analyst Analyst, planner Planner, threshold float64, logger *utils.Logger) *Assistant {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Assistant{
		classifier: classifier,
		analyst:    analyst,
		planner:    planner,
		threshold:  threshold,
		logger:     logger,
	}
}

// HandleQuery classifies query and runs the matching handler. Low confidence and
// unmatched pairs become notice responses; classifier, validation and timeout errors
// are returned.
func (a *Assistant) HandleQuery(ctx context.Context, query string) (*Response, error) {
	requestID := uuid.NewString()
	logger := a.logger.WithCorrelationID(requestID)

	c, err := a.classifier.Detect(ctx, query)
	if err != nil {
		logger.LogError(err)
		return nil, fmt.Errorf("intent detection failed: %w", err)
	}
	logger.LogProcessStep(fmt.Sprintf("Detected intent: %s", c))

	resp := &Response{RequestID: requestID, Classification: c}
	if c.Confidence < a.threshold {
		resp.Kind, resp.Text = KindLowConfidence, LowConfidenceNotice
		return resp, nil
	}

	handler, ok := route(c)
	if !ok {
		logger.Logf("No handler for %s", c)
		resp.Kind, resp.Text = KindUnmatched, UnmatchedNotice
		return resp, nil
	}

	if handler.analysis != nil {
		text, err := a.analyst.Analyze(ctx, *handler.analysis)
		if err != nil {
			return nil, err
		}
		resp.Kind, resp.Text = KindAnalysis, text
		return resp, nil
	}

	outcome, err := a.planner.Produce(ctx, *handler.plan, query)
	if err != nil {
		return nil, err
	}
	resp.Kind, resp.Plan = KindPlan, outcome
	return resp, nil
}

// handler is the target of a route: exactly one field is set.
type handler struct {
	analysis *analysis.Type
	plan     *plan.Kind
}

func analysisHandler(t analysis.Type) handler { return handler{analysis: &t} }
func planHandler(k plan.Kind) handler         { return handler{plan: &k} }

// route maps a classification to its handler. Flat classifications fall back to the
// framework analysis and project creation handlers.
func route(c intent.Classification) (handler, bool) {
	if c.Sub == intent.SubNone {
		switch c.Main {
		case intent.Analytics:
			return analysisHandler(analysis.Framework), true
		case intent.Generative:
			return planHandler(plan.KindProjectCreation), true
		}
		return handler{}, false
	}

	if parent, ok := c.Sub.Main(); !ok || parent != c.Main {
		return handler{}, false
	}
	switch c.Sub {
	case intent.FrameworkAnalysis:
		return analysisHandler(analysis.Framework), true
	case intent.ApiAnalysis:
		return analysisHandler(analysis.API), true
	case intent.DatabaseAnalysis:
		return analysisHandler(analysis.Database), true
	case intent.ProjectCreation:
		return planHandler(plan.KindProjectCreation), true
	case intent.ComponentGeneration:
		return planHandler(plan.KindComponentGeneration), true
	case intent.CodeRefactor:
		return planHandler(plan.KindCodeRefactor), true
	}
	return handler{}, false
}
