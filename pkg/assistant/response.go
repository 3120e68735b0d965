package assistant

import (
	"fmt"

	"github.com/alantheprice/stackpilot/pkg/intent"
	"github.com/alantheprice/stackpilot/pkg/plan"
)

const (
	LowConfidenceNotice = "I'm not confident about the intent. Please rephrase your request."
	UnmatchedNotice     = "I couldn't match your request to a specific function."
)

// ResponseKind says which handler produced a Response.
type ResponseKind int

const (
	KindLowConfidence ResponseKind = iota
	KindUnmatched
	KindAnalysis
	KindPlan
)

func (k ResponseKind) String() string {
	switch k {
	case KindLowConfidence:
		return "low_confidence"
	case KindUnmatched:
		return "unmatched"
	case KindAnalysis:
		return "analysis"
	case KindPlan:
		return "plan"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

func (k ResponseKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Response is the answer to one query. Text carries notices and analysis summaries;
// Plan carries the outcome of a generative request.
type Response struct {
	RequestID      string                `json:"request_id"`
	Kind           ResponseKind          `json:"kind"`
	Classification intent.Classification `json:"classification"`
	Text           string                `json:"text,omitempty"`
	Plan           *plan.Outcome         `json:"plan,omitempty"`
}
