package intent

import (
	"fmt"
)

// MainIntent is the top level of the intent taxonomy.
type MainIntent int

const (
	Analytics MainIntent = iota
	Generative
)

var mainIntentNames = map[MainIntent]string{
	Analytics:  "analytics",
	Generative: "generative",
}

func (m MainIntent) String() string {
	if name, ok := mainIntentNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MainIntent(%d)", int(m))
}

func (m MainIntent) MarshalText() ([]byte, error) {
	if _, ok := mainIntentNames[m]; !ok {
		return nil, fmt.Errorf("unknown main intent %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *MainIntent) UnmarshalText(text []byte) error {
	parsed, err := ParseMainIntent(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMainIntent converts a label such as "analytics" into a MainIntent.
func ParseMainIntent(label string) (MainIntent, error) {
	for m, name := range mainIntentNames {
		if name == label {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown main intent %q", label)
}

// SubIntent is the second level of the taxonomy. SubNone marks a classification made
// against a flat taxonomy.
type SubIntent int

const (
	SubNone SubIntent = iota
	FrameworkAnalysis
	ApiAnalysis
	DatabaseAnalysis
	ProjectCreation
	ComponentGeneration
	CodeRefactor
)

var subIntentNames = map[SubIntent]string{
	SubNone:             "",
	FrameworkAnalysis:   "framework_analysis",
	ApiAnalysis:         "api_analysis",
	DatabaseAnalysis:    "database_analysis",
	ProjectCreation:     "project_creation",
	ComponentGeneration: "component_generation",
	CodeRefactor:        "code_refactor",
}

var subIntentParents = map[SubIntent]MainIntent{
	FrameworkAnalysis:   Analytics,
	ApiAnalysis:         Analytics,
	DatabaseAnalysis:    Analytics,
	ProjectCreation:     Generative,
	ComponentGeneration: Generative,
	CodeRefactor:        Generative,
}

func (s SubIntent) String() string {
	if name, ok := subIntentNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SubIntent(%d)", int(s))
}

// Main returns the parent of s. SubNone and unknown values have no parent.
func (s SubIntent) Main() (MainIntent, bool) {
	m, ok := subIntentParents[s]
	return m, ok
}

func (s SubIntent) MarshalText() ([]byte, error) {
	if _, ok := subIntentNames[s]; !ok {
		return nil, fmt.Errorf("unknown sub intent %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *SubIntent) UnmarshalText(text []byte) error {
	parsed, err := ParseSubIntent(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSubIntent converts a label such as "api_analysis" into a SubIntent. The empty
// label maps to SubNone.
func ParseSubIntent(label string) (SubIntent, error) {
	for s, name := range subIntentNames {
		if name == label {
			return s, nil
		}
	}
	return SubNone, fmt.Errorf("unknown sub intent %q", label)
}

// Classification is the best taxonomy match for a query.
type Classification struct {
	Main       MainIntent `json:"main_intent"`
	Sub        SubIntent  `json:"sub_intent,omitempty"`
	Confidence float64    `json:"confidence"`
}

func (c Classification) String() string {
	if c.Sub == SubNone {
		return fmt.Sprintf("%s (%.3f)", c.Main, c.Confidence)
	}
	return fmt.Sprintf("%s/%s (%.3f)", c.Main, c.Sub, c.Confidence)
}
