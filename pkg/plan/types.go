package plan

import "fmt"

// ActionKind is the verb of a plan step.
type ActionKind string

const (
	ActionAnalyze    ActionKind = "analyze"
	ActionWriteFiles ActionKind = "write_files"
	ActionRunCommand ActionKind = "run_command"
	ActionExplain    ActionKind = "explain"
)

// Known reports whether k is one of the four kinds the planning prompt allows.
func (k ActionKind) Known() bool {
	switch k {
	case ActionAnalyze, ActionWriteFiles, ActionRunCommand, ActionExplain:
		return true
	}
	return false
}

// FileSpec is a file a write_files action wants created.
type FileSpec struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// Action is one plan step.
type Action struct {
	Action  ActionKind `json:"action"`
	Command string     `json:"command,omitempty"`
	Files   []FileSpec `json:"files"`
	Message string     `json:"message"`
}

// ProjectPlan is the JSON plan the model returns. Nothing in this package writes the
// files or runs the commands it lists.
type ProjectPlan struct {
	BaseDirectory string   `json:"base_directory"`
	Actions       []Action `json:"actions"`
}

// Issue is one defect found by Validate.
type Issue struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

func (i Issue) String() string {
	path := i.Path
	if path == "" {
		path = "unknown"
	}
	return fmt.Sprintf("%s in %s", i.Description, path)
}
