package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind selects which planning template a request uses.
type Kind int

const (
	KindProjectCreation Kind = iota
	KindComponentGeneration
	KindCodeRefactor
)

func (k Kind) String() string {
	switch k {
	case KindProjectCreation:
		return "project"
	case KindComponentGeneration:
		return "component"
	case KindCodeRefactor:
		return "refactor"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the names used on the command line.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "project", "project_creation", "":
		return KindProjectCreation, nil
	case "component", "component_generation":
		return KindComponentGeneration, nil
	case "refactor", "code_refactor":
		return KindCodeRefactor, nil
	}
	return 0, fmt.Errorf("unknown plan kind %q (use project, component or refactor)", name)
}

const schemaRules = `Follow these formatting rules strictly:

1. The JSON must be a single object (no outer keys like "plan" or "steps").

2. Use **exactly** these top-level keys:
   {
     "base_directory": "string",                 // folder name where files and commands will be executed.
                                                 // If the user explicitly mentions a folder, use that name.
                                                 // Otherwise, automatically generate a short, meaningful name
                                                 // based on the project type (e.g., "react-project", "flask-api").
     "actions": [
       {
         "action": "string",                     // one of ["analyze", "write_files", "run_command", "explain"]
         "command": "string (if applicable)",    // required if action = "run_command"
         "files": [                              // required if action = "write_files", else []
            {
              "path": "string (relative to base_directory)",
              "language": "string",
              "content": "string"
            }
         ],
         "message": "string"                     // short explanation of this action
       }
     ]
   }

3. Always return all keys, even if arrays are empty (e.g., "files": []).

4. Do not include markdown, code fences, or text outside JSON.

5. If unsure about the folder name, make a reasonable assumption based on the project type.

6. All file paths must be relative to the "base_directory".

7. Output valid JSON that can be parsed directly.

Return only JSON, no markdown or commentary.
`

// BuildPrompt renders the planning prompt for kind. projectContext is appended when
// a project is open and may be empty.
func BuildPrompt(kind Kind, query, projectContext string) (string, error) {
	var intro string
	switch kind {
	case KindProjectCreation:
		intro = `You are an expert project setup assistant.
Understand the user's request and return a structured JSON plan describing what actions to perform.`
	case KindComponentGeneration:
		intro = `You are an expert frontend engineer.
Understand the user's request and return a structured JSON plan that adds the requested UI component,
page or feature to the existing project. Write complete component code that matches the project's
framework and styling conventions, and add any import or registration changes it needs.`
	case KindCodeRefactor:
		intro = `You are an expert software engineer focused on refactoring.
Understand the user's request and return a structured JSON plan that rewrites the affected files of the
existing project. Keep behavior unchanged unless the user asks otherwise, and include the full new
content of every file you rewrite.`
	default:
		return "", fmt.Errorf("no planning template for %s", kind)
	}

	var sb strings.Builder
	sb.WriteString(intro)
	sb.WriteString("\n\nUser request:\n")
	fmt.Fprintf(&sb, "\"%s\"\n\n", query)
	if ctx := strings.TrimSpace(projectContext); ctx != "" {
		sb.WriteString("Existing project context:\n")
		sb.WriteString(ctx)
		sb.WriteString("\n\n")
	}
	sb.WriteString(schemaRules)
	return sb.String(), nil
}

// RepairPrompt asks the model to fix the listed issues in p.
func RepairPrompt(query string, p *ProjectPlan, issues []Issue) (string, error) {
	planJSON, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("The following project setup plan is incomplete.\n\n")
	sb.WriteString("User originally asked:\n")
	fmt.Fprintf(&sb, "\"%s\"\n\n", query)
	sb.WriteString("The plan generated so far:\n")
	sb.Write(planJSON)
	sb.WriteString("\n\nIssues detected:\n")
	for _, issue := range issues {
		fmt.Fprintf(&sb, "- %s\n", issue)
	}
	sb.WriteString(`
Your task:
- Fix missing or empty 'content' fields with realistic runnable code relevant to the user's request.
- Add any missing 'install' or 'run' commands (like npm start, pip install, etc.).
- Keep the same JSON structure.
- Return only valid JSON, no extra text.
`)
	return sb.String(), nil
}
