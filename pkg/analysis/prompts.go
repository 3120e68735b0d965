package analysis

import (
	"fmt"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/workspace"
)

// DefaultExcerptChars is how much of each sampled file goes into a prompt.
const DefaultExcerptChars = 800

// Template returns the instruction block for t.
func Template(t Type) (string, error) {
	switch t {
	case Framework:
		return `You are an expert software stack analyst.
Analyze the provided project code and dependencies.
Identify what frameworks, libraries, tools, technologies, and external integrations are used.

Provide a clear structured summary:

- Backend framework:
- Frontend framework:
- Database or APIs:
- Payment gateways or integrations:
- Build tools:
- Programming language:

Focus strictly on what is evident from code and dependency names.
Do NOT explain what each technology does.`, nil
	case API:
		return `You are an API discovery assistant.
From the following project code and dependencies, identify all API endpoints,
routes, and their HTTP methods.

Return your findings as a structured list in this format:
- [METHOD] /path
- [METHOD] /path/:param
If possible, include the framework or router library (e.g., ExpressJS, Flask, FastAPI, etc.).`, nil
	case Database:
		return `You are a backend database analysis assistant.
Analyze the provided code and dependencies to determine what databases or ORMs
the project uses (e.g., MySQL, PostgreSQL, MongoDB, Prisma, SQLAlchemy).

Return results like:
- Database(s) used:
- ORM or driver libraries:
- Connection indicators:
Focus strictly on concrete evidence from imports, configs, or package names.`, nil
	}
	return "", fmt.Errorf("no analysis template for %s", t)
}

// BuildPrompt joins the template for t with the dependency list and file excerpts.
// excerptChars bounds each excerpt; zero or less uses DefaultExcerptChars.
func BuildPrompt(t Type, dependencies []string, samples []workspace.FileSample, excerptChars int) (string, error) {
	template, err := Template(t)
	if err != nil {
		return "", err
	}
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}

	var sb strings.Builder
	sb.WriteString(template)
	sb.WriteString("\n\n")
	if len(dependencies) > 0 {
		fmt.Fprintf(&sb, "Detected dependencies: %s\n\n", strings.Join(dependencies, ", "))
	}
	sb.WriteString("Code samples:\n")
	for i, sample := range samples {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "File: %s\n%s", sample.Path, excerpt(sample.Content, excerptChars))
	}
	return sb.String(), nil
}

// excerpt returns the first n runes of s.
func excerpt(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
