package intent

import (
	"fmt"
	"strings"
)

// Entry is one node of the taxonomy with the phrases that define it.
type Entry struct {
	Main     MainIntent
	Sub      SubIntent
	Examples []string
}

// Taxonomy is an ordered list of entries. Order matters: on equal similarity the
// earlier entry wins.
type Taxonomy []Entry

// DefaultTaxonomy returns the built-in two-level taxonomy.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Analytics, FrameworkAnalysis, []string{
			"which framework or tech stack is used",
			"find frameworks, libraries or tools used",
			"detect backend or frontend technologies",
			"analyze programming language or framework",
		}},
		{Analytics, ApiAnalysis, []string{
			"list all api endpoints or routes",
			"find api urls, methods, or handlers",
			"detect backend routes or http methods",
		}},
		{Analytics, DatabaseAnalysis, []string{
			"find what database or orm is used",
			"detect sql, mysql, mongodb, or sqlalchemy",
			"which database technology is used",
		}},
		{Generative, ProjectCreation, []string{
			"create a new project or scaffold",
			"generate a flask, react or electron app",
			"build a new web or api project",
		}},
		{Generative, ComponentGeneration, []string{
			"create a new ui component or frontend page",
			"generate react component, form or modal",
			"add new frontend feature or element",
		}},
		{Generative, CodeRefactor, []string{
			"refactor existing code",
			"optimize or rewrite code for better structure",
			"clean up functions or files",
		}},
	}
}

// FlatTaxonomy returns the single-level analytics/generative taxonomy.
func FlatTaxonomy() Taxonomy {
	return Taxonomy{
		{Analytics, SubNone, []string{
			"analyze existing project",
			"understand what technology or framework is used",
			"find what tech stack or backend this project uses",
			"detect libraries, dependencies, or frameworks",
			"which database, api, or language is used in this codebase",
		}},
		{Generative, SubNone, []string{
			"create a new project or application",
			"generate code or scaffold a project",
			"build a new API backend or frontend project",
			"set up a project using React, Flask, or Electron",
			"make or modify source code according to user request",
		}},
	}
}

// Validate checks that every entry has phrases, that sub-intents sit under their
// parent, and that no pair appears twice.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("taxonomy has no entries")
	}

	seen := make(map[[2]int]bool, len(t))
	for i, entry := range t {
		if _, ok := mainIntentNames[entry.Main]; !ok {
			return fmt.Errorf("entry %d: unknown main intent %d", i, int(entry.Main))
		}
		if entry.Sub != SubNone {
			parent, ok := entry.Sub.Main()
			if !ok {
				return fmt.Errorf("entry %d: unknown sub intent %d", i, int(entry.Sub))
			}
			if parent != entry.Main {
				return fmt.Errorf("entry %d: %s belongs to %s, not %s", i, entry.Sub, parent, entry.Main)
			}
		}

		key := [2]int{int(entry.Main), int(entry.Sub)}
		if seen[key] {
			return fmt.Errorf("entry %d: duplicate entry for %s", i, entry.label())
		}
		seen[key] = true

		if len(entry.Examples) == 0 {
			return fmt.Errorf("entry %d: %s has no example phrases", i, entry.label())
		}
		for _, phrase := range entry.Examples {
			if strings.TrimSpace(phrase) == "" {
				return fmt.Errorf("entry %d: %s has a blank example phrase", i, entry.label())
			}
		}
	}
	return nil
}

func (e Entry) label() string {
	if e.Sub == SubNone {
		return e.Main.String()
	}
	return e.Main.String() + "/" + e.Sub.String()
}
