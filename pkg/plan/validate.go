package plan

const emptyContent = "Empty content"

// Validate returns one Issue per write_files entry with empty content. Other action
// kinds, run_command commands and base_directory are not inspected.
func Validate(p *ProjectPlan) ([]Issue, error) {
	if p == nil {
		return nil, &MalformedPlanError{Reason: "no plan"}
	}
	if p.Actions == nil {
		return nil, &MalformedPlanError{Reason: `missing "actions"`}
	}

	var issues []Issue
	for _, action := range p.Actions {
		if action.Action != ActionWriteFiles {
			continue
		}
		for _, file := range action.Files {
			if file.Content == "" {
				issues = append(issues, Issue{Path: file.Path, Description: emptyContent})
			}
		}
	}
	return issues, nil
}
