package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/llm"
)

// ParsePlan decodes a structured model reply into a plan. The reply must be a JSON
// object whose "actions" member is an array of objects. Everything inside an action is
// read leniently: a field of an unexpected type is converted to text or dropped, and
// left for Validate to judge.
func ParsePlan(result llm.Result) (*ProjectPlan, error) {
	var fields map[string]json.RawMessage
	if err := result.Decode(&fields); err != nil {
		return nil, &MalformedPlanError{Reason: "reply is not a JSON object", Err: err}
	}

	raw, ok := fields["actions"]
	if !ok {
		return nil, &MalformedPlanError{Reason: `missing "actions"`}
	}
	var actions []json.RawMessage
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedPlanError{Reason: `"actions" is not a list`}
	}
	if err := json.Unmarshal(raw, &actions); err != nil {
		return nil, &MalformedPlanError{Reason: `"actions" is not a list`, Err: err}
	}

	p := &ProjectPlan{
		BaseDirectory: looseString(fields["base_directory"]),
		Actions:       make([]Action, 0, len(actions)),
	}
	for i, item := range actions {
		var af map[string]json.RawMessage
		if err := json.Unmarshal(item, &af); err != nil || af == nil {
			return nil, &MalformedPlanError{Reason: fmt.Sprintf("action %d is not an object", i+1), Err: err}
		}
		p.Actions = append(p.Actions, Action{
			Action:  ActionKind(looseString(af["action"])),
			Command: looseString(af["command"]),
			Files:   looseFiles(af["files"]),
			Message: looseString(af["message"]),
		})
	}
	return p, nil
}

// looseFiles reads a files member. A single object counts as a one-file list; anything
// else that is not a list of objects yields no files.
func looseFiles(raw json.RawMessage) []FileSpec {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil
		}
		items = []json.RawMessage{trimmed}
	}

	files := make([]FileSpec, 0, len(items))
	for _, item := range items {
		var ff map[string]json.RawMessage
		if err := json.Unmarshal(item, &ff); err != nil || ff == nil {
			continue
		}
		files = append(files, FileSpec{
			Path:     looseString(ff["path"]),
			Language: looseString(ff["language"]),
			Content:  looseString(ff["content"]),
		})
	}
	return files
}

// looseString renders a JSON value as text: strings as-is, lists joined with spaces,
// null as "" and other values in their JSON form.
func looseString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if s := looseString(item); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, " ")
		}
	}
	return string(trimmed)
}
