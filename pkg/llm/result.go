package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResultKind tags what a Result carries.
type ResultKind int

const (
	KindRaw ResultKind = iota
	KindStructured
)

func (k ResultKind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindStructured:
		return "structured"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Result is what the gateway hands back: either parsed JSON or the model's text.
// Callers switch on Kind instead of guessing from the payload.
type Result struct {
	kind ResultKind
	data json.RawMessage
	text string
}

// Structured wraps a parsed JSON document.
func Structured(data json.RawMessage) Result {
	return Result{kind: KindStructured, data: data, text: string(data)}
}

// Raw wraps plain model text.
func Raw(text string) Result {
	return Result{kind: KindRaw, text: text}
}

func (r Result) Kind() ResultKind {
	return r.kind
}

func (r Result) IsStructured() bool {
	return r.kind == KindStructured
}

// JSON returns the structured payload, or nil for raw results.
func (r Result) JSON() json.RawMessage {
	return r.data
}

// Text returns the raw text, or the JSON source for structured results.
func (r Result) Text() string {
	return r.text
}

// Decode unmarshals a structured result into v.
func (r Result) Decode(v any) error {
	if r.kind != KindStructured {
		return fmt.Errorf("result is %s text, not JSON", r.kind)
	}
	return json.Unmarshal(r.data, v)
}

// ParseResponse interprets model text. When expectJSON is set it strips a surrounding
// code fence and parses the body; a fenced body may hold any JSON value, an unfenced
// reply must look like a single object. Anything else comes back as trimmed Raw text.
// The returned error describes a failed parse and is informational only.
func ParseResponse(text string, expectJSON bool) (Result, error) {
	text = strings.TrimSpace(text)
	if !expectJSON {
		return Raw(text), nil
	}

	body, fenced := stripFence(text)
	if !fenced && !(strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}")) {
		return Raw(body), nil
	}

	var doc json.RawMessage
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		kind := "plain"
		if fenced {
			kind = "fenced"
		}
		return Raw(body), fmt.Errorf("failed to parse %s JSON: %w", kind, err)
	}
	return Structured(doc), nil
}

// stripFence removes a leading ``` marker (with an optional language tag) and a
// trailing ``` marker. A tag on the same line as the content is only recognised when
// it is json directly followed by an object or array.
func stripFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") {
		return text, false
	}

	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isFenceTag(body[:nl]) {
		body = body[nl+1:]
	} else if isFenceTag(body) {
		body = ""
	} else if tag := jsonTag(body); tag != "" {
		// ```json{"a":1}```
		body = body[len(tag):]
	}

	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body), true
}

func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func jsonTag(s string) string {
	for _, tag := range []string{"json", "JSON"} {
		if rest, ok := strings.CutPrefix(s, tag); ok && (strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "[")) {
			return tag
		}
	}
	return ""
}
