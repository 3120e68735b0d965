package analysis

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Type selects which part of the stack an analysis describes.
type Type int

const (
	Framework Type = iota
	API
	Database
)

// Types lists every analysis type in display order.
var Types = []Type{Framework, API, Database}

func (t Type) String() string {
	switch t {
	case Framework:
		return "framework"
	case API:
		return "api"
	case Database:
		return "database"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType converts a name such as "api" into a Type. Unknown names get an error
// that suggests the closest valid name.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	names := make([]string, len(Types))
	for i, t := range Types {
		if t.String() == name {
			return t, nil
		}
		names[i] = t.String()
	}

	if matches := fuzzy.Find(name, names); name != "" && len(matches) > 0 {
		return 0, fmt.Errorf("unknown analysis type %q, did you mean %q?", name, matches[0].Str)
	}
	return 0, fmt.Errorf("unknown analysis type %q (use %s)", name, strings.Join(names, ", "))
}
