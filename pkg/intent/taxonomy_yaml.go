package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTaxonomyFile reads a taxonomy from YAML. Two shapes are accepted:
//
//	analytics:
//	  framework_analysis:
//	    - "which framework is used"
//	generative:
//	  project_creation: ["create a new project"]
//
// or a flat one where each main intent maps straight to its phrases. Mapping order
// is kept, so it decides ties the same way the built-in order does.
func LoadTaxonomyFile(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	taxonomy, err := ParseTaxonomyYAML(data)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy file %s: %w", path, err)
	}
	return taxonomy, nil
}

// ParseTaxonomyYAML parses and validates a taxonomy document.
func ParseTaxonomyYAML(data []byte) (Taxonomy, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of main intents", root.Line)
	}

	var taxonomy Taxonomy
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		main, err := ParseMainIntent(keyNode.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", keyNode.Line, err)
		}

		switch valueNode.Kind {
		case yaml.SequenceNode:
			phrases, err := decodePhrases(valueNode)
			if err != nil {
				return nil, err
			}
			taxonomy = append(taxonomy, Entry{Main: main, Sub: SubNone, Examples: phrases})
		case yaml.MappingNode:
			for j := 0; j+1 < len(valueNode.Content); j += 2 {
				subKey, subValue := valueNode.Content[j], valueNode.Content[j+1]
				sub, err := ParseSubIntent(subKey.Value)
				if err != nil || sub == SubNone {
					return nil, fmt.Errorf("line %d: unknown sub intent %q", subKey.Line, subKey.Value)
				}
				phrases, err := decodePhrases(subValue)
				if err != nil {
					return nil, err
				}
				taxonomy = append(taxonomy, Entry{Main: main, Sub: sub, Examples: phrases})
			}
		default:
			return nil, fmt.Errorf("line %d: %s must map to phrases or sub intents", valueNode.Line, main)
		}
	}

	if err := taxonomy.Validate(); err != nil {
		return nil, err
	}
	return taxonomy, nil
}

func decodePhrases(node *yaml.Node) ([]string, error) {
	var phrases []string
	if err := node.Decode(&phrases); err != nil {
		return nil, fmt.Errorf("line %d: expected a list of phrases: %w", node.Line, err)
	}
	return phrases, nil
}
