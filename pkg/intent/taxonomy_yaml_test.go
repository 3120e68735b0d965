package intent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaxonomyYAMLKeepsOrder(t *testing.T) {
	doc := `
generative:
  code_refactor:
    - "tidy this module"
  project_creation: ["start a new service"]
analytics:
  database_analysis:
    - "which orm"
`
	taxonomy, err := ParseTaxonomyYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, taxonomy, 3)
	assert.Equal(t, CodeRefactor, taxonomy[0].Sub)
	assert.Equal(t, ProjectCreation, taxonomy[1].Sub)
	assert.Equal(t, Analytics, taxonomy[2].Main)
	assert.Equal(t, []string{"which orm"}, taxonomy[2].Examples)
}

func TestParseTaxonomyYAMLFlat(t *testing.T) {
	taxonomy, err := ParseTaxonomyYAML([]byte("analytics: [\"inspect\"]\ngenerative: [\"build\"]\n"))
	require.NoError(t, err)
	require.Len(t, taxonomy, 2)
	assert.Equal(t, SubNone, taxonomy[0].Sub)
	assert.Equal(t, Generative, taxonomy[1].Main)
}

func TestParseTaxonomyYAMLErrors(t *testing.T) {
	tests := map[string]string{
		"unknown main":  "testing:\n  - x\n",
		"unknown sub":   "analytics:\n  ui_analysis: [x]\n",
		"wrong parent":  "analytics:\n  code_refactor: [x]\n",
		"scalar value":  "analytics: nope\n",
		"not a mapping": "- analytics\n",
		"empty":         "",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTaxonomyYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTaxonomyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generative:\n  component_generation: [\"new button\"]\n"), 0644))

	taxonomy, err := LoadTaxonomyFile(path)
	require.NoError(t, err)
	assert.Equal(t, Taxonomy{{Generative, ComponentGeneration, []string{"new button"}}}, taxonomy)

	_, err = LoadTaxonomyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestClassificationJSON(t *testing.T) {
	data, err := json.Marshal(Classification{Main: Generative, Sub: ProjectCreation, Confidence: 0.812})
	require.NoError(t, err)
	assert.JSONEq(t, `{"main_intent":"generative","sub_intent":"project_creation","confidence":0.812}`, string(data))

	data, err = json.Marshal(Classification{Main: Analytics, Confidence: 0.6})
	require.NoError(t, err)
	assert.JSONEq(t, `{"main_intent":"analytics","confidence":0.6}`, string(data))

	var back Classification
	require.NoError(t, json.Unmarshal([]byte(`{"main_intent":"generative","sub_intent":"code_refactor","confidence":0.7}`), &back))
	assert.Equal(t, CodeRefactor, back.Sub)
}
