package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/utils"
	"github.com/alantheprice/stackpilot/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	prompt     string
	expectJSON bool
	reply      string
	err        error
}

func (r *recordingGenerator) Generate(ctx context.Context, prompt string, expectJSON bool) (llm.Result, error) {
	r.prompt, r.expectJSON = prompt, expectJSON
	if r.err != nil {
		return llm.Result{}, r.err
	}
	return llm.Raw(r.reply), nil
}

func TestParseType(t *testing.T) {
	for _, want := range Types {
		got, err := ParseType(strings.ToUpper(want.String()))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseType("databse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "database"`)

	_, err = ParseType("xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "framework, api, database")
}

func TestTemplateIsExhaustive(t *testing.T) {
	for _, typ := range Types {
		tmpl, err := Template(typ)
		require.NoError(t, err)
		assert.NotEmpty(t, tmpl)
	}
	_, err := Template(Type(7))
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	samples := []workspace.FileSample{
		{Path: "app.py", Content: strings.Repeat("x", 900)},
		{Path: "db.py", Content: "engine = create_engine()"},
	}

	prompt, err := BuildPrompt(Database, []string{"flask", "sqlalchemy"}, samples, 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are a backend database analysis assistant."))
	assert.Contains(t, prompt, "Detected dependencies: flask, sqlalchemy")
	assert.Contains(t, prompt, "File: app.py\n"+strings.Repeat("x", DefaultExcerptChars)+"\n\nFile: db.py")
	assert.NotContains(t, prompt, strings.Repeat("x", DefaultExcerptChars+1))

	prompt, err = BuildPrompt(API, nil, samples, 10)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "Detected dependencies")
	assert.Contains(t, prompt, "File: app.py\nxxxxxxxxxx\n\n")
}

func TestAnalyzerUsesRawText(t *testing.T) {
	gen := &recordingGenerator{reply: "- Backend framework: Flask"}
	project := &workspace.Project{Dependencies: []string{"flask"}, Samples: []workspace.FileSample{{Path: "main.py", Content: "import flask"}}}
	analyzer := NewAnalyzer(gen, project, 800, utils.NewLogger(nil))

	out, err := analyzer.Analyze(context.Background(), Framework)
	require.NoError(t, err)
	assert.Equal(t, "- Backend framework: Flask", out)
	assert.False(t, gen.expectJSON)
	assert.Contains(t, gen.prompt, "expert software stack analyst")
}

func TestAnalyzerErrors(t *testing.T) {
	_, err := NewAnalyzer(&recordingGenerator{}, nil, 0, utils.NewLogger(nil)).Analyze(context.Background(), API)
	assert.Error(t, err)

	gen := &recordingGenerator{err: llm.ErrTransportTimeout}
	_, err = NewAnalyzer(gen, &workspace.Project{}, 0, utils.NewLogger(nil)).Analyze(context.Background(), API)
	assert.ErrorIs(t, err, llm.ErrTransportTimeout)
}
