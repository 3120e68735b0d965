package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alantheprice/stackpilot/pkg/assistant"
	"github.com/alantheprice/stackpilot/pkg/intent"
	"github.com/alantheprice/stackpilot/pkg/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject creates a small Flask project, isolates config lookup from the real
// home directory and selects the offline embedder.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"requirements.txt": "flask\nsqlalchemy\n",
		"app.py":           "from flask import Flask\napp = Flask(__name__)\n",
		"models.py":        "from sqlalchemy import Column, Integer\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("STACKPILOT_EMBEDDING_PROVIDER", "hash")
	t.Setenv("STACKPILOT_PROVIDER", "ollama")
	t.Chdir(dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	projectDir, model, quiet = ".", "", false
	askJSON, classifyFlat, classifyJSON, classifyList = false, false, false, false
	planKind, planDiff, planStrict, planJSON = "project", false, false, false
	analyzeType, searchLimit, servePort = "framework", 5, 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--quiet"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeOllama answers generate requests with replies in order, repeating the last one.
func fakeOllama(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reply := replies[min(calls, len(replies)-1)]
		calls++
		mu.Unlock()

		body, err := json.Marshal(map[string]any{"model": "m", "response": reply, "done": true})
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	t.Setenv("OLLAMA_HOST", server.URL)
	return server
}

func TestInitAndIgnore(t *testing.T) {
	dir := setupProject(t)

	out, err := runCLI(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(".stackpilot", "config.json"))
	assert.FileExists(t, filepath.Join(dir, ".stackpilot", "config.json"))

	out, err = runCLI(t, "ignore", "legacy/")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 'legacy/'")
	content, err := os.ReadFile(filepath.Join(dir, ".stackpilot", "ignore"))
	require.NoError(t, err)
	assert.Equal(t, "legacy/\n", string(content))
}

func TestClassifyCommand(t *testing.T) {
	dir := setupProject(t)

	out, err := runCLI(t, "classify", "what framework is this project using?")
	require.NoError(t, err)
	assert.Regexp(t, `^(analytics|generative)/[a-z_]+ \(-?\d\.\d{3}\)\n$`, out)

	// Phrase embeddings are cached next to the project
	assert.FileExists(t, filepath.Join(dir, ".stackpilot", "embeddings.json"))

	out, err = runCLI(t, "classify", "--flat", "--json", "build me a todo app")
	require.NoError(t, err)
	var c intent.Classification
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, intent.SubNone, c.Sub)
}

func TestClassifyListsTaxonomy(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "classify", "--list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "hierarchical taxonomy, 6 intent(s)\n"), out)
	assert.Contains(t, out, "analytics/framework_analysis")
	assert.Contains(t, out, "generative/code_refactor")

	out, err = runCLI(t, "classify", "--list", "--flat")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flat taxonomy, 2 intent(s)\n"), out)
	assert.NotContains(t, out, "/")

	_, err = runCLI(t, "classify")
	assert.Error(t, err)
	_, err = runCLI(t, "classify", "--list", "extra query")
	assert.Error(t, err)
}

func TestSessionSharesOneEmbeddingStore(t *testing.T) {
	dir := setupProject(t)
	projectDir, model, quiet = ".", "", true

	s, err := newSession()
	require.NoError(t, err)
	assert.Same(t, s.store(), s.store())
	assert.Equal(t, filepath.Join(dir, ".stackpilot", "embeddings.json"), s.store().Path())
}

func TestIndexAndSearchCommands(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "search", "flask")
	require.NoError(t, err)
	assert.Contains(t, out, "No indexed files")

	out, err = runCLI(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "3 embedded, 0 unchanged")

	out, err = runCLI(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "0 embedded, 3 unchanged")

	out, err = runCLI(t, "search", "-k", "2", "flask app")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Regexp(t, `^-?\d\.\d{3}  \S+$`, lines[0])
}

func TestPlanCommandRefinesAndDiffs(t *testing.T) {
	setupProject(t)
	fakeOllama(t,
		`{"base_directory": "todo", "actions": [{"action": "write_files", "files": [{"path": "todo/app.py", "language": "python", "content": ""}], "message": "Create app"}]}`,
		`{"base_directory": "todo", "actions": [{"action": "write_files", "files": [{"path": "todo/app.py", "language": "python", "content": "print('todo')"}], "message": "Create app"}]}`,
	)

	out, err := runCLI(t, "plan", "--diff", "--strict", "create a todo app")
	require.NoError(t, err)
	assert.Contains(t, out, `"base_directory": "todo"`)
	assert.Contains(t, out, "Refined 1 issue(s) in 1 round(s), +1/-1 line(s)\n")
	assert.Contains(t, out, "Changes made during refinement")
	assert.NotContains(t, out, "Remaining issues")
}

func TestPlanCommandStrictFailsOnIncompletePlan(t *testing.T) {
	setupProject(t)
	fakeOllama(t, `{"actions": [{"action": "write_files", "files": [{"path": "a.py", "content": ""}], "message": ""}]}`)

	out, err := runCLI(t, "plan", "--strict", "create something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan is incomplete: 1 issue(s) remain")
	assert.Contains(t, out, "Empty content in a.py")
}

func TestPlanCommandRawReply(t *testing.T) {
	setupProject(t)
	fakeOllama(t, "Sorry, I can only describe the steps in prose.")

	out, err := runCLI(t, "plan", "--kind", "component", "add a navbar")
	require.NoError(t, err)
	assert.Contains(t, out, "The model did not return a plan")
	assert.Contains(t, out, "only describe the steps")
}

func TestPlanCommandRejectsUnknownKind(t *testing.T) {
	setupProject(t)
	_, err := runCLI(t, "plan", "--kind", "website", "anything")
	assert.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	setupProject(t)
	fakeOllama(t, "This is a Flask application using SQLAlchemy.")

	out, err := runCLI(t, "analyze", "--type", "database")
	require.NoError(t, err)
	assert.Equal(t, "This is a Flask application using SQLAlchemy.\n", out)

	_, err = runCLI(t, "analyze", "--type", "databse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestPrintResponse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, &assistant.Response{Kind: assistant.KindLowConfidence, Text: assistant.LowConfidenceNotice}))
	assert.Equal(t, assistant.LowConfidenceNotice+"\n", buf.String())

	buf.Reset()
	require.NoError(t, printResponse(&buf, &assistant.Response{
		Kind:           assistant.KindAnalysis,
		Classification: intent.Classification{Main: intent.Analytics, Sub: intent.ApiAnalysis, Confidence: 0.8},
		Text:           "REST API built with Express",
	}))
	assert.Equal(t, "Intent: analytics/api_analysis (0.800)\n\nREST API built with Express\n", buf.String())

	buf.Reset()
	outcome := &plan.Outcome{
		Plan:      &plan.ProjectPlan{Actions: []plan.Action{{Action: plan.ActionExplain, Message: "done"}}},
		Remaining: []plan.Issue{{Description: "Empty content"}},
	}
	require.NoError(t, printResponse(&buf, &assistant.Response{Kind: assistant.KindPlan, Plan: outcome}))
	assert.Contains(t, buf.String(), `"action": "explain"`)
	assert.Contains(t, buf.String(), "Empty content in unknown")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stackpilot version dev")
}
