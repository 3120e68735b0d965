package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alantheprice/stackpilot/pkg/embedding"
	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func samplePaths(p *Project) []string {
	paths := make([]string, len(p.Samples))
	for i, s := range p.Samples {
		paths[i] = s.Path
	}
	return paths
}

func TestOpenRejectsNonDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(file, []byte("print(1)"), 0644))

	_, err := Open(file, Options{})
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestOpenSamplesProject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json":            `{"dependencies": {"react": "^18", "axios": "1"}, "devDependencies": {"vite": "5"}}`,
		"index.js":                "import App from './src/App'",
		"src/App.jsx":             "export default function App() {}",
		"src/styles.css":          "body {}",
		"src/logo.png":            "\x89PNG",
		"node_modules/react/x.js": "module.exports = {}",
		"server/__pycache__/a.py": "cached",
		".stackpilot/notes.py":    "internal",
		"generated/schema.ts":     "export {}",
		".gitignore":              "generated/\n",
	})

	p, err := Open(root, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"axios", "react", "vite"}, p.Dependencies)
	assert.Equal(t, []string{"package.json", "index.js", "src/App.jsx", "src/styles.css"}, samplePaths(p))
	assert.Equal(t, "export default function App() {}", p.Samples[2].Content)
}

func TestOpenRespectsLimits(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 8; i++ {
		files[filepath.Join("src", string(rune('a'+i))+".py")] = "x = 1\n"
	}
	files["src/huge.js"] = strings.Repeat("a", 3*1024)
	writeFiles(t, root, files)

	p, err := Open(root, Options{MaxFiles: 6, MaxSizeKB: 2})
	require.NoError(t, err)
	assert.Len(t, p.Samples, 6)
	assert.NotContains(t, samplePaths(p), "src/huge.js")
}

func TestOpenFallbackPassTruncates(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.py":       "import flask\n",
		"big/module.py": strings.Repeat("b", 5000),
	})

	p, err := Open(root, Options{MaxSizeKB: 1})
	require.NoError(t, err)
	require.Len(t, p.Samples, 2)
	assert.Equal(t, "main.py", p.Samples[0].Path)
	assert.Equal(t, "big/module.py", p.Samples[1].Path)
	assert.True(t, p.Samples[1].Truncated)
	assert.Len(t, p.Samples[1].Content, fallbackMaxChars)
}

func TestExtractDependencies(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"requirements.txt": "# web\nflask==3.0\n\nsqlalchemy>=2\n",
		"setup.py": `from setuptools import setup
setup(
    name="svc",
    install_requires=[
        "requests>=2",
        'flask==3.0',
    ],
)`,
		"pyproject.toml": `[project]
dependencies = ["pydantic>=2"]

[tool.poetry.dependencies]
python = "^3.11"
fastapi = "^0.110"
`,
		"go.mod": "module example.com/svc\n\ngo 1.22\n\nrequire (\n\tgithub.com/gorilla/mux v1.8.1\n)\n",
	})

	deps := ExtractDependencies(root)
	assert.Equal(t, []string{
		"flask==3.0",
		"sqlalchemy>=2",
		"requests>=2",
		"pydantic>=2",
		"fastapi",
		"github.com/gorilla/mux",
	}, deps)
}

func TestExtractDependenciesSkipsBrokenManifest(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json":     "{not json",
		"requirements.txt": "django\n",
	})
	assert.Equal(t, []string{"django"}, ExtractDependencies(root))
}

func TestSummary(t *testing.T) {
	p := &Project{Dependencies: []string{"react", "vite"}, Samples: []FileSample{{Path: "src/App.jsx"}}}
	assert.Equal(t, "Dependencies: react, vite\nFiles:\n- src/App.jsx", p.Summary())
	assert.Empty(t, (&Project{}).Summary())
}

type flakyEmbedder struct {
	inner llm.Embedder
	fail  string
}

func (f *flakyEmbedder) Name() string { return f.inner.Name() }

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.fail != "" && strings.Contains(text, f.fail) {
		return nil, errors.New("model unavailable")
	}
	return f.inner.Embed(ctx, text)
}

func TestIndexEmbeddingsAndSearch(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"api/routes.py":  "from flask import Blueprint\n# api routes endpoints handlers\n",
		"web/Button.jsx": "export function Button() { return <button>react component</button> }",
		"db/models.py":   "from sqlalchemy import Column\n# database orm models\n",
	})
	p, err := Open(root, Options{})
	require.NoError(t, err)

	store := embedding.NewStore(filepath.Join(t.TempDir(), "embeddings.json"))
	embedder := llm.NewHashEmbedder(64)
	logger := utils.NewLogger(nil)

	stats, err := IndexEmbeddings(context.Background(), p, store, embedder, 2, logger)
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Embedded: 3}, stats)

	stats, err = IndexEmbeddings(context.Background(), p, store, embedder, 2, logger)
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Unchanged: 3}, stats)

	hits, err := Search(context.Background(), store, embedder, embeddingText(p.Samples[0]), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, p.Samples[0].Path, hits[0].Path)

	// A removed file drops out of the cache, a changed one is re-embedded
	p.Samples = p.Samples[1:]
	p.Samples[0].Content += "\n# changed"
	stats, err = IndexEmbeddings(context.Background(), p, store, embedder, 2, logger)
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Embedded: 1, Unchanged: 1, Removed: 1}, stats)
}

func TestIndexEmbeddingsSkipsFailures(t *testing.T) {
	p := &Project{Samples: []FileSample{{Path: "a.py", Content: "a"}, {Path: "broken.py", Content: "b"}}}
	store := embedding.NewStore(filepath.Join(t.TempDir(), "embeddings.json"))
	embedder := &flakyEmbedder{inner: llm.NewHashEmbedder(8), fail: "broken.py"}

	stats, err := IndexEmbeddings(context.Background(), p, store, embedder, 1, utils.NewLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Embedded: 1, Failed: 1}, stats)

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Contains(t, entries, "a.py")
	assert.NotContains(t, entries, "broken.py")
}
