package workspace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
)

// manifestReader extracts dependency names from one manifest file.
type manifestReader struct {
	file  string
	parse func(data []byte) ([]string, error)
}

var manifestReaders = []manifestReader{
	{"package.json", parsePackageJSON},
	{"requirements.txt", parseRequirements},
	{"setup.py", parseSetupPy},
	{"pyproject.toml", parsePyproject},
	{"go.mod", parseGoMod},
}

// ExtractDependencies reads the known manifests at the project root. Names keep
// their discovery order and appear once. Missing or unparseable manifests are skipped.
func ExtractDependencies(root string) []string {
	var deps []string
	seen := make(map[string]bool)

	for _, reader := range manifestReaders {
		data, err := os.ReadFile(filepath.Join(root, reader.file))
		if err != nil {
			continue
		}
		names, err := reader.parse(data)
		if err != nil {
			continue
		}
		for _, name := range names {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			deps = append(deps, name)
		}
	}
	return deps
}

func parsePackageJSON(data []byte) ([]string, error) {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return append(sortedKeys(pkg.Dependencies), sortedKeys(pkg.DevDependencies)...), nil
}

func parseRequirements(data []byte) ([]string, error) {
	var deps []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		deps = append(deps, line)
	}
	return deps, scanner.Err()
}

var (
	installRequiresPattern = regexp.MustCompile(`(?s)install_requires\s*=\s*\[(.*?)\]`)
	quotedPattern          = regexp.MustCompile(`["']([^"']+)["']`)
)

func parseSetupPy(data []byte) ([]string, error) {
	var deps []string
	for _, block := range installRequiresPattern.FindAllSubmatch(data, -1) {
		for _, quoted := range quotedPattern.FindAllSubmatch(block[1], -1) {
			deps = append(deps, strings.TrimSpace(string(quoted[1])))
		}
	}
	return deps, nil
}

func parsePyproject(data []byte) ([]string, error) {
	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	deps := append([]string(nil), doc.Project.Dependencies...)
	for _, name := range sortedKeys(doc.Tool.Poetry.Dependencies) {
		if name != "python" {
			deps = append(deps, name)
		}
	}
	return deps, nil
}

func parseGoMod(data []byte) ([]string, error) {
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return nil, err
	}
	deps := make([]string, 0, len(f.Require))
	for _, req := range f.Require {
		deps = append(deps, req.Mod.Path)
	}
	return deps, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
