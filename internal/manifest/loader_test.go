package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/recipeforge/internal/artifact"
	"github.com/forgecraft/recipeforge/internal/log"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadSingleLeafRecipe(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "R1", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "R1", "v1", "recipe.json"), `{"recipe_type":"python","dependencies":[]}`)
	writeFile(t, filepath.Join(root, "R1", "v1", "generate.py"), `open("/app/data/out.txt","w").write("hello")`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))

	recipes := reg.Recipes()
	require.Len(t, recipes, 1)
	assert.Equal(t, "Recipe:R1/v1", recipes[0].ID())
	assert.Equal(t, "python", string(recipes[0].RecipeKind))
	assert.Empty(t, recipes[0].Dependencies)
}

func TestLoadFetchDependencyDedup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "A", "v1", "recipe.json"),
		`{"recipe_type":"python","dependencies":[{"type":"fetch","url":"https://Example.com:443/a/?b=2&a=1"}]}`)

	writeFile(t, filepath.Join(root, "B", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "B", "v1", "recipe.json"),
		`{"recipe_type":"python","dependencies":[{"type":"fetch","url":"https://example.com/a?a=1&b=2"}]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))

	recipes := reg.Recipes()
	require.Len(t, recipes, 2)

	var depIDs []string
	for _, r := range recipes {
		require.Len(t, r.Dependencies, 1)
		depIDs = append(depIDs, r.Dependencies[0].ArtifactID())
	}
	assert.Equal(t, depIDs[0], depIDs[1], "both recipes should reference the same deduped Fetch artifact")

	fetchCount := 0
	for _, id := range reg.IDs() {
		if a, _ := reg.Get(id); a != nil {
			if _, ok := a.(*artifact.Fetch); ok {
				fetchCount++
			}
		}
	}
	assert.Equal(t, 1, fetchCount)
}

func TestLoadSkipsRecipeMissingVersionsJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Empty"), 0o755))

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	assert.Zero(t, reg.Len())
}

func TestLoadSkipsVersionMissingRecipeJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "R1", "versions.json"), `{"v1":{"folder":"v1"}}`)
	// no recipe.json written

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	assert.Zero(t, reg.Len())
}

func TestLoadSkipsInvalidVersionsSchema(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "R1", "versions.json"), `{"v1":{"folder":"v1","extra":"nope"}}`)
	writeFile(t, filepath.Join(root, "R1", "v1", "recipe.json"), `{"recipe_type":"python","dependencies":[]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	assert.Zero(t, reg.Len())
}

func TestLoadSkipsInvalidFolderName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "R1", "versions.json"), `{"v1":{"folder":" v1"}}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	assert.Zero(t, reg.Len())
}

func TestLoadSkipsInvalidRecipeSchema(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "R1", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "R1", "v1", "recipe.json"), `{"recipe_type":"ruby","dependencies":[]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	assert.Zero(t, reg.Len())
}

func TestLoadBuildDependencyRequiresVersion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "A", "v1", "recipe.json"),
		`{"recipe_type":"python","dependencies":[{"type":"build","recipe_name":"missing_version"}]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	// version is required by schema; missing it invalidates the whole version, not the run.
	assert.Zero(t, reg.Len())
}

func TestLoadBuildDependency(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "A", "v1", "recipe.json"),
		`{"recipe_type":"python","dependencies":[{"type":"build","recipe_name":"B","version":"v2"}]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))

	recipes := reg.Recipes()
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Dependencies, 1)
	assert.Equal(t, "Recipe:B/v2", recipes[0].Dependencies[0].ArtifactID())
	assert.Equal(t, filepath.Join("recipes", "B", "v2", "data"), recipes[0].Dependencies[0].MountSubpath())
}

// A file_name that would escape the fetch/ mount prefix (or carry any other
// path-hostile character) invalidates the version, same as a bad folder name.
func TestLoadSkipsInvalidFetchFileName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
	}{
		{"path traversal", "../recipe"},
		{"slash", "a/b"},
		{"trailing dot", "data."},
		{"newline", "a\\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, "A", "versions.json"), `{"v1":{"folder":"v1"}}`)
			writeFile(t, filepath.Join(root, "A", "v1", "recipe.json"),
				`{"recipe_type":"python","dependencies":[{"type":"fetch","url":"https://example.com/data.csv","file_name":"`+tt.fileName+`"}]}`)

			reg := artifact.NewRegistry()
			l := New(reg, log.NewNoop())
			require.NoError(t, l.Load(root))
			assert.Zero(t, reg.Len(), "neither the recipe nor the fetch should be registered")
		})
	}
}

func TestLoadSkipsInvalidBuildRecipeName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "A", "v1", "recipe.json"),
		`{"recipe_type":"python","dependencies":[{"type":"build","recipe_name":"../escape","version":"v1"}]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	assert.Zero(t, reg.Len())
}

// A defaulted file_name comes from the URL's final path segment, with any
// query string excluded.
func TestLoadDefaultFileNameFromURLPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "A", "v1", "recipe.json"),
		`{"recipe_type":"python","dependencies":[{"type":"fetch","url":"https://example.com/dir/data.csv?b=2&a=1"}]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))

	recipes := reg.Recipes()
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Dependencies, 1)
	assert.Equal(t, filepath.Join("fetch", "data.csv"), recipes[0].Dependencies[0].MountSubpath())
}

// A URL with no usable path segment cannot produce a valid default
// file_name; the version is skipped rather than mounted at a bogus path.
func TestLoadSkipsUnderivableFileName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A", "versions.json"), `{"v1":{"folder":"v1"}}`)
	writeFile(t, filepath.Join(root, "A", "v1", "recipe.json"),
		`{"recipe_type":"python","dependencies":[{"type":"fetch","url":"https://example.com/"}]}`)

	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	require.NoError(t, l.Load(root))
	assert.Zero(t, reg.Len())
}

func TestLoadMissingRecipesRootIsFatal(t *testing.T) {
	reg := artifact.NewRegistry()
	l := New(reg, log.NewNoop())
	err := l.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
