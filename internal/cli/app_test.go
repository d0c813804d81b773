package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rsned/recipe-nesting/internal/crafting/engine"
	"github.com/rsned/recipe-nesting/internal/crafting/nesting"
	"github.com/rsned/recipe-nesting/pkg/crafting"
)

const recipesJSON = `[
  {"output_item_id": 1, "output_item_count": 1, "ingredients": [{"item_id": 2, "count": 3}, {"item_id": 9, "count": 1}], "disciplines": ["Armorsmith"]},
  {"output_item_id": 2, "output_item_count": 5, "ingredients": [{"item_id": 8, "count": 2}]}
]`

const recipesYAML = `
- output_item_id: 3
  output_item_count: 1
  ingredients:
    - item_id: 1
      count: 2
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the app and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewApp("test", strings.NewReader(stdin), &stdout, &stderr)
	err := cmd.Run(context.Background(), append([]string{name}, args...))
	return stdout.String(), err
}

func decodeTrees(t *testing.T, out string) map[int]*crafting.Recipe {
	t.Helper()
	var trees []*crafting.Recipe
	require.NoError(t, json.Unmarshal([]byte(out), &trees))

	byID := make(map[int]*crafting.Recipe, len(trees))
	for _, tree := range trees {
		byID[tree.ID] = tree
	}
	return byID
}

func TestNestCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "recipes.json", recipesJSON)

	out, err := run(t, "", "nest", "--input", input)
	require.NoError(t, err)

	trees := decodeTrees(t, out)
	require.Len(t, trees, 2)

	root := trees[1]
	require.Len(t, root.Components, 2)
	// The uncraftable component sorts first.
	assert.Equal(t, 9, root.Components[0].ID)
	assert.Nil(t, root.Components[0].Recipe)
	embedded := root.Components[1].Recipe
	require.NotNil(t, embedded)
	assert.Equal(t, 2, embedded.ID)
	assert.Equal(t, 3, embedded.Quantity)
	assert.Equal(t, 5, embedded.Output)
}

func TestNestCommandStdin(t *testing.T) {
	out, err := run(t, recipesJSON, "nest", "--input", "-")
	require.NoError(t, err)
	assert.Len(t, decodeTrees(t, out), 2)
}

func TestNestCommandYAMLToFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "recipes.yaml", recipesYAML)
	output := filepath.Join(dir, "trees.yaml")

	out, err := run(t, "", "nest", "--input", input, "--format", "yaml", "--output", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var trees []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &trees))
	require.Len(t, trees, 1)
	assert.Equal(t, 3, trees[0]["id"])
}

func TestNestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "recipes.json", recipesJSON)
	invalid := writeFile(t, dir, "invalid.json", `[{"output_item_count": 1, "ingredients": []}]`)

	tests := []struct {
		name string
		args []string
	}{
		{"missing input flag", []string{"nest"}},
		{"unknown format", []string{"nest", "--input", input, "--format", "xml"}},
		{"missing file", []string{"nest", "--input", filepath.Join(dir, "nope.json")}},
		{"invalid record", []string{"nest", "--input", invalid}},
		{"bad log level", []string{"--log-level", "loud", "nest", "--input", input}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			assert.Error(t, err)
		})
	}

	_, err := run(t, "", "nest", "--input", invalid)
	assert.ErrorIs(t, err, nesting.ErrInvalidRecord)
}

func TestImportBuildTree(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "recipes.db")
	input := writeFile(t, dir, "recipes.json", recipesJSON)
	more := writeFile(t, dir, "more.yaml", recipesYAML)

	out, err := run(t, "", "--db", dbPath, "import", "--file", input)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 records")

	out, err = run(t, "", "--db", dbPath, "import", "--file", more)
	require.NoError(t, err)
	assert.Contains(t, out, "(3 stored)")

	_, err = run(t, "", "--db", dbPath, "tree", "--id", "3")
	assert.ErrorIs(t, err, engine.ErrTreeNotFound)

	out, err = run(t, "", "--db", dbPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "3 records, 3 trees")

	out, err = run(t, "", "--db", dbPath, "tree", "--id", "3")
	require.NoError(t, err)

	var tree crafting.Recipe
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, 3, tree.ID)
	require.Len(t, tree.Components, 1)

	one := tree.Components[0].Recipe
	require.NotNil(t, one)
	assert.Equal(t, 2, one.Quantity)
	assert.Equal(t, []string{"Armorsmith"}, one.Disciplines)
	require.Len(t, one.Components, 2)
	assert.Equal(t, 3, one.Components[1].Recipe.Quantity)
}

func TestImportReplace(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "recipes.db")
	input := writeFile(t, dir, "recipes.json", recipesJSON)
	more := writeFile(t, dir, "more.yaml", recipesYAML)
	invalid := writeFile(t, dir, "invalid.json", `[{"output_item_id": 4}]`)

	_, err := run(t, "", "--db", dbPath, "import", "--file", input)
	require.NoError(t, err)

	// A bad file leaves the stored records alone even with --replace.
	_, err = run(t, "", "--db", dbPath, "import", "--replace", "--file", invalid)
	require.ErrorIs(t, err, nesting.ErrInvalidRecord)

	out, err := run(t, "", "--db", dbPath, "import", "--replace", "--file", more)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 stored)")
}

func TestTreeCommandYAML(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "recipes.db")
	input := writeFile(t, dir, "recipes.json", recipesJSON)

	_, err := run(t, "", "--db", dbPath, "import", "--file", input)
	require.NoError(t, err)
	_, err = run(t, "", "--db", dbPath, "build")
	require.NoError(t, err)

	out, err := run(t, "", "--db", dbPath, "tree", "--id", "2", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: 2")
	assert.Contains(t, out, "output: 5")
}

func TestServeCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "recipes.db")

	stdin := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_recipe_trees"}}`,
	}, "\n")

	out, err := run(t, stdin, "--db", dbPath, "serve")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"name":"recipe-nesting"`)
	assert.Contains(t, lines[1], `\"total\": 0`)
}

func TestStatusCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "recipes.db")
	input := writeFile(t, dir, "recipes.json", recipesJSON)

	out, err := run(t, "", "--db", dbPath, "status")
	require.NoError(t, err)
	assert.JSONEq(t, `{"db":"`+dbPath+`","recipes":0,"trees":0}`, out)

	_, err = run(t, "", "--db", dbPath, "import", "--file", input)
	require.NoError(t, err)
	_, err = run(t, "", "--db", dbPath, "build")
	require.NoError(t, err)

	out, err = run(t, "", "--db", dbPath, "status")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Recipes)
	assert.Equal(t, 2, report.Trees)
	assert.NotEmpty(t, report.LastImport)
	assert.NotEmpty(t, report.LastBuild)
	assert.Len(t, report.BuildID, 36)
}
