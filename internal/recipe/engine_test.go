package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsedit/internal/config"
	"jsedit/internal/ops"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	return writeFixture(t, "recipe.yaml", content)
}

func TestLoad_ValidatesSchema(t *testing.T) {
	path := writeManifest(t, `
name: demo
steps:
  - name: list
    op: list-functions
`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	require.Len(t, m.Steps, 1)
}

func TestLoad_RejectsMissingStepOp(t *testing.T) {
	path := writeManifest(t, `
name: demo
steps:
  - name: broken
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no op")
}

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides([]string{`target=createWidget`, `label="hello world"`})
	require.NoError(t, err)
	assert.Equal(t, "createWidget", got["target"])
	assert.Equal(t, "hello world", got["label"])

	_, err = ParseOverrides([]string{"no-equals"})
	require.Error(t, err)
}

func TestResolveParameters_Layering(t *testing.T) {
	m := &Manifest{
		Name: "demo",
		Parameters: map[string]Parameter{
			"a": {Default: "default-a"},
			"b": {Default: "default-b", Value: "recipe-b"},
		},
		Steps: []Step{{Name: "s", Op: "list-functions"}},
	}
	env := m.ResolveParameters(map[string]string{"b": "cli-b"})
	assert.Equal(t, "default-a", env["a"])
	assert.Equal(t, "cli-b", env["b"])
}

func TestEngine_ConditionShortCircuitSkipsStep(t *testing.T) {
	file := writeFixture(t, "empty.js", "const unrelated = 1;\n")
	manifest := writeManifest(t, `
name: conditional-replace
steps:
  - name: count-matches
    op: list-functions
    with:
      filter-text: nosuchfunction
    outputs:
      count: matchCount
  - name: replace-if-found
    op: replace
    when: "count > 0"
    with:
      selector: nosuchfunction
      with-code: "function nosuchfunction() {}"
`)
	m, err := Load(manifest)
	require.NoError(t, err)

	engine := &Engine{Config: config.Default(), Renderer: ops.Renderer{}}
	result, err := engine.Run(m, file, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, StatusSuccess, result.Steps[0].Status)
	assert.Equal(t, StatusSkipped, result.Steps[1].Status)

	// No writeback happened.
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "const unrelated = 1;\n", string(data))
}

func TestEngine_SubstitutesParametersIntoArgs(t *testing.T) {
	file := writeFixture(t, "widget.js", `function createWidget(name) {
  return { name };
}
`)
	manifest := writeManifest(t, `
name: locate-by-param
parameters:
  target:
    default: createWidget
    description: function to locate
steps:
  - name: locate
    op: locate
    with:
      selector: ${target}
    outputs:
      found: matchCount
  - name: verify
    op: function-summary
    when: "found == 1"
`)
	m, err := Load(manifest)
	require.NoError(t, err)

	engine := &Engine{Config: config.Default(), Renderer: ops.Renderer{}}
	result, err := engine.Run(m, file, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, StatusSuccess, result.Steps[1].Status)
}

func TestEngine_DryRunSuppressesWriteback(t *testing.T) {
	original := `function helper() { return 1; }
`
	file := writeFixture(t, "helper.js", original)
	manifest := writeManifest(t, `
name: rename-helper
steps:
  - name: rename
    op: replace
    with:
      selector: helper
      rename: assistant
`)
	m, err := Load(manifest)
	require.NoError(t, err)

	// Dry run: all guards execute, no write.
	engine := &Engine{Config: config.Default(), Renderer: ops.Renderer{}}
	result, err := engine.Run(m, file, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))

	// Fix run: the rename lands.
	engine.Fix = true
	result, err = engine.Run(m, file, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	data, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "function assistant() { return 1; }")
}

func TestEngine_StepFailureStopsRun(t *testing.T) {
	file := writeFixture(t, "empty.js", "const unrelated = 1;\n")
	manifest := writeManifest(t, `
name: failing
steps:
  - name: locate-missing
    op: locate
    with:
      selector: doesNotExist
  - name: never-reached
    op: function-summary
`)
	m, err := Load(manifest)
	require.NoError(t, err)

	engine := &Engine{Config: config.Default(), Renderer: ops.Renderer{}}
	result, err := engine.Run(m, file, nil)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, StatusFailed, result.Steps[0].Status)
}

func TestEngine_StepsObservePriorWritebacks(t *testing.T) {
	file := writeFixture(t, "seq.js", `function first() { return 1; }
`)
	manifest := writeManifest(t, `
name: sequential
steps:
  - name: rename
    op: replace
    with:
      selector: first
      rename: second
  - name: locate-renamed
    op: locate
    with:
      selector: second
`)
	m, err := Load(manifest)
	require.NoError(t, err)

	engine := &Engine{Config: config.Default(), Renderer: ops.Renderer{}, Fix: true}
	result, err := engine.Run(m, file, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, StatusSuccess, result.Steps[1].Status)
}

func TestEngine_UnknownOperationFails(t *testing.T) {
	file := writeFixture(t, "x.js", "const a = 1;\n")
	manifest := writeManifest(t, `
name: bad-op
steps:
  - name: nope
    op: no-such-op
`)
	m, err := Load(manifest)
	require.NoError(t, err)

	engine := &Engine{Config: config.Default(), Renderer: ops.Renderer{}}
	_, err = engine.Run(m, file, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}
