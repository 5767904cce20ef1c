package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCLI_RequiresExactlyOneOperation(t *testing.T) {
	_, err := execute(t, "--file", "x.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no operation flag")

	_, err = execute(t, "--file", "x.js", "--list-functions", "--outline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestCLI_ListFunctionsJSON(t *testing.T) {
	file := fixture(t, "widget.js", `function createWidget(name) {
  return { name };
}
const formatLabel = (w) => w.name;
`)
	out, err := execute(t, "--file", file, "--list-functions", "--json")
	require.NoError(t, err)

	var payload struct {
		Operation string `json:"operation"`
		Functions []struct {
			CanonicalName string `json:"canonicalName"`
			Kind          string `json:"kind"`
		} `json:"functions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "list-functions", payload.Operation)

	var names []string
	for _, f := range payload.Functions {
		names = append(names, f.CanonicalName)
	}
	assert.Contains(t, names, "createWidget")
	assert.Contains(t, names, "formatLabel")
}

func TestCLI_QuietImpliesJSON(t *testing.T) {
	file := fixture(t, "a.js", "function alpha() { return 1; }\n")
	out, err := execute(t, "--file", file, "--locate", "alpha", "--quiet")
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "locate", payload["operation"])
}

func TestCLI_ReplaceDryRunByDefault(t *testing.T) {
	original := "function alpha() { return 1; }\n"
	file := fixture(t, "a.js", original)

	out, err := execute(t, "--file", file, "--replace", "alpha",
		"--with-code", "function alpha() { return 2; }")
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestCLI_ReplaceWithFix(t *testing.T) {
	file := fixture(t, "a.js", "function alpha() { return 1; }\n")

	_, err := execute(t, "--file", file, "--replace", "alpha",
		"--with-code", "function alpha() { return 2; }", "--fix")
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "return 2;")
}

func TestCLI_RenameGuardedByIdentifierGrammar(t *testing.T) {
	file := fixture(t, "a.js", "function alpha() { return 1; }\n")
	_, err := execute(t, "--file", file, "--replace", "alpha", "--rename", "not an identifier")
	require.Error(t, err)
}

func TestCLI_StaleExpectHashFails(t *testing.T) {
	file := fixture(t, "a.js", "function alpha() { return 1; }\n")
	_, err := execute(t, "--file", file, "--replace", "alpha",
		"--with-code", "function alpha() { return 2; }",
		"--expect-hash", "definitelyWrongHash")
	require.Error(t, err)

	data, rerr := os.ReadFile(file)
	require.NoError(t, rerr)
	assert.Contains(t, string(data), "return 1;")
}

func TestCLI_ExtractHashesRoundTrip(t *testing.T) {
	file := fixture(t, "a.js", "exports.alpha = function alpha() { return 1; };\n")

	out, err := execute(t, "--file", file, "--list-functions", "--json")
	require.NoError(t, err)
	var listing struct {
		Functions []struct {
			CanonicalName string `json:"canonicalName"`
			Hash          string `json:"hash"`
		} `json:"functions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))

	var hash string
	for _, f := range listing.Functions {
		if f.CanonicalName == "exports.alpha" {
			hash = f.Hash
		}
	}
	require.NotEmpty(t, hash)

	out, err = execute(t, "--file", file, "--extract-hashes", hash, "--json")
	require.NoError(t, err)
	var extracted struct {
		Matches []struct {
			Code string `json:"code"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &extracted))
	require.Len(t, extracted.Matches, 1)
	assert.Equal(t, "function alpha() { return 1; }", extracted.Matches[0].Code)
}

func TestCLI_RecipeConditionShortCircuit(t *testing.T) {
	file := fixture(t, "a.js", "const unrelated = 1;\n")
	manifest := fixture(t, "recipe.yaml", `
name: conditional
steps:
  - name: count
    op: list-functions
    outputs:
      count: matchCount
  - name: replace-if-any
    op: replace
    when: "count > 0"
    with:
      selector: anything
      with-code: "function anything() {}"
`)

	out, err := execute(t, "--file", file, "--recipe", manifest, "--json")
	require.NoError(t, err)

	var result struct {
		Status string `json:"status"`
		Steps  []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "success", result.Status)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "success", result.Steps[0].Status)
	assert.Equal(t, "skipped", result.Steps[1].Status)
}

func TestCLI_RecipeParamOverride(t *testing.T) {
	file := fixture(t, "a.js", "function alpha() { return 1; }\nfunction beta() { return 2; }\n")
	manifest := fixture(t, "recipe.yaml", `
name: locate-param
parameters:
  target:
    default: alpha
steps:
  - name: locate
    op: locate
    with:
      selector: ${target}
`)

	_, err := execute(t, "--file", file, "--recipe", manifest, "--param", "target=beta", "--quiet")
	require.NoError(t, err)
}

func TestCLI_SnipeEmitsGuardInputs(t *testing.T) {
	file := fixture(t, "a.js", "function alpha() { return 1; }\n")
	out, err := execute(t, "--file", file, "--snipe", "alpha", "--json")
	require.NoError(t, err)

	var payload struct {
		Operation    string `json:"operation"`
		Code         string `json:"code"`
		ExpectedHash string `json:"expectedHash"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "snipe", payload.Operation)
	assert.Equal(t, "function alpha() { return 1; }", payload.Code)
	assert.NotEmpty(t, payload.ExpectedHash)
}

func TestCLI_EmitPlanWritesArtifact(t *testing.T) {
	file := fixture(t, "a.js", "function alpha() { return 1; }\n")
	planPath := filepath.Join(t.TempDir(), "plan.json")

	_, err := execute(t, "--file", file, "--replace", "alpha",
		"--with-code", "function alpha() { return 2; }",
		"--emit-plan", planPath)
	require.NoError(t, err)

	data, err := os.ReadFile(planPath)
	require.NoError(t, err)
	var plan struct {
		Version   int    `json:"version"`
		Operation string `json:"operation"`
		Summary   struct {
			MatchCount int `json:"matchCount"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &plan))
	assert.Equal(t, 1, plan.Version)
	assert.Equal(t, "replace", plan.Operation)
	assert.Equal(t, 1, plan.Summary.MatchCount)
}
