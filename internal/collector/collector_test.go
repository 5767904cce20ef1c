package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsedit/internal/digest"
	"jsedit/internal/source"
)

func collect(t *testing.T, path, text string) *Pool {
	t.Helper()
	src := source.New(path, text, digest.DefaultConfig())
	pool, err := Collect(src)
	require.NoError(t, err)
	return pool
}

func findFunction(pool *Pool, canonicalName string) *FunctionRecord {
	for _, f := range pool.Functions {
		if f.CanonicalName == canonicalName {
			return f
		}
	}
	return nil
}

func findVariable(pool *Pool, name string) *VariableRecord {
	for _, v := range pool.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func TestCollect_FunctionDeclaration(t *testing.T) {
	pool := collect(t, "sample.js", `function add(a, b) {
  return a + b;
}
`)
	fn := findFunction(pool, "add")
	require.NotNil(t, fn)
	assert.Equal(t, KindFunctionDeclaration, fn.Kind)
	assert.True(t, fn.Replaceable)
	assert.Equal(t, ExportNone, fn.ExportKind)
	assert.NotEmpty(t, fn.Digest)
	assert.Equal(t, 1, fn.Line)
}

func TestCollect_ExportedNamedFunction(t *testing.T) {
	pool := collect(t, "sample.js", `export function greet(name) {
  return "hi " + name;
}
`)
	fn := findFunction(pool, "exports.greet")
	require.NotNil(t, fn)
	assert.Equal(t, ExportNamed, fn.ExportKind)
}

func TestCollect_DefaultExportArrow(t *testing.T) {
	pool := collect(t, "sample.js", `export default () => {
  return 1;
};
`)
	require.Len(t, pool.Functions, 1)
	fn := pool.Functions[0]
	assert.Equal(t, KindArrowFunction, fn.Kind)
	assert.Equal(t, ExportDefault, fn.ExportKind)
}

func TestCollect_ModuleExportsAssignment(t *testing.T) {
	pool := collect(t, "sample.js", `module.exports = function widget() {
  return true;
};
`)
	fn := findFunction(pool, "module.exports")
	require.NotNil(t, fn)
	assert.Equal(t, ExportCommonJSDefault, fn.ExportKind)

	v := findVariable(pool, "module.exports")
	require.NotNil(t, v)
	assert.Equal(t, VarKindAssignment, v.Kind)
}

func TestCollect_ModuleExportsNamedProperty(t *testing.T) {
	pool := collect(t, "sample.js", `module.exports.helper = function () {
  return 2;
};
`)
	v := findVariable(pool, "helper")
	require.NotNil(t, v)
	assert.Equal(t, ExportCommonJSNamed, v.ExportKind)

	fn := findFunction(pool, "module.exports.helper")
	require.NotNil(t, fn)
}

func TestCollect_ExportsNamedProperty(t *testing.T) {
	pool := collect(t, "sample.js", `exports.util = function () {
  return 3;
};
`)
	fn := findFunction(pool, "exports.util")
	require.NotNil(t, fn)
}

func TestCollect_ClassWithMethods(t *testing.T) {
	pool := collect(t, "sample.js", `class Logger {
  constructor(name) {
    this.name = name;
  }

  static create(name) {
    return new Logger(name);
  }

  #emit(msg) {
    return msg;
  }

  get label() {
    return this.name;
  }
}
`)
	cls := findFunction(pool, "Logger")
	require.NotNil(t, cls)
	assert.Equal(t, KindClass, cls.Kind)
	assert.False(t, cls.Replaceable)

	require.Contains(t, pool.Classes, "Logger")

	ctor := findFunction(pool, "Logger.constructor")
	require.NotNil(t, ctor)

	staticMethod := findFunction(pool, "Logger.static create")
	require.NotNil(t, staticMethod)

	private := findFunction(pool, "Logger#emit")
	require.NotNil(t, private)

	getter := findFunction(pool, "Logger::label")
	require.NotNil(t, getter)
}

func TestCollect_ConstArrowFunctionYieldsBothRecords(t *testing.T) {
	pool := collect(t, "sample.js", `const alpha = () => {
  return 1;
};
`)
	fn := findFunction(pool, "alpha")
	require.NotNil(t, fn)
	assert.Equal(t, KindArrowFunction, fn.Kind)

	v := findVariable(pool, "alpha")
	require.NotNil(t, v)
	assert.Equal(t, VarKindConst, v.Kind)
	assert.Equal(t, "arrow_function", v.InitializerType)
}

func TestCollect_DestructuredDeclaration(t *testing.T) {
	pool := collect(t, "sample.js", `const { a, b } = getPair();
`)
	require.NotNil(t, findVariable(pool, "a"))
	require.NotNil(t, findVariable(pool, "b"))
}

func TestCollect_TestCallbackCaptureSite(t *testing.T) {
	pool := collect(t, "sample.test.js", `describe("widget", function () {
  it("adds", function () {
    return 1 + 1;
  });
});
`)
	var names []string
	for _, f := range pool.Functions {
		names = append(names, f.CanonicalName)
	}
	assert.Contains(t, names, `describe callback "widget"`)
	assert.Contains(t, names, `describe callback "widget".it callback "adds"`)
}

func TestCollect_TypeScriptConstructorParamProperties(t *testing.T) {
	pool := collect(t, "sample.ts", `class Widget {
  constructor(private readonly name: string) {}
}
`)
	require.Contains(t, pool.Classes, "Widget")
	params := pool.Classes["Widget"].ConstructorParams["constructor"]
	require.Len(t, params, 1)
	assert.Equal(t, "name", params[0].Name)
	assert.Contains(t, params[0].Modifiers, "private")
	assert.Contains(t, params[0].Modifiers, "readonly")
}

func TestReParseOK(t *testing.T) {
	ok, err := ReParseOK("sample.js", `function ok() { return 1; }`)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ReParseOK("sample.js", `function broken( { return 1; }`)
	require.NoError(t, err)
	assert.False(t, ok)
}
