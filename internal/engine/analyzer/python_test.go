package analyzer

import (
	"context"
	"testing"

	"symscope/internal/engine/symtab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pyScenario = `import os
from collections import OrderedDict as od

rate = 0.5
counter = 0


def bump(step: int, scale=rate):
    global counter
    counter += step
    total = [x * scale for x in range(step)]
    return total, undefined_name


class shape:
    sides = 0

    def area(self):
        return sides + len(self.name)


print(bump(1), os.sep, od)
`

func TestPythonAnalyzeScenario(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	report, err := a.AnalyzeFile(context.Background(), "mod.py", []byte(pyScenario))
	require.NoError(t, err)

	assert.Equal(t, "python", report.Language)
	assert.Equal(t, []string{"undefined_name"}, diagNames(report.DiagnosticsOf(DiagUnresolved)))
	assert.Empty(t, report.DiagnosticsOf(DiagShadowed))
	assert.Empty(t, report.DiagnosticsOf(DiagRedeclared))

	kinds := make(map[ScopeKind]bool)
	for _, scope := range report.Scopes {
		kinds[scope.Kind] = true
	}
	for _, kind := range []ScopeKind{ScopeFile, ScopeFunction, ScopeClass, ScopeComprehension} {
		assert.True(t, kinds[kind], "expected a %s scope", kind)
	}
}

func TestPythonRecords(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	report, err := a.AnalyzeFile(context.Background(), "mod.py", []byte(pyScenario))
	require.NoError(t, err)

	module := func(s ScopeSnapshot) bool { return s.Kind == ScopeFile }

	rate, ok := report.Lookup("rate", module)
	require.True(t, ok)
	assert.Equal(t, symtab.TypeReal, rate.Type)
	assert.Equal(t, "0.5", rate.Value)

	bump, ok := report.Lookup("bump", module)
	require.True(t, ok)
	assert.Equal(t, symtab.KindFunction, bump.Kind)
	assert.Equal(t, []symtab.Type{symtab.TypeInt, symtab.TypeUndefined}, bump.Params)

	od, ok := report.Lookup("od", module)
	require.True(t, ok)
	assert.Equal(t, symtab.KindPackage, od.Kind)

	shape, ok := report.Lookup("shape", module)
	require.True(t, ok)
	assert.Equal(t, symtab.KindType, shape.Kind)

	_, ok = report.Lookup("counter", scopeNamed(ScopeFunction, "bump"))
	assert.False(t, ok, "global names bind in the module scope")

	step, ok := report.Lookup("step", scopeNamed(ScopeFunction, "bump"))
	require.True(t, ok)
	assert.Equal(t, symtab.TypeInt, step.Type)
	assert.Equal(t, 0, step.Addr)

	_, ok = report.Lookup("x", func(s ScopeSnapshot) bool { return s.Kind == ScopeComprehension })
	assert.True(t, ok)

	_, ok = report.Lookup("area", scopeNamed(ScopeClass, "shape"))
	assert.True(t, ok)
}

func TestPythonLocalsAreBodyWide(t *testing.T) {
	src := `def outer():
    def inner():
        return helper()

    def helper():
        return value

    value = 1
    return inner


outer()
value
`
	a := newTestAnalyzer(t, nil)
	report, err := a.AnalyzeFile(context.Background(), "m.py", []byte(src))
	require.NoError(t, err)

	unresolved := report.DiagnosticsOf(DiagUnresolved)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "value", unresolved[0].Name)
	assert.Equal(t, lineOf(t, src, "outer()\n")+1, unresolved[0].Location.Line)
}

func TestPythonShadowingAndRebinding(t *testing.T) {
	src := `name = "a"
name = "b"


def f(name):
    for i in range(3):
        name = i
    return name


def f(other, other2):
    return other
`
	a := newTestAnalyzer(t, nil)
	report, err := a.AnalyzeFile(context.Background(), "m.py", []byte(src))
	require.NoError(t, err)

	assert.Empty(t, report.DiagnosticsOf(DiagRedeclared), "rebinding is not a redeclaration")

	shadowed := report.DiagnosticsOf(DiagShadowed)
	require.Len(t, shadowed, 1)
	assert.Equal(t, "name", shadowed[0].Name)
	assert.Equal(t, 1, shadowed[0].RelatedLine)

	name, ok := report.Lookup("name", func(s ScopeSnapshot) bool { return s.Kind == ScopeFile })
	require.True(t, ok)
	assert.Equal(t, 1, name.Line)
	assert.Equal(t, `"a"`, name.Value, "the value of the first binding is kept")
}

func TestPythonDuplicateParameter(t *testing.T) {
	src := `def f(a, a):
    return a
`
	a := newTestAnalyzer(t, nil)
	report, err := a.AnalyzeFile(context.Background(), "m.py", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, diagNames(report.DiagnosticsOf(DiagRedeclared)))
}

func TestPythonWithAndExcept(t *testing.T) {
	src := `def read(path):
    try:
        with open(path) as fh:
            return fh.read()
    except OSError as exc:
        return str(exc)
`
	a := newTestAnalyzer(t, nil)
	report, err := a.AnalyzeFile(context.Background(), "m.py", []byte(src))
	require.NoError(t, err)

	inRead := scopeNamed(ScopeFunction, "read")
	_, ok := report.Lookup("fh", inRead)
	assert.True(t, ok)
	_, ok = report.Lookup("exc", inRead)
	assert.True(t, ok)
	assert.Empty(t, report.DiagnosticsOf(DiagUnresolved))
	assert.Empty(t, report.DiagnosticsOf(DiagUnhashable), "capitalized names are only reported where declared")
}

func TestPythonMatchCaptures(t *testing.T) {
	src := `def route(cmd):
    match cmd:
        case [first, *rest]:
            return first, rest
        case {"op": op, **extra} if op:
            return op, extra
        case point(x=px) as whole:
            return px, whole
        case color.red:
            return None
    return None
`
	a := newTestAnalyzer(t, nil)
	report, err := a.AnalyzeFile(context.Background(), "m.py", []byte(src))
	require.NoError(t, err)

	inRoute := scopeNamed(ScopeFunction, "route")
	for _, name := range []string{"first", "rest", "op", "extra", "px", "whole"} {
		_, ok := report.Lookup(name, inRoute)
		assert.True(t, ok, "capture %s should be bound in route", name)
	}
	_, ok := report.Lookup("x", nil)
	assert.False(t, ok, "keyword patterns name attributes")

	// Class names and dotted value patterns are reads.
	assert.Equal(t, []string{"point", "color"}, diagNames(report.DiagnosticsOf(DiagUnresolved)))
}
