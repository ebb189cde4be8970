package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type form struct {
	Contact contact           `json:"contact"`
	Scope   string            `json:"scope"`
	Goals   []string          `json:"goals"`
	Budget  *float64          `json:"budget"`
	Tags    map[string]string `json:"tags,omitempty"`
	Ignored string            `json:"-"`
}

func TestApplyFixesOperations(t *testing.T) {
	t.Parallel()
	out, err := Apply(form{Scope: "a"}, []Operation{
		{Op: OperationReplace, Path: "/contact/name", Value: "Ana"},
		{Op: OperationRemove, Path: "/tags/missing"},
		{Op: OperationAdd, Path: "/goals", Value: []string{"ventas"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", out.Contact.Name)
	assert.Equal(t, []string{"ventas"}, out.Goals)
	assert.Equal(t, "a", out.Scope)
}

func TestApplyRejectsTypeMismatch(t *testing.T) {
	t.Parallel()
	_, err := Apply(form{}, []Operation{{Op: OperationReplace, Path: "/scope", Value: 3}})
	assert.Error(t, err)
}

func TestOverlay(t *testing.T) {
	t.Parallel()
	base := form{Contact: contact{Name: "Ana", Email: "ana@x.com"}, Scope: "viejo", Goals: []string{"a"}}
	top := form{Contact: contact{Email: "ana@acme.com"}, Goals: []string{"b", "c"}}
	out, err := Overlay(base, top)
	require.NoError(t, err)
	assert.Equal(t, contact{Name: "Ana", Email: "ana@acme.com"}, out.Contact)
	assert.Equal(t, "viejo", out.Scope)
	assert.Equal(t, []string{"b", "c"}, out.Goals)
}

func TestFillGaps(t *testing.T) {
	t.Parallel()
	budget := 1500.0
	current := form{Contact: contact{Name: "Ana"}, Goals: []string{"x"}}
	fallback := form{Contact: contact{Name: "Otra", Email: "ana@acme.com"}, Scope: "video", Goals: []string{"y"}, Budget: &budget}
	out, err := FillGaps(current, fallback)
	require.NoError(t, err)
	assert.Equal(t, "Ana", out.Contact.Name)
	assert.Equal(t, "ana@acme.com", out.Contact.Email)
	assert.Equal(t, "video", out.Scope)
	assert.Equal(t, []string{"x"}, out.Goals)
	require.NotNil(t, out.Budget)
	assert.InDelta(t, 1500.0, *out.Budget, 0.001)
}

func TestDiffSkipsEmptyValues(t *testing.T) {
	t.Parallel()
	ops, err := Diff(form{Scope: "a"}, form{}, false)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestAllJSONPointerPaths(t *testing.T) {
	t.Parallel()
	paths := AllJSONPointerPaths[*form]()
	assert.Equal(t, []string{
		"/contact", "/contact/name", "/contact/email",
		"/scope", "/goals", "/goals/-", "/budget", "/tags", "/tags/*",
	}, paths)
	assert.Empty(t, AllJSONPointerPaths[string]())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	allowed := AllowedPaths[form]()
	assert.NoError(t, Validate([]Operation{
		{Op: OperationAdd, Path: "/goals/0"},
		{Op: OperationAdd, Path: "/goals/-"},
		{Op: OperationAdd, Path: "/tags/color"},
		{Op: OperationReplace, Path: "/contact/name"},
	}, allowed))
	assert.Error(t, Validate([]Operation{{Op: OperationAdd, Path: "/nope"}}, allowed))
	assert.NoError(t, Validate([]Operation{{Op: OperationAdd, Path: "/nope"}}, nil))
}

func TestResolveEscapedPointer(t *testing.T) {
	t.Parallel()
	tree := map[string]any{"a/b": map[string]any{"m~n": []any{"x", nil}}}
	v, ok := resolve(tree, "/a~1b/m~0n/0")
	require.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = resolve(tree, "/a~1b/m~0n/1")
	assert.False(t, ok)
	_, ok = resolve(tree, "a")
	assert.False(t, ok)
	assert.Equal(t, "a~1b", escapeToken("a/b"))
}
