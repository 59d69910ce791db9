package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_GetIsCaseInsensitive(t *testing.T) {
	n := Node{"Enabled": true, "path": "/x"}

	v, ok := n.Get("enabled")
	require.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = n.Get("PATH")
	require.True(t, ok)
	assert.Equal(t, "/x", v)

	_, ok = n.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "Enabled", n.Key("ENABLED"))
}

func TestNode_Lookup_AcceptsAllSeparators(t *testing.T) {
	n := Node{"Management": Node{"Endpoints": Node{"Enabled": false}}}

	for _, p := range []string{
		"Management:Endpoints:Enabled",
		"management.endpoints.enabled",
		"Management__Endpoints__Enabled",
	} {
		v, ok := n.Lookup(p)
		require.True(t, ok, p)
		assert.Equal(t, false, v, p)
	}

	_, ok := n.Lookup("Management:Endpoints:Enabled:Deeper")
	assert.False(t, ok)
	assert.NotNil(t, n.LookupNode("management:endpoints"))
	assert.Nil(t, n.LookupNode("management:endpoints:enabled"))
}

func TestOverlay_TopWinsAndKeepsBaseCasing(t *testing.T) {
	base := Node{"Management": Node{"Endpoints": Node{"Enabled": true, "Path": "/actuator"}}}
	top := Node{"management": Node{"endpoints": Node{"enabled": false}}}

	got := Overlay(base, top)

	v, _ := got.Lookup("Management:Endpoints:Enabled")
	assert.Equal(t, false, v)
	v, _ = got.Lookup("Management:Endpoints:Path")
	assert.Equal(t, "/actuator", v)
	assert.Contains(t, got, "Management")
	assert.NotContains(t, got, "management")

	// Inputs untouched.
	v, _ = base.Lookup("Management:Endpoints:Enabled")
	assert.Equal(t, true, v)
}

func TestFromFlat_AndFlatten(t *testing.T) {
	flat := map[string]string{
		"Management:Endpoints:Enabled":                    "false",
		"Management:Endpoints:Actuator:Exposure:Include:0": "*",
		"Management:Endpoints:Actuator:Exposure:Include:1": "env",
	}
	n := FromFlat(flat)

	v, ok := n.Lookup("management:endpoints:enabled")
	require.True(t, ok)
	assert.Equal(t, "false", v)

	inc := n.LookupNode("Management:Endpoints:Actuator:Exposure:Include")
	require.NotNil(t, inc)
	assert.Equal(t, "*", inc["0"])

	assert.Equal(t, flat, n.Flatten())
}

func TestFromFlat_NestedWinsOverLeaf(t *testing.T) {
	n := FromFlat(map[string]string{
		"A":   "leaf",
		"A:B": "nested",
	})
	v, ok := n.Lookup("A:B")
	require.True(t, ok)
	assert.Equal(t, "nested", v)
}

func TestNormalize_ConvertsDecodedMaps(t *testing.T) {
	in := map[string]any{
		"a": map[any]any{"b": 1, 2: "two"},
		"l": []any{"x", map[string]any{"y": true}},
	}
	got, ok := Normalize(in).(Node)
	require.True(t, ok)

	b, _ := got.Lookup("a:b")
	assert.Equal(t, int64(1), b)
	two, _ := got.Lookup("a:2")
	assert.Equal(t, "two", two)

	l, ok := got["l"].([]any)
	require.True(t, ok)
	assert.IsType(t, Node{}, l[1])
}

func TestClone_IsDeep(t *testing.T) {
	orig := Node{"a": Node{"b": "1"}, "l": []any{"x"}}
	c := orig.Clone()
	c.Child("a")["b"] = "2"
	c["l"].([]any)[0] = "y"

	assert.Equal(t, "1", orig.Child("a")["b"])
	assert.Equal(t, "x", orig["l"].([]any)[0])
}
