package jsondoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "comfyui impact pack", Normalize("  ComfyUI   Impact\tPack "))
	assert.Equal(t, "", Normalize("   "))
}

func TestTruthy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{float64(1), true},
		{float64(0), false},
		{"Installed", true},
		{" done ", true},
		{"not-installed", false},
		{"false", false},
		{nil, false},
		{map[string]any{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truthy(tt.in), "Truthy(%#v)", tt.in)
	}
}

func TestDoc_Aliases(t *testing.T) {
	t.Parallel()
	d, err := Parse([]byte(`{"repo":"https://github.com/a/b","repository":"","stars":12,"installed":"true","data":{"id":"p1"},"list":[{"a":1},2]}`))
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/a/b", d.String("repository", "repo"))
	assert.Equal(t, "12", d.String("stars"))
	assert.True(t, d.Bool("is_installed", "installed"))

	n, ok := d.Int("stars")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	data, ok := d.Object("data")
	require.True(t, ok)
	assert.Equal(t, "p1", data.String("id"))

	objs, ok := d.Objects("list")
	require.True(t, ok)
	assert.Len(t, objs, 1)
}

func TestParse_RejectsNonObject(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty([]any{}))
	assert.True(t, IsEmpty(map[string]any{}))
	assert.False(t, IsEmpty(false))
	assert.False(t, IsEmpty(0))
}

func TestFalsy(t *testing.T) {
	t.Parallel()
	for _, v := range []any{nil, "", false, float64(0), 0, []any{}, map[string]any{}} {
		assert.True(t, Falsy(v), "%#v", v)
	}
	for _, v := range []any{"x", true, float64(2), []any{1}, map[string]any{"a": 1}} {
		assert.False(t, Falsy(v), "%#v", v)
	}
}
