package dict

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  map[string]any
		dst  map[string]any
		want map[string]any
	}{
		{
			name: "empty src - dst unchanged",
			src:  map[string]any{},
			dst:  map[string]any{"key1": "value1", "key2": 42},
			want: map[string]any{"key1": "value1", "key2": 42},
		},
		{
			name: "empty dst - src values added",
			src:  map[string]any{"key1": "value1", "key2": 42},
			dst:  map[string]any{},
			want: map[string]any{"key1": "value1", "key2": 42},
		},
		{
			name: "overlapping leaves - src overrides dst",
			src:  map[string]any{"key1": "new", "key3": "add"},
			dst:  map[string]any{"key1": "old", "key2": "keep"},
			want: map[string]any{"key1": "new", "key2": "keep", "key3": "add"},
		},
		{
			name: "different leaf types - src overrides",
			src:  map[string]any{"port": 8080, "items": []string{"a", "b"}},
			dst:  map[string]any{"port": "8080", "items": "single"},
			want: map[string]any{"port": 8080, "items": []string{"a", "b"}},
		},
		{
			name: "nested maps - merge recursively",
			src: map[string]any{
				"first": map[string]any{
					"all_rows": map[string]any{"fail": "cat", "number": "5"},
				},
			},
			dst: map[string]any{
				"first": map[string]any{
					"all_rows": map[string]any{"pass": "dog", "number": "1"},
				},
			},
			want: map[string]any{
				"first": map[string]any{
					"all_rows": map[string]any{"pass": "dog", "fail": "cat", "number": "5"},
				},
			},
		},
		{
			name: "missing nested node is created",
			src: map[string]any{
				"server": map[string]any{"tls": map[string]any{"enabled": true}},
			},
			dst: map[string]any{"debug": false},
			want: map[string]any{
				"debug":  false,
				"server": map[string]any{"tls": map[string]any{"enabled": true}},
			},
		},
		{
			name: "leaf in dst replaced by mapping",
			src:  map[string]any{"server": map[string]any{"port": 9090}},
			dst:  map[string]any{"server": "simple-string"},
			want: map[string]any{"server": map[string]any{"port": 9090}},
		},
		{
			name: "mapping in dst replaced by leaf",
			src:  map[string]any{"server": "simple-string"},
			dst:  map[string]any{"server": map[string]any{"port": 9090}},
			want: map[string]any{"server": "simple-string"},
		},
		{
			name: "nil value overrides",
			src:  map[string]any{"key": nil},
			dst:  map[string]any{"key": "value"},
			want: map[string]any{"key": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Merge(tt.src, tt.dst)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, tt.dst, "dst must be mutated in place")
		})
	}
}

func TestMerge_NilDst(t *testing.T) {
	t.Parallel()

	got := Merge(map[string]any{"a": map[string]any{"b": 1}}, nil)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 1}}, got)
}

func TestMerge_DoesNotAliasSource(t *testing.T) {
	t.Parallel()

	nested := map[string]any{"host": "localhost"}
	src := map[string]any{"db": nested}
	dst := Merge(src, map[string]any{})

	nested["host"] = "changed"
	assert.Equal(t, "localhost", dst["db"].(map[string]any)["host"])
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()

	src := map[string]any{"a": map[string]any{"b": 1, "c": "x"}, "d": true}
	once := Merge(src, map[string]any{"e": 2})
	twice := Merge(src, Merge(src, map[string]any{"e": 2}))
	assert.Equal(t, once, twice)
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	a := map[string]any{"server": map[string]any{"host": "0.0.0.0", "port": 8080}}
	b := map[string]any{"server": map[string]any{"port": 9090}}
	c := map[string]any{"debug": true}

	got := MergeAll(a, b, c)
	assert.Equal(t, map[string]any{
		"server": map[string]any{"host": "0.0.0.0", "port": 9090},
		"debug":  true,
	}, got)
	assert.Equal(t, 8080, a["server"].(map[string]any)["port"], "inputs untouched")
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "merged.yaml")
	in := map[string]any{"app": map[string]any{"name": "sundry", "port": 8080}}

	require.NoError(t, WriteYAML(path, in))
	out, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadYAML_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
