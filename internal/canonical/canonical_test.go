package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"true", true, "true"},
		{"false", false, "false"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_RejectsForbiddenTypes(t *testing.T) {
	for _, v := range []any{nil, 3.14, float32(1), []byte("raw"), struct{}{}, map[int]any{1: "x"}} {
		_, err := Marshal(v)
		assert.Error(t, err, "%T", v)
	}
}

func TestMarshal_ObjectKeyOrder(t *testing.T) {
	got, err := Marshal(map[string]any{
		"zebra":  "z",
		"alpha":  "a",
		"middle": "m",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"a","middle":"m","zebra":"z"}`, string(got))
}

func TestMarshal_KeyOrderIsUTF16(t *testing.T) {
	// U+1D306 encodes as a surrogate pair whose first unit is 0xD834, so
	// under UTF-16 ordering it sorts before U+FF61 (a single 0xFF61 unit).
	// Byte-wise UTF-8 comparison would put them the other way around.
	got, err := Marshal(map[string]any{
		"\uFF61":     "stop",
		"\U0001D306": "tetragram",
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001D306\":\"tetragram\",\"\uFF61\":\"stop\"}", string(got))
}

func TestMarshal_NestedStructures(t *testing.T) {
	got, err := Marshal(map[string]any{
		"outer": map[string]any{
			"b": []any{int64(1), "two", true},
			"a": "first",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"outer":{"a":"first","b":[1,"two",true]}}`, string(got))
}

func TestMarshal_ErrorNamesNestedLocation(t *testing.T) {
	_, err := Marshal(map[string]any{"k": []any{1.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "k"`)
	assert.Contains(t, err.Error(), "array[0]")
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	got, err := Marshal("<a>&</a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a>&</a>"`, string(got))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "e" plus a combining acute accent (the NFD form) must encode
	// identically to the precomposed U+00E9.
	decomposed, err := Marshal("e\u0301")
	require.NoError(t, err)
	precomposed, err := Marshal("\u00e9")
	require.NoError(t, err)
	assert.Equal(t, string(precomposed), string(decomposed))
	assert.Equal(t, "\"\u00e9\"", string(precomposed))
}

func TestMarshal_LineSeparatorsUnescaped(t *testing.T) {
	// U+2028 and U+2029 stay literal in canonical output even though Go's
	// encoder escapes them for JavaScript embedding.
	got, err := Marshal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))
}

func TestMarshal_LiteralBackslashU2028Preserved(t *testing.T) {
	// A literal backslash followed by the text "u2028" is not an escape
	// and must survive as backslash-escaped text.
	got, err := Marshal("\\u2028")
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}

func TestMarshal_ControlCharacterEscapes(t *testing.T) {
	got, err := Marshal("line1\nline2\ttab\"quote")
	require.NoError(t, err)
	assert.Equal(t, `"line1\nline2\ttab\"quote"`, string(got))
}

func TestMustMarshal(t *testing.T) {
	assert.Equal(t, `{"a":"1"}`, string(MustMarshal(map[string]any{"a": "1"})))
	assert.Panics(t, func() { MustMarshal(3.14) })
}

func TestMarshal_Deterministic(t *testing.T) {
	in := map[string]any{"b": "2", "a": "1", "c": map[string]any{"y": true, "x": int64(0)}}
	first, err := Marshal(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(in)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
