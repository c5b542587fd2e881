package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDottedValues(t *testing.T) {
	data := map[string]interface{}{
		"naming": map[string]interface{}{
			"case": "snake_case",
		},
	}
	value, ok := GetValue(data, "naming.case")
	require.True(t, ok)
	require.Equal(t, "snake_case", value)

	require.NoError(t, SetValue(data, "naming.case", "camelCase"))
	value, ok = GetValue(data, "naming.case")
	require.True(t, ok)
	require.Equal(t, "camelCase", value)

	require.NoError(t, SetValue(data, "cache.capacity", 10))
	value, ok = GetValue(data, "cache.capacity")
	require.True(t, ok)
	require.Equal(t, 10, value)

	require.Error(t, SetValue(data, "naming.case.inner", 1))
	_, ok = GetValue(data, "format.brace_style")
	require.False(t, ok)
}

func TestParseAndPrettyValue(t *testing.T) {
	require.Equal(t, true, ParseValue("true"))
	require.Equal(t, int64(3), ParseValue("3"))
	require.Equal(t, 1.5, ParseValue("1.5"))
	require.Equal(t, "same-line", ParseValue("same-line"))
	require.Equal(t, []interface{}{"m_", "_"}, ParseValue("m_, _"))
	require.Equal(t, "[m_, _]", PrettyValue([]interface{}{"m_", "_"}))
}

func TestMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	data, err := ReadMap(path)
	require.NoError(t, err)
	require.Empty(t, data)

	require.NoError(t, SetValue(data, "format.brace_style", "same-line"))
	require.NoError(t, WriteMap(path, data))

	again, err := ReadMap(path)
	require.NoError(t, err)
	value, ok := GetValue(again, "format.brace_style")
	require.True(t, ok)
	require.Equal(t, "same-line", value)
}
