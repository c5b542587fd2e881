package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseName(t *testing.T) {
	n := DefaultNaming()
	tests := map[string]string{
		"m_count": "count",
		"_count":  "count",
		"count_":  "count",
		"s_total": "total",
		"x_":      "x",
		"count":   "count",
		"m_1st":   "m_1st",
	}
	for in, want := range tests {
		assert.Equal(t, want, n.BaseName(in), in)
	}
}

func TestGetterName(t *testing.T) {
	snake := DefaultNaming()
	camel := DefaultNaming()
	camel.Case = CamelCase
	pascal := DefaultNaming()
	pascal.Case = PascalCase
	noBool := DefaultNaming()
	noBool.UseBoolPrefix = false
	bare := DefaultNaming()
	bare.BareGetters = true
	unstripped := DefaultNaming()
	unstripped.MemberPrefixes = nil

	tests := []struct {
		naming  Naming
		field   string
		boolean bool
		want    string
	}{
		{snake, "m_count", false, "get_count"},
		{snake, "count", false, "get_count"},
		{unstripped, "m_count", false, "get_m_count"},
		{snake, "m_done", true, "is_done"},
		{snake, "m_isReady", true, "is_ready"},
		{snake, "has_items", true, "get_has_items"},
		{noBool, "m_done", true, "get_done"},
		{camel, "m_count", false, "getCount"},
		{camel, "m_done", true, "isDone"},
		{camel, "m_isReady", true, "isReady"},
		{pascal, "m_count", false, "GetCount"},
		{bare, "m_count", false, "count"},
		{bare, "count", false, "get_count"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.naming.GetterName(tt.field, tt.boolean), tt.field)
	}
}

func TestSetterName(t *testing.T) {
	n := DefaultNaming()
	assert.Equal(t, "set_count", n.SetterName("m_count"))
	assert.Equal(t, "set_m_count", Naming{Case: SnakeCase, SetterPrefix: "set"}.SetterName("m_count"))
	n.Case = CamelCase
	assert.Equal(t, "setCount", n.SetterName("count_"))
	assert.Equal(t, "newValue", n.ParameterName("m_value"))
	assert.Equal(t, "value", n.ParameterName("m_count"))
}
