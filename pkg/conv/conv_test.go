package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{in: 3, want: 3, ok: true},
		{in: int64(4), want: 4, ok: true},
		{in: 5.0, want: 5, ok: true},
		{in: "5", ok: false},
		{in: nil, ok: false},
	}
	for _, tt := range tests {
		got, ok := ToInt(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestConfigGet(t *testing.T) {
	cfg := map[string]any{"expr": "product.price > 10", "n": 20.0, "top_n": "many"}

	assert.Equal(t, "product.price > 10", ConfigGet(cfg, "expr", ""))
	assert.Equal(t, "x", ConfigGet(cfg, "missing", "x"))
	assert.Equal(t, int64(20), ConfigGetInt64(cfg, "n", 10))
	assert.Equal(t, int64(1000), ConfigGetInt64(cfg, "top_n", 1000))
	assert.Equal(t, int64(7), ConfigGetInt64(nil, "n", 7))
}

func TestConvertSlice(t *testing.T) {
	got := ConvertSlice([]any{1, "x", 3.0}, func(v any) (int64, bool) {
		n, ok := ToInt(v)
		return int64(n), ok
	})
	assert.Equal(t, []int64{1, 3}, got)
	assert.Nil(t, ConvertSlice[any, int64](nil, nil))
}
