package optional

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Float
		want Float
	}{
		{"add defined", Of(1).Add(Of(2)), Of(3)},
		{"add undefined", Of(1).Add(Undefined()), Undefined()},
		{"sub defined", OfInt(5).Sub(Of(2)), Of(3)},
		{"sub undefined lhs", Undefined().Sub(Of(2)), Undefined()},
		{"div defined", Of(3).Div(Of(2)), Of(1.5)},
		{"div by zero", Of(3).Div(Of(0)), Undefined()},
		{"zero over zero", Of(0).Div(Of(0)), Undefined()},
		{"div undefined", Of(3).Div(Undefined()), Undefined()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestFloat_OrNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Undefined().OrNaN()))
	assert.Equal(t, 2.5, Of(2.5).OrNaN())
	assert.False(t, Of(math.NaN()).Valid)
}

func TestMean(t *testing.T) {
	assert.Equal(t, Undefined(), Mean(nil))
	assert.Equal(t, Undefined(), Mean([]Float{Undefined()}))
	assert.Equal(t, Of(5), Mean([]Float{Undefined(), Of(4), Of(6)}))
}

func TestFloat_JSON(t *testing.T) {
	b, err := Undefined().MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var f Float
	assert.NoError(t, f.UnmarshalJSON([]byte("1.25")))
	assert.Equal(t, Of(1.25), f)
	assert.NoError(t, f.UnmarshalJSON([]byte("null")))
	assert.False(t, f.Valid)
}
