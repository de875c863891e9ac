package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"On", true, false},
		{"y", true, false},
		{"1", true, false},
		{"false", false, false},
		{"OFF", false, false},
		{"0", false, false},
		{true, true, false},
		{float64(0), false, false},
		{"maybe", false, true},
		{float64(2), false, true},
		{nil, false, true},
	}

	for _, tt := range tests {
		got, err := ParseFlag(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidFlag, "%v", tt.in)
			continue
		}
		assert.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestParseIDList(t *testing.T) {
	assert.Equal(t, []uint{1, 2, 5}, ParseIDList("1,2, abc,5,-3,,0"))
	assert.Empty(t, ParseIDList("x,y"))
	assert.Empty(t, ParseIDList(""))
}

func TestAsUintAndAsInt(t *testing.T) {
	id, ok := AsUint(float64(4))
	assert.True(t, ok)
	assert.Equal(t, uint(4), id)

	id, ok = AsUint("12")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)

	_, ok = AsUint("12a")
	assert.False(t, ok)
	_, ok = AsUint(float64(1.5))
	assert.False(t, ok)

	n, ok := AsInt(float64(3))
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = AsInt("3")
	assert.False(t, ok)
}
