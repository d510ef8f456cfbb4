package chromatic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot-analyser/internal/image"
)

func TestPixelShift(t *testing.T) {
	tests := []struct {
		name   string
		offset Offset
		ps     float64
		dx, dy int
	}{
		{"exact", Offset{DX: 0.2, DY: -0.4}, 0.1, 2, -4},
		{"half rounds up", Offset{DX: 0.05, DY: -0.05}, 0.1, 1, 0},
		{"below half", Offset{DX: 0.14, DY: 0}, 0.1, 1, 0},
		{"zero", Offset{}, 0.1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy := PixelShift(tt.offset, tt.ps)
			assert.Equal(t, tt.dx, dx)
			assert.Equal(t, tt.dy, dy)
		})
	}
}

func TestCorrect_ShiftsLaterChannels(t *testing.T) {
	ref := image.NewField(4, 3, 0.5)
	ref.Set(1, 1, 9)
	ch := image.NewField(4, 3, 0.5)
	ch.Set(1, 1, 7)

	out, err := Correct([]*image.Field{ref, ch}, []Offset{{DX: 1.0, DY: 0.5}}, 0.5)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Same(t, ref, out[0])
	assert.Equal(t, 7.0, out[1].At(3, 2))
	assert.Equal(t, 0.0, out[1].At(1, 1))
	// Input untouched.
	assert.Equal(t, 7.0, ch.At(1, 1))
}

func TestCorrect_Validation(t *testing.T) {
	f := image.NewField(2, 2, 1)
	_, err := Correct([]*image.Field{f, f}, nil, 1)
	assert.Error(t, err)
	_, err = Correct([]*image.Field{f}, nil, 0)
	assert.Error(t, err)

	out, err := Correct([]*image.Field{f}, nil, 1)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
