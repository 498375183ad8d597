package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxGeometry(t *testing.T) {
	a := Box{X: 10, Y: 20, Width: 30, Height: 40}
	require.Equal(t, [4]float32{10, 20, 40, 60}, a.Corners())
	require.Equal(t, float32(1200), a.Area())
	require.Equal(t, float32(40), a.X2())
	require.Equal(t, float32(60), a.Y2())

	b := BoxFromCorners(25, 40, 55, 80)
	require.Equal(t, Box{X: 25, Y: 40, Width: 30, Height: 40}, b)
	require.Equal(t, [4]float32{25, 40, 55, 80}, b.Corners())
}
