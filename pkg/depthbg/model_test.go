package depthbg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/stretchr/testify/require"
)

func frameOf(width int, values ...float64) *DepthFrame {
	f := NewDepthFrame(width, len(values)/width)
	copy(f.Depth, values)
	return f
}

func TestReferenceIsMeanOfFrames(t *testing.T) {
	a := frameOf(2, 100, 200, 300, 60000)
	b := frameOf(2, 110, 200, 330, 60000)
	c := frameOf(2, 120, 203, 360, 60003)
	m, err := NewModel(a, b, c)
	require.NoError(t, err)
	require.Equal(t, 2, m.Width())
	require.Equal(t, 2, m.Height())
	// 3 * 60000 would overflow a uint16 accumulator
	require.InDeltaSlice(t, []float64{110, 201, 330, 60001}, m.Reference(), 1e-9)

	// Reference returns a copy
	m.Reference()[0] = -1
	require.InDelta(t, 110.0, m.Reference()[0], 1e-9)
}

func TestModelErrors(t *testing.T) {
	_, err := NewModel()
	require.Error(t, err)

	_, err = NewModel(frameOf(2, 1, 2, 3, 4), frameOf(4, 1, 2, 3, 4))
	require.Error(t, err)

	m, err := NewModel(frameOf(2, 1, 2, 3, 4))
	require.NoError(t, err)
	_, err = m.ForegroundMask(frameOf(1, 1, 2, 3, 4), DefaultThreshold)
	require.Error(t, err)
}

func TestForegroundThreshold(t *testing.T) {
	bg := frameOf(4, 1000, 1000, 1000, 1000)
	m, err := NewModel(bg, bg, bg)
	require.NoError(t, err)

	// Absolute differences are 20, 29, 31, 120.
	// After subtracting the minimum and dividing by the maximum: 0, 0.09, 0.11, 1
	frame := frameOf(4, 1020, 971, 1031, 880)
	d, err := m.Difference(frame)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0, 0.09, 0.11, 1}, d, 1e-9)

	mask, err := m.ForegroundMask(frame, DefaultThreshold)
	require.NoError(t, err)
	require.Equal(t, []bool{false, false, true, true}, mask.Foreground)
	require.Equal(t, 2, mask.Count())
	require.True(t, mask.At(3, 0))
}

func TestUniformDifferenceIsBackground(t *testing.T) {
	bg := frameOf(2, 5, 5, 5, 5)
	m, err := NewModel(bg)
	require.NoError(t, err)
	mask, err := m.ForegroundMask(frameOf(2, 9, 9, 9, 9), DefaultThreshold)
	require.NoError(t, err)
	require.Equal(t, 0, mask.Count())
}

func TestMaskApply(t *testing.T) {
	img := cimg.NewImage(2, 1, cimg.PixelFormatRGB)
	copy(img.Pixels, []byte{10, 20, 30, 40, 50, 60})
	mask := &Mask{Width: 2, Height: 1, Foreground: []bool{false, true}}
	require.NoError(t, mask.Apply(img))
	require.Equal(t, []byte{0, 0, 0, 40, 50, 60}, img.Pixels[:6])

	require.Error(t, mask.Apply(cimg.NewImage(3, 1, cimg.PixelFormatRGB)))
}

func TestReadDepthPNG(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 3, 2))
	src.SetGray16(0, 0, color.Gray16{Y: 65000})
	src.SetGray16(2, 1, color.Gray16{Y: 1234})
	buf := bytes.Buffer{}
	require.NoError(t, png.Encode(&buf, src))

	f, err := ReadDepthPNG(&buf)
	require.NoError(t, err)
	require.Equal(t, 3, f.Width)
	require.Equal(t, 2, f.Height)
	require.Equal(t, 65000.0, f.At(0, 0))
	require.Equal(t, 1234.0, f.At(2, 1))
	require.Equal(t, 0.0, f.At(1, 1))

	_, err = ReadDepthPNG(bytes.NewReader([]byte("nope")))
	require.Error(t, err)
}
