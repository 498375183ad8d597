package draw

import (
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/nn"
	"github.com/stretchr/testify/require"
)

func TestBoxes(t *testing.T) {
	src := cimg.NewImage(40, 40, cimg.PixelFormatRGB)
	out := Boxes(src, []LabelledBox{{Box: nn.Box{X: 10, Y: 10, Width: 20, Height: 20}}})
	require.Equal(t, 40, out.Width)
	require.Equal(t, 40, out.Height)

	// The outline is coloured, the centre and the far corner are untouched
	edge := out.Pixels[20*out.Stride+10*3:]
	require.True(t, edge[0] > 0 || edge[1] > 0 || edge[2] > 0)
	centre := out.Pixels[20*out.Stride+20*3:]
	require.Equal(t, []byte{0, 0, 0}, centre[:3])
	require.Equal(t, []byte{0, 0, 0}, out.Pixels[:3])
	// Source is not modified
	require.Equal(t, byte(0), src.Pixels[20*src.Stride+10*3+1])
}

func TestConversions(t *testing.T) {
	lb := FromAnnotations([]annot.Annotation{{ClassLabel: "car", X: 1, Y: 2, Width: 3, Height: 4, Ignore: true}})
	require.Equal(t, LabelledBox{Box: nn.Box{X: 1, Y: 2, Width: 3, Height: 4}, Label: "car", Ignore: true}, lb[0])

	lb = FromCorners([][4]float32{{1, 2, 4, 6}}, "person")
	require.Equal(t, nn.Box{X: 1, Y: 2, Width: 3, Height: 4}, lb[0].Box)
}
