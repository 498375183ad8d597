package voc

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/hyper"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/trainset/pkg/nn"
	"github.com/cyclopcam/trainset/pkg/storage"
	"github.com/stretchr/testify/require"
)

// memImages serves solid grey images of a fixed size
type memImages struct {
	width, height int
	loads         []string
}

func (m *memImages) Load(image string) (*cimg.Image, error) {
	if image == "missing.png" {
		return nil, fmt.Errorf("Failed to open image %v: %w", image, os.ErrNotExist)
	}
	m.loads = append(m.loads, image)
	img := cimg.NewImage(m.width, m.height, cimg.PixelFormatRGB)
	imgutil.Fill(img, 255)
	return img, nil
}

func testSet() *annot.Set {
	return annot.NewSet([]annot.Annotation{
		{Image: "b.png", ClassLabel: "person", X: 10, Y: 10, Width: 20, Height: 40},
		{Image: "a.png", ClassLabel: "car", X: 0, Y: 0, Width: 100, Height: 50},
		{Image: "a.png", ClassLabel: "dog", X: 5, Y: 5, Width: 1, Height: 1},
	})
}

func testParams() *hyper.Params {
	p := hyper.Default()
	p.InputDimension = nn.InputDimension{Width: 200, Height: 200}
	p.ClassLabelMap = []string{"person", "car"}
	return p
}

func TestDataset(t *testing.T) {
	images := &memImages{width: 100, height: 50}
	ds := NewDataset(logs.NewTestingLog(t), testSet(), testParams(), false, images)
	require.Equal(t, 2, ds.Len())
	name, err := ds.ImageName(0)
	require.NoError(t, err)
	require.Equal(t, "a.png", name)

	tensor, annos, err := ds.Get(0)
	require.NoError(t, err)
	require.Equal(t, []int{3, 200, 200}, tensor.Shape())
	// Letterbox: scale 2, 50 rows of padding on top
	require.InDelta(t, 127.0/255, tensor.At(0, 0, 0), 1e-6)
	require.InDelta(t, 1, tensor.At(0, 100, 100), 1e-6)
	require.Len(t, annos, 2)
	require.Equal(t, 1, annos[0].ClassID)
	require.Equal(t, -1, annos[1].ClassID)
	require.EqualValues(t, 0, annos[0].X)
	require.EqualValues(t, 50, annos[0].Y)
	require.EqualValues(t, 200, annos[0].Width)
	require.EqualValues(t, 100, annos[0].Height)

	_, annos, err = ds.Get(1)
	require.NoError(t, err)
	require.Equal(t, 0, annos[0].ClassID)
	require.Equal(t, []string{"a.png", "b.png"}, images.loads)

	_, _, err = ds.Get(2)
	require.Error(t, err)
	_, _, err = ds.Get(-1)
	require.Error(t, err)
}

func TestDatasetWithoutClassMap(t *testing.T) {
	p := testParams()
	p.ClassLabelMap = nil
	ds := NewDataset(logs.NewTestingLog(t), testSet(), p, false, &memImages{width: 200, height: 200})
	require.Equal(t, []string{"car", "dog", "person"}, ds.Classes())
	require.Nil(t, p.ClassLabelMap, "caller's params must not be modified")
	_, annos, err := ds.Get(0)
	require.NoError(t, err)
	require.Equal(t, 0, annos[0].ClassID)
	require.Equal(t, 1, annos[1].ClassID)
}

func TestDatasetAugment(t *testing.T) {
	ds := NewDataset(logs.NewTestingLog(t), testSet(), testParams(), true, &memImages{width: 160, height: 90})
	ds.WithRand(rand.New(rand.NewSource(11)))
	for i := 0; i < 20; i++ {
		tensor, annos, err := ds.Get(i % 2)
		require.NoError(t, err)
		require.Equal(t, []int{3, 200, 200}, tensor.Shape())
		for _, a := range annos {
			require.LessOrEqual(t, a.X+a.Width, float32(200.001))
			require.LessOrEqual(t, a.Y+a.Height, float32(200.001))
		}
	}
}

func TestDatasetMissingImage(t *testing.T) {
	set := annot.NewSet([]annot.Annotation{{Image: "missing.png", ClassLabel: "person"}})
	ds := NewDataset(logs.NewTestingLog(t), set, testParams(), false, &memImages{})
	_, _, err := ds.Get(0)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestStorageImages(t *testing.T) {
	store, err := storage.NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	src := cimg.NewImage(3, 2, cimg.PixelFormatRGB)
	imgutil.Fill(src, 77)
	buf := bytes.Buffer{}
	require.NoError(t, imgutil.EncodePNG(&buf, src))
	require.NoError(t, storage.WriteFile(store, "epfl_lab/20140804_160621_00/I00001.png", &buf))

	images := NewStorageImages(store, "")
	require.Equal(t, "epfl_lab/20140804_160621_00/x.png", images.Filename("x.png"))
	img, err := images.Load("I00001.png")
	require.NoError(t, err)
	require.Equal(t, 3, img.Width)
	require.Equal(t, byte(77), img.Pixels[0])

	_, err = images.Load("nope.png")
	require.ErrorIs(t, err, os.ErrNotExist)
}
