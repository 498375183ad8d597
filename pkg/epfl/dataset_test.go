package epfl

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/epfl/epfltest"
	"github.com/cyclopcam/trainset/pkg/nn"
	"github.com/cyclopcam/trainset/pkg/storage"
	"github.com/cyclopcam/trainset/pkg/transform"
	"github.com/stretchr/testify/require"
)

func testBoxes() BoxIndex {
	bi, _ := LoadBoxIndex(strings.NewReader(epfltest.BoxesJSON))
	return bi
}

func makeSequence(t *testing.T) storage.Storage {
	return epfltest.MakeSequence(t)
}

func TestLoadBoxIndex(t *testing.T) {
	bi, err := LoadBoxIndex(strings.NewReader(`{"34": [[1, 0, 2, 2]], "40": []}`))
	require.NoError(t, err)
	require.Equal(t, []int{34, 40}, bi.Frames())
	require.Equal(t, []nn.Box{{X: 1, Y: 0, Width: 2, Height: 2}}, bi.Lookup(34))
	require.NotNil(t, bi.Lookup(99))
	require.Len(t, bi.Lookup(99), 0)

	_, err = LoadBoxIndex(strings.NewReader(`{"x": []}`))
	require.Error(t, err)
	_, err = LoadBoxIndex(strings.NewReader(`{"1": [[1, 2, 3]]}`))
	require.Error(t, err)
}

func TestTarget(t *testing.T) {
	tg := NewTarget(50, []nn.Box{{X: 10, Y: 20, Width: 5, Height: 8}})
	require.Equal(t, []string{"boxes", "labels", "image_id", "area", "iscrowd"}, tg.Keys())
	require.Equal(t, [][4]float32{{10, 20, 15, 28}}, tg.Boxes)
	require.Equal(t, []int64{1}, tg.Labels)
	require.Equal(t, []int64{50}, tg.ImageID)
	require.Equal(t, []float32{40}, tg.Area)
	require.Equal(t, []int64{0}, tg.IsCrowd)
	require.Len(t, tg.AsMap(), 5)

	empty := NewTarget(7, BoxIndex{}.Lookup(7))
	require.Equal(t, 0, empty.NumObjects())
	require.NotNil(t, empty.Boxes)
	require.NotNil(t, empty.Area)
	require.Equal(t, TargetKeys, empty.Keys())
}

func TestDataset(t *testing.T) {
	ds, err := Open(logs.NewTestingLog(t), makeSequence(t), testBoxes(), Options{})
	require.NoError(t, err)
	require.Equal(t, 916, ds.Len())
	require.InDeltaSlice(t, toFloat(epfltest.Flat(1000)), ds.Background().Reference(), 1e-9)

	s, err := ds.Get(0)
	require.NoError(t, err)
	require.Equal(t, 34, s.Frame)
	require.Equal(t, []int64{34}, s.Target.ImageID)
	require.Equal(t, [][4]float32{{1, 0, 3, 2}, {0, 0, 1, 1}}, s.Target.Boxes)
	require.Equal(t, []float32{4, 1}, s.Target.Area)
	require.Equal(t, []int64{1, 1}, s.Target.Labels)

	// Only the two pixels with a large depth change keep their colour
	for y := 0; y < epfltest.Height; y++ {
		for x := 0; x < epfltest.Width; x++ {
			v := s.Image.Pixels[y*s.Image.Stride+x*3]
			fg := (x == 1 && y == 0) || (x == 2 && y == 1)
			if fg {
				require.Equal(t, byte(epfltest.Grey), v, "(%v,%v)", x, y)
			} else {
				require.Equal(t, byte(0), v, "(%v,%v)", x, y)
			}
		}
	}

	// Frame 35 has no boxes, and no depth change at all
	s, err = ds.Get(1)
	require.NoError(t, err)
	require.Equal(t, 0, s.Target.NumObjects())
	require.Equal(t, TargetKeys, s.Target.Keys())
	require.Equal(t, byte(0), s.Image.Pixels[0])

	_, err = ds.Get(-1)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))

	// Frame 36 doesn't exist
	_, err = ds.Get(2)
	require.True(t, errors.Is(err, os.ErrNotExist), "%v", err)
}

func TestDatasetMissingBackground(t *testing.T) {
	store, err := storage.NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	epfltest.WriteDepth(t, store, 1, epfltest.Flat(1))
	_, err = Open(logs.NewTestingLog(t), store, nil, Options{})
	require.ErrorContains(t, err, "background frame 2")
}

func TestDatasetTransform(t *testing.T) {
	lb := &transform.Letterbox{Width: 8, Height: 8, Fill: transform.DefaultFill}
	ds, err := Open(logs.NewTestingLog(t), makeSequence(t), testBoxes(), Options{Transform: StepTransform(lb)})
	require.NoError(t, err)
	s, err := ds.Get(0)
	require.NoError(t, err)
	require.Equal(t, 8, s.Image.Width)
	require.Equal(t, 8, s.Image.Height)
	// Scale 2, padded 2 rows top and bottom
	require.Equal(t, [][4]float32{{2, 2, 6, 6}, {0, 2, 2, 4}}, s.Target.Boxes)
	require.Equal(t, []float32{16, 4}, s.Target.Area)
	require.Equal(t, []int64{34}, s.Target.ImageID)

	// A transform that drops the first box
	dropFirst := TransformFunc(func(img *cimg.Image, target *Target) (*cimg.Image, *Target, error) {
		target.Boxes = target.Boxes[1:]
		target.Labels = target.Labels[1:]
		target.Area = target.Area[1:]
		target.IsCrowd = target.IsCrowd[1:]
		return img, target, nil
	})
	ds, err = Open(logs.NewTestingLog(t), makeSequence(t), testBoxes(), Options{Transform: dropFirst})
	require.NoError(t, err)
	s, err = ds.Get(0)
	require.NoError(t, err)
	require.Equal(t, 1, s.Target.NumObjects())
}

func toFloat(v []uint16) []float64 {
	f := make([]float64, len(v))
	for i := range v {
		f[i] = float64(v[i])
	}
	return f
}

func TestDatasetThreshold(t *testing.T) {
	foreground := func(threshold *float64) []bool {
		ds, err := Open(logs.NewTestingLog(t), makeSequence(t), testBoxes(), Options{Threshold: threshold})
		require.NoError(t, err)
		s, err := ds.Get(0)
		require.NoError(t, err)
		fg := []bool{}
		for y := 0; y < epfltest.Height; y++ {
			for x := 0; x < epfltest.Width; x++ {
				fg = append(fg, s.Image.Pixels[y*s.Image.Stride+x*3] != 0)
			}
		}
		return fg
	}
	zero := 0.0
	high := 0.6
	// Normalized differences of frame 34 are 0.505 at (1,0), 1 at (2,1), 0.04 at (3,0), and 0 elsewhere
	require.Equal(t, []bool{false, true, false, false, false, false, true, false}, foreground(nil))
	require.Equal(t, []bool{false, true, false, true, false, false, true, false}, foreground(&zero))
	require.Equal(t, []bool{false, false, false, false, false, false, true, false}, foreground(&high))
}
