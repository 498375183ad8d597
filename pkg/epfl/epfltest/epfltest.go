// Package epfltest writes small synthetic EPFL sequences for unit tests.
package epfltest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/trainset/pkg/storage"
	"github.com/stretchr/testify/require"
)

const (
	Width  = 4
	Height = 2

	// Colour of every RGB frame
	Grey = 200
)

// Boxes of frame 34, in the JSON form that epfl.LoadBoxIndex reads
const BoxesJSON = `{"34": [[1, 0, 2, 2], [0, 0, 1, 1]]}`

func WriteDepth(t *testing.T, store storage.Storage, frame int, depth []uint16) {
	img := image.NewGray16(image.Rect(0, 0, Width, Height))
	for i, d := range depth {
		img.SetGray16(i%Width, i/Width, color.Gray16{Y: d})
	}
	buf := bytes.Buffer{}
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, storage.WriteFile(store, fmt.Sprintf("depth%06d.png", frame), &buf))
}

func WriteRGB(t *testing.T, store storage.Storage, frame int) {
	img := cimg.NewImage(Width, Height, cimg.PixelFormatRGB)
	imgutil.Fill(img, Grey)
	buf := bytes.Buffer{}
	require.NoError(t, imgutil.EncodePNG(&buf, img))
	require.NoError(t, storage.WriteFile(store, fmt.Sprintf("rgb%06d.png", frame), &buf))
}

// Flat returns a depth image with every pixel set to v
func Flat(v uint16) []uint16 {
	d := make([]uint16, Width*Height)
	for i := range d {
		d[i] = v
	}
	return d
}

// MakeSequence writes background frames 1-3 (mean depth 1000), plus frames 34 and 35.
// Frame 34 has foreground at (1,0) and (2,1). Frame 35 is identical to the background.
func MakeSequence(t *testing.T) storage.Storage {
	store, err := storage.NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	WriteDepth(t, store, 1, Flat(990))
	WriteDepth(t, store, 2, Flat(1000))
	WriteDepth(t, store, 3, Flat(1010))

	d := Flat(1000)
	d[1] = 1500       // (1,0)
	d[1*Width+2] = 10 // (2,1)
	d[3] = 1040       // (3,0) normalizes to 0.04, so stays background
	WriteDepth(t, store, 34, d)
	WriteRGB(t, store, 34)

	WriteDepth(t, store, 35, Flat(1000))
	WriteRGB(t, store, 35)
	return store
}
