package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/epfl"
	"github.com/cyclopcam/trainset/pkg/epfl/epfltest"
	"github.com/cyclopcam/trainset/pkg/hyper"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/trainset/pkg/nn"
	"github.com/cyclopcam/trainset/pkg/perfstats"
	"github.com/cyclopcam/trainset/pkg/voc"
	"github.com/stretchr/testify/require"
)

type greyImages struct{}

func (greyImages) Load(image string) (*cimg.Image, error) {
	img := cimg.NewImage(32, 16, cimg.PixelFormatRGB)
	imgutil.Fill(img, 60)
	return img, nil
}

func testServer(t *testing.T) *Server {
	log := logs.NewTestingLog(t)
	boxes, err := epfl.LoadBoxIndex(strings.NewReader(epfltest.BoxesJSON))
	require.NoError(t, err)
	epflDS, err := epfl.Open(log, epfltest.MakeSequence(t), boxes, epfl.Options{})
	require.NoError(t, err)

	set := annot.NewSet([]annot.Annotation{
		{Image: "a.png", ClassLabel: "person", X: 0, Y: 0, Width: 32, Height: 16},
	})
	params := hyper.Default()
	params.InputDimension = nn.InputDimension{Width: 32, Height: 32}
	params.ClassLabelMap = []string{"person"}
	vocDS := voc.NewDataset(log, set, params, false, greyImages{})
	return New(log, epflDS, vocDS)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestEPFLRoutes(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/api/epfl/count")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count": 916}`, rec.Body.String())

	rec = get(t, s, "/api/epfl/frames")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"frame": 34, "index": 0, "objects": 2}]`, rec.Body.String())

	rec = get(t, s, "/api/epfl/sample/0/target")
	require.Equal(t, http.StatusOK, rec.Code)
	target := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &target))
	for _, k := range epfl.TargetKeys {
		require.Contains(t, target, k)
	}
	require.JSONEq(t, `[34]`, string(target["image_id"]))

	rec = get(t, s, "/api/epfl/sample/1/image?boxes=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	img, err := cimg.Decompress(rec.Body.Bytes())
	require.NoError(t, err)
	require.Equal(t, epfltest.Width, img.Width)

	require.Equal(t, http.StatusNotFound, get(t, s, "/api/epfl/sample/5/target").Code)
	require.Equal(t, http.StatusNotFound, get(t, s, "/api/epfl/sample/916/target").Code)
	require.Equal(t, http.StatusBadRequest, get(t, s, "/api/epfl/sample/x/target").Code)
}

func TestVOCRoutes(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/api/voc/count")
	require.JSONEq(t, `{"count": 1}`, rec.Body.String())
	rec = get(t, s, "/api/voc/classes")
	require.JSONEq(t, `["person"]`, rec.Body.String())

	rec = get(t, s, "/api/voc/sample/0/annotations")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := struct {
		Image       string             `json:"image"`
		Annotations []annot.Annotation `json:"annotations"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "a.png", resp.Image)
	require.EqualValues(t, 8, resp.Annotations[0].Y)

	rec = get(t, s, "/api/voc/sample/0/image?boxes=1")
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := cimg.Decompress(rec.Body.Bytes())
	require.NoError(t, err)
	require.Equal(t, 32, img.Height)

	require.Equal(t, http.StatusNotFound, get(t, s, "/api/voc/sample/1/image").Code)

	stats := []perfstats.Summary{}
	require.NoError(t, json.Unmarshal(get(t, s, "/api/stats").Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	require.Equal(t, "voc", stats[0].Name)
	require.EqualValues(t, 2, stats[0].Samples)
}

func TestUnconfiguredDatasets(t *testing.T) {
	s := New(logs.NewTestingLog(t), nil, nil)
	require.Equal(t, http.StatusOK, get(t, s, "/api/ping").Code)
	require.Equal(t, http.StatusNotFound, get(t, s, "/api/epfl/count").Code)
	require.Equal(t, http.StatusNotFound, get(t, s, "/api/voc/count").Code)
}

func TestNewServerFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := `{
		"storage": {"filesystem": {"root": "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"}},
		"annotations": {"Driver": "sqlite3", "Database": "` + filepath.ToSlash(filepath.Join(dir, "annot.sqlite")) + `"}
	}`
	cfgFile := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0644))

	s, err := NewServer(logs.NewTestingLog(t), cfgFile)
	require.NoError(t, err)
	require.JSONEq(t, `{"count": 0}`, get(t, s, "/api/voc/count").Body.String())
	require.Equal(t, http.StatusNotFound, get(t, s, "/api/epfl/count").Code)
	s.annots.Close()

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	_, err = OpenStorage(logs.NewTestingLog(t), StorageConfig{})
	require.Error(t, err)
}
