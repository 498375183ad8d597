package server

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/draw"
	"github.com/cyclopcam/trainset/pkg/epfl"
	"github.com/cyclopcam/trainset/pkg/imgutil"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

const previewQuality = 90

func (s *Server) setupHttpRoutes() {
	router := httprouter.New()

	handle := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	handle("GET", "/api/ping", s.httpPing)
	handle("GET", "/api/stats", s.httpStats)

	handle("GET", "/api/epfl/count", s.httpEPFLCount)
	handle("GET", "/api/epfl/frames", s.httpEPFLFrames)
	handle("GET", "/api/epfl/sample/:idx/image", s.httpEPFLImage)
	handle("GET", "/api/epfl/sample/:idx/target", s.httpEPFLTarget)

	handle("GET", "/api/voc/count", s.httpVOCCount)
	handle("GET", "/api/voc/classes", s.httpVOCClasses)
	handle("GET", "/api/voc/sample/:idx/image", s.httpVOCImage)
	handle("GET", "/api/voc/sample/:idx/annotations", s.httpVOCAnnotations)

	s.httpRouter = router
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type pingJSON struct {
		Time int64 `json:"time"`
	}
	www.SendJSON(w, &pingJSON{Time: time.Now().Unix()})
}

func (s *Server) httpStats(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.timings.Summaries())
}

type countJSON struct {
	Count int `json:"count"`
}

func parseIndex(params httprouter.Params) int {
	idx, err := strconv.Atoi(params.ByName("idx"))
	if err != nil || idx < 0 {
		www.PanicBadRequestf("Invalid sample index '%v'", params.ByName("idx"))
	}
	return idx
}

// Map a dataset error to an HTTP error
func checkSample(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, epfl.ErrIndexOutOfRange) {
		www.PanicNotFound()
	}
	www.Check(err)
}

func sendJPEG(w http.ResponseWriter, img *cimg.Image) {
	jpg, err := imgutil.EncodeJPEG(img, previewQuality)
	www.Check(err)
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(jpg)))
	w.Write(jpg)
}

func (s *Server) needEPFL() *epfl.Dataset {
	if s.epfl == nil {
		www.PanicNotFound()
	}
	return s.epfl
}

func (s *Server) epflSample(params httprouter.Params) *epfl.Sample {
	ds := s.needEPFL()
	idx := parseIndex(params)
	if idx >= ds.Len() {
		www.PanicNotFound()
	}
	start := time.Now()
	sample, err := ds.Get(idx)
	checkSample(err)
	s.timings.Since("epfl", start)
	return sample
}

func (s *Server) httpEPFLCount(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, &countJSON{Count: s.needEPFL().Len()})
}

// Frames that have an entry in the box index
func (s *Server) httpEPFLFrames(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type frameJSON struct {
		Frame   int `json:"frame"`
		Index   int `json:"index"` // Sample index, for /api/epfl/sample/:idx
		Objects int `json:"objects"`
	}
	boxes := s.needEPFL().Boxes()
	frames := []frameJSON{}
	for _, f := range boxes.Frames() {
		frames = append(frames, frameJSON{Frame: f, Index: f - epfl.FrameOffset, Objects: len(boxes.Lookup(f))})
	}
	www.SendJSON(w, frames)
}

func (s *Server) httpEPFLImage(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	sample := s.epflSample(params)
	img := sample.Image
	if www.QueryValue(r, "boxes") == "1" {
		img = draw.Boxes(img, draw.FromCorners(sample.Target.Boxes, "person"))
	}
	sendJPEG(w, img)
}

func (s *Server) httpEPFLTarget(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.epflSample(params).Target)
}

func (s *Server) httpVOCCount(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.voc == nil {
		www.PanicNotFound()
	}
	www.SendJSON(w, &countJSON{Count: s.voc.Len()})
}

func (s *Server) httpVOCClasses(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.voc == nil {
		www.PanicNotFound()
	}
	www.SendJSON(w, s.voc.Classes())
}

func (s *Server) vocSample(idx int) (*cimg.Image, []annot.Annotation) {
	s.vocLock.Lock()
	defer s.vocLock.Unlock()
	start := time.Now()
	img, annos, err := s.voc.GetImage(idx)
	checkSample(err)
	s.timings.Since("voc", start)
	return img, annos
}

func (s *Server) httpVOCImage(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.voc == nil {
		www.PanicNotFound()
	}
	idx := parseIndex(params)
	if idx >= s.voc.Len() {
		www.PanicNotFound()
	}
	img, annos := s.vocSample(idx)
	if www.QueryValue(r, "boxes") == "1" {
		img = draw.Boxes(img, draw.FromAnnotations(annos))
	}
	sendJPEG(w, img)
}

func (s *Server) httpVOCAnnotations(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.voc == nil {
		www.PanicNotFound()
	}
	idx := parseIndex(params)
	if idx >= s.voc.Len() {
		www.PanicNotFound()
	}
	_, annos := s.vocSample(idx)
	type response struct {
		Image       string             `json:"image"`
		Annotations []annot.Annotation `json:"annotations"`
	}
	name, _ := s.voc.ImageName(idx)
	www.SendJSON(w, &response{Image: name, Annotations: annos})
}
