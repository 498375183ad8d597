// Package server is an HTTP API for browsing the datasets, one sample at a time.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/annot"
	"github.com/cyclopcam/trainset/pkg/epfl"
	"github.com/cyclopcam/trainset/pkg/perfstats"
	"github.com/cyclopcam/trainset/pkg/voc"
	"github.com/julienschmidt/httprouter"
)

type Server struct {
	Log logs.Log

	signalIn   chan os.Signal
	httpServer *http.Server
	httpRouter *httprouter.Router
	epfl       *epfl.Dataset // nil if not configured
	voc        *voc.Dataset  // nil if not configured
	vocLock    sync.Mutex    // voc.Dataset's random steps share one source
	annots     *annot.Store
	timings    *perfstats.Timings
}

// NewServer opens everything named in the config file
func NewServer(log logs.Log, configFile string) (*Server, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	store, err := OpenStorage(log, cfg.Storage)
	if err != nil {
		return nil, err
	}
	var epflDS *epfl.Dataset
	if cfg.EPFL != nil {
		if epflDS, err = OpenEPFL(log, store, cfg.EPFL); err != nil {
			return nil, err
		}
	}
	var vocDS *voc.Dataset
	var annots *annot.Store
	if cfg.Annotations != nil {
		if vocDS, annots, err = OpenVOC(log, store, cfg); err != nil {
			return nil, err
		}
	}
	s := New(log, epflDS, vocDS)
	s.annots = annots
	return s, nil
}

// New creates a server over already-open datasets. Either may be nil.
func New(log logs.Log, epflDS *epfl.Dataset, vocDS *voc.Dataset) *Server {
	s := &Server{
		Log:     log,
		epfl:    epflDS,
		voc:     vocDS,
		timings: perfstats.NewTimings(),
	}
	s.setupHttpRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// port example: ":8081"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. Shutting down", sig.String())
			s.Shutdown()
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	if s.signalIn != nil {
		signal.Stop(s.signalIn)
		close(s.signalIn)
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Log.Warnf("HTTP shutdown error: %v", err)
		}
	}
	if s.annots != nil {
		s.annots.Close()
	}
	s.Log.Infof("Shutdown complete")
	s.Log.Close()
}
