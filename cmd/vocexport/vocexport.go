package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/export"
	"github.com/cyclopcam/trainset/server"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	logger, err := logs.NewLog()
	check(err)

	parser := argparse.NewParser("vocexport", "Export letterboxed (and optionally augmented) annotated images")
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "trainset.json"})
	output := parser.String("o", "output", &argparse.Options{Help: "Output zip file", Required: true})
	limit := parser.Int("n", "limit", &argparse.Options{Help: "Maximum number of images (0 = all)", Default: 0})
	augment := parser.Flag("a", "augment", &argparse.Options{Help: "Apply random HSV, jitter and flip", Default: false})
	quality := parser.Int("q", "quality", &argparse.Options{Help: "JPEG quality", Default: 95})
	err = parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configFilePath)
	check(err)
	if *augment {
		cfg.VOC.Augment = true
	}
	store, err := server.OpenStorage(logger, cfg.Storage)
	check(err)
	ds, annots, err := server.OpenVOC(logger, store, cfg)
	check(err)
	defer annots.Close()

	f, err := os.Create(*output)
	check(err)
	_, err = export.Write(logger, f, export.VOCSource(ds), export.Options{Limit: *limit, Quality: *quality})
	check(err)
	check(f.Close())
}
