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

	parser := argparse.NewParser("bgmask", "Export the EPFL sequence with background pixels removed")
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "trainset.json"})
	output := parser.String("o", "output", &argparse.Options{Help: "Output zip file", Required: true})
	limit := parser.Int("n", "limit", &argparse.Options{Help: "Maximum number of samples (0 = all)", Default: 0})
	threshold := parser.Float("t", "threshold", &argparse.Options{Help: "Override the foreground threshold (negative = config)", Default: -1.0})
	skipMissing := parser.Flag("", "skip-missing", &argparse.Options{Help: "Skip frames whose files don't exist", Default: false})
	err = parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configFilePath)
	check(err)
	if cfg.EPFL == nil {
		logger.Errorf("No 'epfl' section in %v", *configFilePath)
		os.Exit(1)
	}
	if *threshold >= 0 {
		cfg.EPFL.Threshold = threshold
	}
	store, err := server.OpenStorage(logger, cfg.Storage)
	check(err)
	ds, err := server.OpenEPFL(logger, store, cfg.EPFL)
	check(err)

	f, err := os.Create(*output)
	check(err)
	_, err = export.Write(logger, f, export.EPFLSource(ds), export.Options{Limit: *limit, SkipMissing: *skipMissing})
	check(err)
	check(f.Close())
	logger.Close()
}
