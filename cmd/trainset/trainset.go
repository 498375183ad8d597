package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/server"
)

func main() {
	parser := argparse.NewParser("trainset", "Browse training datasets over HTTP")
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "trainset.json"})
	port := parser.String("p", "port", &argparse.Options{Help: "Listen address", Default: ":8082"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		panic(err)
	}
	s, err := server.NewServer(logger, *configFilePath)
	if err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}
	s.ListenForKillSignals()
	if err := s.ListenHTTP(*port); err != nil {
		fmt.Printf("%v\n", err)
	}
}
