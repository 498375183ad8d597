package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trainset/pkg/annot"
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

	parser := argparse.NewParser("annotimport", "Import CSV annotations into the annotation store")
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path (uses its 'annotations' database)"})
	dbFile := parser.String("d", "db", &argparse.Options{Help: "SQLite database file, instead of a config file"})
	csvFiles := parser.StringList("i", "input", &argparse.Options{Help: "CSV file(s) to import"})
	wipe := parser.Flag("", "wipe", &argparse.Options{Help: "Erase the database before importing", Default: false})
	list := parser.Flag("l", "list", &argparse.Options{Help: "List import batches", Default: false})
	err = parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	var dbc dbh.DBConfig
	if *dbFile != "" {
		dbc = dbh.MakeSqliteConfig(*dbFile)
	} else if *configFilePath != "" {
		cfg, err := server.LoadConfig(*configFilePath)
		check(err)
		if cfg.Annotations == nil {
			logger.Errorf("No 'annotations' section in %v", *configFilePath)
			os.Exit(1)
		}
		dbc = *cfg.Annotations
	} else {
		fmt.Print(parser.Usage("Must specify either --db or --config"))
		os.Exit(1)
	}

	flags := dbh.DBConnectFlags(0)
	if *wipe {
		flags |= dbh.DBConnectFlagWipeDB
	}
	store, err := annot.Open(logger, dbc, flags)
	check(err)
	defer store.Close()

	for _, fn := range *csvFiles {
		f, err := os.Open(fn)
		check(err)
		_, err = store.ImportCSV(fn, f)
		f.Close()
		check(err)
	}

	if *list {
		batches, err := store.Batches()
		check(err)
		for _, b := range batches {
			fmt.Printf("%4v %v %6v %v\n", b.ID, b.ImportedAt.Get().Format("2006-01-02 15:04:05"), b.Count, b.Source)
		}
	}
}
