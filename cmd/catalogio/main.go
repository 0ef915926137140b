// Command catalogio exports the catalog to, or imports it from, a CSV or
// XLSX file.
//
//	catalogio export --file produtos_exportados.csv
//	catalogio import --file produtos_exportados.xlsx
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/suportesmart/storefront/app/catalogio"
	"github.com/suportesmart/storefront/config"
	"github.com/suportesmart/storefront/models"
)

const defaultFile = "produtos_exportados.csv"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	flags := pflag.NewFlagSet(command, pflag.ExitOnError)
	file := flags.StringP("file", "f", defaultFile, "path of the .csv or .xlsx file")
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	logger := config.NewLogger("info")
	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger = config.NewLogger(cfg.LogLevel)

	db, err := models.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	service := catalogio.NewService(models.NewProductsRepository(db), logger)

	switch command {
	case "export":
		n, err := service.Export(*file)
		if err != nil {
			logger.WithError(err).Fatal("Export failed")
		}
		fmt.Printf("%d products exported to %s\n", n, *file)
	case "import":
		summary, err := service.Import(*file)
		if errors.Is(err, catalogio.ErrInputNotFound) {
			logger.WithField("file", *file).Error("Import file not found")
			os.Exit(1)
		}
		if err != nil {
			logger.WithError(err).Fatal("Import failed, no changes were saved")
		}
		fmt.Println("--- Import summary ---")
		fmt.Printf("Products created: %d\n", summary.Created)
		fmt.Printf("Products updated: %d\n", summary.Updated)
		fmt.Printf("Rows skipped:     %d\n", summary.Skipped)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: catalogio <export|import> [--file path]")
}
