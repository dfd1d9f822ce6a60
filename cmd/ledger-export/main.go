package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
	"github.com/joseph-ayodele/invoice-watch/internal/export"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		ledgerPath = flag.String("ledger", "", "CSV ledger to export (defaults to output_csv from config)")
		out        = flag.String("out", "", "output XLSX file path (defaults to the ledger path with .xlsx)")
		configPath = flag.String("config", "config.json", "config file used to find the ledger")
		logLevel   = flag.String("log-level", "WARN", "log level")
	)
	flag.Parse()

	logger := common.NewLogger(os.Stderr, common.LogConfig{Level: *logLevel, Format: "text"})

	if *ledgerPath == "" {
		*ledgerPath = common.LoadConfig(*configPath, logger).Ledger.OutputCSV
	}
	if *out == "" {
		*out = strings.TrimSuffix(*ledgerPath, filepath.Ext(*ledgerPath)) + ".xlsx"
	}

	n, err := export.NewService(logger).WriteFile(context.Background(), *ledgerPath, *out)
	if err != nil {
		printError("%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
	fmt.Printf("%s %s (%d bytes)\n", color.GreenString("Exported"), *out, n)
}
