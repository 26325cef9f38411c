package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"expenditure/internal/cli"
	"expenditure/internal/config"
	"expenditure/internal/log"
)

const usage = `usage: expenditure <command> [flags]

commands:
  add          record a purchase
  preview      show the derived prices without saving
  list         print the log
  edit         change a record selected by -id or -label
  delete-last  remove the most recent record
  clear        delete every record (requires -yes)
  summary      totals per date and shop
  suggest      known shop and item names
  export-yaml  write the log and its summary as YAML
  mirror       rewrite the Google Sheet from the log
  watch        print change events from the AMQP queue (-mirror keeps the sheet in step)
`

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)

	os.Exit(run(os.Args[1:], cfg, logger, os.Stdout, os.Stderr))
}

func run(args []string, cfg *config.Config, logger *log.Logger, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration",
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err)
		return 1
	}

	if err := cmd(context.Background(), &env{cfg: cfg, logger: logger, out: stdout, errOut: stderr}, args[1:]); err != nil {
		fmt.Fprintf(stderr, "expenditure %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
