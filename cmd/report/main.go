// Package main prints a stocktaking balance report.
//
// Usage:
//
//	report [-start <collection id> -end <collection id>] [-format json|xlsx] [-out file]
//
// Without -start and -end the two latest stocktakings are reconciled.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"shopledger/internal/bootstrap"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/accounting"
	"shopledger/internal/domain/ledger"
	"shopledger/internal/infrastructure/export"
	"shopledger/internal/infrastructure/http/v1/dto"
	"shopledger/pkg/logger"
)

var errNoReport = errors.New("not enough stocktakings to reconcile")

func main() {
	var (
		startFlag = flag.String("start", "", "start stocktaking collection id")
		endFlag   = flag.String("end", "", "end stocktaking collection id")
		format    = flag.String("format", "json", "output format: json or xlsx")
		out       = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       bootstrap.GetEnv("LOG_LEVEL", "warn"),
		Development: cfg.Development(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	if err := run(ctx, cfg, log, *startFlag, *endFlag, *format, *out); err != nil {
		log.Errorw("report failed", "error", err)
		if errors.Is(err, errNoReport) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg bootstrap.Config, log *logger.Logger, start, end, format, out string) error {
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unknown format %q", format)
	}
	if (start == "") != (end == "") {
		return errors.New("-start and -end must be given together")
	}

	app, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	var report *accounting.BalanceReport
	if start == "" {
		report, err = app.Service.LatestBalance(ctx)
	} else {
		report, err = balanceBetween(ctx, app.Service, start, end)
	}
	if err != nil {
		return err
	}
	if report == nil {
		return errNoReport
	}

	var products []ledger.Product
	if format == "xlsx" {
		if products, err = app.Service.CountableProducts(ctx); err != nil {
			return err
		}
	}

	return writeOutput(out, func(w io.Writer) error {
		return writeReport(w, format, report, products)
	})
}

// writeOutput runs write against out, or stdout when out is empty. A failed
// close of out is reported like a failed write.
func writeOutput(out string, write func(w io.Writer) error) (err error) {
	if out == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return write(f)
}

func writeReport(w io.Writer, format string, report *accounting.BalanceReport, products []ledger.Product) error {
	if format == "xlsx" {
		return export.WriteBalanceXLSX(w, report, products)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.FromBalanceReport(report))
}

func balanceBetween(ctx context.Context, svc *accounting.Service, start, end string) (*accounting.BalanceReport, error) {
	startID, err := id.Parse(start)
	if err != nil {
		return nil, fmt.Errorf("-start: %w", err)
	}
	endID, err := id.Parse(end)
	if err != nil {
		return nil, fmt.Errorf("-end: %w", err)
	}
	return svc.BalanceBetweenIDs(ctx, startID, endID)
}
