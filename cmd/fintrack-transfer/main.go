// Command fintrack-transfer exports the ledger held by the configured backend
// or imports a JSON export into it.
//
//	fintrack-transfer export [-format json|csv] [-out FILE]
//	fintrack-transfer import -in FILE
//
// A FILE of "-" means stdout or stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/app"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/transfer"
)

const usage = `usage:
  fintrack-transfer export [-format json|csv] [-out FILE]
  fintrack-transfer import -in FILE`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentTransfer)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(ctx, logger, cfg, os.Args[2:])
	case "import":
		err = runImport(ctx, logger, cfg, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Transfer failed", log.FieldOperation, os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

func runExport(ctx context.Context, logger *log.Logger, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	formatName := fs.String("format", string(transfer.FormatJSON), "export format: json or csv")
	out := fs.String("out", "", "output file, - for stdout (default finance-data-YYYY-MM-DD.<ext>)")
	_ = fs.Parse(args)

	format, err := transfer.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = transfer.FileName(format, time.Now())
	}

	store := cli.InitBackend(ctx, logger, cfg)
	defer store.Close()
	a, _ := cli.LoadState(ctx, logger, store.Store)

	w, closeFn, err := openOutput(*out)
	if err != nil {
		return err
	}
	if err := transfer.Export(w, format, a.Snapshot()); err != nil {
		closeFn()
		return fmt.Errorf("export %s: %w", format, err)
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}

	logger.Info("Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(a.State().Transactions),
		"format", format,
		"out", *out)
	return nil
}

func runImport(ctx context.Context, logger *log.Logger, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "JSON export to import, - for stdin")
	_ = fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("import: -in is required")
	}

	r, err := openInput(*in)
	if err != nil {
		return err
	}
	snap, err := transfer.Import(r)
	r.Close()
	if err != nil {
		return err
	}

	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Importing into the memory backend, the data will not outlive this process")
	}

	store := cli.InitBackend(ctx, logger, cfg)
	defer store.Close()

	// The persister hook writes the imported keys; the publisher, when
	// configured, tells consumers about it.
	var opts []app.Option
	if publisher := cli.InitPublisher(ctx, logger, cfg); publisher != nil {
		defer publisher.Close()
		opts = append(opts, app.WithHooks(publisher.Hook))
	}
	a, _ := cli.LoadState(ctx, logger, store.Store, opts...)

	if err := a.Import(ctx, snap); err != nil {
		return fmt.Errorf("apply import: %w", err)
	}

	state := a.State()
	logger.Info("Ledger imported",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(state.Transactions),
		"budgets", len(state.Budgets),
		"in", *in)
	return nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
