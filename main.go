package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/creditops/warranty-credit-processor/internal/api"
	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/csvsource"
	"github.com/creditops/warranty-credit-processor/internal/extractor"
	"github.com/creditops/warranty-credit-processor/internal/jobs"
	"github.com/creditops/warranty-credit-processor/internal/ledger"
	"github.com/creditops/warranty-credit-processor/internal/models"
	"github.com/creditops/warranty-credit-processor/internal/pipeline"
	"github.com/creditops/warranty-credit-processor/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	configFlag := flag.String("config", "", "Path to YAML config file (defaults applied if omitted or missing)")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of processing files")
	watchFlag := flag.Bool("watch", false, "Run the scheduled inbox watcher")
	dryRunFlag := flag.Bool("dry-run", false, "Use an in-memory ledger; nothing is posted")
	outputFlag := flag.String("output", "", "Report CSV path (defaults to input filename with -report.csv suffix)")
	headerFlag := flag.Bool("header", true, "Include document metadata header rows in the report")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Warranty Credit Processor

Extracts line items from vendor warranty-credit invoices, classifies
NARDA code groups, reconciles credits against authorization records,
and posts journal-entry and vendor-credit transaction intents.

Usage:
  warranty-credit-processor [flags] <invoice.pdf|returns.csv|returns.xlsx> [more files ...]
  warranty-credit-processor --serve
  warranty-credit-processor --watch

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Process one invoice against the configured ledger database
  warranty-credit-processor invoice-march.pdf

  # Trial run without posting anything
  warranty-credit-processor --dry-run invoice-march.pdf

  # Process a vendor return export
  warranty-credit-processor returns-feb.csv

  # Run the HTTP API
  warranty-credit-processor --serve

  # Sweep the inbox directory on the configured schedule
  warranty-credit-processor --watch
`)
	}

	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	flag.Parse()

	if *versionFlag {
		fmt.Printf("warranty-credit-processor v%s\n", version)
		os.Exit(0)
	}
	if *helpFlag || (!*serveFlag && !*watchFlag && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatalf("Config error: %v\n", err)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auth, sink, cleanup, err := buildLedger(ctx, cfg, *dryRunFlag)
	if err != nil {
		fatalf("Ledger error: %v\n", err)
	}
	defer cleanup()

	p, err := pipeline.New(cfg, auth, sink)
	if err != nil {
		fatalf("Pipeline error: %v\n", err)
	}

	switch {
	case *serveFlag:
		runServer(ctx, cfg, p)
	case *watchFlag:
		runWatcher(ctx, cfg, p)
	default:
		batchID := uuid.NewString()
		for _, inputPath := range flag.Args() {
			if err := processFile(ctx, p, batchID, inputPath, *outputFlag, *headerFlag); err != nil {
				fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
				os.Exit(1)
			}
		}
	}
}

// buildLedger picks the ledger backend: postgres when a database URL is
// configured, memory for dry runs. The cleanup func closes the pool.
func buildLedger(ctx context.Context, cfg *config.Config, dryRun bool) (ledger.AuthorizationSource, ledger.TransactionSink, func(), error) {
	if dryRun || cfg.Database.URL == "" {
		if !dryRun {
			fmt.Fprintln(os.Stderr, "Warning: no database configured, running with in-memory ledger")
		}
		m := ledger.NewMemoryLedger()
		return m, m, func() {}, nil
	}

	pg, err := ledger.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	return pg, pg, pg.Close, nil
}

func runServer(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 << 20,
	})
	(&api.Handler{Pipeline: p}).RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		app.Shutdown()
	}()

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		fatalf("Server error: %v\n", err)
	}
}

func runWatcher(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) {
	w := jobs.NewWatcher(p, cfg.Scheduler)
	if err := w.Start(ctx); err != nil {
		fatalf("Watcher error: %v\n", err)
	}
	log.Printf("watching %s on schedule %q", cfg.Scheduler.InboxDir, cfg.Scheduler.Cron)
	<-ctx.Done()
	w.Stop()
}

func processFile(ctx context.Context, p *pipeline.Pipeline, batchID, inputPath, outputPath string, includeHeader bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	name := filepath.Base(inputPath)
	ext := strings.ToLower(filepath.Ext(inputPath))

	fmt.Printf("Processing: %s (batch %s)\n", inputPath, batchID)

	var result *models.DocumentResult
	switch ext {
	case ".pdf":
		tokens, err := extractor.ExtractTokens(inputPath)
		if err != nil {
			return fmt.Errorf("PDF extraction failed: %w", err)
		}
		fmt.Printf("  Extracted %d positioned token(s)\n", len(tokens))
		result = p.ProcessTokens(ctx, name, tokens)
	case ".csv", ".xlsx":
		rows, err := csvsource.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("return file parse failed: %w", err)
		}
		fmt.Printf("  Read %d credit row(s)\n", len(rows))
		result = p.ProcessCreditRows(ctx, strings.TrimSuffix(name, ext), rows)
	case ".json":
		tokens, err := extractor.ReadTokenDumpFile(inputPath)
		if err != nil {
			return fmt.Errorf("token dump parse failed: %w", err)
		}
		result = p.ProcessTokens(ctx, name, tokens)
	default:
		return fmt.Errorf("expected .pdf, .csv, .xlsx, or .json file, got %q", ext)
	}

	fmt.Printf("  Invoice: %s\n", result.Fields.InvoiceNumber)
	fmt.Printf("  Line items: %d\n", len(result.Items))
	fmt.Printf("  Intents posted: %d\n", len(result.Intents))
	for _, in := range result.Intents {
		fmt.Printf("    %s %s (%s)\n", in.Kind, in.TranID, in.Memo)
	}
	if len(result.Skips) > 0 {
		fmt.Printf("  Skips: %d\n", len(result.Skips))
		for _, s := range result.Skips {
			fmt.Printf("    [%s] %s\n", s.Category, s.Reason)
		}
	}

	outPath := outputPath
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "-report.csv"
	}

	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := w.WriteToFile(outPath, result); err != nil {
		return fmt.Errorf("report write failed: %w", err)
	}

	fmt.Printf("  Report: %s\n", outPath)
	fmt.Println("  Done.")
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
