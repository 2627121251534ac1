// Package jobs runs the pipeline on a schedule over an inbox directory.
// Each tick scans for new documents, processes them, writes a CSV report
// per document, and moves the source into the archive so a file is never
// processed twice.
package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/creditops/warranty-credit-processor/internal/config"
	"github.com/creditops/warranty-credit-processor/internal/csvsource"
	"github.com/creditops/warranty-credit-processor/internal/extractor"
	"github.com/creditops/warranty-credit-processor/internal/models"
	"github.com/creditops/warranty-credit-processor/internal/pipeline"
	"github.com/creditops/warranty-credit-processor/internal/writer"
)

// Watcher owns the cron schedule and the directories it sweeps.
type Watcher struct {
	pipeline *pipeline.Pipeline
	cfg      config.Scheduler
	cron     *cron.Cron
}

// NewWatcher builds a watcher; Start arms the schedule.
func NewWatcher(p *pipeline.Pipeline, cfg config.Scheduler) *Watcher {
	return &Watcher{pipeline: p, cfg: cfg, cron: cron.New()}
}

// Start registers the sweep on the configured cron expression and runs
// one sweep immediately so a restart picks up backlog without waiting.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.cfg.Cron, func() { w.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", w.cfg.Cron, err)
	}
	w.cron.Start()
	w.Sweep(ctx)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *Watcher) Stop() {
	<-w.cron.Stop().Done()
}

// Sweep processes every supported file currently in the inbox. One bad
// file is logged and left in place; it never stops the batch.
func (w *Watcher) Sweep(ctx context.Context) {
	batchID := uuid.NewString()

	entries, err := os.ReadDir(w.cfg.InboxDir)
	if err != nil {
		log.Printf("batch %s: read inbox %s: %v", batchID, w.cfg.InboxDir, err)
		return
	}

	processed := 0
	for _, entry := range entries {
		if entry.IsDir() || !supportedFile(entry.Name()) {
			continue
		}
		path := filepath.Join(w.cfg.InboxDir, entry.Name())
		if err := w.processOne(ctx, batchID, path); err != nil {
			log.Printf("batch %s: %s: %v", batchID, entry.Name(), err)
			continue
		}
		processed++
	}
	if processed > 0 {
		log.Printf("batch %s: processed %d file(s)", batchID, processed)
	}
}

func supportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".csv", ".xlsx":
		return true
	}
	return false
}

func (w *Watcher) processOne(ctx context.Context, batchID, path string) error {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))

	var result *models.DocumentResult
	switch ext {
	case ".pdf":
		tokens, err := extractor.ExtractTokens(path)
		if err != nil {
			return err
		}
		result = w.pipeline.ProcessTokens(ctx, name, tokens)
	default:
		rows, err := csvsource.ReadFile(path)
		if err != nil {
			return err
		}
		result = w.pipeline.ProcessCreditRows(ctx, strings.TrimSuffix(name, ext), rows)
	}

	log.Printf("batch %s: %s: %d intent(s), %d skip(s)", batchID, name, len(result.Intents), len(result.Skips))

	if w.cfg.ReportDir != "" {
		reportPath := filepath.Join(w.cfg.ReportDir, strings.TrimSuffix(name, ext)+"-report.csv")
		rw := &writer.CSVWriter{IncludeHeader: true}
		if err := rw.WriteToFile(reportPath, result); err != nil {
			return err
		}
	}

	if w.cfg.ArchiveDir != "" {
		if err := os.Rename(path, filepath.Join(w.cfg.ArchiveDir, name)); err != nil {
			return fmt.Errorf("archive %s: %w", name, err)
		}
	}
	return nil
}
