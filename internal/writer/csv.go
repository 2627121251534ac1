// Package writer renders processing results as CSV summary reports, one
// row per transaction intent or skip.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// CSVWriter writes document results to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes a result report to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, result *models.DocumentResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, result)
}

// Write writes the result report in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, result *models.DocumentResult) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeHeader {
		writer.Write([]string{"# Document", result.DocumentID})
		if result.Fields.InvoiceNumber != "" {
			writer.Write([]string{"# Invoice Number", result.Fields.InvoiceNumber})
		}
		if result.Fields.InvoiceDate != "" {
			writer.Write([]string{"# Invoice Date", result.Fields.InvoiceDate})
		}
	}

	header := []string{"Record", "Id", "Kind", "Bill Number", "Amount", "Detail"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, in := range result.Intents {
		row := []string{
			"intent",
			in.TranID,
			string(in.Kind),
			billNumberOf(in),
			intentAmount(in).StringFixed(2),
			in.Memo,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write intent row: %w", err)
		}
	}

	for _, s := range result.Skips {
		row := []string{"skip", s.Code, s.Category, s.BillNumber, "", s.Reason}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write skip row: %w", err)
		}
	}

	return nil
}

// intentAmount is the posting total: the aggregate debit for journal
// entries, the sum of matched authorization amounts for vendor credits.
func intentAmount(in models.TransactionIntent) decimal.Decimal {
	if len(in.Lines) > 0 {
		return in.Lines[0].Amount
	}
	total := decimal.Zero
	for _, p := range in.MatchedPairs {
		total = total.Add(p.Auth.Amount.Abs())
	}
	return total
}

func billNumberOf(in models.TransactionIntent) string {
	for _, p := range in.MatchedPairs {
		if p.Item.OriginalBillNumber != "" {
			return p.Item.OriginalBillNumber
		}
	}
	return ""
}
