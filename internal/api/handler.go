// Package api exposes the processing pipeline over HTTP.
package api

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/creditops/warranty-credit-processor/internal/csvsource"
	"github.com/creditops/warranty-credit-processor/internal/extractor"
	"github.com/creditops/warranty-credit-processor/internal/models"
	"github.com/creditops/warranty-credit-processor/internal/pipeline"
	"github.com/creditops/warranty-credit-processor/internal/writer"
)

const version = "1.0.0"

// ProcessResponse is the JSON response from the /api/process endpoint.
type ProcessResponse struct {
	Success     bool                   `json:"success"`
	Error       string                 `json:"error,omitempty"`
	Result      *models.DocumentResult `json:"result,omitempty"`
	CSV         string                 `json:"csv,omitempty"`
	IntentCount int                    `json:"intentCount"`
	SkipCount   int                    `json:"skipCount"`
	Version     string                 `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Pipeline *pipeline.Pipeline
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", HandleHealth)
	app.Post("/api/process", h.HandleProcess)
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

// HandleProcess accepts one uploaded document and runs the full
// pipeline over it. PDF uploads go through token extraction; .csv and
// .xlsx uploads are read as vendor return files. Callers that extract
// text themselves can post a JSON token dump in the "tokens" form field
// instead of relying on server-side extraction.
func (h *Handler) HandleProcess(c *fiber.Ctx) error {
	defer func() {
		if rec := recover(); rec != nil {
			c.Status(fiber.StatusInternalServerError).JSON(ProcessResponse{
				Success: false,
				Error:   fmt.Sprintf("internal error (recovered): %v", rec),
			})
		}
	}()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	docID := fileHeader.Filename
	ext := strings.ToLower(filepath.Ext(docID))

	var result *models.DocumentResult
	switch {
	case c.FormValue("tokens") != "":
		tokens, err := extractor.ReadTokenDump(strings.NewReader(c.FormValue("tokens")))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Bad token dump: %v", err))
		}
		result = h.Pipeline.ProcessTokens(c.Context(), docID, tokens)

	case ext == ".pdf":
		tokens, err := tokensFromUpload(c, fileHeader.Filename)
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
		}
		result = h.Pipeline.ProcessTokens(c.Context(), docID, tokens)

	case ext == ".csv" || ext == ".xlsx":
		rows, err := rowsFromUpload(c, ext)
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("Return file parse failed: %v", err))
		}
		result = h.Pipeline.ProcessCreditRows(c.Context(), strings.TrimSuffix(docID, ext), rows)

	default:
		return writeError(c, fiber.StatusBadRequest, "Only .pdf, .csv, and .xlsx files are supported.")
	}

	includeHeader := c.FormValue("header") != "false"
	var csvBuf bytes.Buffer
	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := w.Write(&csvBuf, result); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Report generation failed: %v", err))
	}

	return c.JSON(ProcessResponse{
		Success:     true,
		Result:      result,
		CSV:         csvBuf.String(),
		IntentCount: len(result.Intents),
		SkipCount:   len(result.Skips),
		Version:     version,
	})
}

// tokensFromUpload spools the PDF to a temp file for the extractor,
// which needs random access.
func tokensFromUpload(c *fiber.Ctx, filename string) ([]models.PositionedToken, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", filename, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "invoice-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	tmp.Close()

	return extractor.ExtractTokens(tmp.Name())
}

func rowsFromUpload(c *fiber.Ctx, ext string) ([]models.CreditRow, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if ext == ".csv" {
		return csvsource.ReadCSV(src)
	}

	// excelize needs a file on disk for large workbooks; spool it.
	tmp, err := os.CreateTemp("", "return-*.xlsx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	tmp.Close()

	return csvsource.ReadXLSXFile(tmp.Name())
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ProcessResponse{
		Success: false,
		Error:   msg,
	})
}
