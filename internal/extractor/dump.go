package extractor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/creditops/warranty-credit-processor/internal/models"
)

// ReadTokenDump parses a JSON array of positioned tokens, the format the
// API accepts when callers extract text themselves. Tokens with empty
// text are dropped.
func ReadTokenDump(r io.Reader) ([]models.PositionedToken, error) {
	var raw []models.PositionedToken
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode token dump: %w", err)
	}

	tokens := raw[:0]
	for _, t := range raw {
		if t.Text == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// ReadTokenDumpFile reads a token dump from disk.
func ReadTokenDumpFile(path string) ([]models.PositionedToken, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token dump %q: %w", path, err)
	}
	defer f.Close()

	tokens, err := ReadTokenDump(f)
	if err != nil {
		return nil, fmt.Errorf("read token dump %q: %w", path, err)
	}
	return tokens, nil
}
