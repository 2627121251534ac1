package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tolerances holds the coordinate and money tolerances the extraction
// pipeline runs with. The y-constants differ between steps in the source
// invoice family and are kept separate on purpose; do not unify them.
type Tolerances struct {
	// RowAlignY: two tokens within this vertical distance sit on the same row.
	RowAlignY float64 `yaml:"row_align_y"`
	// NextLineMaxY: how far strictly below a token its continuation line may be.
	NextLineMaxY float64 `yaml:"next_line_max_y"`
	// ColumnBandX: how far a token's x may drift from a column header's x.
	ColumnBandX float64 `yaml:"column_band_x"`
	// Amount: money comparison tolerance for reconciliation.
	Amount string `yaml:"amount"`
}

// Vocabulary is the immutable classification configuration: which codes are
// vendor-credit eligible, which patterns mark journal entries, and which
// codes are deliberate short-ship skips.
type Vocabulary struct {
	VendorCreditCodes  []string `yaml:"vendor_credit_codes"`
	JournalPatterns    []string `yaml:"journal_patterns"`
	ShortShipCodes     []string `yaml:"short_ship_codes"`
	CompleteCodes      []string `yaml:"complete_codes"`
	ContinuationCodes  []string `yaml:"continuation_codes"`
	DescriptionPrefix  []string `yaml:"description_prefixes"`
	BillNumberPrefixes []string `yaml:"bill_number_prefixes"` // strict priority order
}

// Columns names the table headers the Column Locator searches for.
type Columns struct {
	CodeHeaders        []string `yaml:"code_headers"`
	AmountHeader       string   `yaml:"amount_header"`
	DescriptionHeader  string   `yaml:"description_header"`
	CodeHeaderPrefixes []string `yaml:"code_header_prefixes"`
}

// Database holds the authorization-store connection settings.
type Database struct {
	URL string `yaml:"url"`
}

// Scheduler holds the inbox-watcher settings.
type Scheduler struct {
	Cron       string `yaml:"cron"`
	InboxDir   string `yaml:"inbox_dir"`
	ArchiveDir string `yaml:"archive_dir"`
	ReportDir  string `yaml:"report_dir"`
}

// Config is the full application configuration, loaded from YAML with
// environment overrides applied in main.
type Config struct {
	Tolerances Tolerances `yaml:"tolerances"`
	Vocabulary Vocabulary `yaml:"vocabulary"`
	Columns    Columns    `yaml:"columns"`
	Database   Database   `yaml:"database"`
	Scheduler  Scheduler  `yaml:"scheduler"`
	ListenAddr string     `yaml:"listen_addr"`
}

// Default returns the configuration for the supported invoice family.
// All values can be overridden from a YAML file; the constants come from
// observed renders of that family, not from any general rule.
func Default() *Config {
	return &Config{
		Tolerances: Tolerances{
			RowAlignY:    2,
			NextLineMaxY: 15,
			ColumnBandX:  5,
			Amount:       "0.01",
		},
		Vocabulary: Vocabulary{
			VendorCreditCodes: []string{"CONCDA", "CONCDAM", "NF", "CORE", "CONCES", "CONCESSION"},
			JournalPatterns:   []string{`^J\d{4,6}$`, `^INV\d+$`},
			ShortShipCodes:    []string{"SHORT", "BOX"},
			CompleteCodes: []string{
				`^CONCDA$`, `^CONCDAM$`, `^NF$`, `^CORE$`, `^CONCES$`, `^CONCESSION$`,
				`^J\d{4,6}$`, `^INV\d+$`, `^SHORT$`, `^BOX$`,
			},
			ContinuationCodes:  []string{`^INV\d+$`, `^J\d+$`, `^CONCES$`},
			DescriptionPrefix:  []string{"CONCDA", "CONCES", "CORE", "INV", "SHORT", "BOX", "NF"},
			BillNumberPrefixes: []string{"HN", "W", "N"},
		},
		Columns: Columns{
			CodeHeaders:        []string{"NARDA", "NARDA #"},
			CodeHeaderPrefixes: []string{"NARDA"},
			AmountHeader:       "TOTAL",
			DescriptionHeader:  "DESCRIPTION",
		},
		Scheduler: Scheduler{
			Cron:       "*/5 * * * *",
			InboxDir:   "./inbox",
			ArchiveDir: "./archive",
			ReportDir:  "./reports",
		},
		ListenAddr: ":8080",
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}
