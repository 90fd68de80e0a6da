// =============================================================================
// Meal Voucher Generator - Pipeline Orchestrator
// =============================================================================
//
// This module runs the voucher pipeline end to end:
//
//   1. Read the export into rows (csvparser)
//   2. Filter and compute records (rules)
//   3. Inspect rows and records for warnings (validation)
//   4. Group records by room and booking
//   5. Render the voucher blocks and the printable page (htmlwriter)
//
// Every run is independent: rendering the same rows twice gives the same
// output, and the previous run leaves nothing behind.
//
// ERROR HANDLING:
//   - An unreadable input is an error.
//   - An input with no eligible row yields a Result with the empty-state page
//     together with ErrNoEligibleRecords, so callers can tell the two apart.
//
// =============================================================================

package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/csvparser"
	"github.com/ginjaninja78/meal-vouchers/internal/htmlwriter"
	"github.com/ginjaninja78/meal-vouchers/internal/rules"
	"github.com/ginjaninja78/meal-vouchers/internal/types"
	"github.com/ginjaninja78/meal-vouchers/internal/validation"
)

// ErrNoEligibleRecords is returned when no row qualifies for a voucher under
// the active tier.
var ErrNoEligibleRecords = errors.New("no eligible records for the active tier")

// =============================================================================
// RESULT TYPES
// =============================================================================

// ProcessingStats summarizes one run.
type ProcessingStats struct {
	RowsParsed      int
	CombinedRows    int
	SplitRows       int
	EligibleRecords int
	Vouchers        int
	Warnings        int
	ProcessingTime  time.Duration
}

// Result holds everything a run produced.
type Result struct {
	// Rows are the parsed rows, kept so the run can be repeated under
	// another tier without re-reading the input.
	Rows []csvparser.Row

	// Records are the eligible records, in input order.
	Records []types.ProcessedRecord

	// Groups are the vouchers, in first-seen order.
	Groups []types.VoucherGroup

	// Fragment is the voucher blocks alone.
	Fragment []byte

	// Document is the standalone printable page.
	Document []byte

	// Warnings are the inspection findings.
	Warnings []validation.Warning

	Stats ProcessingStats
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter runs the pipeline for one configuration.
type Converter struct {
	cfg    *config.Config
	logger *zap.Logger
	page   htmlwriter.PageOptions
}

// New creates a Converter. A nil logger discards log output.
func New(cfg *config.Config, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		cfg:    cfg,
		logger: logger,
	}
}

// WithPageOptions returns a copy of the converter that renders its page with
// options.
func (c *Converter) WithPageOptions(options htmlwriter.PageOptions) *Converter {
	clone := *c
	clone.page = options
	return &clone
}

// Config returns the configuration the converter runs with.
func (c *Converter) Config() *config.Config {
	return c.cfg
}

// Run reads an export and runs the pipeline on it.
//
// PARAMETERS:
//   - r: The export contents.
//
// RETURNS:
//   - The run result. It is non-nil whenever the input could be read.
//   - ErrNoEligibleRecords if no row qualified, or a read/render error.
func (c *Converter) Run(r io.Reader) (*Result, error) {
	rows, err := csvparser.Parse(r, c.cfg.CSV)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	return c.RunRows(rows)
}

// RunBytes runs the pipeline on export bytes.
func (c *Converter) RunBytes(data []byte) (*Result, error) {
	return c.Run(bytes.NewReader(data))
}

// RunRows runs every stage after parsing on rows.
func (c *Converter) RunRows(rows []csvparser.Row) (*Result, error) {
	start := time.Now()
	layouts := csvparser.CountByLayout(rows)

	c.logger.Info("parsed export",
		zap.Int("rows", len(rows)),
		zap.Int("combined_name", layouts[csvparser.LayoutCombinedName]),
		zap.Int("split_name", layouts[csvparser.LayoutSplitName]),
	)

	records := rules.New(c.cfg, c.logger).Process(rows)
	warnings := validation.Inspect(rows, records)
	for _, w := range warnings {
		c.logger.Warn("validation finding",
			zap.String("rule", w.Rule),
			zap.String("severity", w.Severity),
			zap.Int("line", w.Line),
			zap.String("field", w.Field),
			zap.String("value", w.Value),
		)
	}

	groups := Group(records, c.cfg)

	fragment, err := htmlwriter.Generate(groups, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render vouchers: %w", err)
	}
	document, err := htmlwriter.GeneratePage(fragment, c.cfg, c.page)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	result := &Result{
		Rows:     rows,
		Records:  records,
		Groups:   groups,
		Fragment: fragment,
		Document: document,
		Warnings: warnings,
		Stats: ProcessingStats{
			RowsParsed:      len(rows),
			CombinedRows:    layouts[csvparser.LayoutCombinedName],
			SplitRows:       layouts[csvparser.LayoutSplitName],
			EligibleRecords: len(records),
			Vouchers:        len(groups),
			Warnings:        len(warnings),
			ProcessingTime:  time.Since(start),
		},
	}

	c.logger.Info("rendered vouchers",
		zap.String("tier", string(c.cfg.Tier)),
		zap.Int("eligible", len(records)),
		zap.Int("vouchers", len(groups)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", result.Stats.ProcessingTime),
	)

	if len(records) == 0 {
		return result, ErrNoEligibleRecords
	}
	return result, nil
}
