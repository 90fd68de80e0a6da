// =============================================================================
// Meal Voucher Generator - Render Command
// =============================================================================
//
// This file defines the 'render' command, which turns reservation exports
// into printable voucher documents.
//
// COMMAND USAGE:
//   vouchers render --file export.csv [flags]
//   vouchers render --dir ./exports [flags]
//
// FLAGS:
//   --file     : Export to render (repeatable)
//   --dir      : Render every *.csv in a directory
//   --out      : Output directory (overrides output.dir)
//   --xlsx     : Also write an XLSX roster next to each document
//   --stdout   : Write the document to standard output instead of a file
//   --dry-run  : Run the pipeline without writing anything
//
// PROCESSING PIPELINE (per export, exports run concurrently):
//   1. Parse, filter, group and render (converter.Run)
//   2. Write the HTML document (and the roster when requested)
//   3. Write the diagnostics log when enabled and rows looked suspicious
//   4. Copy the export to the archive directory when configured
//   5. Add the export to the run summary
//
// An export without eligible rows still gets a document with the empty-state
// message; it is reported but does not fail the run.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/converter"
	"github.com/ginjaninja78/meal-vouchers/internal/validation"
	"github.com/ginjaninja78/meal-vouchers/internal/xlsxwriter"
	"github.com/ginjaninja78/meal-vouchers/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// renderFiles are the exports given with --file.
var renderFiles []string

// renderDir is a directory of exports given with --dir.
var renderDir string

// outDir overrides the configured output directory.
var outDir string

// writeRoster also writes the XLSX roster.
var writeRoster bool

// toStdout writes the document to standard output.
var toStdout bool

// dryRun runs the pipeline without writing output files.
var dryRun bool

// =============================================================================
// RENDER COMMAND DEFINITION
// =============================================================================

// renderCmd represents the 'render' command.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render printable vouchers from reservation exports",
	Long: `The render command reads one or more reservation exports and writes one
printable HTML document per export, containing a voucher for every room and
booking with guests entitled to meals under the active tier.

Exports are processed concurrently; a failure in one export does not stop
the others. A summary report is written to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringSliceVarP(&renderFiles, "file", "f", nil, "Export to render (repeatable)")
	renderCmd.Flags().StringVar(&renderDir, "dir", "", "Render every *.csv file in this directory")
	renderCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from config, ./output)")
	renderCmd.Flags().BoolVar(&writeRoster, "xlsx", false, "Also write an XLSX roster next to each document")
	renderCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the document to standard output (single export only)")
	renderCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing output files")
}

// =============================================================================
// MAIN RENDER FUNCTION
// =============================================================================

// fileResult is the outcome of rendering one export.
type fileResult struct {
	index  int
	input  string
	info   utils.ProcessedFileInfo
	result *converter.Result
	err    error
}

// runRender orchestrates rendering of every requested export.
func runRender(cmd *cobra.Command) error {
	startTime := time.Now()
	cfg := appConfig
	out := cmd.OutOrStdout()

	inputs, err := collectInputs(renderFiles, renderDir)
	if err != nil {
		return err
	}
	if toStdout && len(inputs) != 1 {
		return fmt.Errorf("--stdout needs exactly one export, got %d", len(inputs))
	}

	fm := utils.NewFileManager(cfg.Output.Dir, cfg.Output.ArchiveDir)
	fm.UseTimestampSubdirs = cfg.Output.ArchiveByDate
	if outDir != "" {
		fm.OutputDir = outDir
	}
	if !dryRun && !toStdout {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	logger.Info("rendering exports",
		zap.Int("files", len(inputs)),
		zap.String("tier", string(cfg.Tier)),
		zap.String("output_dir", fm.OutputDir),
		zap.Bool("dry_run", dryRun),
	)

	conv := converter.New(cfg, logger)

	var wg sync.WaitGroup
	results := make(chan fileResult, len(inputs))

	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			result := renderFile(conv, fm, input)
			result.index = i
			results <- result
		}(i, input)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	summary := utils.ProcessingSummary{StartTime: startTime, Tier: string(cfg.Tier)}

	var collected []fileResult
	for result := range results {
		collected = append(collected, result)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})

	for _, r := range collected {
		name := filepath.Base(r.input)
		switch {
		case r.err != nil:
			summary.Fail(r.input, r.err)
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.err)
		case toStdout:
			summary.Add(r.info, r.result.Stats.EligibleRecords)
			out.Write(r.result.Document)
		default:
			summary.Add(r.info, r.result.Stats.EligibleRecords)
			target := r.info.OutputFile
			if dryRun {
				target = "(dry run)"
			}
			fmt.Fprintf(out, "  ✓ %s -> %s (%d vouchers, %d warnings)\n",
				name, target, r.info.Vouchers, r.info.Warnings)
		}
	}

	summary.EndTime = time.Now()

	if toStdout {
		return firstError(collected)
	}

	fmt.Fprintln(out, "\n=== Rendering Complete ===")
	fmt.Fprintf(out, "Tier:            %s\n", tierLabel(cfg.Tier))
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Vouchers:        %d\n", summary.Vouchers)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, fm.OutputDir)
		if err != nil {
			logger.Warn("failed to write summary", zap.Error(err))
		} else {
			logger.Debug("summary written", zap.String("path", path))
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d export(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// renderFile runs the pipeline on one export and writes its outputs.
func renderFile(conv *converter.Converter, fm *utils.FileManager, input string) fileResult {
	start := time.Now()
	cfg := conv.Config()

	file, err := os.Open(input)
	if err != nil {
		return fileResult{input: input, err: fmt.Errorf("failed to open export: %w", err)}
	}
	defer file.Close()

	result, err := conv.Run(file)
	if err != nil && !errors.Is(err, converter.ErrNoEligibleRecords) {
		return fileResult{input: input, err: err}
	}
	if errors.Is(err, converter.ErrNoEligibleRecords) {
		logger.Warn("no eligible records",
			zap.String("file", input),
			zap.String("tier", string(cfg.Tier)),
		)
	}

	info := utils.ProcessedFileInfo{
		InputFile: input,
		Rows:      result.Stats.RowsParsed,
		Vouchers:  result.Stats.Vouchers,
		Warnings:  result.Stats.Warnings,
	}

	if dryRun || toStdout {
		info.ProcessTime = time.Since(start)
		return fileResult{input: input, info: info, result: result}
	}

	name := utils.GenerateOutputFileName(cfg.Output.FileNameFormat, map[string]string{
		"tier":     string(cfg.Tier),
		"original": utils.BaseName(input),
	})
	info.OutputFile, err = fm.WriteOutput(name, result.Document)
	if err != nil {
		return fileResult{input: input, err: err}
	}

	if writeRoster || cfg.Output.Roster {
		info.RosterFile, err = writeRosterFile(result, fm.OutputPath(utils.ReplaceExtension(name, ".xlsx")))
		if err != nil {
			return fileResult{input: input, err: err}
		}
	}

	if cfg.Output.Diagnostics && len(result.Warnings) > 0 {
		logPath := fm.OutputPath(utils.ReplaceExtension(name, ".log"))
		if err := validation.WriteLog(result.Warnings, logPath); err != nil {
			logger.Warn("failed to write diagnostics", zap.String("file", input), zap.Error(err))
		}
	}

	info.ArchivePath, err = fm.ArchiveInputFile(input)
	if err != nil {
		logger.Warn("failed to archive export", zap.String("file", input), zap.Error(err))
	}

	info.ProcessTime = time.Since(start)
	return fileResult{input: input, info: info, result: result}
}

// writeRosterFile writes the roster workbook of a run to path.
func writeRosterFile(result *converter.Result, path string) (string, error) {
	roster, err := xlsxwriter.Build(result.Groups)
	if err != nil {
		return "", err
	}
	defer roster.Close()

	if err := roster.Write(path); err != nil {
		return "", err
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// collectInputs merges --file values with the exports found by --dir.
func collectInputs(files []string, dir string) ([]string, error) {
	inputs := append([]string(nil), files...)

	if dir != "" {
		found, err := utils.DiscoverInputFiles(dir, "")
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, found...)
	}

	if len(inputs) == 0 {
		return nil, errors.New("no export given (use --file or --dir)")
	}
	return inputs, nil
}

// firstError returns the first failure among results.
func firstError(results []fileResult) error {
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

// tierLabel returns the human name of a tier.
func tierLabel(tier config.Tier) string {
	switch tier {
	case config.TierMAP:
		return "MAP (media pensión)"
	case config.TierPC:
		return "PC (pensión completa)"
	default:
		return string(tier)
	}
}
